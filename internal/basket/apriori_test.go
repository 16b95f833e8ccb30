package basket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellsight/analytics/internal/domain"
)

func txns(sets ...[]string) []domain.Transaction {
	out := make([]domain.Transaction, len(sets))
	for i, s := range sets {
		out[i] = domain.Transaction(s)
	}
	return out
}

func findSupport(t *testing.T, itemsets []domain.Itemset, items ...string) float64 {
	t.Helper()
	for _, set := range itemsets {
		if itemKey(set.Items) == itemKey(items) {
			return set.Support
		}
	}
	t.Fatalf("itemset %v not found", items)
	return 0
}

func TestMineFrequentItemsets(t *testing.T) {
	// bread+milk in 3 of 4 transactions, bread+milk+eggs in 2.
	data := txns(
		[]string{"bread", "eggs", "milk"},
		[]string{"bread", "milk"},
		[]string{"bread", "eggs", "milk"},
		[]string{"butter"},
	)

	miner := NewMiner(0.5, 0.5, 4)
	itemsets, _ := miner.Mine(data)
	require.NotEmpty(t, itemsets)

	assert.InDelta(t, 0.75, findSupport(t, itemsets, "bread"), 1e-9)
	assert.InDelta(t, 0.75, findSupport(t, itemsets, "bread", "milk"), 1e-9)
	assert.InDelta(t, 0.5, findSupport(t, itemsets, "bread", "eggs", "milk"), 1e-9)

	// butter appears once: below the 0.5 threshold.
	for _, set := range itemsets {
		assert.NotContains(t, set.Items, "butter")
	}
}

func TestMineItemsetsSortedBySupport(t *testing.T) {
	data := txns(
		[]string{"a", "b"},
		[]string{"a", "b"},
		[]string{"a"},
		[]string{"b", "c"},
	)

	itemsets, _ := NewMiner(0.25, 0.5, 4).Mine(data)
	for i := 1; i < len(itemsets); i++ {
		assert.GreaterOrEqual(t, itemsets[i-1].Support, itemsets[i].Support)
	}
}

func TestRulesConfidenceAndLift(t *testing.T) {
	data := txns(
		[]string{"bread", "milk"},
		[]string{"bread", "milk"},
		[]string{"bread", "milk"},
		[]string{"bread"},
		[]string{"milk"},
	)

	_, rules := NewMiner(0.2, 0.5, 4).Mine(data)
	require.NotEmpty(t, rules)

	var breadToMilk *domain.AssociationRule
	for i := range rules {
		if itemKey(rules[i].Antecedents) == "bread" && itemKey(rules[i].Consequents) == "milk" {
			breadToMilk = &rules[i]
		}
	}
	require.NotNil(t, breadToMilk)

	// support(bread,milk)=0.6, support(bread)=0.8, support(milk)=0.8.
	assert.InDelta(t, 0.6, breadToMilk.Support, 1e-9)
	assert.InDelta(t, 0.75, breadToMilk.Confidence, 1e-9)
	assert.InDelta(t, 0.75/0.8, breadToMilk.Lift, 1e-9)
}

func TestRulesAreDisjointAndCoverItemset(t *testing.T) {
	data := txns(
		[]string{"a", "b", "c"},
		[]string{"a", "b", "c"},
		[]string{"a", "b"},
		[]string{"a", "c"},
	)

	_, rules := NewMiner(0.25, 0.1, 4).Mine(data)
	require.NotEmpty(t, rules)

	for _, rule := range rules {
		assert.NotEmpty(t, rule.Antecedents)
		assert.NotEmpty(t, rule.Consequents)
		seen := make(map[string]struct{})
		for _, item := range rule.Antecedents {
			seen[item] = struct{}{}
		}
		for _, item := range rule.Consequents {
			_, overlap := seen[item]
			assert.False(t, overlap, "antecedents and consequents must be disjoint")
		}
	}
}

func TestRulesRespectMinConfidence(t *testing.T) {
	data := txns(
		[]string{"a", "b"},
		[]string{"a"},
		[]string{"a"},
		[]string{"a"},
	)

	// confidence(a=>b) is 0.25, below the bar; confidence(b=>a) is 1.
	_, rules := NewMiner(0.2, 0.9, 4).Mine(data)
	for _, rule := range rules {
		assert.GreaterOrEqual(t, rule.Confidence, 0.9)
	}
}

func TestMineEmptyTransactions(t *testing.T) {
	itemsets, rules := NewMiner(0.01, 0.5, 4).Mine(nil)
	assert.NotNil(t, itemsets)
	assert.NotNil(t, rules)
	assert.Empty(t, itemsets)
	assert.Empty(t, rules)
}

func TestMineRespectsItemsetSizeCap(t *testing.T) {
	data := txns(
		[]string{"a", "b", "c", "d", "e"},
		[]string{"a", "b", "c", "d", "e"},
	)

	itemsets, _ := NewMiner(0.5, 0.5, 3).Mine(data)
	for _, set := range itemsets {
		assert.LessOrEqual(t, len(set.Items), 3)
	}
}

func TestNewMinerDefaults(t *testing.T) {
	m := NewMiner(0, 0, 0)
	assert.InDelta(t, DefaultMinSupport, m.MinSupport, 1e-9)
	assert.InDelta(t, DefaultMinConfidence, m.MinConfidence, 1e-9)
	assert.Equal(t, DefaultMaxItemsetSize, m.MaxItemsetSize)
}
