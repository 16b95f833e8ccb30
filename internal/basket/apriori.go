package basket

import (
	"sort"
	"strings"

	"github.com/sellsight/analytics/internal/domain"
)

// Defaults for the mining thresholds and the itemset size ceiling. Rule
// generation enumerates subsets, which is exponential in itemset size, so
// itemsets are capped.
const (
	DefaultMinSupport     = 0.01
	DefaultMinConfidence  = 0.5
	DefaultMaxItemsetSize = 4
)

// Miner mines frequent itemsets and association rules from co-purchase
// transactions using level-wise Apriori candidate generation.
type Miner struct {
	MinSupport     float64
	MinConfidence  float64
	MaxItemsetSize int
}

func NewMiner(minSupport, minConfidence float64, maxItemsetSize int) *Miner {
	if minSupport <= 0 {
		minSupport = DefaultMinSupport
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	if maxItemsetSize < 2 {
		maxItemsetSize = DefaultMaxItemsetSize
	}
	return &Miner{
		MinSupport:     minSupport,
		MinConfidence:  minConfidence,
		MaxItemsetSize: maxItemsetSize,
	}
}

// Mine returns the frequent itemsets and the rules derived from them. An
// empty transaction set, or thresholds nothing clears, yields empty slices;
// that is a valid reportable outcome, not an error.
func (m *Miner) Mine(txns []domain.Transaction) ([]domain.Itemset, []domain.AssociationRule) {
	if len(txns) == 0 {
		return []domain.Itemset{}, []domain.AssociationRule{}
	}

	// Item-presence encoding: one set per transaction.
	presence := make([]map[string]struct{}, len(txns))
	for i, txn := range txns {
		set := make(map[string]struct{}, len(txn))
		for _, item := range txn {
			set[item] = struct{}{}
		}
		presence[i] = set
	}
	total := float64(len(txns))

	// support holds frequency for every frequent itemset, keyed on the
	// sorted item list. Subsets of a frequent itemset are themselves
	// frequent, so every antecedent lookup during rule derivation hits.
	support := make(map[string]float64)
	var frequent []domain.Itemset

	// Level 1: frequent single items.
	counts := make(map[string]int)
	for _, set := range presence {
		for item := range set {
			counts[item]++
		}
	}
	var level [][]string
	for item, count := range counts {
		s := float64(count) / total
		if s >= m.MinSupport {
			level = append(level, []string{item})
			support[item] = s
			frequent = append(frequent, domain.Itemset{Items: []string{item}, Support: s})
		}
	}
	sortItemsets(level)

	// Level k: join candidates from level k-1, prune by the closure
	// invariant, then count supports against the transactions.
	for k := 2; k <= m.MaxItemsetSize && len(level) > 1; k++ {
		candidates := joinCandidates(level)
		var next [][]string
		for _, cand := range candidates {
			if !allSubsetsFrequent(cand, support) {
				continue
			}
			count := 0
			for _, set := range presence {
				if containsAll(set, cand) {
					count++
				}
			}
			s := float64(count) / total
			if s >= m.MinSupport {
				next = append(next, cand)
				support[itemKey(cand)] = s
				frequent = append(frequent, domain.Itemset{Items: cand, Support: s})
			}
		}
		level = next
	}

	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].Support != frequent[j].Support {
			return frequent[i].Support > frequent[j].Support
		}
		return itemKey(frequent[i].Items) < itemKey(frequent[j].Items)
	})

	rules := m.deriveRules(frequent, support)
	if frequent == nil {
		frequent = []domain.Itemset{}
	}
	return frequent, rules
}

// joinCandidates merges same-level itemsets sharing all but their last item.
// Inputs and outputs keep items sorted.
func joinCandidates(level [][]string) [][]string {
	var out [][]string
	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			a, b := level[i], level[j]
			if !samePrefix(a, b) {
				continue
			}
			cand := make([]string, len(a)+1)
			copy(cand, a)
			cand[len(a)] = b[len(b)-1]
			if cand[len(cand)-2] > cand[len(cand)-1] {
				cand[len(cand)-2], cand[len(cand)-1] = cand[len(cand)-1], cand[len(cand)-2]
			}
			out = append(out, cand)
		}
	}
	return out
}

func samePrefix(a, b []string) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// allSubsetsFrequent checks the Apriori closure: every (k-1)-subset of a
// candidate must already be frequent.
func allSubsetsFrequent(cand []string, support map[string]float64) bool {
	if len(cand) <= 2 {
		return true
	}
	sub := make([]string, 0, len(cand)-1)
	for skip := range cand {
		sub = sub[:0]
		for i, item := range cand {
			if i != skip {
				sub = append(sub, item)
			}
		}
		if _, ok := support[itemKey(sub)]; !ok {
			return false
		}
	}
	return true
}

func containsAll(set map[string]struct{}, items []string) bool {
	for _, item := range items {
		if _, ok := set[item]; !ok {
			return false
		}
	}
	return true
}

func itemKey(items []string) string {
	return strings.Join(items, "\x1f")
}

func sortItemsets(sets [][]string) {
	sort.Slice(sets, func(i, j int) bool {
		return itemKey(sets[i]) < itemKey(sets[j])
	})
}
