package basket

import (
	"sort"

	"github.com/sellsight/analytics/internal/domain"
)

// deriveRules expands every frequent itemset of size two or more into
// candidate rules: each non-empty proper subset as antecedent, its complement
// as consequent. Confidence is support(itemset)/support(antecedent) and lift
// normalizes it by the consequent's base rate.
func (m *Miner) deriveRules(frequent []domain.Itemset, support map[string]float64) []domain.AssociationRule {
	rules := []domain.AssociationRule{}

	for _, itemset := range frequent {
		k := len(itemset.Items)
		if k < 2 {
			continue
		}

		// Subsets via bitmask; k is capped at MaxItemsetSize so this stays
		// small.
		for mask := 1; mask < (1<<k)-1; mask++ {
			antecedent := make([]string, 0, k-1)
			consequent := make([]string, 0, k-1)
			for i, item := range itemset.Items {
				if mask&(1<<i) != 0 {
					antecedent = append(antecedent, item)
				} else {
					consequent = append(consequent, item)
				}
			}

			antSupport, ok := support[itemKey(antecedent)]
			if !ok || antSupport == 0 {
				continue
			}
			confidence := itemset.Support / antSupport
			if confidence < m.MinConfidence {
				continue
			}

			var lift float64
			if conSupport := support[itemKey(consequent)]; conSupport > 0 {
				lift = confidence / conSupport
			}

			rules = append(rules, domain.AssociationRule{
				Antecedents: antecedent,
				Consequents: consequent,
				Support:     itemset.Support,
				Confidence:  confidence,
				Lift:        lift,
			})
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Confidence != rules[j].Confidence {
			return rules[i].Confidence > rules[j].Confidence
		}
		if rules[i].Lift != rules[j].Lift {
			return rules[i].Lift > rules[j].Lift
		}
		return itemKey(rules[i].Antecedents) < itemKey(rules[j].Antecedents)
	})
	return rules
}
