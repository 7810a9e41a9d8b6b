package adapt

import (
	"sort"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

// categoryWeights rank rule categories for count capping.
var categoryWeights = map[string]int{
	"core":          10,
	"security":      9,
	"architecture":  8,
	"testing":       7,
	"performance":   6,
	"api":           6,
	"database":      5,
	"framework":     5,
	"language":      5,
	"style":         4,
	"documentation": 3,
	"workflow":      3,
	"devops":        3,
	"general":       2,
}

// defaultCategoryWeight applies to categories missing from the table.
const defaultCategoryWeight = 2

// Bonus points on top of the category weight.
const (
	globsBonus       = 3
	alwaysApplyBonus = 5
)

// CategoryWeight returns the weight of a normalized category.
func CategoryWeight(category string) int {
	if w, ok := categoryWeights[category]; ok {
		return w
	}
	return defaultCategoryWeight
}

// Priority scores a rule for count capping.
func Priority(fm core.Frontmatter) int {
	p := CategoryWeight(fm.NormalizedCategory())
	if fm.HasGlobs() {
		p += globsBonus
	}
	if fm.AlwaysApply {
		p += alwaysApplyBonus
	}
	return p
}

type ranked struct {
	rule     core.Rule
	priority int
	index    int
}

// capRules keeps the maxCount highest priority rules, ties broken by id.
// Kept rules are returned in input order so rendering stays stable.
func capRules(rules []core.Rule, maxCount int) (kept []core.Rule, dropped []ranked) {
	if maxCount <= 0 || len(rules) <= maxCount {
		return rules, nil
	}

	order := make([]ranked, len(rules))
	for i, r := range rules {
		order[i] = ranked{rule: r, priority: Priority(r.Frontmatter), index: i}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].priority != order[j].priority {
			return order[i].priority > order[j].priority
		}
		return order[i].rule.ID < order[j].rule.ID
	})

	keep := make(map[int]bool, maxCount)
	for _, r := range order[:maxCount] {
		keep[r.index] = true
	}
	for i, r := range rules {
		if keep[i] {
			kept = append(kept, r)
		}
	}
	return kept, order[maxCount:]
}
