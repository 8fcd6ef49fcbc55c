package engine

import (
	"strconv"
	"strings"

	"github.com/ironforge/factory-valuation/pkg/valuation"
)

// expandQuality clones each quality-eligible recipe across all five
// quality tiers. A recipe is quality-eligible iff it has at least one
// non-fluid input and at least one non-fluid output and does not consume
// BaseResource (raw extraction cannot itself be quality-scaled).
func expandQuality(recipes []valuation.Recipe) []valuation.Recipe {
	result := make([]valuation.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		if !isQualityEligible(recipe) {
			result = append(result, recipe)
			continue
		}

		for quality := valuation.MinQuality; quality <= valuation.MaxQuality; quality++ {
			clone := recipe
			clone.Name = recipeNameForQuality(recipe.Name, quality)
			clone.Quality = quality
			clone.Inputs = rewriteQuality(recipe.Inputs, quality)
			clone.Outputs = rewriteQuality(recipe.Outputs, quality)
			clone.OutputsNoProductivity = rewriteQuality(recipe.OutputsNoProductivity, quality)
			result = append(result, clone)
		}
	}
	return result
}

func isQualityEligible(r valuation.Recipe) bool {
	if _, ok := r.Inputs[valuation.BaseResource]; ok {
		return false
	}
	return hasNonFluid(r.Inputs) && hasNonFluid(r.Outputs)
}

func hasNonFluid(counts valuation.ItemCounts) bool {
	for item := range counts {
		if !item.IsFluid {
			return true
		}
	}
	return false
}

func rewriteQuality(counts valuation.ItemCounts, quality int) valuation.ItemCounts {
	out := make(valuation.ItemCounts, len(counts))
	for item, count := range counts {
		out[valuation.MakeItem(item.Name, quality, item.IsFluid)] = count
	}
	return out
}

func recipeNameForQuality(name string, quality int) string {
	return name + "-q" + strconv.Itoa(quality)
}

// filterRecycling drops recipes whose name contains "-recycling" unless
// enableRecycling is set or the name also contains "scrap" (scrap
// recycling is the sole seed of many items and is always kept).
func filterRecycling(recipes []valuation.Recipe, enableRecycling bool) []valuation.Recipe {
	if enableRecycling {
		return recipes
	}
	result := make([]valuation.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if strings.Contains(r.Name, "-recycling") && !strings.Contains(r.Name, "scrap") {
			continue
		}
		result = append(result, r)
	}
	return result
}

// expandRecipes applies quality expansion (if enabled) and the recycling
// filter, and returns a name -> Recipe map. Returns a *valuation.ConfigError
// if two recipes collide on name after expansion.
func expandRecipes(cfg *valuation.Configuration) (map[string]valuation.Recipe, error) {
	recipes := cfg.Recipes
	if cfg.EnableQuality {
		recipes = expandQuality(recipes)
	}
	recipes = filterRecycling(recipes, cfg.EnableRecycling)

	byName := make(map[string]valuation.Recipe, len(recipes))
	for _, r := range recipes {
		if _, exists := byName[r.Name]; exists {
			return nil, &valuation.ConfigError{Reason: "duplicate recipe name after expansion: " + r.Name}
		}
		byName[r.Name] = r
	}
	return byName, nil
}
