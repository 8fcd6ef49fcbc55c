// Package engine builds transformations from a Configuration and runs the
// damped fixed-point iteration that derives per-item costs.
package engine

import (
	"math"
	"sort"

	"github.com/ironforge/factory-valuation/pkg/valuation"
)

// Engine owns the transformation set derived from one Configuration and
// runs cost valuation against it. It is built once and is read-only
// thereafter: mutating the source Configuration has no effect on it.
type Engine struct {
	config          *valuation.Configuration
	recipes         map[string]valuation.Recipe
	transformations []Transformation
}

// New validates cfg and builds the transformation set. It returns a
// *valuation.ConfigError if a recipe has a non-positive time, a machine has
// a non-positive speed, or recipe expansion collides on names, and
// otherwise never fails: unbuildable recipes (unknown category, disallowed
// module/beacon combination) are silently skipped.
func New(cfg *valuation.Configuration) (*Engine, error) {
	if err := validateConfiguration(cfg); err != nil {
		return nil, err
	}

	recipes, err := expandRecipes(cfg)
	if err != nil {
		return nil, err
	}

	// Deterministic build order: iterate recipes sorted by name (expansion
	// returns a map, whose iteration order is not stable in Go) and machine
	// settings in configured order, so that
	// transformation order — and therefore tie-break order in the
	// iteration below — is reproducible across runs.
	names := make([]string, 0, len(recipes))
	for name := range recipes {
		names = append(names, name)
	}
	sort.Strings(names)

	transformations := make([]Transformation, 0, len(recipes)*len(cfg.MachineSettingsAvailable))
	for _, name := range names {
		recipe := recipes[name]
		machine, ok := cfg.Machines[recipe.Category]
		if !ok {
			continue
		}

		for _, settings := range cfg.MachineSettingsAvailable {
			usesProd := settings.Module.Productivity > 0 ||
				(settings.Beacon != nil && settings.Beacon.Effect.Productivity > 0)
			if usesProd && !recipe.AllowProductivity {
				continue
			}

			usesQuality := settings.Module.Quality > 0 ||
				(settings.Beacon != nil && settings.Beacon.Effect.Quality > 0)
			if usesQuality && (!cfg.EnableQuality || !recipe.AllowQuality) {
				continue
			}

			transformations = append(transformations, buildTransformation(
				recipe.Name+" ["+settings.Name+"]",
				recipe, machine, settings, cfg.RecipeBonuses, cfg.MiningProductivity,
			))
		}
	}

	configCopy := *cfg
	return &Engine{config: &configCopy, recipes: recipes, transformations: transformations}, nil
}

// Transformations returns the engine's derived transformation set, in
// construction order.
func (e *Engine) Transformations() []Transformation {
	return e.transformations
}

// ComputeAllCosts runs the fixed-point iteration for the given number of
// rounds (clamped to [1,1000]) and returns one ItemCost per item present
// in the terminal cost map, each with its sorted list of contributing
// transformation costs.
func (e *Engine) ComputeAllCosts(iterations int) []valuation.ItemCost {
	iterations = clampIterations(iterations)

	itemCosts := make(map[valuation.Item]float64)
	for _, t := range e.transformations {
		for item := range t.InputsPerSec {
			itemCosts[item] = e.config.ResourceBaseCost
		}
		for item := range t.OutputsPerSec {
			itemCosts[item] = e.config.ResourceBaseCost
		}
	}

	for i := 0; i < iterations; i++ {
		itemCosts, _ = e.iterate(itemCosts, false)
	}
	finalCosts, transformCosts := e.iterate(itemCosts, true)

	results := make([]valuation.ItemCost, 0, len(finalCosts))
	for item, cost := range finalCosts {
		results = append(results, valuation.ItemCost{
			Item:                item,
			Cost:                cost,
			TransformationCosts: transformCosts[item],
		})
	}
	return results
}

// iterate computes new_costs from costs without mutating costs. When
// recordTransforms is true it also returns, per item, the ascending-sorted
// list of (transformation name, candidate value) pairs produced this
// round.
func (e *Engine) iterate(costs map[valuation.Item]float64, recordTransforms bool) (map[valuation.Item]float64, map[valuation.Item][]valuation.TransformationValue) {
	newCosts := make(map[valuation.Item]float64, len(costs))
	var transformCosts map[valuation.Item][]valuation.TransformationValue
	if recordTransforms {
		transformCosts = make(map[valuation.Item][]valuation.TransformationValue)
	}

	for _, t := range e.transformations {
		totalInputCost := weightedSum(costs, t.InputsPerSec)
		totalOutputCost := weightedSum(costs, t.OutputsPerSec)

		timeCost := e.config.MachineTimeCost
		if t.Recipe.IsMining {
			timeCost *= 10
		}

		for item := range t.OutputsPerSec {
			discount := 0.0
			if e.config.EnableRecycling {
				for other, otherCount := range t.OutputsPerSec {
					if other.Name == item.Name && other.Quality > item.Quality {
						discount += costs[other] * otherCount
					}
				}
				discount *= 0.25
				if totalOutputCost > 0 {
					discount *= totalInputCost / totalOutputCost
				} else {
					discount = 0
				}
				// 0*Inf or Inf/Inf from an infinite input or output cost.
				if math.IsNaN(discount) {
					discount = 0
				}
			}

			count := 0.0
			for other, otherCount := range t.OutputsPerSec {
				if other.Name == item.Name && other.Quality >= item.Quality {
					count += otherCount
				}
			}

			candidate := (timeCost + totalInputCost - discount) / count
			if math.IsNaN(candidate) {
				// Only reachable through an infinite input cost (Inf-Inf or
				// Inf*0), so this source cannot currently produce the item.
				candidate = math.Inf(1)
			}

			if candidate < getOrInf(newCosts, item) {
				newCosts[item] = candidate
			}

			if recordTransforms {
				transformCosts[item] = append(transformCosts[item], valuation.TransformationValue{
					Transformation: t.Name,
					Value:          candidate,
				})
			}
		}
	}

	for item := range costs {
		if _, ok := newCosts[item]; !ok {
			newCosts[item] = math.Inf(1)
		}
	}
	newCosts[valuation.BaseResource] = e.config.ResourceBaseCost

	if recordTransforms {
		for _, list := range transformCosts {
			sort.Slice(list, func(i, j int) bool { return list[i].Value < list[j].Value })
		}
	}

	return newCosts, transformCosts
}

func weightedSum(costs map[valuation.Item]float64, counts valuation.ItemCounts) float64 {
	total := 0.0
	for item, count := range counts {
		total += costs[item] * count
	}
	return total
}

func getOrInf(m map[valuation.Item]float64, item valuation.Item) float64 {
	if v, ok := m[item]; ok {
		return v
	}
	return math.Inf(1)
}

func clampIterations(iterations int) int {
	switch {
	case iterations < 1:
		return 1
	case iterations > 1000:
		return 1000
	default:
		return iterations
	}
}
