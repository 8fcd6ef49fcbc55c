package engine

import (
	"math"

	"github.com/ironforge/factory-valuation/pkg/valuation"
)

// Transformation is a Recipe x Machine x MachineSettings triple resolved
// to per-second input/output rate vectors. Immutable after construction.
type Transformation struct {
	Name            string
	Recipe          valuation.Recipe
	Machine         valuation.Machine
	MachineSettings valuation.MachineSettings
	InputsPerSec    valuation.ItemCounts
	OutputsPerSec   valuation.ItemCounts
}

// buildTransformation derives the per-second rate vectors for one
// (recipe, machine, machine settings) combination.
func buildTransformation(
	name string,
	recipe valuation.Recipe,
	machine valuation.Machine,
	settings valuation.MachineSettings,
	recipeBonuses valuation.BonusMap,
	miningBonus valuation.Bonus,
) Transformation {
	effect := settings.EffectTotal(machine).Add(recipeBonuses[recipe.Name])
	if recipe.IsMining {
		effect = effect.Add(miningBonus)
	}

	speedMul := valuation.Clamp(1.0+effect.Speed, 0.2, math.Inf(1))
	rate := machine.Speed * speedMul / recipe.Time

	inputsPerSec := make(valuation.ItemCounts, len(recipe.Inputs))
	for item, count := range recipe.Inputs {
		inputsPerSec[item] = count * rate
	}

	prodMul := valuation.Clamp(1.0+effect.Productivity, 0, 1.0+recipe.MaxProductivity)
	zeroQualityOutputs := make(valuation.ItemCounts, len(recipe.Outputs))
	for item, count := range recipe.Outputs {
		zeroQualityOutputs[item] = count * rate * prodMul
	}
	for item, count := range recipe.OutputsNoProductivity {
		zeroQualityOutputs[item] += count * rate
	}

	netCatalysts(inputsPerSec, zeroQualityOutputs, recipe.Outputs)

	quality := valuation.Clamp(effect.Quality, 0, math.Inf(1))
	outputsPerSec := redistributeQuality(zeroQualityOutputs, recipe.Quality, quality)

	return Transformation{
		Name:            name,
		Recipe:          recipe,
		Machine:         machine,
		MachineSettings: settings,
		InputsPerSec:    inputsPerSec,
		OutputsPerSec:   outputsPerSec,
	}
}

// netCatalysts nets out items that appear on both sides of a recipe: the
// signed remainder lands on whichever side had the larger rate, and both
// entries are dropped if they were equal. Comparison uses full Item
// identity; catalyst candidates are the recipe's declared (pre-quality)
// inputs/outputs, not the post-productivity rate map, matching the
// Python model's `set(inputs) & set(recipe.outputs)`.
func netCatalysts(inputsPerSec, zeroQualityOutputs valuation.ItemCounts, recipeOutputs valuation.ItemCounts) {
	for item := range inputsPerSec {
		if _, isOutput := recipeOutputs[item]; !isOutput {
			continue
		}
		in, out := inputsPerSec[item], zeroQualityOutputs[item]
		switch {
		case in > out:
			inputsPerSec[item] = in - out
			delete(zeroQualityOutputs, item)
		case in < out:
			zeroQualityOutputs[item] = out - in
			delete(inputsPerSec, item)
		default:
			delete(inputsPerSec, item)
			delete(zeroQualityOutputs, item)
		}
	}
}

// redistributeQuality splits each non-fluid output's zero-quality rate
// across quality tiers recipeQuality..MaxQuality using a geometric tail:
// tier recipeQuality gets (1-q), tier recipeQuality+1 gets q*0.9, each
// subsequent tier gets 0.1x the previous, and the terminal tier (5) takes
// whatever mass remains so totals sum exactly to the original rate. A
// recipe already at MaxQuality has no higher tier and keeps its whole rate
// at MaxQuality. Fluids are copied unchanged at quality 1.
func redistributeQuality(zeroQualityOutputs valuation.ItemCounts, recipeQuality int, quality float64) valuation.ItemCounts {
	out := make(valuation.ItemCounts, len(zeroQualityOutputs))

	keep := 1 - quality
	if recipeQuality >= valuation.MaxQuality {
		keep = 1
	}
	for item, rate := range zeroQualityOutputs {
		if item.IsFluid {
			out[valuation.NewFluid(item.Name)] += rate
			continue
		}
		out[valuation.NewItem(item.Name, recipeQuality)] += rate * keep
	}

	if quality == 0 {
		return out
	}

	leftOver := quality
	currMulti := quality * 0.9
	for currQuality := recipeQuality + 1; currQuality <= valuation.MaxQuality; currQuality++ {
		if currQuality == valuation.MaxQuality {
			currMulti = leftOver
		}
		for item, rate := range zeroQualityOutputs {
			if item.IsFluid {
				continue
			}
			out[valuation.NewItem(item.Name, currQuality)] += rate * currMulti
		}
		leftOver -= currMulti
		currMulti *= 0.1
	}

	return out
}
