// Package loader parses a Factorio-style prototype data dump into a
// valuation.Configuration, translating raw prototype JSON into the
// recipes and machines the valuation engine operates on.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ironforge/factory-valuation/pkg/valuation"
)

// rawPrototypes mirrors the subset of Factorio's data-raw dump this loader
// understands: a mapping from prototype kind (e.g. "recipe") to a mapping
// from prototype name to its raw JSON fields.
type rawPrototypes map[string]map[string]json.RawMessage

type productOutput struct {
	Name                string   `json:"name"`
	Type                string   `json:"type"`
	Amount              *float64 `json:"amount"`
	AmountMin           *float64 `json:"amount_min"`
	AmountMax           *float64 `json:"amount_max"`
	Probability         *float64 `json:"probability"`
	IgnoredByProductivity *float64 `json:"ignored_by_productivity"`
}

type minable struct {
	MiningTime      float64         `json:"mining_time"`
	RequiredFluid   string          `json:"required_fluid"`
	FluidAmount     float64         `json:"fluid_amount"`
	Results         []productOutput `json:"results"`
	Result          string          `json:"result"`
	Count           *float64        `json:"count"`
}

type resourcePrototype struct {
	Category string  `json:"category"`
	Minable  minable `json:"minable"`
}

type plantPrototype struct {
	GrowthTicks float64 `json:"growth_ticks"`
	Minable     minable `json:"minable"`
}

type asteroidChunkPrototype struct {
	Minable *minable `json:"minable"`
}

type ingredient struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type recipePrototype struct {
	Category            string          `json:"category"`
	EnergyRequired      *float64        `json:"energy_required"`
	Ingredients         []ingredient    `json:"ingredients"`
	Results             []productOutput `json:"results"`
	MaximumProductivity *float64        `json:"maximum_productivity"`
	AllowProductivity   bool            `json:"allow_productivity"`
	AllowQuality        *bool           `json:"allow_quality"`
}

type tilePrototype struct {
	Fluid string `json:"fluid"`
}

type effectReceiver struct {
	BaseEffect struct {
		Speed        float64 `json:"speed"`
		Productivity float64 `json:"productivity"`
		Quality      float64 `json:"quality"`
	} `json:"base_effect"`
}

type machinePrototype struct {
	EffectReceiver      effectReceiver `json:"effect_receiver"`
	CraftingSpeed       *float64       `json:"crafting_speed"`
	MiningSpeed         *float64       `json:"mining_speed"`
	ModuleSlots         int            `json:"module_slots"`
	CraftingCategories  []string       `json:"crafting_categories"`
	ResourceCategories  []string       `json:"resource_categories"`
}

type offshorePumpPrototype struct {
	PumpingSpeed float64 `json:"pumping_speed"`
}

type agriculturalTowerPrototype struct {
	Radius float64 `json:"radius"`
}

type asteroidCollectorPrototype struct {
	ArmSpeedBase float64 `json:"arm_speed_base"`
	ArmCountBase float64 `json:"arm_count_base"`
}

// LoadConfiguration parses a prototype dump (the shape produced by
// Factorio's data-raw export) into recipes and machines, and returns a
// Configuration seeded with those plus the given policy settings. Callers
// supply the non-derivable policy knobs (bonuses, recycling/quality
// toggles, base costs) separately, matching MakeDefaultConfiguration's
// split between loaded prototype data and hand-authored policy.
func LoadConfiguration(r io.Reader, policy Policy) (*valuation.Configuration, error) {
	var raw rawPrototypes
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding prototype dump: %w", err)
	}

	recipes, err := loadRecipes(raw)
	if err != nil {
		return nil, fmt.Errorf("loading recipes: %w", err)
	}

	machines, err := loadMachines(raw)
	if err != nil {
		return nil, fmt.Errorf("loading machines: %w", err)
	}

	return &valuation.Configuration{
		Name:                     policy.Name,
		EnableQuality:            policy.EnableQuality,
		EnableRecycling:          policy.EnableRecycling,
		MachineTimeCost:          policy.MachineTimeCost,
		ResourceBaseCost:         policy.ResourceBaseCost,
		Machines:                 machines,
		MachineSettingsAvailable: policy.MachineSettingsAvailable,
		MiningProductivity:       policy.MiningProductivity,
		RecipeBonuses:            policy.RecipeBonuses,
		Recipes:                  recipes,
	}, nil
}

// Policy carries the hand-authored knobs that a prototype dump alone
// cannot supply: module/beacon presets, recipe-specific bonuses, and cost
// constants. Grounded in MakeDefaultConfiguration's speed/prod/quality
// module definitions and machine_settings_available list.
type Policy struct {
	Name                     string
	EnableQuality            bool
	EnableRecycling          bool
	MachineTimeCost          float64
	ResourceBaseCost         float64
	MachineSettingsAvailable []valuation.MachineSettings
	MiningProductivity       valuation.Bonus
	RecipeBonuses            valuation.BonusMap
}

func outputMaps(products []productOutput) (valuation.ItemCounts, valuation.ItemCounts) {
	outputs := make(valuation.ItemCounts)
	outputsNoProd := make(valuation.ItemCounts)

	for _, p := range products {
		expected := 0.0
		switch {
		case p.Amount != nil:
			expected = *p.Amount
		case p.AmountMin != nil && p.AmountMax != nil:
			expected = (*p.AmountMin + *p.AmountMax) * 0.5
		}
		if p.Probability != nil {
			expected *= *p.Probability
		}

		item := valuation.MakeItem(p.Name, valuation.MinQuality, p.Type == "fluid")
		ignored := 0.0
		if p.IgnoredByProductivity != nil {
			ignored = *p.IgnoredByProductivity
		}

		switch {
		case ignored > expected:
			outputs[item] = 0
			outputsNoProd[item] = expected
		case ignored > 0:
			outputs[item] = expected - ignored
			outputsNoProd[item] = ignored
		default:
			outputs[item] = expected
		}
	}

	return outputs, outputsNoProd
}

func minableRecipe(name, category string, time float64, m minable) valuation.Recipe {
	inputs := valuation.ItemCounts{valuation.BaseResource: 1}
	if m.RequiredFluid != "" {
		inputs[valuation.NewFluid(m.RequiredFluid)] = m.FluidAmount * 0.1
	}

	var outputs, outputsNoProd valuation.ItemCounts
	if len(m.Results) > 0 {
		outputs, outputsNoProd = outputMaps(m.Results)
	} else {
		count := 1.0
		if m.Count != nil {
			count = *m.Count
		}
		outputs = valuation.ItemCounts{valuation.NewItem(m.Result, valuation.MinQuality): count}
		outputsNoProd = valuation.ItemCounts{}
	}

	return valuation.Recipe{
		Name:                  name,
		Category:              category,
		Time:                  time,
		Inputs:                inputs,
		Outputs:               outputs,
		OutputsNoProductivity: outputsNoProd,
		Quality:               valuation.MinQuality,
		AllowProductivity:     true,
		AllowQuality:          true,
		MaxProductivity:       math.MaxFloat64, // uncapped, but finite so it stays JSON-encodable
		IsMining:              true,
	}
}

func loadRecipes(raw rawPrototypes) ([]valuation.Recipe, error) {
	var recipes []valuation.Recipe

	for name, data := range raw["resource"] {
		var p resourcePrototype
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
		category := p.Category
		if category == "" {
			category = "basic-solid"
		}
		recipes = append(recipes, minableRecipe(name, category, p.Minable.MiningTime, p.Minable))
	}

	for name, data := range raw["plant"] {
		var p plantPrototype
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("plant %s: %w", name, err)
		}
		r := minableRecipe(name, "agricultural-tower", 60/p.GrowthTicks, p.Minable)
		r.AllowProductivity = false
		r.AllowQuality = false
		r.MaxProductivity = 0
		r.IsMining = false
		recipes = append(recipes, r)
	}

	for name, data := range raw["asteroid-chunk"] {
		var p asteroidChunkPrototype
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("asteroid-chunk %s: %w", name, err)
		}
		if p.Minable == nil {
			continue
		}
		r := minableRecipe(name, "asteroid-collector", 1, *p.Minable)
		r.AllowProductivity = false
		r.AllowQuality = false
		r.MaxProductivity = 0
		r.IsMining = false
		recipes = append(recipes, r)
	}

	for name, data := range raw["recipe"] {
		var p recipePrototype
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("recipe %s: %w", name, err)
		}
		inputs := make(valuation.ItemCounts, len(p.Ingredients))
		for _, ing := range p.Ingredients {
			inputs[valuation.MakeItem(ing.Name, valuation.MinQuality, ing.Type == "fluid")] = ing.Amount
		}
		outputs, outputsNoProd := outputMaps(p.Results)

		category := p.Category
		if category == "" {
			category = "crafting"
		}
		time := 0.5
		if p.EnergyRequired != nil {
			time = *p.EnergyRequired
		}
		maxProd := 3.0
		if p.MaximumProductivity != nil {
			maxProd = *p.MaximumProductivity
		}
		allowQuality := true
		if p.AllowQuality != nil {
			allowQuality = *p.AllowQuality
		}

		recipes = append(recipes, valuation.Recipe{
			Name:                  name,
			Category:              category,
			Time:                  time,
			Inputs:                inputs,
			Outputs:               outputs,
			OutputsNoProductivity: outputsNoProd,
			Quality:               valuation.MinQuality,
			AllowProductivity:     p.AllowProductivity,
			AllowQuality:          allowQuality,
			MaxProductivity:       maxProd,
		})
	}

	pumpedFluids := make(map[string]bool)
	for _, data := range raw["tile"] {
		var p tilePrototype
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("tile: %w", err)
		}
		if p.Fluid == "" || pumpedFluids[p.Fluid] {
			continue
		}
		pumpedFluids[p.Fluid] = true
		recipes = append(recipes, valuation.Recipe{
			Name:                  "offshore-pump-" + p.Fluid,
			Category:              "offshore-pump",
			Time:                  1,
			Inputs:                valuation.ItemCounts{},
			Outputs:               valuation.ItemCounts{valuation.NewFluid(p.Fluid): 1},
			OutputsNoProductivity: valuation.ItemCounts{},
			Quality:               valuation.MinQuality,
			AllowProductivity:     false,
			AllowQuality:          false,
		})
	}

	return filterNames(recipes), nil
}

// filterNames drops prototypes whose name marks them as non-productive
// placeholders, matching LoadDataDumpRecipes's post-filter.
func filterNames(recipes []valuation.Recipe) []valuation.Recipe {
	result := recipes[:0]
	for _, r := range recipes {
		if strings.Contains(r.Name, "parameter") ||
			strings.Contains(r.Name, "bpsb") ||
			strings.Contains(r.Name, "unknown") {
			continue
		}
		result = append(result, r)
	}
	return result
}

func loadMachines(raw rawPrototypes) (map[string]valuation.Machine, error) {
	machines := make(map[string]valuation.Machine)

	for kind := range map[string]bool{"assembling-machine": true, "furnace": true, "mining-drill": true} {
		for name, data := range raw[kind] {
			var p machinePrototype
			if err := json.Unmarshal(data, &p); err != nil {
				return nil, fmt.Errorf("%s %s: %w", kind, name, err)
			}
			speed := p.CraftingSpeed
			if speed == nil {
				speed = p.MiningSpeed
			}
			if speed == nil {
				continue
			}

			machine := valuation.Machine{
				Name:        name,
				Speed:       *speed,
				ModuleSlots: p.ModuleSlots,
				BaseEffect: valuation.Bonus{
					Label:        "base",
					Speed:        p.EffectReceiver.BaseEffect.Speed,
					Productivity: p.EffectReceiver.BaseEffect.Productivity,
					Quality:      p.EffectReceiver.BaseEffect.Quality,
				},
			}

			for _, category := range append(append([]string{}, p.CraftingCategories...), p.ResourceCategories...) {
				existing, ok := machines[category]
				if !ok || existing.Less(machine) {
					machines[category] = machine
				}
			}
		}
	}

	if data, ok := raw["offshore-pump"]["offshore-pump"]; ok {
		var p offshorePumpPrototype
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("offshore-pump: %w", err)
		}
		machines["offshore-pump"] = valuation.Machine{Name: "offshore-pump", Speed: p.PumpingSpeed}
	}

	if data, ok := raw["agricultural-tower"]["agricultural-tower"]; ok {
		var p agriculturalTowerPrototype
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("agricultural-tower: %w", err)
		}
		diameter := p.Radius*2 + 1
		machines["agricultural-tower"] = valuation.Machine{Name: "agricultural-tower", Speed: diameter*diameter - 1}
	}

	if data, ok := raw["asteroid-collector"]["asteroid-collector"]; ok {
		var p asteroidCollectorPrototype
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("asteroid-collector: %w", err)
		}
		machines["asteroid-collector"] = valuation.Machine{
			Name:  "asteroid-collector",
			Speed: p.ArmSpeedBase * p.ArmCountBase,
		}
	}

	return machines, nil
}
