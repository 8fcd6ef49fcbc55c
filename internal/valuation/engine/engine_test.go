package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironforge/factory-valuation/pkg/valuation"
)

func baseConfig() *valuation.Configuration {
	return &valuation.Configuration{
		MachineTimeCost:  1,
		ResourceBaseCost: 1,
		Machines: map[string]valuation.Machine{
			"crafting": {Name: "assembler", Speed: 1},
		},
		MachineSettingsAvailable: []valuation.MachineSettings{
			{Name: "none", Module: valuation.ZeroBonus},
		},
		MiningProductivity: valuation.ZeroBonus,
		RecipeBonuses:      valuation.BonusMap{},
	}
}

func itemCost(t *testing.T, costs []valuation.ItemCost, item valuation.Item) float64 {
	t.Helper()
	for _, c := range costs {
		if c.Item == item {
			return c.Cost
		}
	}
	t.Fatalf("item %s not present in cost list", item)
	return 0
}

// S1 — trivial conversion: a -> b, 1 in, 1 out, time=1, speed=1.
func TestComputeAllCosts_TrivialConversion(t *testing.T) {
	cfg := baseConfig()
	cfg.Recipes = []valuation.Recipe{
		{
			Name:              "a-to-b",
			Category:          "crafting",
			Time:              1,
			Inputs:            valuation.ItemCounts{valuation.NewItem("a", 1): 1},
			Outputs:           valuation.ItemCounts{valuation.NewItem("b", 1): 1},
			AllowProductivity: true,
			AllowQuality:      true,
			MaxProductivity:   3,
		},
	}

	e, err := New(cfg)
	require.NoError(t, err)

	costs := e.ComputeAllCosts(10)
	assert.InDelta(t, 1, itemCost(t, costs, valuation.NewItem("a", 1)), 1e-9)
	assert.InDelta(t, 2, itemCost(t, costs, valuation.NewItem("b", 1)), 1e-9)
	assert.InDelta(t, 1, itemCost(t, costs, valuation.BaseResource), 1e-9)
}

// S2 — mining time penalty: BASE_RESOURCE -> ore, is_mining, time=1, speed=1.
func TestComputeAllCosts_MiningTimePenalty(t *testing.T) {
	cfg := baseConfig()
	cfg.Machines["mining"] = valuation.Machine{Name: "drill", Speed: 1}
	cfg.Recipes = []valuation.Recipe{
		{
			Name:              "mine-ore",
			Category:          "mining",
			Time:              1,
			Inputs:            valuation.ItemCounts{valuation.BaseResource: 1},
			Outputs:           valuation.ItemCounts{valuation.NewItem("ore", 1): 1},
			IsMining:          true,
			AllowProductivity: true,
			AllowQuality:      true,
			MaxProductivity:   3,
		},
	}

	e, err := New(cfg)
	require.NoError(t, err)

	costs := e.ComputeAllCosts(10)
	assert.InDelta(t, 11, itemCost(t, costs, valuation.NewItem("ore", 1)), 1e-9)
}

// S3 — productivity: raw resource -> b at prod_mul=2 (one module slot).
func TestComputeAllCosts_Productivity(t *testing.T) {
	cfg := baseConfig()
	cfg.Machines["crafting"] = valuation.Machine{Name: "assembler", Speed: 1, ModuleSlots: 1}
	cfg.MachineSettingsAvailable = []valuation.MachineSettings{
		{Name: "prod", Module: valuation.Bonus{Productivity: 1}},
	}
	cfg.Recipes = []valuation.Recipe{
		{
			Name:              "a-to-b",
			Category:          "crafting",
			Time:              1,
			Inputs:            valuation.ItemCounts{valuation.BaseResource: 1},
			Outputs:           valuation.ItemCounts{valuation.NewItem("b", 1): 1},
			AllowProductivity: true,
			AllowQuality:      true,
			MaxProductivity:   3,
		},
	}

	e, err := New(cfg)
	require.NoError(t, err)

	costs := e.ComputeAllCosts(10)
	assert.InDelta(t, 1, itemCost(t, costs, valuation.NewItem("b", 1)), 1e-9)
}

// S4 — catalyst netting: recipe consumes 2 of a, outputs 3 of a; net
// output should be 1 a/sec once productivity is held at 1x (rate=1).
func TestBuildTransformation_CatalystNetting(t *testing.T) {
	recipe := valuation.Recipe{
		Name:              "catalytic",
		Category:          "crafting",
		Time:              1,
		Inputs:            valuation.ItemCounts{valuation.NewItem("a", 1): 2},
		Outputs:           valuation.ItemCounts{valuation.NewItem("a", 1): 3},
		Quality:           valuation.MinQuality,
		AllowProductivity: true,
		AllowQuality:      true,
		MaxProductivity:   3,
	}
	machine := valuation.Machine{Name: "assembler", Speed: 1}
	settings := valuation.MachineSettings{Name: "none", Module: valuation.ZeroBonus}

	tr := buildTransformation("catalytic [none]", recipe, machine, settings, valuation.BonusMap{}, valuation.ZeroBonus)

	_, inputPresent := tr.InputsPerSec[valuation.NewItem("a", 1)]
	assert.False(t, inputPresent, "catalyst should be fully netted out of inputs")
	assert.InDelta(t, 1, tr.OutputsPerSec[valuation.NewItem("a", 1)], 1e-9)
}

// S5 — unreachable item: x needs y, nothing produces y.
func TestComputeAllCosts_UnreachableItem(t *testing.T) {
	cfg := baseConfig()
	cfg.Recipes = []valuation.Recipe{
		{
			Name:              "make-x",
			Category:          "crafting",
			Time:              1,
			Inputs:            valuation.ItemCounts{valuation.NewItem("y", 1): 1},
			Outputs:           valuation.ItemCounts{valuation.NewItem("x", 1): 1},
			AllowProductivity: true,
			AllowQuality:      true,
			MaxProductivity:   3,
		},
	}

	e, err := New(cfg)
	require.NoError(t, err)

	costs := e.ComputeAllCosts(10)
	assert.True(t, math.IsInf(itemCost(t, costs, valuation.NewItem("y", 1)), 1))
	assert.True(t, math.IsInf(itemCost(t, costs, valuation.NewItem("x", 1)), 1))
}

// S6 — quality substitution: higher-quality byproduct credited into the
// denominator for the lower tier. One module slot, cost-1 raw input.
func TestComputeAllCosts_QualitySubstitution(t *testing.T) {
	cfg := baseConfig()
	cfg.EnableQuality = true
	cfg.Machines["crafting"] = valuation.Machine{Name: "assembler", Speed: 1, ModuleSlots: 1}
	cfg.MachineSettingsAvailable = []valuation.MachineSettings{
		{Name: "quality", Module: valuation.Bonus{Quality: 0.1}},
	}
	cfg.Recipes = []valuation.Recipe{
		{
			Name:              "a-to-b",
			Category:          "crafting",
			Time:              1,
			Inputs:            valuation.ItemCounts{valuation.BaseResource: 1},
			Outputs:           valuation.ItemCounts{valuation.NewItem("b", 1): 1},
			Quality:           1,
			AllowProductivity: true,
			AllowQuality:      true,
			MaxProductivity:   3,
		},
	}

	e, err := New(cfg)
	require.NoError(t, err)

	costs := e.ComputeAllCosts(10)
	assert.InDelta(t, 2, itemCost(t, costs, valuation.NewItem("b", 1)), 1e-6)
}

// Monotonicity: increasing iterations never increases an item's cost.
func TestComputeAllCosts_MonotoneNonIncreasing(t *testing.T) {
	cfg := baseConfig()
	cfg.EnableRecycling = true
	cfg.Recipes = []valuation.Recipe{
		{
			Name:              "a-to-b",
			Category:          "crafting",
			Time:              1,
			Inputs:            valuation.ItemCounts{valuation.NewItem("a", 1): 1},
			Outputs:           valuation.ItemCounts{valuation.NewItem("b", 1): 1},
			AllowProductivity: true,
			AllowQuality:      true,
			MaxProductivity:   3,
		},
		{
			Name:              "b-recycling-scrap",
			Category:          "crafting",
			Time:              1,
			Inputs:            valuation.ItemCounts{valuation.NewItem("b", 1): 1},
			Outputs:           valuation.ItemCounts{valuation.NewItem("a", 1): 0.5},
			AllowProductivity: true,
			AllowQuality:      true,
			MaxProductivity:   3,
		},
	}

	e, err := New(cfg)
	require.NoError(t, err)

	prevB := math.Inf(1)
	for _, iters := range []int{1, 2, 5, 10, 50} {
		costs := e.ComputeAllCosts(iters)
		b := itemCost(t, costs, valuation.NewItem("b", 1))
		assert.LessOrEqual(t, b, prevB+1e-9)
		prevB = b
	}
}

func TestComputeAllCosts_BaseResourcePinned(t *testing.T) {
	cfg := baseConfig()
	cfg.ResourceBaseCost = 3.5
	cfg.Recipes = []valuation.Recipe{
		{
			Name:              "a-to-b",
			Category:          "crafting",
			Time:              1,
			Inputs:            valuation.ItemCounts{valuation.NewItem("a", 1): 1},
			Outputs:           valuation.ItemCounts{valuation.NewItem("b", 1): 1},
			AllowProductivity: true,
			AllowQuality:      true,
			MaxProductivity:   3,
		},
	}

	e, err := New(cfg)
	require.NoError(t, err)

	costs := e.ComputeAllCosts(5)
	assert.Equal(t, 3.5, itemCost(t, costs, valuation.BaseResource))
}

func TestComputeAllCosts_NeverNegativeOrNaN(t *testing.T) {
	cfg := baseConfig()
	cfg.EnableRecycling = true
	cfg.Recipes = []valuation.Recipe{
		{
			Name:              "a-to-b",
			Category:          "crafting",
			Time:              1,
			Inputs:            valuation.ItemCounts{valuation.NewItem("a", 1): 1},
			Outputs:           valuation.ItemCounts{valuation.NewItem("b", 1): 1},
			AllowProductivity: true,
			AllowQuality:      true,
			MaxProductivity:   3,
		},
	}

	e, err := New(cfg)
	require.NoError(t, err)

	for _, c := range e.ComputeAllCosts(20) {
		assert.False(t, math.IsNaN(c.Cost))
		assert.True(t, c.Cost >= 0 || math.IsInf(c.Cost, 1))
	}
}

func TestNew_DuplicateRecipeNameAfterExpansion(t *testing.T) {
	cfg := baseConfig()
	cfg.Recipes = []valuation.Recipe{
		{Name: "dup", Category: "crafting", Time: 1, Inputs: valuation.ItemCounts{}, Outputs: valuation.ItemCounts{}},
		{Name: "dup", Category: "crafting", Time: 1, Inputs: valuation.ItemCounts{}, Outputs: valuation.ItemCounts{}},
	}

	_, err := New(cfg)
	require.Error(t, err)
	var cfgErr *valuation.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNew_UnknownMachineCategorySkipped(t *testing.T) {
	cfg := baseConfig()
	cfg.Recipes = []valuation.Recipe{
		{
			Name:     "ghost",
			Category: "no-such-category",
			Time:     1,
			Inputs:   valuation.ItemCounts{valuation.NewItem("a", 1): 1},
			Outputs:  valuation.ItemCounts{valuation.NewItem("b", 1): 1},
		},
	}

	e, err := New(cfg)
	require.NoError(t, err)
	assert.Empty(t, e.Transformations())
}

func TestIterationsClamped(t *testing.T) {
	assert.Equal(t, 1, clampIterations(0))
	assert.Equal(t, 1, clampIterations(-5))
	assert.Equal(t, 1000, clampIterations(5000))
	assert.Equal(t, 100, clampIterations(100))
}
