// Package valuation contains the core types for the factory production
// valuation engine: items, recipes, machines, and the configuration that
// ties them together.
package valuation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ============================================
// ITEM
// ============================================

// MinQuality and MaxQuality bound the quality tiers an Item can carry.
const (
	MinQuality = 1
	MaxQuality = 5
)

// Item is an immutable value identifying a product at a given quality
// tier. Fluids are always quality 1. Equality is structural, so an Item
// is safe to use as a map key.
type Item struct {
	Name    string `json:"name"`
	Quality int    `json:"quality"`
	IsFluid bool   `json:"is_fluid"`
}

// NewItem returns a solid Item at the given quality tier.
func NewItem(name string, quality int) Item {
	return Item{Name: name, Quality: quality}
}

// NewFluid returns a fluid Item, always at quality 1.
func NewFluid(name string) Item {
	return Item{Name: name, IsFluid: true, Quality: MinQuality}
}

// MakeItem returns a fluid or solid Item depending on isFluid.
func MakeItem(name string, quality int, isFluid bool) Item {
	if isFluid {
		return NewFluid(name)
	}
	return NewItem(name, quality)
}

// BaseResource is the sentinel representing raw extracted material. Its
// cost is pinned to Configuration.ResourceBaseCost on every iteration.
var BaseResource = Item{Name: "resource", Quality: MinQuality}

// Serialize renders the item in its canonical string form:
// "fluid-<name>" for fluids, "<name>" at quality 1, "<name>-qN" otherwise.
func (i Item) Serialize() string {
	switch {
	case i.IsFluid:
		return "fluid-" + i.Name
	case i.Quality == MinQuality:
		return i.Name
	default:
		return fmt.Sprintf("%s-q%d", i.Name, i.Quality)
	}
}

func (i Item) String() string {
	return i.Serialize()
}

var qualitySuffix = regexp.MustCompile(`^(.*)-q(\d+)$`)

// DeserializeItem parses the canonical string form produced by Serialize.
func DeserializeItem(s string) Item {
	if rest, ok := strings.CutPrefix(s, "fluid-"); ok {
		return NewFluid(rest)
	}
	if m := qualitySuffix.FindStringSubmatch(s); m != nil {
		q, err := strconv.Atoi(m[2])
		if err == nil {
			return NewItem(m[1], q)
		}
	}
	return NewItem(s, MinQuality)
}

// ItemCounts maps an Item to a non-negative per-craft or per-second count.
type ItemCounts map[Item]float64

// Clone returns a shallow copy of the map (Item values are immutable).
func (c ItemCounts) Clone() ItemCounts {
	out := make(ItemCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ============================================
// BONUS / BEACON / MACHINE
// ============================================

// Bonus is an additive three-vector of speed/productivity/quality
// multipliers. Label is cosmetic and ignored by Add/Scale.
type Bonus struct {
	Label        string  `json:"label"`
	Speed        float64 `json:"speed"`
	Productivity float64 `json:"productivity"`
	Quality      float64 `json:"quality"`
}

// ZeroBonus is the additive identity.
var ZeroBonus = Bonus{Label: "zero"}

// Add returns the vector sum of two bonuses. The label of the receiver
// is dropped, matching the Python model's "name=''" on __add__.
func (b Bonus) Add(other Bonus) Bonus {
	return Bonus{
		Speed:        b.Speed + other.Speed,
		Productivity: b.Productivity + other.Productivity,
		Quality:      b.Quality + other.Quality,
	}
}

// Scale returns the bonus scaled by a scalar, keeping the receiver's label.
func (b Bonus) Scale(factor float64) Bonus {
	return Bonus{
		Label:        b.Label,
		Speed:        b.Speed * factor,
		Productivity: b.Productivity * factor,
		Quality:      b.Quality * factor,
	}
}

// BonusMap maps a recipe name to its flat additive Bonus.
type BonusMap map[string]Bonus

// Beacon is a module-effect transmitter: transmission scales its effect
// by sqrt(num_beacons) when applied through a MachineSettings.
type Beacon struct {
	Name         string  `json:"name"`
	Transmission float64 `json:"transmission"`
	Effect       Bonus   `json:"effect"`
}

// Machine is a concrete producer assigned to a recipe by category.
type Machine struct {
	Name        string  `json:"name"`
	Speed       float64 `json:"speed"`
	ModuleSlots int     `json:"module_slots"`
	BaseEffect  Bonus   `json:"base_effect"`
}

// Less orders machines the way the prototype-dump loader picks the best
// machine per category: biochamber always loses, then compare speed,
// then module slots.
func (m Machine) Less(other Machine) bool {
	if m.Name == "biochamber" {
		return other.Name != "biochamber"
	}
	if other.Name == "biochamber" {
		return false
	}
	if m.Speed != other.Speed {
		return m.Speed < other.Speed
	}
	if m.ModuleSlots != other.ModuleSlots {
		return m.ModuleSlots < other.ModuleSlots
	}
	return false
}

// MachineSettings is a module/beacon preset applied to a Machine.
type MachineSettings struct {
	Name       string  `json:"name"`
	Module     Bonus   `json:"module"`
	NumBeacons int     `json:"num_beacons"`
	Beacon     *Beacon `json:"beacon,omitempty"`
}

// EffectTotal computes the combined speed/productivity/quality effect of
// a machine's base effect, its module slots, and any attached beacons.
func (s MachineSettings) EffectTotal(m Machine) Bonus {
	effect := m.BaseEffect.Add(s.Module.Scale(float64(m.ModuleSlots)))
	if s.Beacon != nil && s.NumBeacons > 0 {
		transmission := s.Beacon.Transmission * math.Sqrt(float64(s.NumBeacons))
		effect = effect.Add(s.Beacon.Effect.Scale(transmission))
	}
	return effect
}

// ============================================
// RECIPE
// ============================================

// Recipe is a declarative production rule.
type Recipe struct {
	Name                  string     `json:"name"`
	Category              string     `json:"category"`
	Time                  float64    `json:"time"`
	Inputs                ItemCounts `json:"inputs"`
	Outputs               ItemCounts `json:"outputs"`
	OutputsNoProductivity ItemCounts `json:"outputs_no_productivity"`
	Quality               int        `json:"quality"`
	AllowProductivity     bool       `json:"allow_productivity"`
	AllowQuality          bool       `json:"allow_quality"`
	MaxProductivity       float64    `json:"max_productivity"`
	IsMining              bool       `json:"is_mining"`
}

// ============================================
// CONFIGURATION
// ============================================

// Configuration is the read-only input describing a production graph.
type Configuration struct {
	Name                     string              `json:"name"`
	EnableQuality            bool                `json:"enable_quality"`
	EnableRecycling          bool                `json:"enable_recycling"`
	MachineTimeCost          float64             `json:"machine_time_cost"`
	ResourceBaseCost         float64             `json:"resource_base_cost"`
	Machines                 map[string]Machine  `json:"machines"`
	MachineSettingsAvailable []MachineSettings   `json:"machine_settings_available"`
	MiningProductivity       Bonus               `json:"mining_productivity"`
	RecipeBonuses            BonusMap            `json:"recipe_bonuses"`
	Recipes                  []Recipe            `json:"recipes"`
}

// ============================================
// RESULTS
// ============================================

// TransformationValue is one (transformation name, candidate cost) pair,
// part of an item's ranked source list.
type TransformationValue struct {
	Transformation string
	Value          float64
}

// ItemCost is the final valuation for a single item.
type ItemCost struct {
	Item                Item
	Cost                float64
	TransformationCosts []TransformationValue
}

// ComputeCostsRequest is the inbound payload for the costing operation.
type ComputeCostsRequest struct {
	Config     Configuration `json:"config" validate:"required"`
	Iterations int           `json:"iterations" validate:"omitempty,min=1,max=1000"`
}

// ComputeCostsResponse is the outbound payload: one ItemCost per item in
// the terminal cost map, unreachable items included with cost +Inf.
type ComputeCostsResponse struct {
	Costs []ItemCost `json:"costs"`
}

// ============================================
// ERRORS
// ============================================

// ConfigError reports a configuration that cannot be built into a valid
// transformation set, e.g. duplicate recipe names after expansion.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// InvariantError reports a programmer error: a clamp called with
// min > max. Production paths must never trigger it.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Reason
}
