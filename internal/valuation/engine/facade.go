package engine

import (
	"github.com/ironforge/factory-valuation/pkg/valuation"
)

// validateConfiguration checks the structural invariants a Configuration
// must hold before transformations can be built from it, and normalizes
// an unset Recipe.Quality to MinQuality (the Python model's
// `quality: int = Item.MIN_QUALITY` field default, which Go's zero value
// for int cannot express). Recipes that reference an unknown machine
// category are not an error here — they are silently skipped at
// transformation-build time, since a config may legitimately describe
// recipes for categories the caller hasn't equipped a machine for yet.
func validateConfiguration(cfg *valuation.Configuration) error {
	for i, r := range cfg.Recipes {
		if r.Time <= 0 {
			return &valuation.ConfigError{Reason: "recipe " + r.Name + " has non-positive time"}
		}
		if r.Quality == 0 {
			cfg.Recipes[i].Quality = valuation.MinQuality
		}
	}
	for category, m := range cfg.Machines {
		if m.Speed <= 0 {
			return &valuation.ConfigError{Reason: "machine for category " + category + " has non-positive speed"}
		}
	}
	return nil
}
