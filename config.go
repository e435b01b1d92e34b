package server

import (
	"gridwalk/server/internal/grid"
	"gridwalk/server/internal/telemetry"
	"gridwalk/server/logging"
)

// Config controls hub construction.
type Config struct {
	// ScenarioDir points at the scenario catalog; empty disables scenarios
	// and the hub starts on DefaultGrid instead.
	ScenarioDir string
	// DefaultScenario names the scenario loaded at startup when a catalog is
	// available.
	DefaultScenario string
	// DefaultGrid seeds the world when no scenario catalog is configured.
	DefaultGrid grid.Config

	Publisher logging.Publisher
	Logger    telemetry.Logger
}

// DefaultConfig mirrors the playground's stock world: a 12x12 plane of
// 2-unit cells centered on the origin.
func DefaultConfig() Config {
	return Config{
		ScenarioDir:     scenarioDirDefault,
		DefaultScenario: "open-field",
		DefaultGrid: grid.Config{
			Width:    12,
			Height:   12,
			CellSize: 2,
		},
	}
}

const scenarioDirDefault = "scenarios"
