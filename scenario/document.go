// Package scenario loads designer-authored playground scenarios: grid
// dimensions, terrain cells, wormhole pairs, and seed agents. Documents are
// JSON files validated on load; the schema generator under cmd/schema keeps
// the editor-facing contract in sync with these structs.
package scenario

import (
	"gridwalk/server/internal/grid"
)

// Document is a single scenario as it appears on disk. Exported so tooling
// (e.g. the schema generator) can reflect over the authoring contract.
type Document struct {
	ID     string          `json:"id" jsonschema:"title=Scenario ID,description=Identifier used by reset requests.,pattern=^[a-z0-9-]+$,minLength=1,required"`
	Name   string          `json:"name,omitempty" jsonschema:"title=Display Name"`
	Grid   GridDocument    `json:"grid" jsonschema:"title=Grid,description=Dimensions and world placement of the scenario grid.,required"`
	Cells  []CellDocument  `json:"cells,omitempty" jsonschema:"title=Cells,description=Non-empty terrain cells; everything else defaults to empty."`
	Agents []AgentDocument `json:"agents,omitempty" jsonschema:"title=Agents,description=Agents routed and spawned when the scenario loads."`
}

// GridDocument mirrors grid.Config for authoring.
type GridDocument struct {
	Width        int     `json:"width" jsonschema:"minimum=1,required"`
	Height       int     `json:"height" jsonschema:"minimum=1,required"`
	CellSize     float64 `json:"cellSize" jsonschema:"exclusiveMinimum=0,required"`
	CenterOffset Offset  `json:"centerOffset,omitempty"`
}

// Offset mirrors grid.Offset for authoring.
type Offset struct {
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	Z float64 `json:"z,omitempty"`
}

// CellDocument assigns a type to one cell.
type CellDocument struct {
	X    int    `json:"x" jsonschema:"minimum=0,required"`
	Z    int    `json:"z" jsonschema:"minimum=0,required"`
	Type string `json:"type" jsonschema:"enum=empty,enum=boulder,enum=gravel,enum=wormholeEntrance,enum=wormholeExit,required"`
}

// AgentDocument seeds an agent that routes from start to goal on load.
type AgentDocument struct {
	StartX int     `json:"startX" jsonschema:"minimum=0,required"`
	StartZ int     `json:"startZ" jsonschema:"minimum=0,required"`
	GoalX  int     `json:"goalX" jsonschema:"minimum=0,required"`
	GoalZ  int     `json:"goalZ" jsonschema:"minimum=0,required"`
	Speed  float64 `json:"speed,omitempty" jsonschema:"exclusiveMinimum=0"`
}

// Config converts the authored grid block into the engine config.
func (d GridDocument) Config() grid.Config {
	return grid.Config{
		Width:    d.Width,
		Height:   d.Height,
		CellSize: d.CellSize,
		CenterOffset: grid.Offset{
			X: d.CenterOffset.X,
			Y: d.CenterOffset.Y,
			Z: d.CenterOffset.Z,
		},
	}
}
