// Package navigation holds the event vocabulary emitted by the routing and
// path-following machinery.
package navigation

import (
	"context"

	"gridwalk/server/logging"
)

const (
	// EventRouteComputed is emitted when a route request succeeds.
	EventRouteComputed logging.EventType = "navigation.route_computed"
	// EventRouteFailed is emitted when no route can satisfy a request.
	EventRouteFailed logging.EventType = "navigation.route_failed"
	// EventAgentSpawned is emitted when an agent starts following a route.
	EventAgentSpawned logging.EventType = "navigation.agent_spawned"
	// EventAgentArrived is emitted once when an agent reaches its final waypoint.
	EventAgentArrived logging.EventType = "navigation.agent_arrived"
	// EventGridEdited is emitted when a client changes a cell type.
	EventGridEdited logging.EventType = "navigation.grid_edited"
	// EventScenarioLoaded is emitted when the hub swaps in a scenario grid.
	EventScenarioLoaded logging.EventType = "navigation.scenario_loaded"
)

// RoutePayload describes a computed route.
type RoutePayload struct {
	StartX int `json:"startX"`
	StartZ int `json:"startZ"`
	GoalX  int `json:"goalX"`
	GoalZ  int `json:"goalZ"`
	Cells  int `json:"cells,omitempty"`
	Jumps  int `json:"jumps,omitempty"`
}

func RouteComputed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RoutePayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventRouteComputed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}

func RouteFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RoutePayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventRouteFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}

// AgentPayload describes a path-following agent.
type AgentPayload struct {
	AgentID   string  `json:"agentId"`
	Speed     float64 `json:"speed,omitempty"`
	Waypoints int     `json:"waypoints,omitempty"`
}

func AgentSpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AgentPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventAgentSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}

func AgentArrived(ctx context.Context, pub logging.Publisher, tick uint64, payload AgentPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventAgentArrived,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: payload.AgentID, Kind: logging.EntityKindAgent},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}

// GridEditPayload describes a single cell change.
type GridEditPayload struct {
	X        int    `json:"x"`
	Z        int    `json:"z"`
	CellType string `json:"cellType"`
}

func GridEdited(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload GridEditPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventGridEdited,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}

// ScenarioPayload describes a scenario swap.
type ScenarioPayload struct {
	Scenario string `json:"scenario"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

func ScenarioLoaded(ctx context.Context, pub logging.Publisher, tick uint64, payload ScenarioPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventScenarioLoaded,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
