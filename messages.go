package server

import (
	"gridwalk/server/internal/grid"
	"gridwalk/server/internal/pathfollow"
)

// ProtocolVersion tags every server-to-client message.
const ProtocolVersion = 1

// GridSnapshot is the wire form of the live grid: dimensions plus only the
// non-empty cells, since everything else defaults to empty.
type GridSnapshot struct {
	Version uint64      `json:"version"`
	Config  grid.Config `json:"config"`
	Cells   []grid.Cell `json:"cells"`
}

// Agent is the wire form of a path-following agent.
type Agent struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
	Arrived  bool    `json:"arrived"`
}

// RouteResult is returned to the requesting client when a route command
// succeeds. Jumps carries the indices of wormhole teleports so the client
// can animate them instead of walking the gap.
type RouteResult struct {
	AgentID   string                `json:"agentId"`
	Cells     []grid.Position       `json:"cells"`
	Jumps     []int                 `json:"jumps,omitempty"`
	Waypoints []pathfollow.Waypoint `json:"waypoints"`
}

// JoinResponse is the payload served by POST /join.
type JoinResponse struct {
	Ver    int          `json:"ver"`
	ID     string       `json:"id"`
	Grid   GridSnapshot `json:"grid"`
	Agents []Agent      `json:"agents"`
}

type stateMessage struct {
	Ver         int     `json:"ver"`
	Type        string  `json:"type"`
	Tick        uint64  `json:"tick"`
	GridVersion uint64  `json:"gridVersion"`
	Agents      []Agent `json:"agents"`
	ServerTime  int64   `json:"serverTime"`
}

type gridMessage struct {
	Ver  int          `json:"ver"`
	Type string       `json:"type"`
	Grid GridSnapshot `json:"grid"`
}

// DiagnosticsClient reports heartbeat health for one connected client.
type DiagnosticsClient struct {
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rtt"`
}
