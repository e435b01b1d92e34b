package server

import "time"

const (
	writeWait         = 10 * time.Second
	tickRate          = 15 // ticks per second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	// defaultAgentSpeed is applied when a route command omits speed,
	// expressed in world units per second.
	defaultAgentSpeed = 4.0
)

// TickRate exposes the simulation cadence for diagnostics.
func TickRate() int {
	return tickRate
}

// HeartbeatInterval exposes the expected client heartbeat cadence.
func HeartbeatInterval() time.Duration {
	return heartbeatInterval
}
