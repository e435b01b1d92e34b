package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gridwalk/server/internal/grid"
	"gridwalk/server/internal/pathfinding"
	"gridwalk/server/internal/pathfollow"
	"gridwalk/server/internal/route"
	"gridwalk/server/internal/telemetry"
	"gridwalk/server/logging"
	navlog "gridwalk/server/logging/navigation"
	"gridwalk/server/scenario"
)

// Hub owns the live grid, the path-following agents, and every websocket
// subscriber. The grid itself is an immutable value; edits swap the pointer
// under the hub mutex, so in-flight searches on the old grid stay valid.
type Hub struct {
	mu          sync.Mutex
	grid        *grid.Grid
	gridVersion uint64
	scenarioID  string
	agents      map[string]*agentState
	clients     map[string]*clientState
	subscribers map[string]*subscriber
	nextClient  atomic.Uint64
	nextAgent   atomic.Uint64
	tick        atomic.Uint64

	resolver  *scenario.Resolver
	publisher logging.Publisher
	logger    telemetry.Logger
	counters  *telemetry.Counters
}

type clientState struct {
	ID            string
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

type agentState struct {
	Agent
	follow pathfollow.State
	speed  float64
	cells  []grid.Position
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Write serializes access to the connection across the broadcast loop and
// per-session replies.
func (s *subscriber) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub builds a hub from the given config, loading the default scenario
// when a catalog directory is configured.
func NewHub(cfg Config) (*Hub, error) {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}

	hub := &Hub{
		agents:      make(map[string]*agentState),
		clients:     make(map[string]*clientState),
		subscribers: make(map[string]*subscriber),
		publisher:   publisher,
		logger:      logger,
		counters:    telemetry.NewCounters(),
	}

	if cfg.ScenarioDir != "" {
		resolver, err := scenario.Load(cfg.ScenarioDir)
		if err != nil {
			return nil, fmt.Errorf("load scenario catalog: %w", err)
		}
		hub.resolver = resolver
	}

	if hub.resolver != nil && cfg.DefaultScenario != "" {
		if err := hub.ResetScenario(cfg.DefaultScenario); err != nil {
			return nil, err
		}
		return hub, nil
	}

	hub.grid = grid.New(cfg.DefaultGrid)
	hub.gridVersion = 1
	return hub, nil
}

// ResetScenario swaps the world to the named scenario, clearing all agents
// and re-seeding the ones the scenario declares.
func (h *Hub) ResetScenario(id string) error {
	if h.resolver == nil {
		return fmt.Errorf("no scenario catalog configured")
	}
	entry, ok := h.resolver.Get(id)
	if !ok {
		return fmt.Errorf("unknown scenario %q", id)
	}
	g, err := scenario.Build(entry.Document)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.grid = g
	h.gridVersion++
	h.scenarioID = id
	h.agents = make(map[string]*agentState)
	tick := h.tick.Load()
	h.mu.Unlock()

	for _, warning := range entry.Warnings {
		h.logger.Printf("scenario %s: %s", id, warning)
	}
	navlog.ScenarioLoaded(context.Background(), h.publisher, tick, navlog.ScenarioPayload{
		Scenario: id,
		Width:    g.Config.Width,
		Height:   g.Config.Height,
	})

	for _, seed := range entry.Document.Agents {
		start := grid.Position{X: seed.StartX, Z: seed.StartZ}
		goal := grid.Position{X: seed.GoalX, Z: seed.GoalZ}
		if _, ok := h.SpawnAgent(start, goal, seed.Speed); !ok {
			h.logger.Printf("scenario %s: no route for seed agent %v -> %v", id, start, goal)
		}
	}

	go h.broadcastGrid()
	return nil
}

// ScenarioIDs lists the scenarios available for reset requests.
func (h *Hub) ScenarioIDs() []string {
	if h.resolver == nil {
		return nil
	}
	return h.resolver.IDs()
}

// Join registers a new client and returns the world snapshot.
func (h *Hub) Join() JoinResponse {
	id := h.nextClient.Add(1)
	clientID := fmt.Sprintf("client-%d", id)

	h.mu.Lock()
	h.clients[clientID] = &clientState{ID: clientID, lastHeartbeat: time.Now()}
	gridSnap := h.gridSnapshotLocked()
	agents := h.agentSnapshotsLocked()
	h.mu.Unlock()

	h.counters.Add("clients_joined", 1)
	return JoinResponse{Ver: ProtocolVersion, ID: clientID, Grid: gridSnap, Agents: agents}
}

// Subscribe associates a websocket connection with an existing client.
func (h *Hub) Subscribe(clientID string, conn *websocket.Conn) (*subscriber, JoinResponse, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.clients[clientID]
	if !ok {
		return nil, JoinResponse{}, false
	}
	state.lastHeartbeat = time.Now()

	if existing, ok := h.subscribers[clientID]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	h.subscribers[clientID] = sub

	snapshot := JoinResponse{
		Ver:    ProtocolVersion,
		ID:     clientID,
		Grid:   h.gridSnapshotLocked(),
		Agents: h.agentSnapshotsLocked(),
	}
	return sub, snapshot, true
}

// Disconnect removes a client and closes any active subscriber connection.
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	sub, subOK := h.subscribers[clientID]
	if subOK {
		delete(h.subscribers, clientID)
	}
	delete(h.clients, clientID)
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
}

// UpdateHeartbeat records the latest heartbeat time and RTT for a client.
func (h *Hub) UpdateHeartbeat(clientID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.clients[clientID]
	if !ok {
		return 0, false
	}
	state.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			state.lastRTT = rtt
		}
	}
	return state.lastRTT, true
}

// CommandRoute computes a route for a client and, on success, spawns an
// agent that follows it. The zero speed falls back to defaultAgentSpeed.
func (h *Hub) CommandRoute(clientID string, start, goal grid.Position, speed float64) (RouteResult, bool) {
	actor := logging.EntityRef{ID: clientID, Kind: logging.EntityKindClient}
	payload := navlog.RoutePayload{StartX: start.X, StartZ: start.Z, GoalX: goal.X, GoalZ: goal.Z}

	result, ok := h.SpawnAgent(start, goal, speed)
	tick := h.tick.Load()
	if !ok {
		h.counters.Add("routes_failed", 1)
		navlog.RouteFailed(context.Background(), h.publisher, tick, actor, payload)
		return RouteResult{}, false
	}

	payload.Cells = len(result.Cells)
	payload.Jumps = len(result.Jumps)
	h.counters.Add("routes_computed", 1)
	navlog.RouteComputed(context.Background(), h.publisher, tick, actor, payload)
	navlog.AgentSpawned(context.Background(), h.publisher, tick, actor, navlog.AgentPayload{
		AgentID:   result.AgentID,
		Speed:     speed,
		Waypoints: len(result.Waypoints),
	})
	return result, true
}

// SpawnAgent routes from start to goal and registers a follower on success.
func (h *Hub) SpawnAgent(start, goal grid.Position, speed float64) (RouteResult, bool) {
	if speed <= 0 {
		speed = defaultAgentSpeed
	}

	h.mu.Lock()
	g := h.grid
	h.mu.Unlock()

	cells, ok := pathfinding.BestRoute(g, start, goal)
	if !ok {
		return RouteResult{}, false
	}

	waypoints := route.Waypoints(cells, g.Config)
	jumps := route.Jumps(cells)

	agentID := fmt.Sprintf("agent-%d", h.nextAgent.Add(1))
	follow := pathfollow.NewState(waypoints)
	first := waypoints[0]

	agent := &agentState{
		Agent: Agent{
			ID:       agentID,
			X:        first.X,
			Y:        first.Y,
			Z:        first.Z,
			Arrived:  len(waypoints) < 2,
		},
		follow: follow,
		speed:  speed,
		cells:  cells,
	}

	h.mu.Lock()
	h.agents[agentID] = agent
	h.mu.Unlock()

	h.counters.Add("agents_spawned", 1)
	return RouteResult{AgentID: agentID, Cells: cells, Jumps: jumps, Waypoints: waypoints}, true
}

// EditCell changes one cell's type, publishing the resulting grid to all
// subscribers. Existing agents keep their previously computed paths.
func (h *Hub) EditCell(clientID string, x, z int, cellType grid.CellType) error {
	h.mu.Lock()
	next, err := h.grid.SetCellType(x, z, cellType)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.grid = next
	h.gridVersion++
	tick := h.tick.Load()
	h.mu.Unlock()

	navlog.GridEdited(context.Background(), h.publisher, tick,
		logging.EntityRef{ID: clientID, Kind: logging.EntityKindClient},
		navlog.GridEditPayload{X: x, Z: z, CellType: string(cellType)})
	h.counters.Add("grid_edits", 1)

	go h.broadcastGrid()
	return nil
}

// advance runs a single simulation step and returns the updated snapshots
// plus subscribers whose clients timed out.
func (h *Hub) advance(now time.Time, dt float64) ([]Agent, []*subscriber) {
	tick := h.tick.Add(1)

	h.mu.Lock()
	toClose := make([]*subscriber, 0)
	for id, state := range h.clients {
		if now.Sub(state.lastHeartbeat) > disconnectAfter {
			if sub, ok := h.subscribers[id]; ok {
				toClose = append(toClose, sub)
				delete(h.subscribers, id)
			}
			delete(h.clients, id)
			h.logger.Printf("disconnecting %s due to heartbeat timeout", id)
		}
	}

	arrived := make([]string, 0)
	for _, agent := range h.agents {
		if agent.Arrived {
			continue
		}
		result := pathfollow.Advance(agent.follow, agent.speed, dt)
		agent.follow = result.State
		agent.X = result.Position.X
		agent.Y = result.Position.Y
		agent.Z = result.Position.Z
		agent.Rotation = result.Rotation
		if result.IsComplete {
			agent.Arrived = true
			arrived = append(arrived, agent.ID)
		}
	}
	agents := h.agentSnapshotsLocked()
	h.mu.Unlock()

	for _, id := range arrived {
		h.counters.Add("agents_arrived", 1)
		navlog.AgentArrived(context.Background(), h.publisher, tick, navlog.AgentPayload{AgentID: id})
	}
	return agents, toClose
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(tickRate)
			}
			last = now

			agents, toClose := h.advance(now, dt)
			for _, sub := range toClose {
				sub.conn.Close()
			}
			h.broadcastState(agents)
		}
	}
}

// Tick reports the current simulation tick.
func (h *Hub) Tick() uint64 {
	return h.tick.Load()
}

// CurrentGrid returns the live immutable grid value.
func (h *Hub) CurrentGrid() *grid.Grid {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grid
}

// GridSnapshot copies the wire form of the live grid.
func (h *Hub) GridSnapshot() GridSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gridSnapshotLocked()
}

// AgentSnapshots copies the wire form of every live agent.
func (h *Hub) AgentSnapshots() []Agent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.agentSnapshotsLocked()
}

// DiagnosticsSnapshot exposes heartbeat data for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []DiagnosticsClient {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]DiagnosticsClient, 0, len(h.clients))
	for _, state := range h.clients {
		clients = append(clients, DiagnosticsClient{
			ID:            state.ID,
			LastHeartbeat: state.lastHeartbeat.UnixMilli(),
			RTTMillis:     state.lastRTT.Milliseconds(),
		})
	}
	return clients
}

// TelemetrySnapshot exposes hub counters for the diagnostics endpoint.
func (h *Hub) TelemetrySnapshot() map[string]uint64 {
	return h.counters.Snapshot()
}

func (h *Hub) gridSnapshotLocked() GridSnapshot {
	snap := GridSnapshot{
		Version: h.gridVersion,
		Config:  h.grid.Config,
		Cells:   make([]grid.Cell, 0),
	}
	for _, row := range h.grid.Cells {
		for _, cell := range row {
			if cell.Type != grid.CellEmpty {
				snap.Cells = append(snap.Cells, cell)
			}
		}
	}
	return snap
}

func (h *Hub) agentSnapshotsLocked() []Agent {
	agents := make([]Agent, 0, len(h.agents))
	for _, agent := range h.agents {
		agents = append(agents, agent.Agent)
	}
	return agents
}

// broadcastState sends the latest agent snapshot to every subscriber.
func (h *Hub) broadcastState(agents []Agent) {
	if agents == nil {
		agents = h.AgentSnapshots()
	}

	h.mu.Lock()
	gridVersion := h.gridVersion
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	msg := stateMessage{
		Ver:         ProtocolVersion,
		Type:        "state",
		Tick:        h.tick.Load(),
		GridVersion: gridVersion,
		Agents:      agents,
		ServerTime:  time.Now().UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal state message: %v", err)
		return
	}

	for id, sub := range subs {
		if err := sub.Write(data); err != nil {
			h.logger.Printf("failed to send update to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
	h.counters.Add("broadcasts", 1)
}

// broadcastGrid pushes the full grid to every subscriber after an edit or
// scenario reset.
func (h *Hub) broadcastGrid() {
	msg := gridMessage{Ver: ProtocolVersion, Type: "grid", Grid: h.GridSnapshot()}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal grid message: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.Write(data); err != nil {
			h.logger.Printf("failed to send grid to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}
