package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	server "gridwalk/server"
	"gridwalk/server/internal/grid"
)

type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades playground clients and drives their command loop.
type Handler struct {
	hub      *server.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		upgrader: upgrader,
	}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	clientID := r.URL.Query().Get("id")
	if clientID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", clientID, err)
		return
	}

	sub, snapshot, ok := h.hub.Subscribe(clientID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown client")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	writeJSON := func(payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			h.logger.Printf("failed to marshal response for %s: %v", clientID, err)
			return true
		}
		if err := sub.Write(data); err != nil {
			h.hub.Disconnect(clientID)
			return false
		}
		return true
	}

	welcome := welcomeMessage{
		Ver:    server.ProtocolVersion,
		Type:   "welcome",
		ID:     snapshot.ID,
		Grid:   snapshot.Grid,
		Agents: snapshot.Agents,
	}
	if !writeJSON(welcome) {
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(clientID)
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", clientID, err)
			continue
		}

		switch msg.Type {
		case "route":
			result, ok := h.hub.CommandRoute(clientID,
				grid.Position{X: msg.StartX, Z: msg.StartZ},
				grid.Position{X: msg.GoalX, Z: msg.GoalZ},
				msg.Speed)
			if !ok {
				reject := routeRejectMessage{
					Ver:    server.ProtocolVersion,
					Type:   "routeReject",
					Reason: "no route",
				}
				if !writeJSON(reject) {
					return
				}
				continue
			}
			ack := routeAckMessage{
				Ver:    server.ProtocolVersion,
				Type:   "route",
				Result: result,
			}
			if !writeJSON(ack) {
				return
			}
		case "editCell":
			cellType, ok := grid.ParseCellType(msg.CellType)
			if !ok {
				h.logger.Printf("unknown cell type %q from %s", msg.CellType, clientID)
				continue
			}
			if err := h.hub.EditCell(clientID, msg.X, msg.Z, cellType); err != nil {
				reject := editRejectMessage{
					Ver:    server.ProtocolVersion,
					Type:   "editReject",
					Reason: err.Error(),
				}
				if !writeJSON(reject) {
					return
				}
			}
		case "reset":
			if msg.Scenario == "" {
				continue
			}
			if err := h.hub.ResetScenario(msg.Scenario); err != nil {
				h.logger.Printf("reset to %q failed for %s: %v", msg.Scenario, clientID, err)
			}
		case "heartbeat":
			now := time.Now()
			rtt, ok := h.hub.UpdateHeartbeat(clientID, now, msg.SentAt)
			if !ok {
				continue
			}
			ack := heartbeatMessage{
				Ver:        server.ProtocolVersion,
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}
			if !writeJSON(ack) {
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, clientID)
		}
	}
}

type clientMessage struct {
	Ver      int     `json:"ver,omitempty"`
	Type     string  `json:"type"`
	StartX   int     `json:"startX"`
	StartZ   int     `json:"startZ"`
	GoalX    int     `json:"goalX"`
	GoalZ    int     `json:"goalZ"`
	Speed    float64 `json:"speed"`
	X        int     `json:"x"`
	Z        int     `json:"z"`
	CellType string  `json:"cellType"`
	Scenario string  `json:"scenario"`
	SentAt   int64   `json:"sentAt"`
}

type welcomeMessage struct {
	Ver    int                 `json:"ver"`
	Type   string              `json:"type"`
	ID     string              `json:"id"`
	Grid   server.GridSnapshot `json:"grid"`
	Agents []server.Agent      `json:"agents"`
}

type routeAckMessage struct {
	Ver    int                `json:"ver"`
	Type   string             `json:"type"`
	Result server.RouteResult `json:"result"`
}

type routeRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type editRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}
