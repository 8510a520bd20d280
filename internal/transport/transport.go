// Package transport is the WebSocket glue between the wire and the veto
// event dispatcher: per-connection read/write pumps and a hub that
// resolves a veto.Message's Target into concrete connection sends.
// Grounded on the teacher's internal/handlers/lobby_ws.go readPump/
// writePump pair and game.LobbyConnection.Write's non-blocking channel
// send.
package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cambia/internal/veto"
)

const writeTimeout = 5 * time.Second

// Conn is one connection's outbound channel. Its id is a connection-scoped
// string minted by the dispatcher on accept (see dispatch.NewConnID);
// spec §3 treats connection identity as an opaque string, not a user
// account id.
type Conn struct {
	ID      string
	LobbyID string
	OutChan chan veto.Event
	Cancel  func()
}

// Write pushes an event onto the connection's outbound channel without
// blocking; a full channel drops the message rather than stall the lobby's
// single mutation lock.
func (c *Conn) Write(ev veto.Event) {
	select {
	case c.OutChan <- ev:
	default:
		logrus.WithFields(logrus.Fields{"conn": c.ID, "event": ev.Type}).Warn("transport: outbound channel full, message dropped")
	}
}

// Hub tracks every live connection and fans out veto.Message batches
// returned by a controller call to their targets (conn/room/obs).
type Hub struct {
	mu    sync.Mutex
	conns map[string]*Conn
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*Conn)}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
}

// Send delivers ev to connID if it is still registered.
func (h *Hub) Send(connID string, ev veto.Event) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	h.mu.Unlock()
	if ok {
		c.Write(ev)
	}
}

// SendAll delivers ev to every id in ids.
func (h *Hub) SendAll(ids []string, ev veto.Event) {
	for _, id := range ids {
		h.Send(id, ev)
	}
}

// BroadcastAll delivers ev to every connection currently registered with
// the hub, for process-wide notifications that aren't scoped to one lobby
// (lobbiesUpdated, cardColorsUpdated, coinFlipUpdated).
func (h *Hub) BroadcastAll(ev veto.Event) {
	h.mu.Lock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	h.SendAll(ids, ev)
}

// Dispatch fans out a controller's returned messages: TargetConn goes to
// Message.ConnID, TargetRoom to every member/observer in roomIDs, TargetObs
// to every connection pinned to this lobby via admin.setObsLobby.
func (h *Hub) Dispatch(messages []veto.Message, roomIDs, obsIDs []string) {
	for _, msg := range messages {
		switch msg.Target {
		case veto.TargetConn:
			h.Send(msg.ConnID, msg.Event)
		case veto.TargetRoom:
			h.SendAll(roomIDs, msg.Event)
		case veto.TargetObs:
			h.SendAll(obsIDs, msg.Event)
		}
	}
}

// ReadPump reads JSON text frames from ws until the connection closes or
// ctx is canceled, invoking handle for each successfully decoded frame.
func ReadPump(ctx context.Context, ws *websocket.Conn, connID string, handle func(raw map[string]interface{}), logger *logrus.Logger) {
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			logger.WithField("conn", connID).Infof("transport: read pump closed: %v", err)
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		var packet map[string]interface{}
		if err := json.Unmarshal(data, &packet); err != nil {
			logger.WithField("conn", connID).Warnf("transport: invalid json: %v", err)
			continue
		}
		handle(packet)
	}
}

// WritePump drains conn.OutChan onto the websocket until ctx is canceled.
func WritePump(ctx context.Context, ws *websocket.Conn, conn *Conn, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-conn.OutChan:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.WithField("conn", conn.ID).Warnf("transport: failed to marshal event %q: %v", ev.Type, err)
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.WithField("conn", conn.ID).Infof("transport: write pump closed: %v", err)
				return
			}
		}
	}
}
