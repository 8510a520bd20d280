package dispatch

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cambia/internal/transport"
	"github.com/jason-s-yu/cambia/internal/veto"
)

// ServeWS upgrades to the shared event-bus WebSocket connection. Lobby
// membership is established afterward by a joinLobby/joinObsView event,
// not by the URL, since a single connection's lobby binding can change
// over its lifetime (§3 treats connection identity as an opaque string).
// Grounded on internal/handlers/lobby_ws.go's accept/readPump/writePump
// wiring, generalized from a fixed per-lobby URL to the shared bus.
func (s *Server) ServeWS(hub *transport.Hub, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"veto"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("dispatch: websocket accept error: %v", err)
			return
		}
		if ws.Subprotocol() != "veto" {
			ws.Close(transport.BadSubprotocolCode, "client must speak the veto subprotocol")
			return
		}

		connID := NewConnID()
		ctx, cancel := context.WithCancel(r.Context())
		conn := &transport.Conn{ID: connID, OutChan: make(chan veto.Event, 16), Cancel: cancel}

		hub.Register(conn)
		s.Register(connID)
		logger.WithField("conn", connID).Info("dispatch: connection accepted")

		go transport.WritePump(ctx, ws, conn, logger)

		transport.ReadPump(ctx, ws, connID, func(raw map[string]interface{}) {
			s.HandleEvent(connID, raw)
		}, logger)

		// ReadPump returned: the connection closed.
		cancel()
		hub.Unregister(connID)
		s.Disconnect(connID)
		ws.Close(websocket.StatusNormalClosure, "closing")
	}
}
