// Package dispatch is §4.4's event dispatcher: it maps transport events to
// veto.Lobby controller calls and controller outputs back to transport
// broadcasts. Grounded on internal/handlers/lobby_ws.go's
// handleLobbyMessage type-switch and internal/handlers/game_ws.go's
// createBroadcastFunc/createBroadcastToPlayerFunc (release the lobby lock
// before network I/O, send async) — generalized from a fixed lobby-chat
// protocol to the closed inbound/outbound event sets in spec.md §6.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cambia/internal/admin"
	"github.com/jason-s-yu/cambia/internal/auth"
	"github.com/jason-s-yu/cambia/internal/catalog"
	"github.com/jason-s-yu/cambia/internal/historian"
	"github.com/jason-s-yu/cambia/internal/lobbystore"
	"github.com/jason-s-yu/cambia/internal/reaper"
	"github.com/jason-s-yu/cambia/internal/transport"
	"github.com/jason-s-yu/cambia/internal/veto"
)

// connState is what the dispatcher remembers about a live connection: at
// most one lobby at a time (a fresh joinLobby/joinObsView rebinds it), its
// role, and whether it authenticated as an admin for that lobby.
type connState struct {
	LobbyID string
	Role    string // "member", "observer", or "test"
	IsAdmin bool
}

// Server is the process-wide dispatcher: every inbound wire event for
// every connection passes through Server.HandleEvent.
type Server struct {
	Stores    *lobbystore.Store
	Catalog   *catalog.Store
	Hub       *transport.Hub
	Admin     *admin.Service
	Historian *historian.Publisher
	Logger    *logrus.Logger

	// AdminJWTRequired makes the lobby-scoped admin.start and admin.delete
	// events also require a token that passes auth.AuthenticateAdminToken
	// (SPEC_FULL supplement #4). The other admin.* events are gated by the
	// admin flag alone (anyAdminConn) and never check a token.
	AdminJWTRequired bool

	mu    sync.Mutex
	conns map[string]*connState
}

// NewServer wires a dispatcher around the given process-wide collaborators.
func NewServer(stores *lobbystore.Store, cat *catalog.Store, hub *transport.Hub, adm *admin.Service, hist *historian.Publisher, logger *logrus.Logger) *Server {
	return &Server{
		Stores:    stores,
		Catalog:   cat,
		Hub:       hub,
		Admin:     adm,
		Historian: hist,
		Logger:    logger,
		conns:     make(map[string]*connState),
	}
}

// NewConnID mints an opaque connection identifier, same shape as the
// teacher's uuid-based game/lobby/player ids.
func NewConnID() string {
	return uuid.NewString()
}

// Register begins tracking connID (called on websocket accept, before any
// joinLobby event arrives).
func (s *Server) Register(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[connID] = &connState{}
}

// Disconnect runs the §4.6 reaper for connID's current lobby (if any) and
// stops tracking the connection. It dispatches the reaper's messages itself
// and also returns them.
func (s *Server) Disconnect(connID string) []veto.Message {
	s.mu.Lock()
	state, ok := s.conns[connID]
	delete(s.conns, connID)
	s.mu.Unlock()
	if !ok || state.LobbyID == "" {
		return nil
	}

	lobby, exists := s.Stores.Get(state.LobbyID)
	if !exists {
		return nil
	}

	messages, shouldDelete := reaper.Disconnect(lobby, connID)
	roomIDs := lobby.RoomMembers()
	obsIDs := s.Stores.ObserversOf(lobby.ID)
	s.Hub.Dispatch(messages, roomIDs, obsIDs)

	if shouldDelete {
		s.Stores.Delete(lobby.ID)
		s.Hub.BroadcastAll(veto.Event{Type: "lobbiesUpdated"})
	}
	return messages
}

// publish fans out a controller step's messages to lobby's current room
// and obs_views pin set.
func (s *Server) publish(lobby *veto.Lobby, messages []veto.Message) {
	roomIDs := lobby.RoomMembers()
	obsIDs := s.Stores.ObserversOf(lobby.ID)
	s.Hub.Dispatch(messages, roomIDs, obsIDs)
}

// record publishes a best-effort historian entry for a committed mutation.
func (s *Server) record(lobbyID, connID, teamName, actionType string, payload map[string]interface{}) {
	if s.Historian == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Historian.Publish(ctx, historian.ActionRecord{
		LobbyID:    lobbyID,
		ConnID:     connID,
		TeamName:   teamName,
		ActionType: actionType,
		Payload:    payload,
		Timestamp:  time.Now().Unix(),
	})
}

// runLobbyAction is the common shape behind every lobby.* handler: resolve
// the lobby, run fn under its mutex, publish what it returns, and log or
// drop its error per §7's taxonomy (ErrSilentReject ⇒ no broadcast at all).
func (s *Server) runLobbyAction(connID, lobbyID, actionType string, payload map[string]interface{}, fn func(*veto.Lobby) ([]veto.Message, error)) {
	lobby, ok := s.Stores.Get(lobbyID)
	if !ok {
		s.Hub.Send(connID, veto.Event{Type: "lobbyUndefined", Payload: map[string]interface{}{"lobbyId": lobbyID}})
		return
	}

	lobby.Mu.Lock()
	messages, err := fn(lobby)
	lobby.Mu.Unlock()

	if err != nil {
		if errors.Is(err, veto.ErrSilentReject) {
			s.Logger.WithFields(logrus.Fields{"conn": connID, "lobby": lobbyID, "action": actionType}).Debug("dispatch: action rejected")
			return
		}
		s.Logger.WithFields(logrus.Fields{"conn": connID, "lobby": lobbyID, "action": actionType}).WithError(err).Warn("dispatch: action failed")
		return
	}

	s.publish(lobby, messages)
	teamName, _ := payload["teamName"].(string)
	s.record(lobbyID, connID, teamName, actionType, payload)
}

// HandleEvent is the single entry point for an inbound (name, payload)
// wire event. Unknown event names are ignored per §4.4.
func (s *Server) HandleEvent(connID string, packet map[string]interface{}) {
	evType, _ := packet["type"].(string)
	switch evType {
	case "joinLobby":
		s.handleJoinLobby(connID, packet)
	case "joinObsView":
		s.handleJoinObsView(connID, packet)
	case "createFPSLobby":
		s.handleCreateFPSLobby(connID, packet)
	case "createSplatoonLobby":
		s.handleCreateSplatoonLobby(connID, packet)

	case "lobby.teamName":
		s.handleTeamName(connID, packet)
	case "lobby.startPick":
		s.handleStartPick(connID, packet)
	case "lobby.ban":
		s.handleBan(connID, packet)
	case "lobby.pick":
		s.handlePick(connID, packet)
	case "lobby.decider":
		s.handleDecider(connID, packet)
	case "lobby.modeBan":
		s.handleModeBan(connID, packet)
	case "lobby.modePick":
		s.handleModePick(connID, packet)
	case "lobby.reportWinner", "lobby.proposeWinner":
		s.handleProposeWinner(connID, packet)
	case "lobby.confirmWinner":
		s.handleConfirmWinner(connID, packet)

	case "admin.start":
		s.handleAdminStart(connID, packet)
	case "admin.delete":
		s.handleAdminDelete(connID, packet)
	case "admin.coinFlipUpdate":
		s.handleAdminCoinFlipUpdate(connID, packet)
	case "admin.editFPSMapPool":
		s.handleAdminEditFPSMapPool(connID, packet)
	case "admin.editCardColors":
		s.handleAdminEditCardColors(connID, packet)
	case "admin.setObsLobby":
		s.handleAdminSetObsLobby(connID, packet)
	case "admin.play_obs":
		s.handleAdminPlayObs(connID, packet)
	case "admin.clear_obs":
		s.handleAdminClearObs(connID, packet)

	case "obs.getPatternList":
		s.handleGetPatternList(connID, packet)
	case "obs.getCurrentPickedMode":
		s.handleGetCurrentPickedMode(connID, packet)
	case "getLobbyGameCategory":
		s.handleGetLobbyGameCategory(connID, packet)

	default:
		s.Logger.WithFields(logrus.Fields{"conn": connID, "type": evType}).Debug("dispatch: unknown event ignored")
	}
}

func strField(packet map[string]interface{}, key string) string {
	v, _ := packet[key].(string)
	return v
}

func boolField(packet map[string]interface{}, key string) bool {
	v, _ := packet[key].(bool)
	return v
}

func intField(packet map[string]interface{}, key string) int {
	switch v := packet[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func stringSliceField(packet map[string]interface{}, key string) []string {
	raw, ok := packet[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringMapField(packet map[string]interface{}, key string) map[string]string {
	raw, ok := packet[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (s *Server) connState(connID string) (*connState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.conns[connID]
	return st, ok
}
