package dispatch

import (
	"github.com/jason-s-yu/cambia/internal/auth"
	"github.com/jason-s-yu/cambia/internal/veto"
	"github.com/sirupsen/logrus"
)

// authorizeAdmin enforces the admin surface's credential (SPEC_FULL
// supplement #4). Default trust model: the connection must have joined
// with isAdmin=true against an admin-controlled lobby (checked at
// joinLobby time and cached on connState). When AdminJWTRequired is set,
// the packet must additionally carry a valid signed token scoped to
// lobbyID.
func (s *Server) authorizeAdmin(connID, lobbyID string, packet map[string]interface{}) bool {
	state, ok := s.connState(connID)
	if !ok || !state.IsAdmin || state.LobbyID != lobbyID {
		return false
	}
	if !s.AdminJWTRequired {
		return true
	}
	token := strField(packet, "adminToken")
	if err := auth.AuthenticateAdminToken(token, lobbyID); err != nil {
		s.Logger.WithFields(logrus.Fields{"conn": connID, "lobby": lobbyID}).WithError(err).Warn("dispatch: admin token rejected")
		return false
	}
	return true
}

func (s *Server) handleAdminStart(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	if !s.authorizeAdmin(connID, lobbyID, packet) {
		return
	}
	messages, err := s.Admin.Start(lobbyID)
	if err != nil {
		s.Logger.WithError(err).Warn("dispatch: admin.start failed")
		return
	}
	if lobby, ok := s.Stores.Get(lobbyID); ok {
		s.publish(lobby, messages)
	}
}

func (s *Server) handleAdminDelete(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	if !s.authorizeAdmin(connID, lobbyID, packet) {
		return
	}
	messages, roomIDs, err := s.Admin.Delete(lobbyID)
	if err != nil {
		s.Logger.WithError(err).Warn("dispatch: admin.delete failed")
		return
	}
	s.Hub.Dispatch(messages, roomIDs, s.Stores.ObserversOf(lobbyID))
	s.Hub.BroadcastAll(veto.Event{Type: "lobbiesUpdated"})
}

func (s *Server) handleAdminCoinFlipUpdate(connID string, packet map[string]interface{}) {
	// Process-wide, not lobby-scoped: gated on any connection that joined
	// an admin lobby with isAdmin=true, regardless of which one.
	if !s.anyAdminConn(connID) {
		return
	}
	ev := s.Admin.CoinFlipUpdate(boolField(packet, "flag"))
	s.Hub.BroadcastAll(ev)
}

func (s *Server) handleAdminEditFPSMapPool(connID string, packet map[string]interface{}) {
	if !s.anyAdminConn(connID) {
		return
	}
	poolSize := intField(packet, "poolSize")
	newPool := stringSliceField(packet, "mapNames")
	if err := s.Admin.EditFPSMapPool(poolSize, newPool); err != nil {
		s.Logger.WithError(err).Warn("dispatch: admin.editFPSMapPool failed")
	}
}

func (s *Server) handleAdminEditCardColors(connID string, packet map[string]interface{}) {
	if !s.anyAdminConn(connID) {
		return
	}
	ev := s.Admin.EditCardColors(stringMapField(packet, "colors"))
	s.Hub.BroadcastAll(ev)
}

func (s *Server) handleAdminSetObsLobby(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	obsConnID := strField(packet, "connId")
	if obsConnID == "" {
		obsConnID = connID
	}
	if !s.anyAdminConn(connID) {
		return
	}
	messages, err := s.Admin.SetObsLobby(obsConnID, lobbyID)
	if err != nil {
		s.Logger.WithError(err).Warn("dispatch: admin.setObsLobby failed")
		return
	}
	s.Hub.Dispatch(messages, nil, nil)
}

func (s *Server) handleAdminPlayObs(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	if !s.anyAdminConn(connID) {
		return
	}
	messages, err := s.Admin.PlayObs(lobbyID)
	if err != nil {
		s.Logger.WithError(err).Warn("dispatch: admin.play_obs failed")
		return
	}
	s.Hub.Dispatch(messages, nil, s.Stores.ObserversOf(lobbyID))
}

func (s *Server) handleAdminClearObs(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	if !s.anyAdminConn(connID) {
		return
	}
	messages := s.Admin.ClearObs(lobbyID)
	s.Hub.Dispatch(messages, nil, nil)
}

// anyAdminConn reports whether connID joined any admin-controlled lobby
// with isAdmin=true — used for the process-wide admin actions (coin-flip
// default, map-pool edit, card colors) that aren't scoped to one lobby.
func (s *Server) anyAdminConn(connID string) bool {
	state, ok := s.connState(connID)
	return ok && state.IsAdmin
}
