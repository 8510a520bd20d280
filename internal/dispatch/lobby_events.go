package dispatch

import (
	"github.com/jason-s-yu/cambia/internal/catalog"
	"github.com/jason-s-yu/cambia/internal/veto"
)

// handleJoinLobby resolves lobbyId/role and, on success, binds connID to
// that lobby for the rest of its session (until the next joinLobby or
// disconnect). role is one of "member", "observer", or "test" (§6); "test"
// behaves like an observer — a harness connection that wants the full
// broadcast stream without holding a capability.
func (s *Server) handleJoinLobby(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	role := strField(packet, "role")
	isAdmin := boolField(packet, "isAdmin")

	lobby, ok := s.Stores.Get(lobbyID)
	if !ok {
		s.Hub.Send(connID, veto.Event{Type: "lobbyUndefined", Payload: map[string]interface{}{"lobbyId": lobbyID}})
		return
	}

	lobby.Mu.Lock()
	var err error
	switch role {
	case "observer", "test":
		lobby.AddObserver(connID)
	default:
		role = "member"
		err = lobby.AddMember(connID)
	}
	var snapshot []veto.Message
	if err == nil {
		snapshot = lobby.Snapshot(veto.TargetConn, connID)
	}
	lobby.Mu.Unlock()

	if err != nil {
		// §7 authorization error (e.g. lobby already full): dropped silently.
		return
	}

	s.mu.Lock()
	s.conns[connID] = &connState{LobbyID: lobbyID, Role: role, IsAdmin: isAdmin && lobby.Rules.Admin}
	s.mu.Unlock()

	s.Hub.Send(connID, veto.Event{Type: "lobbyExists", Payload: map[string]interface{}{"lobbyId": lobbyID, "gameFamily": string(lobby.GameFamily)}})
	s.Hub.Dispatch(snapshot, nil, nil)
}

// handleJoinObsView pins connID directly to lobbyId's obs_views room and
// replays its current state — the self-service counterpart to
// admin.setObsLobby for a connection that already knows which lobby it
// wants to watch.
func (s *Server) handleJoinObsView(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	lobby, ok := s.Stores.Get(lobbyID)
	if !ok {
		s.Hub.Send(connID, veto.Event{Type: "lobbyUndefined", Payload: map[string]interface{}{"lobbyId": lobbyID}})
		return
	}
	s.Stores.PinObserver(connID, lobbyID)

	s.mu.Lock()
	s.conns[connID] = &connState{LobbyID: lobbyID, Role: "observer"}
	s.mu.Unlock()

	lobby.Mu.Lock()
	snapshot := lobby.Snapshot(veto.TargetConn, connID)
	lobby.Mu.Unlock()
	s.Hub.Dispatch(snapshot, nil, nil)
}

// handleCreateFPSLobby validates the payload against catalog constraints
// and, on success, registers a new FPS lobby (§7 idempotent re-creation:
// an existing id returns the existing lobby, not an error).
func (s *Server) handleCreateFPSLobby(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	if lobbyID == "" {
		lobbyID = NewConnID()
	}

	poolSize := intField(packet, "mapPoolSize")
	if poolSize == 0 {
		poolSize = 7
	}
	cfg := veto.FPSLobbyConfig{
		ID:           lobbyID,
		GameType:     strField(packet, "gameType"),
		MapPoolSize:  poolSize,
		KnifeDecider: boolField(packet, "knifeDecider"),
		CoinFlip:     coinFlipOrDefault(packet, s.Catalog),
		Admin:        boolField(packet, "admin"),
	}

	lobby, err := veto.NewFPSLobby(cfg)
	if err != nil {
		s.Hub.Send(connID, veto.Event{Type: "lobbyCreationError", Payload: map[string]interface{}{"reason": err.Error()}})
		return
	}

	created := s.Stores.Create(lobby)
	created.OnEmpty = func(id string) {
		s.Stores.Delete(id)
		s.Hub.BroadcastAll(veto.Event{Type: "lobbiesUpdated"})
	}

	s.Hub.Send(connID, veto.Event{Type: "lobbyCreated", Payload: map[string]interface{}{"lobbyId": created.ID}})
	s.Hub.BroadcastAll(veto.Event{Type: "lobbiesUpdated"})
}

// handleCreateSplatoonLobby is createFPSLobby's Splatoon counterpart.
func (s *Server) handleCreateSplatoonLobby(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	if lobbyID == "" {
		lobbyID = NewConnID()
	}

	modesSize := intField(packet, "modesSize")
	if modesSize == 0 {
		modesSize = 4
	}
	cfg := veto.SplatoonLobbyConfig{
		ID:        lobbyID,
		ModesSize: modesSize,
		ModePool:  stringSliceField(packet, "modePool"),
		CoinFlip:  coinFlipOrDefault(packet, s.Catalog),
		Admin:     boolField(packet, "admin"),
	}
	if modesSize == 4 && len(cfg.ModePool) == 0 {
		cfg.ModePool = []string{catalog.ModeZones, catalog.ModeTower, catalog.ModeRainmaker, catalog.ModeClams}
	}

	lobby, err := veto.NewSplatoonLobby(cfg)
	if err != nil {
		s.Hub.Send(connID, veto.Event{Type: "lobbyCreationError", Payload: map[string]interface{}{"reason": err.Error()}})
		return
	}

	created := s.Stores.Create(lobby)
	created.OnEmpty = func(id string) {
		s.Stores.Delete(id)
		s.Hub.BroadcastAll(veto.Event{Type: "lobbiesUpdated"})
	}

	s.Hub.Send(connID, veto.Event{Type: "lobbyCreated", Payload: map[string]interface{}{"lobbyId": created.ID}})
	s.Hub.BroadcastAll(veto.Event{Type: "lobbiesUpdated"})
}

func coinFlipOrDefault(packet map[string]interface{}, cat *catalog.Store) bool {
	if v, ok := packet["coinFlip"].(bool); ok {
		return v
	}
	return cat.CoinFlipDefault()
}

func (s *Server) handleTeamName(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	teamName := strField(packet, "teamName")
	sanitized, err := veto.SanitizeTeamName(teamName)
	if err != nil {
		// §7 sanitization error: dropped, the prior teamNamesUpdated stands.
		return
	}

	lobby, ok := s.Stores.Get(lobbyID)
	if !ok {
		s.Hub.Send(connID, veto.Event{Type: "lobbyUndefined", Payload: map[string]interface{}{"lobbyId": lobbyID}})
		return
	}

	lobby.Mu.Lock()
	err = lobby.SetTeamName(connID, sanitized)
	var msgs []veto.Message
	if err == nil {
		msgs = []veto.Message{{Target: veto.TargetRoom, Event: veto.Event{Type: "teamNamesUpdated", Payload: map[string]interface{}{"teamNames": lobby.TeamNames}}}}
	}
	lobby.Mu.Unlock()

	if err != nil {
		return
	}
	s.publish(lobby, msgs)
}

func (s *Server) handleStartPick(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	teamName := strField(packet, "teamName")
	s.runLobbyAction(connID, lobbyID, "startPick", packet, func(l *veto.Lobby) ([]veto.Message, error) {
		return l.StartPick(connID, teamName)
	})
}

func (s *Server) handleBan(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	teamName := strField(packet, "teamName")
	mapName := strField(packet, "map")
	s.runLobbyAction(connID, lobbyID, "ban", packet, func(l *veto.Lobby) ([]veto.Message, error) {
		switch l.GameFamily {
		case veto.FamilySplatoon:
			return l.MapBan(connID, teamName, mapName)
		default:
			return l.Ban(connID, teamName, mapName)
		}
	})
}

func (s *Server) handlePick(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	teamName := strField(packet, "teamName")
	mapName := strField(packet, "map")
	side := strField(packet, "side")
	s.runLobbyAction(connID, lobbyID, "pick", packet, func(l *veto.Lobby) ([]veto.Message, error) {
		switch l.GameFamily {
		case veto.FamilySplatoon:
			return l.MapPick(connID, teamName, mapName)
		default:
			return l.Pick(connID, teamName, mapName, side)
		}
	})
}

func (s *Server) handleDecider(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	teamName := strField(packet, "teamName")
	mapName := strField(packet, "map")
	side := strField(packet, "side")
	s.runLobbyAction(connID, lobbyID, "decider", packet, func(l *veto.Lobby) ([]veto.Message, error) {
		return l.Decider(connID, teamName, mapName, side)
	})
}

func (s *Server) handleModeBan(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	teamName := strField(packet, "teamName")
	mode := strField(packet, "mode")
	s.runLobbyAction(connID, lobbyID, "modeBan", packet, func(l *veto.Lobby) ([]veto.Message, error) {
		return l.ModeBan(connID, teamName, mode)
	})
}

func (s *Server) handleModePick(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	teamName := strField(packet, "teamName")
	mode := strField(packet, "mode")
	s.runLobbyAction(connID, lobbyID, "modePick", packet, func(l *veto.Lobby) ([]veto.Message, error) {
		return l.ModePick(connID, teamName, mode)
	})
}

func (s *Server) handleProposeWinner(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	teamName := strField(packet, "teamName")
	winnerTeam := strField(packet, "winnerTeam")
	s.runLobbyAction(connID, lobbyID, "proposeWinner", packet, func(l *veto.Lobby) ([]veto.Message, error) {
		return l.ProposeWinner(connID, teamName, winnerTeam)
	})
}

func (s *Server) handleConfirmWinner(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	teamName := strField(packet, "teamName")
	confirmed := boolField(packet, "confirmed")
	s.runLobbyAction(connID, lobbyID, "confirmWinner", packet, func(l *veto.Lobby) ([]veto.Message, error) {
		return l.ConfirmWinner(connID, teamName, confirmed)
	})
}
