package dispatch

import "github.com/jason-s-yu/cambia/internal/veto"

// handleGetPatternList answers obs.getPatternList: the veto pattern
// currently in force for the lobby's active phase.
func (s *Server) handleGetPatternList(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	lobby, ok := s.Stores.Get(lobbyID)
	if !ok {
		s.Hub.Send(connID, veto.Event{Type: "lobbyUndefined", Payload: map[string]interface{}{"lobbyId": lobbyID}})
		return
	}

	lobby.Mu.Lock()
	var payload map[string]interface{}
	switch lobby.GameFamily {
	case veto.FamilyFPS:
		payload = map[string]interface{}{"pattern": lobby.FPS.Pattern, "gameStep": lobby.FPS.GameStep}
	case veto.FamilySplatoon:
		payload = map[string]interface{}{"pattern": lobby.Splatoon.Pattern, "phase": lobby.Splatoon.Phase, "gameStep": lobby.Splatoon.GameStep}
	}
	lobby.Mu.Unlock()

	s.Hub.Send(connID, veto.Event{Type: "patternList", Payload: payload})
}

// handleGetCurrentPickedMode answers obs.getCurrentPickedMode (Splatoon only).
func (s *Server) handleGetCurrentPickedMode(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	lobby, ok := s.Stores.Get(lobbyID)
	if !ok || lobby.GameFamily != veto.FamilySplatoon {
		s.Hub.Send(connID, veto.Event{Type: "lobbyUndefined", Payload: map[string]interface{}{"lobbyId": lobbyID}})
		return
	}
	lobby.Mu.Lock()
	mode := lobby.Splatoon.PickedMode
	lobby.Mu.Unlock()
	s.Hub.Send(connID, veto.Event{Type: "currentPickedMode", Payload: map[string]interface{}{"mode": mode}})
}

// handleGetLobbyGameCategory answers getLobbyGameCategory.
func (s *Server) handleGetLobbyGameCategory(connID string, packet map[string]interface{}) {
	lobbyID := strField(packet, "lobbyId")
	lobby, ok := s.Stores.Get(lobbyID)
	if !ok {
		s.Hub.Send(connID, veto.Event{Type: "lobbyNotFound", Payload: map[string]interface{}{"lobbyId": lobbyID}})
		return
	}
	s.Hub.Send(connID, veto.Event{Type: "lobbyGameCategory", Payload: map[string]interface{}{"gameFamily": string(lobby.GameFamily)}})
}
