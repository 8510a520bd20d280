// Package admin implements the §4.5 admin surface: out-of-band mutations
// that bypass the normal turn controller — start, delete, map-pool edit,
// coin-flip toggle, card-color edit, and the OBS-views pin/play/clear
// trio. Grounded on the teacher's GameServer/LobbyStore admin-ish
// operations (internal/handlers/api_server.go's NewCambiaGameFromLobby /
// OnGameEnd wiring: mutate under lock, capture a snapshot, unlock,
// broadcast), generalized to every §4.5 operation.
package admin

import (
	"fmt"

	"github.com/jason-s-yu/cambia/internal/catalog"
	"github.com/jason-s-yu/cambia/internal/lobbystore"
	"github.com/jason-s-yu/cambia/internal/veto"
	"github.com/sirupsen/logrus"
)

// Service holds the process-wide stores the admin surface operates on.
type Service struct {
	Stores  *lobbystore.Store
	Catalog *catalog.Store
	Logger  *logrus.Logger
}

// NewService returns an admin Service bound to the given stores.
func NewService(stores *lobbystore.Store, cat *catalog.Store, logger *logrus.Logger) *Service {
	return &Service{Stores: stores, Catalog: cat, Logger: logger}
}

// Start begins the ceremony for lobbyID even if fewer than two team names
// are bound, provided the lobby is admin-controlled (§4.5).
func (s *Service) Start(lobbyID string) ([]veto.Message, error) {
	lobby, ok := s.Stores.Get(lobbyID)
	if !ok {
		return nil, fmt.Errorf("admin: lobby %q not found", lobbyID)
	}
	lobby.Mu.Lock()
	defer lobby.Mu.Unlock()

	switch lobby.GameFamily {
	case veto.FamilyFPS:
		return lobby.StartGameFPS()
	case veto.FamilySplatoon:
		return lobby.StartGameSplatoon()
	default:
		return nil, fmt.Errorf("admin: lobby %q has an unrecognized game family", lobbyID)
	}
}

// Delete evicts every member/observer from lobbyID and removes it from the
// store. Returns the connection ids that were in the room before deletion
// (the dispatcher's transport layer is responsible for actually dropping
// those connections from the room) and the lobbyDeleted broadcast.
func (s *Service) Delete(lobbyID string) (messages []veto.Message, roomIDs []string, err error) {
	lobby, ok := s.Stores.Get(lobbyID)
	if !ok {
		return nil, nil, fmt.Errorf("admin: lobby %q not found", lobbyID)
	}
	lobby.Mu.Lock()
	roomIDs = lobby.RoomMembers()
	lobby.Mu.Unlock()

	s.Stores.Delete(lobbyID)

	messages = []veto.Message{{
		Target: veto.TargetRoom,
		Event:  veto.Event{Type: "lobbyDeleted", Payload: map[string]interface{}{"lobbyId": lobbyID}},
	}}
	return messages, roomIDs, nil
}

// EditFPSMapPool replaces the global catalog's FPS pool for poolSize, or
// resets to the built-in default when newPool is nil. This mutates only
// the catalog; lobbies already created hold their own deep-cloned copy
// (§5 catalog defensive-copy semantics).
func (s *Service) EditFPSMapPool(poolSize int, newPool []string) error {
	return s.Catalog.EditFPSMapPool(poolSize, newPool)
}

// EditCardColors replaces the cosmetic palette (or resets it when nil) and
// returns the process-wide broadcast event. Card colors aren't lobby
// state, so the caller broadcasts this to every connection, not a room.
func (s *Service) EditCardColors(newColors map[string]string) veto.Event {
	s.Catalog.EditCardColors(newColors)
	return veto.Event{Type: "cardColorsUpdated", Payload: map[string]interface{}{"colors": s.Catalog.CardColors()}}
}

// CoinFlipUpdate flips the process-wide coin-flip default and returns the
// broadcast event.
func (s *Service) CoinFlipUpdate(flag bool) veto.Event {
	s.Catalog.SetCoinFlipDefault(flag)
	return veto.Event{Type: "coinFlipUpdated", Payload: map[string]interface{}{"coinFlipDefault": flag}}
}

// SetObsLobby pins connID's obs_views feed to lobbyID and immediately
// replays the lobby's full domain-delta state to it — the round-trip
// guarantee in §8: sending setObsLobby right after any consistent state
// must reproduce that state to the obs room.
func (s *Service) SetObsLobby(connID, lobbyID string) ([]veto.Message, error) {
	lobby, ok := s.Stores.Get(lobbyID)
	if !ok {
		return nil, fmt.Errorf("admin: lobby %q not found", lobbyID)
	}
	s.Stores.PinObserver(connID, lobbyID)

	lobby.Mu.Lock()
	snapshot := lobby.Snapshot(veto.TargetObs, "")
	lobby.Mu.Unlock()

	ack := veto.Message{
		Target: veto.TargetConn,
		ConnID: connID,
		Event:  veto.Event{Type: "admin.setObsLobby", Payload: map[string]interface{}{"lobbyId": lobbyID}},
	}
	return append([]veto.Message{ack}, snapshot...), nil
}

// PlayObs re-delivers lobbyID's current state to whoever is already
// pinned to its obs_views room, without changing the pin.
func (s *Service) PlayObs(lobbyID string) ([]veto.Message, error) {
	lobby, ok := s.Stores.Get(lobbyID)
	if !ok {
		return nil, fmt.Errorf("admin: lobby %q not found", lobbyID)
	}
	lobby.Mu.Lock()
	snapshot := lobby.Snapshot(veto.TargetObs, "")
	lobby.Mu.Unlock()
	return snapshot, nil
}

// ClearObs unpins every observer currently watching lobbyID's obs_views
// room and tells each one to clear its display.
func (s *Service) ClearObs(lobbyID string) []veto.Message {
	watchers := s.Stores.ObserversOf(lobbyID)
	messages := make([]veto.Message, 0, len(watchers))
	for _, connID := range watchers {
		s.Stores.UnpinObserver(connID)
		messages = append(messages, veto.Message{
			Target: veto.TargetConn,
			ConnID: connID,
			Event:  veto.Event{Type: "backend.clear_obs", Payload: map[string]interface{}{"lobbyId": lobbyID}},
		})
	}
	return messages
}
