// Package lobbystore holds the process-wide registry of active veto
// lobbies: a simple mutex-guarded map keyed by lobby id, plus the
// obs_views meta-room index the admin surface uses to pin a lobby for
// observer broadcast.
package lobbystore

import (
	"log"
	"sync"

	"github.com/jason-s-yu/cambia/internal/veto"
)

// Store manages active ephemeral lobbies in memory. Lobbies never persist
// across a restart (spec Non-goal).
type Store struct {
	mu      sync.Mutex
	lobbies map[string]*veto.Lobby

	// obsViews maps an observer connection id to the lobby id it is
	// currently pinned to by admin.setObsLobby.
	obsViews map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		lobbies:  make(map[string]*veto.Lobby),
		obsViews: make(map[string]string),
	}
}

// Create registers lobby under its id. If a lobby with the same id is
// already registered, Create returns the existing lobby instead of
// overwriting it — §7's "idempotent re-creation" requirement, a
// deliberate divergence from the teacher's AddLobby (which silently
// no-ops on collision without telling the caller which lobby it got).
func (s *Store) Create(lobby *veto.Lobby) *veto.Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, exists := s.lobbies[lobby.ID]; exists {
		log.Printf("lobbystore: lobby %s already exists, returning existing instance", lobby.ID)
		return existing
	}
	s.lobbies[lobby.ID] = lobby
	log.Printf("lobbystore: created lobby %s", lobby.ID)
	return lobby
}

// Delete removes a lobby from the registry. Typically invoked from the
// dispatcher's disconnect cleanup or the admin.delete event.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.lobbies[id]; exists {
		delete(s.lobbies, id)
		log.Printf("lobbystore: deleted lobby %s", id)
	}
	for conn, pinned := range s.obsViews {
		if pinned == id {
			delete(s.obsViews, conn)
		}
	}
}

// Get retrieves a lobby by id.
func (s *Store) Get(id string) (*veto.Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	return l, ok
}

// List returns a defensive copy of the registry, e.g. for the admin
// lobby-listing query endpoint.
func (s *Store) List() map[string]*veto.Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*veto.Lobby, len(s.lobbies))
	for k, v := range s.lobbies {
		out[k] = v
	}
	return out
}

// PinObserver records that connID's obs_views feed should mirror lobbyID
// (admin.setObsLobby).
func (s *Store) PinObserver(connID, lobbyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obsViews[connID] = lobbyID
}

// UnpinObserver clears any obs_views pin for connID (admin.clear_obs).
func (s *Store) UnpinObserver(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.obsViews, connID)
}

// ObserversOf returns every connection id currently pinned to lobbyID via
// admin.setObsLobby.
func (s *Store) ObserversOf(lobbyID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for conn, pinned := range s.obsViews {
		if pinned == lobbyID {
			out = append(out, conn)
		}
	}
	return out
}
