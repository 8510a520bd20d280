// Package queryapi implements §6's read-only HTTP endpoints: catalog and
// lobby listings. Grounded on cmd/server/main.go's http.NewServeMux
// routing and internal/handlers/user.go's JSON-response handler shape
// (set Content-Type, json.NewEncoder(w).Encode(...)).
package queryapi

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/cambia/internal/catalog"
	"github.com/jason-s-yu/cambia/internal/lobbystore"
	"github.com/jason-s-yu/cambia/internal/veto"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// CardColorsHandler serves GET /api/cardColors.
func CardColorsHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, cat.CardColors())
	}
}

// MapPoolHandler serves GET /api/mapPool.
func MapPoolHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, cat.MapPoolSnapshot())
	}
}

// CoinFlipHandler serves GET /api/coinFlip.
func CoinFlipHandler(cat *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"coinFlipDefault": cat.CoinFlipDefault()})
	}
}

// RuntimeEnvHandler serves GET /api/runtime-env (SPEC_FULL supplement #3):
// static process configuration useful to a UI client, nothing secret.
func RuntimeEnvHandler(cat *catalog.Store, adminJWTRequired bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"coinFlipDefault":   cat.CoinFlipDefault(),
			"adminAuthRequired": adminJWTRequired,
			"gameFamilies":      []string{"fps", "splatoon"},
		})
	}
}

// lobbyListEntry is the /api/lobbies wire shape: sets and ordered mappings
// serialize as arrays, and teamNames preserves join order (§6).
type lobbyListEntry struct {
	ID          string           `json:"id"`
	GameFamily  string           `json:"gameFamily"`
	TeamNames   []veto.TeamEntry `json:"teamNames"`
	MemberCount int              `json:"memberCount"`
	Admin       bool             `json:"admin"`
}

// LobbiesHandler serves GET /api/lobbies.
func LobbiesHandler(store *lobbystore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := store.List()
		out := make([]lobbyListEntry, 0, len(all))
		for id, lobby := range all {
			lobby.Mu.Lock()
			out = append(out, lobbyListEntry{
				ID:          id,
				GameFamily:  string(lobby.GameFamily),
				TeamNames:   append([]veto.TeamEntry(nil), lobby.TeamNames...),
				MemberCount: len(lobby.Members),
				Admin:       lobby.Rules.Admin,
			})
			lobby.Mu.Unlock()
		}
		writeJSON(w, out)
	}
}
