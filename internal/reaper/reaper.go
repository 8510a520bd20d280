// Package reaper handles connection-close cleanup (§4.6): remove the
// connection from its lobby's members/observers/teamNames, broadcast
// teamNamesUpdated, and garbage-collect lobbies that are now empty of
// members and not admin-controlled. Grounded on the teacher's
// internal/game/lobby.go RemoveUser (delete from three parallel
// collections, broadcast, invoke OnEmpty at zero connections) adapted to
// return a shouldDelete result, true only when the lobby is not
// admin-controlled, instead of invoking a callback.
package reaper

import (
	"github.com/jason-s-yu/cambia/internal/veto"
)

// Disconnect removes connID from lobby and returns the messages to
// broadcast plus whether the lobby should now be deleted by the caller
// (members empty and the lobby is not admin-controlled — admin lobbies
// persist through disconnection per scenario 6).
func Disconnect(lobby *veto.Lobby, connID string) (messages []veto.Message, shouldDelete bool) {
	lobby.Mu.Lock()
	defer lobby.Mu.Unlock()

	messages, nowEmpty := lobby.RemoveConnection(connID)
	shouldDelete = nowEmpty && !lobby.Rules.Admin
	return messages, shouldDelete
}
