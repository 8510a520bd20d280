package dispatch

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/cambia/internal/admin"
	"github.com/jason-s-yu/cambia/internal/catalog"
	"github.com/jason-s-yu/cambia/internal/lobbystore"
	"github.com/jason-s-yu/cambia/internal/transport"
	"github.com/jason-s-yu/cambia/internal/veto"
)

// newTestServer wires a dispatch.Server against fresh in-memory
// collaborators, mirroring cmd/server/main.go's wiring but with no
// historian (Redis is optional and untested here).
func newTestServer(t *testing.T) (*Server, *transport.Hub) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(testWriter{t})
	cat := catalog.NewStore()
	stores := lobbystore.New()
	hub := transport.NewHub()
	adminSvc := admin.NewService(stores, cat, logger)
	return NewServer(stores, cat, hub, adminSvc, nil, logger), hub
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) { return len(p), nil }

// registerConn attaches a buffered connection to hub and the dispatcher,
// returning a drain function that collects every event queued so far.
func registerConn(s *Server, hub *transport.Hub, connID string) func() []veto.Event {
	conn := &transport.Conn{ID: connID, OutChan: make(chan veto.Event, 64), Cancel: func() {}}
	hub.Register(conn)
	s.Register(connID)
	return func() []veto.Event {
		var out []veto.Event
		for {
			select {
			case ev := <-conn.OutChan:
				out = append(out, ev)
			default:
				return out
			}
		}
	}
}

func hasEventType(evs []veto.Event, evType string) bool {
	for _, ev := range evs {
		if ev.Type == evType {
			return true
		}
	}
	return false
}

func TestJoinLobbyUndefinedSendsLobbyUndefined(t *testing.T) {
	s, hub := newTestServer(t)
	drain := registerConn(s, hub, "connA")

	s.HandleEvent("connA", map[string]interface{}{"type": "joinLobby", "lobbyId": "missing"})

	evs := drain()
	require.Len(t, evs, 1)
	assert.Equal(t, "lobbyUndefined", evs[0].Type)
}

func TestCreateJoinAndBanFlowsThroughDispatch(t *testing.T) {
	s, hub := newTestServer(t)
	drainA := registerConn(s, hub, "connA")
	drainB := registerConn(s, hub, "connB")

	s.HandleEvent("connA", map[string]interface{}{
		"type": "createFPSLobby", "lobbyId": "lobby-1", "gameType": "bo1", "mapPoolSize": float64(7),
	})
	created := drainA()
	require.True(t, hasEventType(created, "lobbyCreated"))
	require.True(t, hasEventType(created, "lobbiesUpdated"))

	s.HandleEvent("connA", map[string]interface{}{"type": "joinLobby", "lobbyId": "lobby-1", "role": "member"})
	s.HandleEvent("connB", map[string]interface{}{"type": "joinLobby", "lobbyId": "lobby-1", "role": "member"})
	drainA()
	drainB()

	s.HandleEvent("connA", map[string]interface{}{"type": "lobby.teamName", "lobbyId": "lobby-1", "teamName": "Alpha"})
	s.HandleEvent("connB", map[string]interface{}{"type": "lobby.teamName", "lobbyId": "lobby-1", "teamName": "Bravo"})
	drainA()
	drainB()

	lobby, ok := s.Stores.Get("lobby-1")
	require.True(t, ok)
	require.Len(t, lobby.TeamNames, 2)

	_, err := lobby.StartGameFPS()
	require.NoError(t, err)
	drainA()
	drainB()

	var firstConn string
	var secondConnDrain func() []veto.Event
	if lobby.Capabilities["connA"].CanBan {
		firstConn, secondConnDrain = "connA", drainB
	} else {
		firstConn, secondConnDrain = "connB", drainA
	}

	team, _ := lobbyTeamFor(lobby, firstConn)
	s.HandleEvent(firstConn, map[string]interface{}{
		"type": "lobby.ban", "lobbyId": "lobby-1", "teamName": team, "map": lobby.FPS.MapNames[0],
	})

	evs := secondConnDrain()
	assert.True(t, hasEventType(evs, "canWorkUpdated"), "capability alternates to the other team after a ban")
	assert.Len(t, lobby.FPS.BannedMaps, 1)
}

func lobbyTeamFor(l *veto.Lobby, connID string) (string, bool) {
	for _, te := range l.TeamNames {
		if te.ConnID == connID {
			return te.TeamName, true
		}
	}
	return "", false
}

func TestAdminActionRejectedWithoutAdminFlag(t *testing.T) {
	s, hub := newTestServer(t)
	drainA := registerConn(s, hub, "connA")

	s.HandleEvent("connA", map[string]interface{}{
		"type": "createFPSLobby", "lobbyId": "lobby-2", "gameType": "bo1", "mapPoolSize": float64(7), "admin": true,
	})
	drainA()

	s.HandleEvent("connA", map[string]interface{}{"type": "joinLobby", "lobbyId": "lobby-2", "role": "member", "isAdmin": false})
	drainA()

	s.HandleEvent("connA", map[string]interface{}{"type": "admin.start", "lobbyId": "lobby-2"})
	time.Sleep(time.Millisecond)

	lobby, ok := s.Stores.Get("lobby-2")
	require.True(t, ok)
	assert.False(t, lobby.FPS.Started, "admin.start must be rejected without the isAdmin flag")
}

func TestAdminActionAllowedWithAdminFlagOnAdminLobby(t *testing.T) {
	s, hub := newTestServer(t)
	drainA := registerConn(s, hub, "connA")

	s.HandleEvent("connA", map[string]interface{}{
		"type": "createFPSLobby", "lobbyId": "lobby-3", "gameType": "bo1", "mapPoolSize": float64(7), "admin": true,
	})
	drainA()

	s.HandleEvent("connA", map[string]interface{}{"type": "joinLobby", "lobbyId": "lobby-3", "role": "member", "isAdmin": true})
	drainA()

	s.HandleEvent("connA", map[string]interface{}{"type": "admin.start", "lobbyId": "lobby-3"})

	lobby, ok := s.Stores.Get("lobby-3")
	require.True(t, ok)
	assert.True(t, lobby.FPS.Started)
}

func TestDisconnectDeletesEmptyLobbyAndBroadcasts(t *testing.T) {
	s, hub := newTestServer(t)
	drainA := registerConn(s, hub, "connA")
	drainB := registerConn(s, hub, "connB")

	s.HandleEvent("connA", map[string]interface{}{
		"type": "createFPSLobby", "lobbyId": "lobby-4", "gameType": "bo1", "mapPoolSize": float64(7),
	})
	drainA()
	s.HandleEvent("connA", map[string]interface{}{"type": "joinLobby", "lobbyId": "lobby-4", "role": "member"})
	drainA()

	s.Disconnect("connA")

	_, ok := s.Stores.Get("lobby-4")
	assert.False(t, ok, "the lobby should be deleted once its only member disconnects")

	evs := drainB()
	assert.True(t, hasEventType(evs, "lobbiesUpdated"))
}
