package lobbystore

import (
	"testing"

	"github.com/jason-s-yu/cambia/internal/veto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLobby(t *testing.T, id string) *veto.Lobby {
	t.Helper()
	l, err := veto.NewFPSLobby(veto.FPSLobbyConfig{ID: id, GameType: "bo1", MapPoolSize: 7})
	require.NoError(t, err)
	return l
}

func TestCreateIsIdempotent(t *testing.T) {
	s := New()
	l1 := newTestLobby(t, "lobby-1")
	l2 := newTestLobby(t, "lobby-1")

	got1 := s.Create(l1)
	assert.Same(t, l1, got1)

	got2 := s.Create(l2)
	assert.Same(t, l1, got2, "creating a lobby with a colliding id returns the existing one (§7)")
}

func TestGetAndDelete(t *testing.T) {
	s := New()
	l := newTestLobby(t, "lobby-2")
	s.Create(l)

	got, ok := s.Get("lobby-2")
	require.True(t, ok)
	assert.Same(t, l, got)

	s.Delete("lobby-2")
	_, ok = s.Get("lobby-2")
	assert.False(t, ok)
}

func TestListReturnsDefensiveCopy(t *testing.T) {
	s := New()
	s.Create(newTestLobby(t, "lobby-3"))
	s.Create(newTestLobby(t, "lobby-4"))

	list := s.List()
	assert.Len(t, list, 2)

	delete(list, "lobby-3")
	again := s.List()
	assert.Len(t, again, 2, "mutating the returned map must not affect the store")
}

func TestPinAndUnpinObserver(t *testing.T) {
	s := New()
	s.Create(newTestLobby(t, "lobby-5"))

	s.PinObserver("obsConn", "lobby-5")
	assert.ElementsMatch(t, []string{"obsConn"}, s.ObserversOf("lobby-5"))

	s.UnpinObserver("obsConn")
	assert.Empty(t, s.ObserversOf("lobby-5"))
}

func TestDeleteClearsMatchingObserverPins(t *testing.T) {
	s := New()
	s.Create(newTestLobby(t, "lobby-6"))
	s.PinObserver("obsConn", "lobby-6")

	s.Delete("lobby-6")
	assert.Empty(t, s.ObserversOf("lobby-6"))
}
