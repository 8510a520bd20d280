package veto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFPSIncludesCapabilitiesForTargetConn(t *testing.T) {
	l, connA, _ := setupBO1(t)
	_, err := l.StartGameFPS()
	require.NoError(t, err)

	msgs := l.Snapshot(TargetConn, connA)

	require.NotNil(t, findEvent(msgs, "gameName"))
	require.NotNil(t, findEvent(msgs, "mapNames"))
	require.NotNil(t, findEvent(msgs, "fpsLobbySettings"))
	caps := findEvent(msgs, "canWorkUpdated")
	require.NotNil(t, caps, "a connection holding capabilities should see canWorkUpdated in its snapshot")
	assert.Equal(t, true, caps.Event.Payload["canBan"])

	for _, m := range msgs {
		assert.Equal(t, TargetConn, m.Target)
		assert.Equal(t, connA, m.ConnID)
	}
}

func TestSnapshotObsOmitsCapabilities(t *testing.T) {
	l, _, _ := setupBO1(t)
	_, err := l.StartGameFPS()
	require.NoError(t, err)

	msgs := l.Snapshot(TargetObs, "")
	assert.Nil(t, findEvent(msgs, "canWorkUpdated"), "an obs snapshot never carries a connection's capabilities")
	for _, m := range msgs {
		assert.Equal(t, TargetObs, m.Target)
	}
}

func TestSnapshotSplatoonIncludesModesSize(t *testing.T) {
	l, _, _ := setupSplatoon(t, 4)
	_, err := l.StartGameSplatoon()
	require.NoError(t, err)

	msgs := l.Snapshot(TargetRoom, "")
	modesSize := findEvent(msgs, "modesSizeUpdated")
	require.NotNil(t, modesSize)
	assert.Equal(t, 4, modesSize.Event.Payload["modesSize"])
}
