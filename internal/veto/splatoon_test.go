package veto

import (
	"testing"

	"github.com/jason-s-yu/cambia/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSplatoon(t *testing.T, modesSize int) (*Lobby, string, string) {
	t.Helper()
	cfg := SplatoonLobbyConfig{ID: "splat-1", ModesSize: modesSize}
	if modesSize == 4 {
		cfg.ModePool = []string{catalog.ModeZones, catalog.ModeTower, catalog.ModeRainmaker, catalog.ModeClams}
	}
	l, err := NewSplatoonLobby(cfg)
	require.NoError(t, err)

	connA, connB := "connA", "connB"
	require.NoError(t, l.AddMember(connA))
	require.NoError(t, l.AddMember(connB))
	require.NoError(t, l.SetTeamName(connA, "Alpha"))
	require.NoError(t, l.SetTeamName(connB, "Bravo"))
	return l, connA, connB
}

func TestNewSplatoonLobbyValidation(t *testing.T) {
	_, err := NewSplatoonLobby(SplatoonLobbyConfig{ID: "x", ModesSize: 3})
	assert.ErrorIs(t, err, ErrConfigInvalid)

	_, err = NewSplatoonLobby(SplatoonLobbyConfig{ID: "x", ModesSize: 4, ModePool: []string{catalog.ModeZones}})
	assert.ErrorIs(t, err, ErrConfigInvalid, "a 4-mode lobby requires exactly 4 modes")

	l, err := NewSplatoonLobby(SplatoonLobbyConfig{ID: "x", ModesSize: 2})
	require.NoError(t, err)
	assert.ElementsMatch(t, catalog.DefaultTwoModeSet, l.Splatoon.ActiveModes)
}

// TestTwoModeRoundSkipsModePhase confirms a 2-mode lobby never enters the
// mode-veto phase, starts round 1 with a picked mode already set, and runs
// the round-1 map pattern through to the pick.
func TestTwoModeRoundSkipsModePhase(t *testing.T) {
	l, connA, connB := setupSplatoon(t, 2)

	msgs, err := l.StartGameSplatoon()
	require.NoError(t, err)
	assert.Equal(t, "map", l.Splatoon.Phase)
	assert.NotEmpty(t, l.Splatoon.PickedMode)
	assert.Nil(t, findEvent(msgs, "modePicked"))

	priority := connA
	other := connB
	if l.Splatoon.PriorityTeam == "Bravo" {
		priority, other = connB, connA
	}

	// Map-veto pattern for round 1 (2-mode): ban,ban,ban,ban,ban,pick with
	// priority banning the first two, then other banning three, then
	// priority picks.
	priorityTeam := l.Splatoon.PriorityTeam
	otherTeam, _ := l.teamNameFor(other)

	mustBan := func(conn, team string, idx int) {
		require.True(t, l.Capabilities[conn].CanBan, "step %d expects %s to hold canBan", idx, conn)
		mapName := l.Splatoon.MapNames[idx]
		_, err := l.MapBan(conn, team, mapName)
		require.NoError(t, err)
	}

	mustBan(priority, priorityTeam, 0)
	mustBan(priority, priorityTeam, 1)
	mustBan(other, otherTeam, 2)
	mustBan(other, otherTeam, 3)
	mustBan(other, otherTeam, 4)

	require.True(t, l.Capabilities[priority].CanPick)
	remaining := l.Splatoon.MapNames[5]
	msgs, err = l.MapPick(priority, priorityTeam, remaining)
	require.NoError(t, err)

	pick := findEvent(msgs, "pickedUpdated")
	require.NotNil(t, pick)
	assert.Equal(t, remaining, pick.Event.Payload["map"])
	assert.True(t, l.Capabilities[connA].CanReportWinner)
	assert.True(t, l.Capabilities[connB].CanReportWinner, "both teams can report the winner")
}

// TestFourModeFirstRound drives the mode-ban/mode-ban/mode-pick pattern into
// the map phase for a 4-mode lobby's opening round.
func TestFourModeFirstRound(t *testing.T) {
	l, connA, connB := setupSplatoon(t, 4)

	_, err := l.StartGameSplatoon()
	require.NoError(t, err)
	require.Equal(t, "mode", l.Splatoon.Phase)

	priority := connA
	other := connB
	priorityTeam := l.Splatoon.PriorityTeam
	if priorityTeam == "Bravo" {
		priority, other = connB, connA
	}
	otherTeam, _ := l.teamNameFor(other)

	require.True(t, l.Capabilities[priority].CanModeBan)
	_, err = l.ModeBan(priority, priorityTeam, l.Splatoon.ActiveModes[0])
	require.NoError(t, err)

	require.True(t, l.Capabilities[other].CanModeBan)
	_, err = l.ModeBan(other, otherTeam, l.Splatoon.ActiveModes[0])
	require.NoError(t, err)

	require.True(t, l.Capabilities[priority].CanModePick)
	remainingMode := l.Splatoon.ActiveModes[0]
	msgs, err := l.ModePick(priority, priorityTeam, remainingMode)
	require.NoError(t, err)

	picked := findEvent(msgs, "modePicked")
	require.NotNil(t, picked)
	assert.Equal(t, remainingMode, picked.Event.Payload["mode"])
	assert.Equal(t, "map", l.Splatoon.Phase)
	assert.NotEmpty(t, l.Splatoon.MapNames)
}

func TestModeBanRejectedOutsideModePhase(t *testing.T) {
	l, connA, _ := setupSplatoon(t, 2)
	_, err := l.StartGameSplatoon()
	require.NoError(t, err)

	_, err = l.ModeBan(connA, "Alpha", catalog.ModeTower)
	assert.ErrorIs(t, err, ErrSilentReject, "a 2-mode lobby never enters the mode phase")
}

// TestWinnerProposeConfirmAdvancesRound exercises the two-phase winner
// report through to the next round's priority team seeding.
func TestWinnerProposeConfirmAdvancesRound(t *testing.T) {
	l, connA, connB := setupSplatoon(t, 2)
	_, err := l.StartGameSplatoon()
	require.NoError(t, err)

	// Drive the round to completion with the same ban/ban/ban/ban/ban/pick
	// sequence as TestTwoModeRoundSkipsModePhase.
	priority := connA
	other := connB
	priorityTeam := l.Splatoon.PriorityTeam
	if priorityTeam == "Bravo" {
		priority, other = connB, connA
	}
	otherTeam, _ := l.teamNameFor(other)

	for i := 0; i < 5; i++ {
		actor, team := priority, priorityTeam
		if i >= 2 {
			actor, team = other, otherTeam
		}
		_, err := l.MapBan(actor, team, l.Splatoon.MapNames[i])
		require.NoError(t, err)
	}
	_, err = l.MapPick(priority, priorityTeam, l.Splatoon.MapNames[5])
	require.NoError(t, err)

	_, err = l.ProposeWinner(priority, priorityTeam, priorityTeam)
	require.NoError(t, err)
	assert.False(t, l.Capabilities[priority].Any(), "the proposing team loses canReportWinner immediately")

	msgs, err := l.ConfirmWinner(other, otherTeam, true)
	require.NoError(t, err)

	confirmed := findEvent(msgs, "winnerConfirmed")
	require.NotNil(t, confirmed)
	assert.Equal(t, priorityTeam, confirmed.Event.Payload["winnerTeam"])
	assert.Equal(t, priorityTeam, l.Splatoon.PriorityTeam, "the winner seeds the next round's priority")
	assert.Equal(t, 2, l.Splatoon.RoundNumber)
	assert.Len(t, l.Splatoon.RoundHistory, 1)
}

func TestWinnerRejectionReturnsCapabilityToRejectingTeam(t *testing.T) {
	l, connA, connB := setupSplatoon(t, 2)
	_, err := l.StartGameSplatoon()
	require.NoError(t, err)

	priority := connA
	other := connB
	priorityTeam := l.Splatoon.PriorityTeam
	if priorityTeam == "Bravo" {
		priority, other = connB, connA
	}
	otherTeam, _ := l.teamNameFor(other)

	for i := 0; i < 5; i++ {
		actor, team := priority, priorityTeam
		if i >= 2 {
			actor, team = other, otherTeam
		}
		_, err := l.MapBan(actor, team, l.Splatoon.MapNames[i])
		require.NoError(t, err)
	}
	_, err = l.MapPick(priority, priorityTeam, l.Splatoon.MapNames[5])
	require.NoError(t, err)

	_, err = l.ProposeWinner(priority, priorityTeam, priorityTeam)
	require.NoError(t, err)

	msgs, err := l.ConfirmWinner(other, otherTeam, false)
	require.NoError(t, err)

	rejected := findEvent(msgs, "winnerRejected")
	require.NotNil(t, rejected)
	assert.Equal(t, priorityTeam, rejected.Event.Payload["winnerTeam"])
	assert.True(t, l.Capabilities[other].CanReportWinner, "only the rejecting team regains canReportWinner")
	assert.False(t, l.Capabilities[priority].Any())
	assert.Equal(t, 1, l.Splatoon.RoundNumber, "a rejection does not advance the round")
}

func TestProposeWinnerRejectsSecondPendingProposal(t *testing.T) {
	l, connA, connB := setupSplatoon(t, 2)
	_, err := l.StartGameSplatoon()
	require.NoError(t, err)

	priority := connA
	other := connB
	priorityTeam := l.Splatoon.PriorityTeam
	if priorityTeam == "Bravo" {
		priority, other = connB, connA
	}
	otherTeam, _ := l.teamNameFor(other)

	for i := 0; i < 5; i++ {
		actor, team := priority, priorityTeam
		if i >= 2 {
			actor, team = other, otherTeam
		}
		_, err := l.MapBan(actor, team, l.Splatoon.MapNames[i])
		require.NoError(t, err)
	}
	_, err = l.MapPick(priority, priorityTeam, l.Splatoon.MapNames[5])
	require.NoError(t, err)

	_, err = l.ProposeWinner(priority, priorityTeam, priorityTeam)
	require.NoError(t, err)

	_, err = l.ProposeWinner(other, otherTeam, otherTeam)
	assert.ErrorIs(t, err, ErrSilentReject)
}

func TestConfirmWinnerRejectsSelfConfirmation(t *testing.T) {
	l, connA, connB := setupSplatoon(t, 2)
	_, err := l.StartGameSplatoon()
	require.NoError(t, err)

	priority := connA
	other := connB
	priorityTeam := l.Splatoon.PriorityTeam
	if priorityTeam == "Bravo" {
		priority, other = connB, connA
	}
	otherTeam, _ := l.teamNameFor(other)

	for i := 0; i < 5; i++ {
		var actor, team string
		if i < 2 {
			actor, team = priority, priorityTeam
		} else {
			actor, team = other, otherTeam
		}
		_, err := l.MapBan(actor, team, l.Splatoon.MapNames[i])
		require.NoError(t, err)
	}
	_, err = l.MapPick(priority, priorityTeam, l.Splatoon.MapNames[5])
	require.NoError(t, err)

	_, err = l.ProposeWinner(priority, priorityTeam, priorityTeam)
	require.NoError(t, err)

	_, err = l.ConfirmWinner(priority, priorityTeam, true)
	assert.ErrorIs(t, err, ErrSilentReject, "the reporting team cannot confirm its own proposal")
}
