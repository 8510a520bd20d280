// Splatoon turn algorithm — §4.3. A match is a sequence of rounds, each a
// mode-veto phase (4-mode pools only) followed by a map-veto phase, ending
// in a two-phase winner report that seeds the next round's priority team.
//
// modesSize=2 lobbies never emit a modePick: the two-mode subset
// {tower, zones} (catalog.DefaultTwoModeSet) is fixed for the whole match,
// so the controller decides PickedMode itself by alternating AllModes on
// RoundNumber, rather than waiting on an event the spec never defines for
// this configuration. See DESIGN.md.
package veto

import (
	"fmt"
	"math/rand"

	"github.com/jason-s-yu/cambia/internal/catalog"
)

func capsForSplatStep(phase, action string) Capabilities {
	switch {
	case phase == "mode" && action == catalog.StepBan:
		return Capabilities{CanModeBan: true}
	case phase == "mode" && action == catalog.StepPick:
		return Capabilities{CanModePick: true}
	case phase == "map" && action == catalog.StepBan:
		return Capabilities{CanBan: true}
	case phase == "map" && action == catalog.StepPick:
		return Capabilities{CanPick: true}
	default:
		return Capabilities{}
	}
}

// splatActorConn resolves a catalog.SplatStep actor role to a connection id.
func (l *Lobby) splatActorConn(actor string) string {
	priorityConn, _ := l.connIDForTeam(l.Splatoon.PriorityTeam)
	if actor == catalog.ActorPriority {
		return priorityConn
	}
	other, _ := l.otherMember(priorityConn)
	return other
}

func removeString(ss []string, target string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

func mapInEntriesForRound(mapName string, picked []PickedMapEntry, banned []BannedMapEntry, round int) bool {
	for _, p := range picked {
		if p.RoundNumber == round && p.Map == mapName {
			return true
		}
	}
	for _, b := range banned {
		if b.RoundNumber == round && b.Map == mapName {
			return true
		}
	}
	return false
}

func lastPickedMap(picked []PickedMapEntry, round int) string {
	for i := len(picked) - 1; i >= 0; i-- {
		if picked[i].RoundNumber == round {
			return picked[i].Map
		}
	}
	return ""
}

func bannedMapsForRound(banned []BannedMapEntry, round int) []string {
	out := make([]string, 0)
	for _, b := range banned {
		if b.RoundNumber == round {
			out = append(out, b.Map)
		}
	}
	return out
}

// advanceSplatPattern grants the next pattern step's capability, if any
// remain. Called at round start, after every ban, and by ModePick once it
// has loaded the map phase's pattern. MapPick consumes the final map step
// and grants canReportWinner itself instead.
func (l *Lobby) advanceSplatPattern(ob *outbox) {
	st := l.Splatoon
	if st.GameStep >= len(st.Pattern) {
		return
	}
	step := st.Pattern[st.GameStep]
	conn := l.splatActorConn(step.Actor)
	caps := capsForSplatStep(st.Phase, step.Action)
	l.setCapabilities(conn, caps)
	ob.emitCapabilities(conn, caps)
}

// beginSplatRound resets per-round state and enters the mode phase
// (4-mode pools) or the map phase directly (2-mode pools, §4.3).
func (l *Lobby) beginSplatRound(ob *outbox, firstRound bool) {
	st := l.Splatoon
	st.ActiveModes = append([]string(nil), st.AllModes...)
	st.BannedModes = nil
	st.PickedMode = ""
	st.MapNames = nil
	st.Pending = nil

	if st.ModesSize == 4 {
		st.Phase = "mode"
		pattern, _ := catalog.SplatoonModePattern(4, firstRound)
		st.Pattern = pattern
		st.GameStep = 0
	} else {
		st.Phase = "map"
		idx := (st.RoundNumber - 1) % len(st.AllModes)
		st.PickedMode = st.AllModes[idx]
		pool, _ := catalog.Global.SplatoonMapPool(st.PickedMode)
		st.MapNames = pool
		pattern, _ := catalog.SplatoonMapPattern(2, firstRound)
		st.Pattern = pattern
		st.GameStep = 0
	}

	ob.stateMessage(fmt.Sprintf("Round %d — priority: %s", st.RoundNumber, st.PriorityTeam))
	ob.toRoom("modesUpdated", map[string]interface{}{"activeModes": st.ActiveModes, "bannedModes": st.BannedModes})
	l.advanceSplatPattern(ob)
}

// StartGameSplatoon begins a Splatoon ceremony. Round 1's priority team is
// chosen by coin flip if enabled, else by join order (§4.3).
func (l *Lobby) StartGameSplatoon() ([]Message, error) {
	if l.GameFamily != FamilySplatoon || l.Splatoon == nil {
		return nil, rejectf("not a splatoon lobby")
	}
	if l.Splatoon.Started {
		return nil, rejectf("ceremony already started")
	}
	if !l.Ready() {
		return nil, rejectf("lobby is not ready to start")
	}
	l.Splatoon.Started = true

	ob := &outbox{lobbyID: l.ID}

	if len(l.Members) == 2 {
		var priorityConn string
		if l.Rules.CoinFlip {
			priorityConn = l.Members[rand.Intn(2)]
			ob.toRoom("coinFlipUpdated", map[string]interface{}{"winner": priorityConn})
		} else {
			priorityConn = l.TeamNames[0].ConnID
			ob.toRoom("startWithoutCoin", map[string]interface{}{"first": priorityConn})
		}
		if team, ok := l.teamNameFor(priorityConn); ok {
			l.Splatoon.PriorityTeam = team
		}
	}

	ob.stateMessage("Veto ceremony has begun.")
	l.beginSplatRound(ob, true)
	return ob.messages, nil
}

// ModeBan handles a 4-mode lobby's mode-veto phase ban.
func (l *Lobby) ModeBan(connID, teamName, mode string) ([]Message, error) {
	if l.GameFamily != FamilySplatoon || l.Splatoon == nil {
		return nil, rejectf("not a splatoon lobby")
	}
	st := l.Splatoon
	if st.Phase != "mode" {
		return nil, rejectf("not in the mode-veto phase")
	}
	if err := l.checkTeamAction(connID, teamName); err != nil {
		return nil, err
	}
	if !l.Capabilities[connID].CanModeBan {
		return nil, rejectf("connection does not hold canModeBan")
	}
	if !mapIsActive(mode, st.ActiveModes) {
		return nil, rejectf("mode is not available to ban")
	}

	st.ActiveModes = removeString(st.ActiveModes, mode)
	st.BannedModes = append(st.BannedModes, mode)
	st.GameStep++

	ob := &outbox{lobbyID: l.ID}
	ob.toRoom("modesUpdated", map[string]interface{}{"activeModes": st.ActiveModes, "bannedModes": st.BannedModes})
	l.advanceSplatPattern(ob)
	return ob.messages, nil
}

// ModePick handles a 4-mode lobby's mode-veto phase pick, transitioning
// into the map phase with the picked mode's catalog pool loaded.
func (l *Lobby) ModePick(connID, teamName, mode string) ([]Message, error) {
	if l.GameFamily != FamilySplatoon || l.Splatoon == nil {
		return nil, rejectf("not a splatoon lobby")
	}
	st := l.Splatoon
	if st.Phase != "mode" {
		return nil, rejectf("not in the mode-veto phase")
	}
	if err := l.checkTeamAction(connID, teamName); err != nil {
		return nil, err
	}
	if !l.Capabilities[connID].CanModePick {
		return nil, rejectf("connection does not hold canModePick")
	}
	if !mapIsActive(mode, st.ActiveModes) {
		return nil, rejectf("mode is not available to pick")
	}

	pool, err := catalog.Global.SplatoonMapPool(mode)
	if err != nil {
		return nil, rejectf("mode has no configured map pool")
	}
	st.PickedMode = mode
	st.MapNames = pool
	st.Phase = "map"
	pattern, _ := catalog.SplatoonMapPattern(st.ModesSize, st.RoundNumber == 1)
	st.Pattern = pattern
	st.GameStep = 0

	ob := &outbox{lobbyID: l.ID}
	ob.toRoom("modePicked", map[string]interface{}{"mode": mode, "teamName": teamName})
	l.advanceSplatPattern(ob)
	return ob.messages, nil
}

// MapBan handles a map-veto phase ban, valid for both modesSize=2 and
// modesSize=4 lobbies.
func (l *Lobby) MapBan(connID, teamName, mapName string) ([]Message, error) {
	if l.GameFamily != FamilySplatoon || l.Splatoon == nil {
		return nil, rejectf("not a splatoon lobby")
	}
	st := l.Splatoon
	if st.Phase != "map" {
		return nil, rejectf("not in the map-veto phase")
	}
	if err := l.checkTeamAction(connID, teamName); err != nil {
		return nil, err
	}
	if !l.Capabilities[connID].CanBan {
		return nil, rejectf("connection does not hold canBan")
	}
	if !mapIsActive(mapName, st.MapNames) || mapInEntriesForRound(mapName, st.PickedMaps, st.BannedMaps, st.RoundNumber) {
		return nil, rejectf("map is not available to ban")
	}

	st.BannedMaps = append(st.BannedMaps, BannedMapEntry{Map: mapName, TeamName: teamName, RoundNumber: st.RoundNumber})
	st.GameStep++

	ob := &outbox{lobbyID: l.ID}
	ob.toRoom("bannedUpdated", map[string]interface{}{"map": mapName, "teamName": teamName})
	l.advanceSplatPattern(ob)
	return ob.messages, nil
}

// MapPick handles a map-veto phase pick. Per §4.3, a map pick always
// disables every capability and grants both members canReportWinner.
func (l *Lobby) MapPick(connID, teamName, mapName string) ([]Message, error) {
	if l.GameFamily != FamilySplatoon || l.Splatoon == nil {
		return nil, rejectf("not a splatoon lobby")
	}
	st := l.Splatoon
	if st.Phase != "map" {
		return nil, rejectf("not in the map-veto phase")
	}
	if err := l.checkTeamAction(connID, teamName); err != nil {
		return nil, err
	}
	if !l.Capabilities[connID].CanPick {
		return nil, rejectf("connection does not hold canPick")
	}
	if !mapIsActive(mapName, st.MapNames) || mapInEntriesForRound(mapName, st.PickedMaps, st.BannedMaps, st.RoundNumber) {
		return nil, rejectf("map is not available to pick")
	}

	st.PickedMaps = append(st.PickedMaps, PickedMapEntry{Map: mapName, TeamName: teamName, RoundNumber: st.RoundNumber})
	st.GameStep++

	ob := &outbox{lobbyID: l.ID}
	ob.toRoom("pickedUpdated", map[string]interface{}{"map": mapName, "teamName": teamName})

	caps := Capabilities{CanReportWinner: true}
	l.setCapabilitiesMulti(l.Members, caps)
	for _, m := range l.Members {
		ob.emitCapabilities(m, caps)
	}
	return ob.messages, nil
}

// ProposeWinner starts the two-phase winner report (§4.3). The opposite
// member receives winnerProposed and must confirm or reject.
func (l *Lobby) ProposeWinner(connID, teamName, winnerTeam string) ([]Message, error) {
	if l.GameFamily != FamilySplatoon || l.Splatoon == nil {
		return nil, rejectf("not a splatoon lobby")
	}
	st := l.Splatoon
	if err := l.checkTeamAction(connID, teamName); err != nil {
		return nil, err
	}
	if !l.Capabilities[connID].CanReportWinner {
		return nil, rejectf("connection does not hold canReportWinner")
	}
	if st.Pending != nil {
		return nil, rejectf("a winner proposal is already pending")
	}
	other, ok := l.otherMember(connID)
	if !ok {
		return nil, rejectf("no opposite member to confirm the proposal")
	}

	st.Pending = &WinnerProposal{WinnerTeam: winnerTeam, ReportingTeam: teamName}
	l.clearCapabilities()

	ob := &outbox{lobbyID: l.ID}
	ob.toConn(other, "winnerProposed", map[string]interface{}{"winnerTeam": winnerTeam, "reportingTeam": teamName})
	return ob.messages, nil
}

// ConfirmWinner resolves a pending winner proposal. Confirmation advances
// to the next round; rejection re-grants canReportWinner to the
// confirming (rejecting) team only — see the worked rejection scenario.
func (l *Lobby) ConfirmWinner(connID, teamName string, confirmed bool) ([]Message, error) {
	if l.GameFamily != FamilySplatoon || l.Splatoon == nil {
		return nil, rejectf("not a splatoon lobby")
	}
	st := l.Splatoon
	if st.Pending == nil {
		return nil, rejectf("no winner proposal is pending")
	}
	if err := l.checkTeamAction(connID, teamName); err != nil {
		return nil, err
	}
	if teamName == st.Pending.ReportingTeam {
		return nil, rejectf("the reporting team cannot confirm its own proposal")
	}

	ob := &outbox{lobbyID: l.ID}

	if !confirmed {
		rejected := st.Pending.WinnerTeam
		st.Pending = nil
		ob.toRoom("winnerRejected", map[string]interface{}{"winnerTeam": rejected})
		caps := Capabilities{CanReportWinner: true}
		l.setCapabilities(connID, caps)
		ob.emitCapabilities(connID, caps)
		ob.stateMessage("Winner report rejected — choose again.")
		return ob.messages, nil
	}

	winnerTeam := st.Pending.WinnerTeam
	completedRound := st.RoundNumber
	st.RoundHistory = append(st.RoundHistory, SplatoonRoundEntry{
		RoundNumber: completedRound,
		Mode:        st.PickedMode,
		PickedMap:   lastPickedMap(st.PickedMaps, completedRound),
		Winner:      winnerTeam,
		BannedModes: append([]string(nil), st.BannedModes...),
		BannedMaps:  bannedMapsForRound(st.BannedMaps, completedRound),
	})
	st.LastWinner = winnerTeam
	st.PriorityTeam = winnerTeam
	st.RoundNumber++
	st.Pending = nil

	ob.toRoom("winnerConfirmed", map[string]interface{}{"winnerTeam": winnerTeam, "roundNumber": completedRound})
	l.beginSplatRound(ob, false)
	return ob.messages, nil
}
