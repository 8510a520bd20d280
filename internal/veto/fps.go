// FPS turn algorithm — §4.3. The flow for BO3/BO5 side-selection splits a
// single pattern "pick" step into three wire round-trips, which is the only
// reading that gives the documented "backend.startPick" and "endPick"
// outbound events (§6) a purpose: (1) the active team signals startPick,
// (2) capability transfers to the opposite team to submit the side only,
// (3) capability returns to the active team to submit the map, completing
// the pick. BO1 has no side-selection hand-off: the active team submits
// map and side together in one Pick call.
package veto

import (
	"math/rand"

	"github.com/jason-s-yu/cambia/internal/catalog"
)

func capForToken(token string) Capabilities {
	switch token {
	case catalog.StepBan:
		return Capabilities{CanBan: true}
	case catalog.StepPick, catalog.StepDecider:
		return Capabilities{CanPick: true}
	default:
		return Capabilities{}
	}
}

// StartGameFPS begins an FPS ceremony. Per §4.3.1, if coinFlip is enabled a
// uniform random bit selects the first actor; otherwise the first-inserted
// team goes first.
func (l *Lobby) StartGameFPS() ([]Message, error) {
	if l.GameFamily != FamilyFPS || l.FPS == nil {
		return nil, rejectf("not an FPS lobby")
	}
	if l.FPS.Started {
		return nil, rejectf("ceremony already started")
	}
	if !l.Ready() {
		return nil, rejectf("lobby is not ready to start")
	}
	l.FPS.Started = true

	ob := &outbox{lobbyID: l.ID}

	var first string
	if len(l.Members) == 2 {
		if l.Rules.CoinFlip {
			idx := rand.Intn(2)
			first = l.Members[idx]
			ob.toRoom("coinFlipUpdated", map[string]interface{}{"winner": first})
		} else {
			first = l.TeamNames[0].ConnID
			ob.toRoom("startWithoutCoin", map[string]interface{}{"first": first})
		}
	}

	ob.stateMessage("Veto ceremony has begun.")

	if first != "" {
		caps := capForToken(l.FPS.Pattern[l.FPS.GameStep])
		l.setCapabilities(first, caps)
		ob.emitCapabilities(first, caps)
	}

	return ob.messages, nil
}

// checkTeamAction runs the common preflight for every team action (§4.3
// "Common preflight"): membership, team-name binding, and impersonation
// checks. Capability-specific checks are left to the caller since the
// relevant capability bit differs per action kind.
func (l *Lobby) checkTeamAction(connID, teamName string) error {
	if !l.isMember(connID) {
		return rejectf("connection is not a lobby member")
	}
	bound, ok := l.teamNameFor(connID)
	if !ok {
		return rejectf("connection has no bound team name")
	}
	if bound != teamName {
		return rejectf("team name does not match connection's bound name")
	}
	return nil
}

func mapInEntries(mapName string, picked []PickedMapEntry, banned []BannedMapEntry) bool {
	for _, p := range picked {
		if p.Map == mapName {
			return true
		}
	}
	for _, b := range banned {
		if b.Map == mapName {
			return true
		}
	}
	return false
}

func mapIsActive(mapName string, pool []string) bool {
	for _, m := range pool {
		if m == mapName {
			return true
		}
	}
	return false
}

// Ban handles §4.3 step 2.
func (l *Lobby) Ban(connID, teamName, mapName string) ([]Message, error) {
	if l.GameFamily != FamilyFPS || l.FPS == nil {
		return nil, rejectf("not an FPS lobby")
	}
	if err := l.checkTeamAction(connID, teamName); err != nil {
		return nil, err
	}
	if !l.Capabilities[connID].CanBan {
		return nil, rejectf("connection does not hold canBan")
	}
	if !mapIsActive(mapName, l.FPS.MapNames) || mapInEntries(mapName, l.FPS.PickedMaps, l.FPS.BannedMaps) {
		return nil, rejectf("map is not available to ban")
	}

	l.FPS.BannedMaps = append(l.FPS.BannedMaps, BannedMapEntry{Map: mapName, TeamName: teamName})
	l.FPS.GameStep++

	ob := &outbox{lobbyID: l.ID}
	ob.toRoom("bannedUpdated", map[string]interface{}{"map": mapName, "teamName": teamName})
	l.advanceFPS(ob, connID)
	return ob.messages, nil
}

// StartPick signals the active team is ready to pick (§4.3 step 3,
// BO3/BO5 only). Transfers the side-selection capability to the opposite
// team.
func (l *Lobby) StartPick(connID, teamName string) ([]Message, error) {
	if l.GameFamily != FamilyFPS || l.FPS == nil {
		return nil, rejectf("not an FPS lobby")
	}
	if l.FPS.GameType == catalog.GameBO1 {
		return nil, rejectf("startPick is not used in BO1")
	}
	if err := l.checkTeamAction(connID, teamName); err != nil {
		return nil, err
	}
	if !l.Capabilities[connID].CanPick || l.FPS.PendingMapPicker != "" {
		return nil, rejectf("connection does not hold canPick for this step")
	}

	other, ok := l.otherMember(connID)
	if !ok {
		return nil, rejectf("no opposite member to select side")
	}

	l.FPS.PendingMapPicker = connID
	l.FPS.AwaitingSideFrom = other

	ob := &outbox{lobbyID: l.ID}
	ob.toRoom("backend.startPick", map[string]interface{}{"teamName": teamName})
	caps := Capabilities{CanPick: true}
	l.setCapabilities(other, caps)
	ob.emitCapabilities(other, caps)
	return ob.messages, nil
}

// Pick handles §4.3 step 4. In BO1 a single call submits map and side. In
// BO3/BO5, after StartPick the opposite team submits only side, then the
// active team submits only map.
func (l *Lobby) Pick(connID, teamName, mapName, side string) ([]Message, error) {
	if l.GameFamily != FamilyFPS || l.FPS == nil {
		return nil, rejectf("not an FPS lobby")
	}
	if err := l.checkTeamAction(connID, teamName); err != nil {
		return nil, err
	}
	if !l.Capabilities[connID].CanPick {
		return nil, rejectf("connection does not hold canPick")
	}

	ob := &outbox{lobbyID: l.ID}

	if l.FPS.GameType == catalog.GameBO1 {
		if !mapIsActive(mapName, l.FPS.MapNames) || mapInEntries(mapName, l.FPS.PickedMaps, l.FPS.BannedMaps) {
			return nil, rejectf("map is not available to pick")
		}
		entry := PickedMapEntry{Map: mapName, TeamName: teamName, Side: side, SideTeamName: teamName}
		l.FPS.PickedMaps = append(l.FPS.PickedMaps, entry)
		l.FPS.GameStep++
		ob.toRoom("pickedUpdated", map[string]interface{}{"map": mapName, "teamName": teamName, "side": side, "sideTeamName": teamName})
		l.advanceFPS(ob, connID)
		return ob.messages, nil
	}

	// BO3/BO5.
	switch {
	case l.FPS.PendingMapPicker == "" || l.FPS.AwaitingSideFrom == connID:
		// Side-selection sub-step: this call comes from the opposite team.
		if l.FPS.PendingMapPicker == "" {
			return nil, rejectf("must call startPick before picking in BO3/BO5")
		}
		l.FPS.PendingSide = side
		l.FPS.lastSideConn = connID
		l.FPS.AwaitingSideFrom = ""
		picker := l.FPS.PendingMapPicker
		ob.toRoom("endPick", map[string]interface{}{"side": side, "teamName": teamName})
		caps := Capabilities{CanPick: true}
		l.setCapabilities(picker, caps)
		ob.emitCapabilities(picker, caps)
		return ob.messages, nil

	case l.FPS.PendingMapPicker == connID:
		// Map-selection sub-step: the original active team submits the map.
		if !mapIsActive(mapName, l.FPS.MapNames) || mapInEntries(mapName, l.FPS.PickedMaps, l.FPS.BannedMaps) {
			return nil, rejectf("map is not available to pick")
		}
		sideTeam, _ := l.teamNameFor(l.FPS.lastSideConn)
		entry := PickedMapEntry{Map: mapName, TeamName: teamName, Side: l.FPS.PendingSide, SideTeamName: sideTeam}
		l.FPS.PickedMaps = append(l.FPS.PickedMaps, entry)
		l.FPS.GameStep++
		l.FPS.PendingMapPicker = ""
		l.FPS.PendingSide = ""
		ob.toRoom("pickedUpdated", map[string]interface{}{"map": mapName, "teamName": entry.TeamName, "side": entry.Side, "sideTeamName": entry.SideTeamName})
		l.advanceFPS(ob, connID)
		return ob.messages, nil

	default:
		return nil, rejectf("connection is not expected to act in this sub-step")
	}
}

// Decider handles §4.3 step 5's non-knife branch. The wire event
// lobby.decider is abbreviated in §6 to {lobbyId,map}; SPEC_FULL extends it
// with teamName/side since the team that receives decider capability picks
// both the map and its own side (§4.3: "who picks the decider map and its
// side").
func (l *Lobby) Decider(connID, teamName, mapName, side string) ([]Message, error) {
	if l.GameFamily != FamilyFPS || l.FPS == nil {
		return nil, rejectf("not an FPS lobby")
	}
	if l.FPS.KnifeDecider {
		return nil, rejectf("knife decider is automatic; no client action expected")
	}
	if err := l.checkTeamAction(connID, teamName); err != nil {
		return nil, err
	}
	if !l.Capabilities[connID].CanPick {
		return nil, rejectf("connection does not hold canPick for the decider")
	}
	if !mapIsActive(mapName, l.FPS.MapNames) || mapInEntries(mapName, l.FPS.PickedMaps, l.FPS.BannedMaps) {
		return nil, rejectf("map is not available for the decider")
	}

	entry := PickedMapEntry{Map: mapName, TeamName: teamName, Side: side, SideTeamName: teamName}
	l.FPS.DeciderMap = &entry
	l.FPS.PickedMaps = append(l.FPS.PickedMaps, entry)
	l.FPS.GameStep++

	ob := &outbox{lobbyID: l.ID}
	ob.toRoom("deciderUpdated", map[string]interface{}{"map": mapName, "teamName": teamName, "side": side})
	l.clearCapabilities()
	ob.stateMessage("Veto ceremony complete.")
	return ob.messages, nil
}

// advanceFPS applies §4.3's uniform alternation: every consumed step
// (ban, pick, or decider) hands the next capability to the other member,
// unless the knife decider auto-fills the final map or the pattern is
// exhausted.
func (l *Lobby) advanceFPS(ob *outbox, lastActor string) {
	if l.FPS.GameStep >= len(l.FPS.Pattern) {
		l.terminateFPS(ob)
		return
	}

	next, ok := l.otherMember(lastActor)
	if !ok {
		next = lastActor
	}

	token := l.FPS.Pattern[l.FPS.GameStep]
	if token == catalog.StepDecider && l.FPS.KnifeDecider {
		l.autoKnifeDecider(ob)
		return
	}

	caps := capForToken(token)
	l.setCapabilities(next, caps)
	ob.emitCapabilities(next, caps)
}

// autoKnifeDecider computes the single map absent from both picked and
// banned maps and appends it with Side = "DECIDER", per §4.3 step 5.
func (l *Lobby) autoKnifeDecider(ob *outbox) {
	var remaining string
	for _, m := range l.FPS.MapNames {
		if !mapInEntries(m, l.FPS.PickedMaps, l.FPS.BannedMaps) {
			remaining = m
			break
		}
	}
	entry := PickedMapEntry{Map: remaining, TeamName: "", Side: SideDecider, SideTeamName: ""}
	l.FPS.DeciderMap = &entry
	l.FPS.PickedMaps = append(l.FPS.PickedMaps, entry)
	l.FPS.GameStep++

	ob.toRoom("deciderUpdated", map[string]interface{}{"map": remaining, "side": SideDecider})
	ob.stateMessage("Десайдер — " + remaining)
	l.terminateFPS(ob)
}

// terminateFPS ends the ceremony: all capabilities off.
func (l *Lobby) terminateFPS(ob *outbox) {
	l.clearCapabilities()
	ob.stateMessage("Veto ceremony complete.")
}
