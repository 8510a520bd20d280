package veto

// Snapshot reproduces the full domain-delta state of the lobby as a batch
// of messages aimed at a single target. It backs two call sites: a newly
// joined connection needs the same picture a live participant has built up
// event-by-event, and admin.setObsLobby's round-trip guarantee (§8) — the
// obs_views room must end up seeing the same pickedMaps/bannedMaps/
// bannedModes/pickedMode as the live lobby, not a diff since some earlier
// point. Callers hold l.Mu.
func (l *Lobby) Snapshot(target Target, connID string) []Message {
	ob := &outbox{lobbyID: l.ID}
	send := func(evType string, payload map[string]interface{}) {
		switch target {
		case TargetConn:
			ob.toConn(connID, evType, payload)
		case TargetObs:
			ob.toObs(evType, payload)
		default:
			ob.toRoom(evType, payload)
		}
	}

	send("gameName", map[string]interface{}{"gameFamily": string(l.GameFamily)})
	send("teamNamesUpdated", map[string]interface{}{"teamNames": l.TeamNames})

	switch l.GameFamily {
	case FamilyFPS:
		send("mapNames", map[string]interface{}{"mapNames": l.FPS.MapNames})
		send("fpsLobbySettings", map[string]interface{}{
			"gameType":     l.FPS.GameType,
			"knifeDecider": l.FPS.KnifeDecider,
			"coinFlip":     l.Rules.CoinFlip,
		})
		send("bannedUpdated", map[string]interface{}{"bannedMaps": l.FPS.BannedMaps})
		send("pickedUpdated", map[string]interface{}{"pickedMaps": l.FPS.PickedMaps})
		if l.FPS.DeciderMap != nil {
			send("deciderUpdated", map[string]interface{}{"map": l.FPS.DeciderMap.Map, "side": l.FPS.DeciderMap.Side})
		}
	case FamilySplatoon:
		send("modesSizeUpdated", map[string]interface{}{"modesSize": l.Splatoon.ModesSize})
		send("modesUpdated", map[string]interface{}{"activeModes": l.Splatoon.ActiveModes, "bannedModes": l.Splatoon.BannedModes})
		if l.Splatoon.PickedMode != "" {
			send("modePicked", map[string]interface{}{"mode": l.Splatoon.PickedMode})
		}
		send("mapNames", map[string]interface{}{"mapNames": l.Splatoon.MapNames})
		send("bannedUpdated", map[string]interface{}{"bannedMaps": l.Splatoon.BannedMaps})
		send("pickedUpdated", map[string]interface{}{"pickedMaps": l.Splatoon.PickedMaps})
	}

	// Capabilities are connection-scoped permission grants, not broadcast
	// domain state — only meaningful when snapshotting to the holder itself.
	if target == TargetConn {
		if caps, ok := l.Capabilities[connID]; ok && caps.Any() {
			ob.emitCapabilities(connID, caps)
		}
	}
	return ob.messages
}
