// Package veto implements the veto state machine and lobby coordinator: the
// Lobby entity, its FPS and Splatoon sub-states, and the turn controller
// that is the single writer of lobby state.
package veto

import (
	"sync"
	"time"

	"github.com/jason-s-yu/cambia/internal/catalog"
)

// GameFamily tags which veto ruleset a Lobby runs.
type GameFamily string

const (
	FamilyFPS      GameFamily = "fps"
	FamilySplatoon GameFamily = "splatoon"
)

// Capabilities is the single record of what a connection may do on its next
// action. At most one connection in a lobby holds any given capability at a
// time; setting one on a connection clears all capabilities on every other
// connection in the same controller step. The one exception is
// CanReportWinner, which MapPick grants to both members at once
// (setCapabilitiesMulti).
type Capabilities struct {
	CanBan          bool `json:"canBan"`
	CanPick         bool `json:"canPick"`
	CanModeBan      bool `json:"canModeBan"`
	CanModePick     bool `json:"canModePick"`
	CanReportWinner bool `json:"canReportWinner"`
}

// Any reports whether at least one subsidiary capability is granted.
func (c Capabilities) Any() bool {
	return c.CanBan || c.CanPick || c.CanModeBan || c.CanModePick || c.CanReportWinner
}

// TeamEntry binds a connection id to its team name, in join order.
type TeamEntry struct {
	ConnID   string `json:"connId"`
	TeamName string `json:"teamName"`
}

// PickedMapEntry is one FPS map pick. TeamName is the map-picking team;
// SideTeamName is the side-picking team (may differ in BO3/BO5). The FPS
// decider entry (when knife-decided) carries Side="DECIDER" and empty team
// names.
type PickedMapEntry struct {
	Map          string `json:"map"`
	TeamName     string `json:"teamName"`
	Side         string `json:"side"`
	SideTeamName string `json:"sideTeamName"`
	// RoundNumber is unused (0) for FPS; Splatoon stamps it so that
	// per-round counts and duplicate-map checks can filter entries that
	// accumulate across rounds (§3 note on pickedMaps/bannedMaps).
	RoundNumber int `json:"roundNumber,omitempty"`
}

// BannedMapEntry is one FPS ban, or one Splatoon map ban (round-stamped).
type BannedMapEntry struct {
	Map         string `json:"map"`
	TeamName    string `json:"teamName"`
	RoundNumber int    `json:"roundNumber,omitempty"`
}

// Side literals.
const (
	SideT       = "t"
	SideCT      = "ct"
	SideKnife   = "knife"
	SideDecider = "DECIDER"
)

// FPSState holds the counter-strike-style veto state. MapNames is set once
// at creation from a catalog snapshot and never mutated afterward — the
// positional indexing the controller does against it is always safe.
type FPSState struct {
	GameType     string   // bo1, bo3, bo5
	MapNames     []string // immutable after creation
	Pattern      []string // length-7 tokens from catalog.FPSPattern
	GameStep     int      // cursor into Pattern; starts at 7-len(MapNames)
	PickedMaps   []PickedMapEntry
	BannedMaps   []BannedMapEntry
	DeciderMap   *PickedMapEntry
	KnifeDecider bool
	Started      bool

	// BO3/BO5 side-selection hand-off (§4.3 step 3). PendingMapPicker is
	// the team whose pattern turn it is to pick a map; AwaitingSideFrom is
	// the opposite team while its side submission is outstanding;
	// PendingSide/lastSideConn record the result once submitted.
	PendingMapPicker string
	AwaitingSideFrom string
	PendingSide      string
	lastSideConn     string
}

// SplatoonRoundEntry captures one completed round for roundHistory.
type SplatoonRoundEntry struct {
	RoundNumber int      `json:"roundNumber"`
	Mode        string   `json:"mode"`
	PickedMap   string   `json:"pickedMap"`
	Winner      string   `json:"winner"`
	BannedModes []string `json:"bannedModes"`
	BannedMaps  []string `json:"bannedMaps"`
}

// WinnerProposal is the pending state of a two-phase winner report.
type WinnerProposal struct {
	WinnerTeam    string
	ReportingTeam string
}

// SplatoonState holds the multi-round mode-then-map veto state.
type SplatoonState struct {
	ModesSize    int      // 2 or 4
	AllModes     []string // the full configured mode set; immutable after creation
	ActiveModes  []string // modes still selectable this round
	BannedModes  []string
	PickedMode   string
	MapNames     []string // current round's map pool, reloaded on modePick
	PickedMaps   []PickedMapEntry
	BannedMaps   []BannedMapEntry
	PriorityTeam string
	LastWinner   string
	RoundNumber  int // starts at 1
	RoundHistory []SplatoonRoundEntry
	Pending      *WinnerProposal
	Started      bool

	// Phase is "mode" (4-mode pools only) or "map"; Pattern/GameStep track
	// progress within whichever phase is currently active.
	Phase    string
	Pattern  []catalog.SplatStep
	GameStep int
}

// Rules holds the immutable-at-creation ceremony configuration plus the
// few fields the spec calls out as mutable post-creation (LastWinner,
// ActiveModes and MapNames live on SplatoonState directly since they are
// family-specific; RoundNumber likewise). Admin and CoinFlip are the
// cross-family immutable knobs.
type Rules struct {
	Admin    bool
	CoinFlip bool
}

// Lobby is the ceremony entity: a tagged variant over FPS/Splatoon state.
type Lobby struct {
	ID         string
	GameFamily GameFamily
	CreatedAt  time.Time

	Mu sync.Mutex

	Members   []string        // connection ids, max 2
	Observers map[string]bool // connection ids, read-only
	TeamNames []TeamEntry     // ordered by join order

	Capabilities map[string]Capabilities // per connection id

	Rules Rules

	FPS      *FPSState
	Splatoon *SplatoonState

	// OnEmpty is set by the dispatcher when the lobby is created. Nothing
	// in this module calls it: disconnect cleanup deletes empty lobbies
	// through reaper.Disconnect's shouldDelete result instead.
	OnEmpty func(lobbyID string)
}

// teamNameFor returns the team name bound to connID, or "" if not found.
func (l *Lobby) teamNameFor(connID string) (string, bool) {
	for _, te := range l.TeamNames {
		if te.ConnID == connID {
			return te.TeamName, true
		}
	}
	return "", false
}

// connIDForTeam returns the connection id bound to teamName, or "" if not found.
func (l *Lobby) connIDForTeam(teamName string) (string, bool) {
	for _, te := range l.TeamNames {
		if te.TeamName == teamName {
			return te.ConnID, true
		}
	}
	return "", false
}

// isMember reports whether connID is a member (not observer) of the lobby.
func (l *Lobby) isMember(connID string) bool {
	for _, m := range l.Members {
		if m == connID {
			return true
		}
	}
	return false
}

// otherMember returns the member connection id other than connID, assuming
// exactly two members are present.
func (l *Lobby) otherMember(connID string) (string, bool) {
	for _, m := range l.Members {
		if m != connID {
			return m, true
		}
	}
	return "", false
}

// setCapabilities grants caps to exactly connID, clearing every other
// connection's capabilities in the same step (the "at most one holder"
// invariant is enforced here, in one place).
func (l *Lobby) setCapabilities(connID string, caps Capabilities) {
	if l.Capabilities == nil {
		l.Capabilities = make(map[string]Capabilities)
	}
	for id := range l.Capabilities {
		l.Capabilities[id] = Capabilities{}
	}
	l.Capabilities[connID] = caps
}

// clearCapabilities removes every capability in the lobby.
func (l *Lobby) clearCapabilities() {
	for id := range l.Capabilities {
		l.Capabilities[id] = Capabilities{}
	}
}

// setCapabilitiesMulti grants caps to every connection in ids, clearing
// every other connection first. Splatoon's winner-report step is the one
// case the spec names where two connections hold the same capability at
// once (§4.3 scenario 5), so the single-holder invariant in setCapabilities
// does not apply here.
func (l *Lobby) setCapabilitiesMulti(ids []string, caps Capabilities) {
	if l.Capabilities == nil {
		l.Capabilities = make(map[string]Capabilities)
	}
	for id := range l.Capabilities {
		l.Capabilities[id] = Capabilities{}
	}
	for _, id := range ids {
		l.Capabilities[id] = caps
	}
}
