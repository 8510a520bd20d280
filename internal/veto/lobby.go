package veto

import (
	"fmt"
	"time"

	"github.com/jason-s-yu/cambia/internal/catalog"
)

// FPSLobbyConfig carries the create-time parameters for an FPS lobby.
type FPSLobbyConfig struct {
	ID           string
	GameType     string // bo1, bo3, bo5
	MapPoolSize  int    // 4 or 7; bo3/bo5 must be 7
	KnifeDecider bool
	CoinFlip     bool
	Admin        bool
}

// NewFPSLobby validates cfg against catalog constraints and returns a new
// FPS Lobby. Returns ErrConfigInvalid on any rule violation (§7).
func NewFPSLobby(cfg FPSLobbyConfig) (*Lobby, error) {
	if cfg.GameType == catalog.GameBO3 || cfg.GameType == catalog.GameBO5 {
		if cfg.MapPoolSize != 7 {
			return nil, fmt.Errorf("%w: %s requires a 7-map pool, got %d", ErrConfigInvalid, cfg.GameType, cfg.MapPoolSize)
		}
	}
	if cfg.MapPoolSize != 4 && cfg.MapPoolSize != 7 {
		return nil, fmt.Errorf("%w: unsupported map pool size %d", ErrConfigInvalid, cfg.MapPoolSize)
	}

	pattern, err := catalog.FPSPattern(cfg.GameType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	pool, err := catalog.Global.FPSMapPool(cfg.MapPoolSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	return &Lobby{
		ID:           cfg.ID,
		GameFamily:   FamilyFPS,
		CreatedAt:    time.Now(),
		Observers:    make(map[string]bool),
		Capabilities: make(map[string]Capabilities),
		Rules:        Rules{Admin: cfg.Admin, CoinFlip: cfg.CoinFlip},
		FPS: &FPSState{
			GameType:     cfg.GameType,
			MapNames:     pool,
			Pattern:      pattern,
			GameStep:     7 - len(pool),
			KnifeDecider: cfg.KnifeDecider,
		},
	}, nil
}

// SplatoonLobbyConfig carries the create-time parameters for a Splatoon lobby.
type SplatoonLobbyConfig struct {
	ID         string
	ModesSize  int // 2 or 4
	ModePool   []string
	CoinFlip   bool
	Admin      bool
}

// NewSplatoonLobby validates cfg against catalog constraints and returns a
// new Splatoon Lobby.
func NewSplatoonLobby(cfg SplatoonLobbyConfig) (*Lobby, error) {
	var activeModes []string
	switch cfg.ModesSize {
	case 2:
		activeModes = append([]string(nil), catalog.DefaultTwoModeSet...)
	case 4:
		if len(cfg.ModePool) != 4 {
			return nil, fmt.Errorf("%w: a 4-mode lobby requires exactly 4 modes, got %d", ErrConfigInvalid, len(cfg.ModePool))
		}
		activeModes = append([]string(nil), cfg.ModePool...)
	default:
		return nil, fmt.Errorf("%w: modesSize must be 2 or 4, got %d", ErrConfigInvalid, cfg.ModesSize)
	}

	return &Lobby{
		ID:           cfg.ID,
		GameFamily:   FamilySplatoon,
		CreatedAt:    time.Now(),
		Observers:    make(map[string]bool),
		Capabilities: make(map[string]Capabilities),
		Rules:        Rules{Admin: cfg.Admin, CoinFlip: cfg.CoinFlip},
		Splatoon: &SplatoonState{
			ModesSize:   cfg.ModesSize,
			AllModes:    append([]string(nil), activeModes...),
			ActiveModes: activeModes,
			RoundNumber: 1,
		},
	}, nil
}

// AddMember adds connID as an authoritative participant (max 2). Returns
// ErrSilentReject if the lobby is already full.
func (l *Lobby) AddMember(connID string) error {
	if len(l.Members) >= 2 {
		return rejectf("lobby already has 2 members")
	}
	for _, m := range l.Members {
		if m == connID {
			return nil
		}
	}
	l.Members = append(l.Members, connID)
	return nil
}

// AddObserver adds connID to the read-only observer set.
func (l *Lobby) AddObserver(connID string) {
	l.Observers[connID] = true
}

// SetTeamName binds connID to teamName in join order, provided connID is a
// member. A connection that is already bound has its name replaced in
// place, keeping its position.
func (l *Lobby) SetTeamName(connID, teamName string) error {
	if !l.isMember(connID) {
		return rejectf("connection is not a member")
	}
	for i, te := range l.TeamNames {
		if te.ConnID == connID {
			l.TeamNames[i].TeamName = teamName
			return nil
		}
	}
	if len(l.TeamNames) >= 2 {
		return rejectf("lobby already has 2 team names bound")
	}
	l.TeamNames = append(l.TeamNames, TeamEntry{ConnID: connID, TeamName: teamName})
	return nil
}

// Ready reports whether the ceremony may advance past step 0: two bound
// team names, or admin mode.
func (l *Lobby) Ready() bool {
	return len(l.TeamNames) == 2 || l.Rules.Admin
}

// RoomMembers returns every connection id (members + observers) currently
// attached to the lobby.
func (l *Lobby) RoomMembers() []string {
	out := make([]string, 0, len(l.Members)+len(l.Observers))
	out = append(out, l.Members...)
	for id := range l.Observers {
		out = append(out, id)
	}
	return out
}

// RemoveConnection removes connID from members, observers, and teamNames
// (§4.6), broadcasts teamNamesUpdated to whoever remains, and reports
// whether the lobby is now empty of members. Callers hold l.Mu.
func (l *Lobby) RemoveConnection(connID string) (messages []Message, nowEmpty bool) {
	for i, m := range l.Members {
		if m == connID {
			l.Members = append(l.Members[:i], l.Members[i+1:]...)
			break
		}
	}
	delete(l.Observers, connID)
	for i, te := range l.TeamNames {
		if te.ConnID == connID {
			l.TeamNames = append(l.TeamNames[:i], l.TeamNames[i+1:]...)
			break
		}
	}
	delete(l.Capabilities, connID)

	ob := &outbox{lobbyID: l.ID}
	ob.toRoom("teamNamesUpdated", map[string]interface{}{"teamNames": l.TeamNames})
	return ob.messages, len(l.Members) == 0
}
