// Package catalog holds the static, process-wide game definitions for the
// veto ceremony: FPS map pools, Splatoon map pools, veto pattern lists, and
// the mode display-name table. Every read that feeds a new lobby returns a
// JSON-round-trip deep clone so later admin edits never retroactively
// mutate a running lobby.
package catalog

import (
	"encoding/json"
	"fmt"
	"sync"
)

// FPS game types.
const (
	GameBO1 = "bo1"
	GameBO3 = "bo3"
	GameBO5 = "bo5"
)

// Splatoon modes.
const (
	ModeZones     = "zones"
	ModeTower     = "tower"
	ModeRainmaker = "rainmaker"
	ModeClams     = "clams"
)

// Veto pattern tokens.
const (
	StepBan     = "ban"
	StepPick    = "pick"
	StepDecider = "decider"
)

// Splatoon actor roles within a pattern step.
const (
	ActorPriority = "priority"
	ActorOther    = "other"
)

// SplatStep is one discrete action in a Splatoon mode/map veto pattern.
type SplatStep struct {
	Actor  string `json:"actor"`
	Action string `json:"action"`
}

var defaultFPSPool = []string{
	"dust2", "mirage", "inferno", "nuke", "overpass", "ancient", "anubis",
}

var fpsPool4 = []string{"dust2", "mirage", "inferno", "nuke"}

var defaultSplatoonPools = map[string][]string{
	ModeZones:     {"scorch-gorge", "eeltail-alley", "hagglefish-market", "undertow-spillway", "sturgeon-shipyard", "museum-dalley"},
	ModeTower:     {"scorch-gorge", "hagglefish-market", "undertow-spillway", "mincemeat-metalworks", "barnacle-dime", "crableg-capital"},
	ModeRainmaker: {"hagglefish-market", "um-ami-ruins", "robo-rom-en", "inkblot-art-academy", "sturgeon-shipyard", "crableg-capital"},
	ModeClams:     {"eeltail-alley", "mincemeat-metalworks", "um-ami-ruins", "barnacle-dime", "museum-dalley", "robo-rom-en"},
}

var modeTranslations = map[string]string{
	ModeZones:     "Splat Zones",
	ModeTower:     "Tower Control",
	ModeRainmaker: "Rainmaker",
	ModeClams:     "Clam Blitz",
}

// Store is the process-wide, concurrency-safe catalog. Reads may proceed
// concurrently; edits (from the admin surface) exclude all readers.
type Store struct {
	mu          sync.RWMutex
	fpsPool7    []string
	fpsPool4    []string
	splatPools  map[string][]string
	cardColors  map[string]string
	coinFlipDef bool
}

// NewStore returns a Store seeded with the built-in defaults.
func NewStore() *Store {
	return &Store{
		fpsPool7: append([]string(nil), defaultFPSPool...),
		fpsPool4: append([]string(nil), fpsPool4...),
		splatPools: map[string][]string{
			ModeZones:     append([]string(nil), defaultSplatoonPools[ModeZones]...),
			ModeTower:     append([]string(nil), defaultSplatoonPools[ModeTower]...),
			ModeRainmaker: append([]string(nil), defaultSplatoonPools[ModeRainmaker]...),
			ModeClams:     append([]string(nil), defaultSplatoonPools[ModeClams]...),
		},
		cardColors: map[string]string{
			"team1": "#1b6ef3",
			"team2": "#f33b1b",
		},
		coinFlipDef: true,
	}
}

// Global is the process-wide catalog used by the server.
var Global = NewStore()

// deepClone round-trips v through JSON so the caller gets an independent copy.
func deepClone[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// FPSMapPool returns a defensive copy of the FPS map pool for poolSize (4 or 7).
func (s *Store) FPSMapPool(poolSize int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch poolSize {
	case 7:
		return deepClone(s.fpsPool7), nil
	case 4:
		return deepClone(s.fpsPool4), nil
	default:
		return nil, fmt.Errorf("catalog: unsupported FPS pool size %d", poolSize)
	}
}

// SplatoonMapPool returns a defensive copy of the map pool for the given mode.
func (s *Store) SplatoonMapPool(mode string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.splatPools[mode]
	if !ok {
		return nil, fmt.Errorf("catalog: unknown splatoon mode %q", mode)
	}
	return deepClone(pool), nil
}

// ModeTranslation returns the display name for a Splatoon mode identifier.
func ModeTranslation(mode string) string {
	if name, ok := modeTranslations[mode]; ok {
		return name
	}
	return mode
}

// FPSPattern returns the length-7 veto pattern for the given FPS game type.
func FPSPattern(gameType string) ([]string, error) {
	switch gameType {
	case GameBO1:
		return []string{StepBan, StepBan, StepBan, StepBan, StepBan, StepBan, StepPick}, nil
	case GameBO3:
		return []string{StepBan, StepBan, StepPick, StepPick, StepBan, StepBan, StepDecider}, nil
	case GameBO5:
		return []string{StepBan, StepBan, StepPick, StepPick, StepPick, StepPick, StepDecider}, nil
	default:
		return nil, fmt.Errorf("catalog: unknown FPS game type %q", gameType)
	}
}

// SplatoonModePattern returns the mode-veto pattern for a 4-mode pool. Returns
// nil for a 2-mode pool (no mode phase). Round 1 uses firstRound=true.
func SplatoonModePattern(modesSize int, firstRound bool) ([]SplatStep, error) {
	switch modesSize {
	case 2:
		return nil, nil
	case 4:
		if firstRound {
			return []SplatStep{
				{Actor: ActorPriority, Action: StepBan},
				{Actor: ActorOther, Action: StepBan},
				{Actor: ActorPriority, Action: StepPick},
			}, nil
		}
		return []SplatStep{
			{Actor: ActorPriority, Action: StepBan},
			{Actor: ActorOther, Action: StepPick},
		}, nil
	default:
		return nil, fmt.Errorf("catalog: unsupported splatoon modesSize %d", modesSize)
	}
}

// SplatoonMapPattern returns the map-veto pattern for the given round.
func SplatoonMapPattern(modesSize int, firstRound bool) ([]SplatStep, error) {
	switch modesSize {
	case 2, 4:
	default:
		return nil, fmt.Errorf("catalog: unsupported splatoon modesSize %d", modesSize)
	}

	if firstRound || modesSize == 2 {
		return []SplatStep{
			{Actor: ActorPriority, Action: StepBan},
			{Actor: ActorPriority, Action: StepBan},
			{Actor: ActorOther, Action: StepBan},
			{Actor: ActorOther, Action: StepBan},
			{Actor: ActorOther, Action: StepBan},
			{Actor: ActorPriority, Action: StepPick},
		}, nil
	}

	// modesSize == 4, round N > 1: winner bans 3, loser picks.
	return []SplatStep{
		{Actor: ActorPriority, Action: StepBan},
		{Actor: ActorPriority, Action: StepBan},
		{Actor: ActorPriority, Action: StepBan},
		{Actor: ActorOther, Action: StepPick},
	}, nil
}

// DefaultTwoModeSet is the fixed subset used whenever modesSize == 2.
var DefaultTwoModeSet = []string{ModeTower, ModeZones}

// EditFPSMapPool replaces the catalog's FPS pool for the given size, or
// resets to the built-in default when newPool is nil. This mutates only the
// global catalog; already-created lobbies hold their own deep-cloned copy.
func (s *Store) EditFPSMapPool(poolSize int, newPool []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch poolSize {
	case 7:
		if newPool == nil {
			s.fpsPool7 = append([]string(nil), defaultFPSPool...)
			return nil
		}
		if len(newPool) != 7 {
			return fmt.Errorf("catalog: FPS pool of size 7 requires exactly 7 maps, got %d", len(newPool))
		}
		s.fpsPool7 = append([]string(nil), newPool...)
	case 4:
		if newPool == nil {
			s.fpsPool4 = append([]string(nil), fpsPool4...)
			return nil
		}
		if len(newPool) != 4 {
			return fmt.Errorf("catalog: FPS pool of size 4 requires exactly 4 maps, got %d", len(newPool))
		}
		s.fpsPool4 = append([]string(nil), newPool...)
	default:
		return fmt.Errorf("catalog: unsupported FPS pool size %d", poolSize)
	}
	return nil
}

// MapPoolSnapshot returns a defensive copy of every configured map pool,
// for the read-only /api/mapPool endpoint.
func (s *Store) MapPoolSnapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"fps7":     deepClone(s.fpsPool7),
		"fps4":     deepClone(s.fpsPool4),
		"splatoon": deepClone(s.splatPools),
	}
}

// CardColors returns a defensive copy of the cosmetic palette.
func (s *Store) CardColors() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepClone(s.cardColors)
}

// EditCardColors replaces the cosmetic palette, or resets to default when nil.
func (s *Store) EditCardColors(newColors map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if newColors == nil {
		s.cardColors = map[string]string{"team1": "#1b6ef3", "team2": "#f33b1b"}
		return
	}
	s.cardColors = deepClone(newColors)
}

// CoinFlipDefault returns the process-wide default for whether new lobbies
// start with coin-flip priority selection enabled.
func (s *Store) CoinFlipDefault() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coinFlipDef
}

// SetCoinFlipDefault flips the process-wide default.
func (s *Store) SetCoinFlipDefault(flag bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coinFlipDef = flag
}
