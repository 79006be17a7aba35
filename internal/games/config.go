package games

import (
	"github.com/vntrieu/avalon/internal/game"
)

// EngineConfig configures the games session registry: which optional roles
// are in play, and how long each phase's Frozen pacing interval lasts.
// Callers normally just use ClassicAvalonConfig(); the fields are exported
// so a room owner can widen the role pool or tune pacing per game.
type EngineConfig struct {
	Roles  game.RoleOptions
	Timers game.TimersConfig
}

// ClassicAvalonConfig is the base ruleset: no optional roles, and the
// engine's default five-second Frozen pacing between phases.
func ClassicAvalonConfig() EngineConfig {
	return EngineConfig{
		Roles:  game.RoleOptions{},
		Timers: game.DefaultTimersConfig(),
	}
}

// ZeroWaitConfig is ClassicAvalonConfig with all Frozen pacing removed,
// useful for tests and for any deployment that wants phase transitions to
// take effect immediately.
func ZeroWaitConfig() EngineConfig {
	return EngineConfig{
		Roles:  game.RoleOptions{},
		Timers: game.TimersConfig{},
	}
}

// DefaultTeamSizesForPlayerCount reports the five quest team sizes for the
// given player count (5-10), per the classic Avalon table. It exists for
// callers (e.g. lobby UIs) that want to preview team sizes before a game
// starts without constructing a full LevelPreset.
func DefaultTeamSizesForPlayerCount(n int) []int {
	preset, err := game.NewLevelPreset(n)
	if err != nil {
		return []int{2, 3, 2, 3, 3}
	}
	cfg := preset.GetQuestsConfig()
	sizes := make([]int, len(cfg))
	for i, c := range cfg {
		sizes[i] = c.VotesNeeded
	}
	return sizes
}

// minPlayers / maxPlayers mirror game.LevelPreset's supported range.
const (
	minPlayers = 5
	maxPlayers = 10
)
