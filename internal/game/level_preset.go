package game

// QuestConfig describes one quest's team size and fail threshold, before any
// players have been assigned to it.
type QuestConfig struct {
	VotesNeeded int
	FailsNeeded int
}

// LevelPreset is the authoritative per-player-count table: how many
// good/evil players exist, and the team size / fail threshold for each of
// the five quests. Looked up once at Start and never mutated afterwards.
type LevelPreset struct {
	playerCount int
	goodCount   int
	evilCount   int
	quests      [5]QuestConfig
}

// teamSizesByPlayerCount is the standard five-quest team size progression,
// indexed by player count (5-10).
var teamSizesByPlayerCount = map[int][5]int{
	5:  {2, 3, 2, 3, 3},
	6:  {2, 3, 4, 3, 4},
	7:  {2, 3, 3, 4, 4},
	8:  {3, 4, 4, 5, 5},
	9:  {3, 4, 4, 5, 5},
	10: {3, 4, 4, 5, 5},
}

// evilCountByPlayerCount is the standard evil-player count; good count is
// simply playerCount - evilCount.
var evilCountByPlayerCount = map[int]int{
	5: 2, 6: 2, 7: 3, 8: 3, 9: 3, 10: 4,
}

// NewLevelPreset looks up the preset for playerCount, which must be within
// [5, 10].
func NewLevelPreset(playerCount int) (*LevelPreset, error) {
	sizes, ok := teamSizesByPlayerCount[playerCount]
	if !ok {
		return nil, ErrUnsupportedPlayerCount
	}
	evilCount := evilCountByPlayerCount[playerCount]

	preset := &LevelPreset{
		playerCount: playerCount,
		goodCount:   playerCount - evilCount,
		evilCount:   evilCount,
	}
	for i, votesNeeded := range sizes {
		failsNeeded := 1
		// The fourth quest (index 3) requires two failed votes in games of
		// seven or more players; every other quest needs only one.
		if playerCount >= 7 && i == 3 {
			failsNeeded = 2
		}
		preset.quests[i] = QuestConfig{VotesNeeded: votesNeeded, FailsNeeded: failsNeeded}
	}
	return preset, nil
}

func (lp *LevelPreset) GetPlayerCount() int { return lp.playerCount }

func (lp *LevelPreset) GetGoodCount() int { return lp.goodCount }

func (lp *LevelPreset) GetEvilCount() int { return lp.evilCount }

// GetQuestsConfig returns the five quest configurations in round order.
func (lp *LevelPreset) GetQuestsConfig() [5]QuestConfig { return lp.quests }
