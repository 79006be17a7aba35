package game

import (
	"errors"
	"testing"
)

func TestNewLevelPreset_KnownPlayerCounts(t *testing.T) {
	cases := []struct {
		players            int
		wantGood, wantEvil int
		wantSizes          [5]int
	}{
		{5, 3, 2, [5]int{2, 3, 2, 3, 3}},
		{6, 4, 2, [5]int{2, 3, 4, 3, 4}},
		{7, 4, 3, [5]int{2, 3, 3, 4, 4}},
		{8, 5, 3, [5]int{3, 4, 4, 5, 5}},
		{9, 6, 3, [5]int{3, 4, 4, 5, 5}},
		{10, 6, 4, [5]int{3, 4, 4, 5, 5}},
	}
	for _, c := range cases {
		preset, err := NewLevelPreset(c.players)
		if err != nil {
			t.Fatalf("players=%d: unexpected error: %v", c.players, err)
		}
		if preset.GetGoodCount() != c.wantGood || preset.GetEvilCount() != c.wantEvil {
			t.Errorf("players=%d: got good=%d evil=%d, want good=%d evil=%d",
				c.players, preset.GetGoodCount(), preset.GetEvilCount(), c.wantGood, c.wantEvil)
		}
		cfg := preset.GetQuestsConfig()
		for i, want := range c.wantSizes {
			if cfg[i].VotesNeeded != want {
				t.Errorf("players=%d quest %d: got votesNeeded=%d, want %d", c.players, i, cfg[i].VotesNeeded, want)
			}
		}
	}
}

func TestNewLevelPreset_FourthQuestNeedsTwoFailsAtSevenOrMorePlayers(t *testing.T) {
	for players := 5; players <= 10; players++ {
		preset, err := NewLevelPreset(players)
		if err != nil {
			t.Fatalf("players=%d: %v", players, err)
		}
		cfg := preset.GetQuestsConfig()
		want := 1
		if players >= 7 {
			want = 2
		}
		if cfg[3].FailsNeeded != want {
			t.Errorf("players=%d: quest index 3 failsNeeded=%d, want %d", players, cfg[3].FailsNeeded, want)
		}
		for i, c := range cfg {
			if i == 3 {
				continue
			}
			if c.FailsNeeded != 1 {
				t.Errorf("players=%d quest %d: failsNeeded=%d, want 1", players, i, c.FailsNeeded)
			}
		}
	}
}

func TestNewLevelPreset_UnsupportedPlayerCount(t *testing.T) {
	for _, n := range []int{0, 1, 4, 11, 20} {
		_, err := NewLevelPreset(n)
		if !errors.Is(err, ErrUnsupportedPlayerCount) {
			t.Errorf("players=%d: got %v, want ErrUnsupportedPlayerCount", n, err)
		}
	}
}
