package game

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func newStartedGame(t *testing.T, n int) *Game {
	t.Helper()
	g := NewGameWithTimers("g1", rand.New(rand.NewSource(99)), TimersConfig{})
	for i := 0; i < n; i++ {
		if err := g.AddPlayer(NewPlayer(playerName(i))); err != nil {
			t.Fatalf("AddPlayer %d: %v", i, err)
		}
	}
	if err := g.Start(RoleOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return g
}

func playerName(i int) string { return string(rune('a' + i)) }

func allUsernames(g *Game) []string {
	var names []string
	for _, p := range g.GetPlayersManager().GetAll() {
		names = append(names, p.GetUsername())
	}
	return names
}

// teamFor returns n usernames starting at the current leader, wrapping
// around the roster in turn order.
func teamFor(g *Game, n int) []string {
	names := allUsernames(g)
	leader := g.GetPlayersManager().GetLeader().GetUsername()
	start := 0
	for i, name := range names {
		if name == leader {
			start = i
		}
	}
	team := make([]string, 0, n)
	for i := 0; i < n; i++ {
		team = append(team, names[(start+i)%len(names)])
	}
	return team
}

func proposeAndSubmit(t *testing.T, g *Game, team []string) {
	t.Helper()
	leader := g.GetPlayersManager().GetLeader().GetUsername()
	for _, username := range team {
		if err := g.ToggleIsProposed(leader, username); err != nil {
			t.Fatalf("ToggleIsProposed(%s): %v", username, err)
		}
	}
	if err := g.SubmitTeam(leader); err != nil {
		t.Fatalf("SubmitTeam: %v", err)
	}
}

func rejectTeamVote(t *testing.T, g *Game) {
	t.Helper()
	for _, username := range allUsernames(g) {
		if err := g.VoteForTeam(username, false); err != nil {
			t.Fatalf("VoteForTeam(%s): %v", username, err)
		}
	}
}

func approveTeamVote(t *testing.T, g *Game) {
	t.Helper()
	for _, username := range allUsernames(g) {
		if err := g.VoteForTeam(username, true); err != nil {
			t.Fatalf("VoteForTeam(%s): %v", username, err)
		}
	}
}

func castQuestVotes(t *testing.T, g *Game, team []string, success bool) {
	t.Helper()
	for _, username := range team {
		if err := g.VoteForQuest(username, success); err != nil {
			t.Fatalf("VoteForQuest(%s): %v", username, err)
		}
	}
}

func waitForState(t *testing.T, g *Game, want StateKind) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if g.GetState() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, still %s", want, g.GetState())
}

func runSuccessfulQuest(t *testing.T, g *Game) {
	t.Helper()
	quest := g.GetQuestsManager().GetCurrentQuest()
	team := teamFor(g, quest.GetVotesNeeded())
	proposeAndSubmit(t, g, team)
	waitForState(t, g, StateTeamVoting)
	approveTeamVote(t, g)
	waitForState(t, g, StateQuestVoting)
	castQuestVotes(t, g, team, true)
}

func TestGame_Start_RejectsTooFewPlayers(t *testing.T) {
	g := NewGame("g1", rand.New(rand.NewSource(1)))
	g.AddPlayer(NewPlayer("a"))
	g.AddPlayer(NewPlayer("b"))
	err := g.Start(RoleOptions{})
	if !errors.Is(err, ErrIncorrectNumberOfPlayers) {
		t.Errorf("got %v, want ErrIncorrectNumberOfPlayers", err)
	}
}

func TestGame_AddPlayer_RejectsOverCapacity(t *testing.T) {
	g := NewGame("g1", rand.New(rand.NewSource(1)))
	for i := 0; i < 10; i++ {
		if err := g.AddPlayer(NewPlayer(playerName(i))); err != nil {
			t.Fatalf("player %d: %v", i, err)
		}
	}
	err := g.AddPlayer(NewPlayer("overflow"))
	if !errors.Is(err, ErrMaximumPlayersReached) {
		t.Errorf("got %v, want ErrMaximumPlayersReached", err)
	}
}

func TestGame_AddPlayer_RejectsOnceStarted(t *testing.T) {
	g := newStartedGame(t, 5)
	err := g.AddPlayer(NewPlayer("latecomer"))
	if !errors.Is(err, ErrGameAlreadyStarted) {
		t.Errorf("got %v, want ErrGameAlreadyStarted", err)
	}
}

func TestGame_ToggleIsProposed_OnlyLeaderAllowed(t *testing.T) {
	g := newStartedGame(t, 5)
	leader := g.GetPlayersManager().GetLeader().GetUsername()
	var nonLeader string
	for _, name := range allUsernames(g) {
		if name != leader {
			nonLeader = name
			break
		}
	}
	err := g.ToggleIsProposed(nonLeader, leader)
	if !errors.Is(err, ErrNoRightToPropose) {
		t.Errorf("got %v, want ErrNoRightToPropose", err)
	}
}

func TestGame_SubmitTeam_RejectsWrongTeamSize(t *testing.T) {
	g := newStartedGame(t, 5)
	leader := g.GetPlayersManager().GetLeader().GetUsername()
	g.ToggleIsProposed(leader, leader)
	err := g.SubmitTeam(leader)
	if !errors.Is(err, ErrIncorrectNumberOfPlayers) {
		t.Errorf("got %v, want ErrIncorrectNumberOfPlayers (quest 0 of a 5-player game needs 2)", err)
	}
}

func TestGame_HappyPath_GoodWinsWhenAssassinMisses(t *testing.T) {
	g := newStartedGame(t, 5)
	for i := 0; i < 3; i++ {
		runSuccessfulQuest(t, g)
	}
	waitForState(t, g, StateAssassination)

	assassin := g.GetPlayersManager().GetAssassin().GetUsername()
	var merlin, victim string
	for _, p := range g.GetPlayersManager().GetAll() {
		if p.GetRole().GetKind() == RoleKindMerlin {
			merlin = p.GetUsername()
		}
	}
	for _, name := range allUsernames(g) {
		if name != merlin {
			victim = name
			break
		}
	}
	if err := g.Assassinate(assassin, victim); err != nil {
		t.Fatalf("Assassinate: %v", err)
	}
	if g.GetState() != StateFinish {
		t.Errorf("expected Finish after assassination, got %s", g.GetState())
	}
	if g.GetQuestsManager().GetStatus() != 1 {
		t.Errorf("good should win when the assassin misses Merlin, got status %d", g.GetQuestsManager().GetStatus())
	}
}

func TestGame_HappyPath_EvilWinsWhenAssassinKillsMerlin(t *testing.T) {
	g := newStartedGame(t, 5)
	for i := 0; i < 3; i++ {
		runSuccessfulQuest(t, g)
	}
	waitForState(t, g, StateAssassination)

	assassin := g.GetPlayersManager().GetAssassin().GetUsername()
	var merlin string
	for _, p := range g.GetPlayersManager().GetAll() {
		if p.GetRole().GetKind() == RoleKindMerlin {
			merlin = p.GetUsername()
		}
	}
	if err := g.Assassinate(assassin, merlin); err != nil {
		t.Fatalf("Assassinate: %v", err)
	}
	if g.GetQuestsManager().GetStatus() != 0 {
		t.Errorf("evil should win when the assassin kills Merlin, got status %d", g.GetQuestsManager().GetStatus())
	}
}

func TestGame_ThreeFailedQuestsEndGameWithoutAssassination(t *testing.T) {
	g := newStartedGame(t, 5)
	for i := 0; i < 3; i++ {
		quest := g.GetQuestsManager().GetCurrentQuest()
		team := teamFor(g, quest.GetVotesNeeded())
		proposeAndSubmit(t, g, team)
		waitForState(t, g, StateTeamVoting)
		approveTeamVote(t, g)
		waitForState(t, g, StateQuestVoting)
		castQuestVotes(t, g, team, false)
	}
	waitForState(t, g, StateFinish)
	if g.GetQuestsManager().GetStatus() != 0 {
		t.Errorf("three failed quests should make evil win, got status %d", g.GetQuestsManager().GetStatus())
	}
}

func TestGame_ForcedApprovalOnFifthRejectedRound(t *testing.T) {
	g := newStartedGame(t, 5)
	quest := g.GetQuestsManager().GetCurrentQuest()
	size := quest.GetVotesNeeded()

	for round := 0; round < 4; round++ {
		team := teamFor(g, size)
		proposeAndSubmit(t, g, team)
		waitForState(t, g, StateTeamVoting)
		rejectTeamVote(t, g)
		waitForState(t, g, StateTeamProposition)
	}

	if !g.GetQuestsManager().GetCurrentQuest().IsLastRoundOfTeamVoting() {
		t.Fatal("expected the fifth round to be the forced-approval round")
	}

	team := teamFor(g, size)
	proposeAndSubmit(t, g, team)
	waitForState(t, g, StateQuestVoting)
	castQuestVotes(t, g, team, true)
	if quest.GetStatus() != 1 {
		t.Error("the forced-approval quest should still resolve from real quest votes")
	}
}

func TestGame_RevealRoles_ClosesChannelAfterDelay(t *testing.T) {
	g := newStartedGame(t, 5)
	ch := g.RevealRoles(0)
	<-ch
	snapshot := g.Serialize()
	if snapshot["rolesAreRevealed"] != true {
		t.Error("expected rolesAreRevealed to be true after the timer fires")
	}
}

func TestGame_Serialize_ShapeMatchesSnapshotContract(t *testing.T) {
	g := newStartedGame(t, 5)
	snapshot := g.Serialize()
	for _, key := range []string{"id", "createdAt", "startedAt", "finishedAt", "rolesAreRevealed", "playersManager", "questsManager", "state"} {
		if _, ok := snapshot[key]; !ok {
			t.Errorf("snapshot missing key %q", key)
		}
	}
	if snapshot["state"] != string(StateTeamProposition) {
		t.Errorf("got state=%v, want %s", snapshot["state"], StateTeamProposition)
	}
}
