package game

import (
	"errors"
	"testing"
)

func TestQuest_TeamVoting_MajorityApproves(t *testing.T) {
	q := NewQuest(2, 1, 5)
	for _, name := range []string{"a", "b", "c"} {
		if err := q.AddVote(NewVote(name, true)); err != nil {
			t.Fatalf("vote %s: %v", name, err)
		}
	}
	for _, name := range []string{"d", "e"} {
		if err := q.AddVote(NewVote(name, false)); err != nil {
			t.Fatalf("vote %s: %v", name, err)
		}
	}
	if !q.CurrentRoundComplete() {
		t.Fatal("round should be complete once every player has voted")
	}
	if !q.TeamVotingSucceeded() {
		t.Error("3 approve vs 2 reject should succeed")
	}
}

func TestQuest_TeamVoting_TieRejects(t *testing.T) {
	q := NewQuest(2, 1, 4)
	q.AddVote(NewVote("a", true))
	q.AddVote(NewVote("b", true))
	q.AddVote(NewVote("c", false))
	q.AddVote(NewVote("d", false))
	if q.TeamVotingSucceeded() {
		t.Error("a tied vote should reject, not succeed")
	}
	if !q.TeamVotingRoundFinished() {
		t.Error("a tied, complete round should count as finished (rejected)")
	}
	if q.GetTeamVotingRoundIndex() != 1 {
		t.Errorf("round index should advance to 1 after a rejection, got %d", q.GetTeamVotingRoundIndex())
	}
}

func TestQuest_TeamVoting_RejectsDuplicateVoteSameRound(t *testing.T) {
	q := NewQuest(2, 1, 3)
	if err := q.AddVote(NewVote("a", true)); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	err := q.AddVote(NewVote("a", false))
	if !errors.Is(err, ErrAlreadyVotedForTeam) {
		t.Errorf("got %v, want ErrAlreadyVotedForTeam", err)
	}
}

func TestQuest_TeamVoting_RoundIndexCapsAtFour(t *testing.T) {
	q := NewQuest(2, 1, 2)
	for round := 0; round < 10; round++ {
		q.AddVote(NewVote("a", false))
		q.AddVote(NewVote("b", false))
		q.TeamVotingRoundFinished()
	}
	if q.GetTeamVotingRoundIndex() != 4 {
		t.Errorf("round index should cap at 4, got %d", q.GetTeamVotingRoundIndex())
	}
	if !q.IsLastRoundOfTeamVoting() {
		t.Error("expected IsLastRoundOfTeamVoting once index reaches 4")
	}
}

func TestQuest_QuestVoting_AllowedOnlyAfterTeamApproval(t *testing.T) {
	q := NewQuest(2, 1, 4)
	if err := q.AddVote(NewVote("e", true)); err != nil {
		t.Fatalf("quest vote before team approval should be routed as a team vote: %v", err)
	}
	q.AddVote(NewVote("f", true))
	q.AddVote(NewVote("g", true))
	q.AddVote(NewVote("h", false))
	if !q.TeamVotingSucceeded() {
		t.Fatal("setup: expected team approval")
	}
	if !q.QuestVotingAllowed() {
		t.Error("quest voting should now be allowed")
	}
}

func TestQuest_QuestVoting_FailsNeededThreshold(t *testing.T) {
	q := NewQuest(2, 2, 4)
	q.AddVote(NewVote("a", true))
	q.AddVote(NewVote("b", true))
	q.AddVote(NewVote("c", true))
	q.AddVote(NewVote("d", true))
	q.AddVote(NewVote("x", false))
	if q.GetStatus() != -1 {
		t.Fatal("status should be pending with only 1 of 2 quest votes")
	}
	q.AddVote(NewVote("y", true))
	if q.GetStatus() != 1 {
		t.Errorf("one fail vote should not fail a quest that needs 2, got status %d", q.GetStatus())
	}
}

func TestQuest_QuestVoting_RejectsDuplicateVoter(t *testing.T) {
	q := NewQuest(1, 1, 3)
	q.AddVote(NewVote("a", true))
	q.AddVote(NewVote("b", true))
	q.AddVote(NewVote("c", false))
	if err := q.AddVote(NewVote("a", true)); err != nil {
		t.Fatalf("first quest vote: %v", err)
	}
	err := q.AddVote(NewVote("a", false))
	if !errors.Is(err, ErrAlreadyVotedForQuest) {
		t.Errorf("got %v, want ErrAlreadyVotedForQuest", err)
	}
}

func TestQuest_Serialize(t *testing.T) {
	q := NewQuest(2, 1, 4)
	q.AddVote(NewVote("a", true))
	got := q.Serialize()
	if got["votesNeeded"] != 2 || got["failsNeeded"] != 1 || got["totalPlayers"] != 4 {
		t.Errorf("unexpected serialization: %v", got)
	}
}
