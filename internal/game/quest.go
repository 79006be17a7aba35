package game

// Quest tracks one round's team-voting history (up to five attempts at
// getting a team approved) and the quest votes cast by the approved team.
//
// teamVoteRounds is append-only and permanent: rejected rounds are kept for
// the life of the game rather than discarded, so a snapshot can show the
// full history of proposals.
type Quest struct {
	votesNeeded          int
	failsNeeded          int
	totalPlayers         int
	teamVoteRounds       [5][]Vote
	teamVotingRoundIndex int
	questVotes           []Vote
}

// NewQuest builds a quest requiring votesNeeded players on the team and
// failsNeeded failing quest-votes to fail it. totalPlayers is the number of
// players who cast a team vote in each round; once a team is approved, its
// votesNeeded members cast the quest votes.
func NewQuest(votesNeeded, failsNeeded, totalPlayers int) *Quest {
	return &Quest{
		votesNeeded:  votesNeeded,
		failsNeeded:  failsNeeded,
		totalPlayers: totalPlayers,
	}
}

func (q *Quest) GetVotesNeeded() int { return q.votesNeeded }

func (q *Quest) GetFailsNeeded() int { return q.failsNeeded }

func (q *Quest) GetTeamVotingRoundIndex() int { return q.teamVotingRoundIndex }

func (q *Quest) GetQuestVotes() []Vote { return q.questVotes }

func (q *Quest) currentRound() []Vote {
	return q.teamVoteRounds[q.teamVotingRoundIndex]
}

// IsLastRoundOfTeamVoting reports whether the current round is the fifth
// (forced-approval) attempt.
func (q *Quest) IsLastRoundOfTeamVoting() bool {
	return q.teamVotingRoundIndex == 4
}

func roundApproved(round []Vote) bool {
	approve, reject := 0, 0
	for _, v := range round {
		if v.GetValue() {
			approve++
		} else {
			reject++
		}
	}
	return approve > reject
}

// CurrentRoundComplete reports whether every player has cast a team vote in
// the current round.
func (q *Quest) CurrentRoundComplete() bool {
	return len(q.currentRound()) == q.totalPlayers
}

// TeamVotingSucceeded reports whether the current round is complete and was
// approved by strict majority (ties reject).
func (q *Quest) TeamVotingSucceeded() bool {
	round := q.currentRound()
	return len(round) == q.totalPlayers && roundApproved(round)
}

// TeamVotingAllowed reports whether a team vote may still be cast in the
// current round: either the round is under-voted, or the round is complete
// but was not approved. The second disjunct stays true after a rejected
// round until the caller advances the round index via
// TeamVotingRoundFinished; re-querying immediately after a rejection without
// advancing the round would otherwise look identical to "still voting".
func (q *Quest) TeamVotingAllowed() bool {
	round := q.currentRound()
	if len(round) < q.totalPlayers {
		return true
	}
	return !roundApproved(round)
}

// TeamVotingRoundFinished reports whether the current round just concluded
// in rejection (complete, majority against), and if so advances
// teamVotingRoundIndex as a side effect; the index stops at 4, so a
// rejected fifth round returns true without advancing. It does nothing, and
// returns false, when the round succeeded or is still under-voted.
func (q *Quest) TeamVotingRoundFinished() bool {
	round := q.currentRound()
	if len(round) != q.totalPlayers || roundApproved(round) {
		return false
	}
	if q.teamVotingRoundIndex < 4 {
		q.teamVotingRoundIndex++
	}
	return true
}

// QuestVotingAllowed reports whether a quest vote may be cast: the team
// voting phase for the current round succeeded, and the quest has not yet
// collected votesNeeded quest votes.
func (q *Quest) QuestVotingAllowed() bool {
	return q.TeamVotingSucceeded() && len(q.questVotes) < q.votesNeeded
}

// QuestVotingFinished reports whether every approved team member has cast a
// quest vote.
func (q *Quest) QuestVotingFinished() bool {
	return len(q.questVotes) == q.votesNeeded
}

// AddVote routes vote to the team-voting or quest-voting collection
// according to the quest's current phase.
func (q *Quest) AddVote(vote Vote) error {
	if q.TeamVotingAllowed() {
		return q.addTeamVote(vote)
	}
	if q.TeamVotingSucceeded() {
		return q.addQuestVote(vote)
	}
	return ErrNoVotingTime
}

func (q *Quest) addTeamVote(vote Vote) error {
	round := q.currentRound()
	if len(round) >= q.totalPlayers {
		return ErrNoVotingTime
	}
	for _, v := range round {
		if v.GetUsername() == vote.GetUsername() {
			return ErrAlreadyVotedForTeam
		}
	}
	q.teamVoteRounds[q.teamVotingRoundIndex] = append(round, vote)
	return nil
}

func (q *Quest) addQuestVote(vote Vote) error {
	for _, v := range q.questVotes {
		if v.GetUsername() == vote.GetUsername() {
			return ErrAlreadyVotedForQuest
		}
	}
	if len(q.questVotes) >= q.votesNeeded {
		return ErrNoVotingTime
	}
	q.questVotes = append(q.questVotes, vote)
	return nil
}

// GetStatus returns -1 while the quest's outcome is undecided, 0 if it
// failed (failsNeeded or more fail votes), 1 if it succeeded.
func (q *Quest) GetStatus() int {
	if !q.QuestVotingFinished() {
		return -1
	}
	fails := 0
	for _, v := range q.questVotes {
		if !v.GetValue() {
			fails++
		}
	}
	if fails >= q.failsNeeded {
		return 0
	}
	return 1
}

// Serialize returns the snapshot shape of a quest: {votesNeeded,
// failsNeeded, totalPlayers, teamVoteRounds, teamVotingRoundIndex,
// questVotes}.
func (q *Quest) Serialize() map[string]interface{} {
	rounds := make([][]map[string]interface{}, len(q.teamVoteRounds))
	for i, round := range q.teamVoteRounds {
		rounds[i] = serializeVotes(round)
	}
	return map[string]interface{}{
		"votesNeeded":          q.votesNeeded,
		"failsNeeded":          q.failsNeeded,
		"totalPlayers":         q.totalPlayers,
		"teamVoteRounds":       rounds,
		"teamVotingRoundIndex": q.teamVotingRoundIndex,
		"questVotes":           serializeVotes(q.questVotes),
	}
}
