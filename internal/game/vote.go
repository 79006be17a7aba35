package game

// Vote is an immutable record of one player's yes/no ballot, cast either
// during team voting or quest voting. Which round it belongs to is tracked
// by whichever collection holds it (Quest.teamVoteRounds / Quest.questVotes),
// not by the Vote itself.
type Vote struct {
	username string
	value    bool
}

// NewVote constructs a Vote. Once constructed it is never mutated.
func NewVote(username string, value bool) Vote {
	return Vote{username: username, value: value}
}

// GetUsername returns the voter's username.
func (v Vote) GetUsername() string { return v.username }

// GetValue returns true for an approve/pass vote, false for a reject/fail vote.
func (v Vote) GetValue() bool { return v.value }

// Serialize returns the snapshot shape of a vote: {username, value}.
func (v Vote) Serialize() map[string]interface{} {
	return map[string]interface{}{
		"username": v.username,
		"value":    v.value,
	}
}

func serializeVotes(votes []Vote) []map[string]interface{} {
	out := make([]map[string]interface{}, len(votes))
	for i, v := range votes {
		out[i] = v.Serialize()
	}
	return out
}
