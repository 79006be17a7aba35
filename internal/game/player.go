package game

// Player is a single participant's mutable state across the lifetime of a
// game: identity, assigned role, current ballot, and the handful of boolean
// flags the state machine and player manager toggle as the game progresses.
type Player struct {
	username       string
	role           *Role
	vote           *Vote
	isLeader       bool
	isProposed     bool
	isAssassin     bool
	isAssassinated bool
	isGameCreator  bool
}

// NewPlayer constructs a Player with no role, no vote, and every flag unset.
func NewPlayer(username string) *Player {
	return &Player{username: username}
}

func (p *Player) GetUsername() string { return p.username }

func (p *Player) GetRole() *Role { return p.role }

func (p *Player) SetRole(role Role) { p.role = &role }

func (p *Player) GetVote() *Vote { return p.vote }

func (p *Player) SetVote(vote *Vote) { p.vote = vote }

func (p *Player) IsLeader() bool { return p.isLeader }

func (p *Player) SetLeader(v bool) { p.isLeader = v }

func (p *Player) IsProposed() bool { return p.isProposed }

func (p *Player) SetProposed(v bool) { p.isProposed = v }

func (p *Player) IsAssassin() bool { return p.isAssassin }

func (p *Player) SetAssassin(v bool) { p.isAssassin = v }

func (p *Player) IsAssassinated() bool { return p.isAssassinated }

func (p *Player) SetAssassinated(v bool) { p.isAssassinated = v }

func (p *Player) IsGameCreator() bool { return p.isGameCreator }

func (p *Player) SetGameCreator(v bool) { p.isGameCreator = v }

// CanSee reports whether p perceives other's role, delegating to the role
// visibility predicate. A player with no assigned role sees no one.
func (p *Player) CanSee(other *Player) bool {
	if p.role == nil || other.role == nil {
		return false
	}
	return p.role.CanSee(*other.role)
}

// Serialize returns the snapshot shape of a player:
// {username, role, vote, isAssassinated}. Role and vote are nil when unset.
func (p *Player) Serialize() map[string]interface{} {
	var role interface{}
	if p.role != nil {
		role = p.role.Serialize()
	}
	var vote interface{}
	if p.vote != nil {
		vote = p.vote.Serialize()
	}
	return map[string]interface{}{
		"username":       p.username,
		"role":           role,
		"vote":           vote,
		"isAssassinated": p.isAssassinated,
	}
}
