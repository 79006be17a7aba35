package game

import "math/rand"

// RoleOptions toggles which optional evil/good roles are in play beyond the
// mandatory Merlin/Assassin pair. Unset optional slots are filled with
// generic Servant/Minion roles.
type RoleOptions struct {
	Percival bool
	Morgana  bool
	Mordred  bool
	Oberon   bool
}

// maxPlayers is the largest supported game size (LevelPreset tops out at 10).
const maxPlayers = 10

// PlayersManager owns the roster, turn order, and per-round proposal state
// shared by every player.
type PlayersManager struct {
	players      []*Player
	leaderIndex  int
	isSubmitted  bool
	rng          *rand.Rand
}

// NewPlayersManager builds an empty roster. rng drives role assignment and
// leader selection; callers pass a seeded *rand.Rand in tests for
// deterministic outcomes and one seeded from the wall clock in production.
func NewPlayersManager(rng *rand.Rand) *PlayersManager {
	return &PlayersManager{rng: rng}
}

// Add appends player to the roster. The first player added becomes the game
// creator.
func (pm *PlayersManager) Add(player *Player) error {
	if len(pm.players) >= maxPlayers {
		return ErrMaximumPlayersReached
	}
	for _, p := range pm.players {
		if p.GetUsername() == player.GetUsername() {
			return ErrUsernameAlreadyExists
		}
	}
	if len(pm.players) == 0 {
		player.SetGameCreator(true)
	}
	pm.players = append(pm.players, player)
	return nil
}

func (pm *PlayersManager) GetAll() []*Player { return pm.players }

func (pm *PlayersManager) Count() int { return len(pm.players) }

func (pm *PlayersManager) GetGameCreator() *Player {
	for _, p := range pm.players {
		if p.IsGameCreator() {
			return p
		}
	}
	return nil
}

func (pm *PlayersManager) findByUsername(username string) *Player {
	for _, p := range pm.players {
		if p.GetUsername() == username {
			return p
		}
	}
	return nil
}

// AssignRoles builds the role pool for preset and opts (Merlin and Assassin
// are always included; the rest of good/evil slots are filled with the
// requested optional roles, then generic Servant/Minion roles) and deals
// them to the roster in random order. It also picks a random starting
// leader.
func (pm *PlayersManager) AssignRoles(preset *LevelPreset, opts RoleOptions) error {
	if len(pm.players) != preset.GetPlayerCount() {
		return ErrIncorrectNumberOfPlayers
	}

	goodRoles := []Role{MerlinRole}
	if opts.Percival {
		goodRoles = append(goodRoles, PercivalRole)
	}
	servantN := 1
	for len(goodRoles) < preset.GetGoodCount() {
		goodRoles = append(goodRoles, NewServantRole(servantN))
		servantN++
	}

	evilRoles := []Role{AssassinRole}
	if opts.Morgana {
		evilRoles = append(evilRoles, MorganaRole)
	}
	if opts.Mordred {
		evilRoles = append(evilRoles, MordredRole)
	}
	if opts.Oberon {
		evilRoles = append(evilRoles, OberonRole)
	}
	minionN := 1
	for len(evilRoles) < preset.GetEvilCount() {
		evilRoles = append(evilRoles, NewMinionRole(minionN))
		minionN++
	}

	roles := append(goodRoles, evilRoles...)
	pm.rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	for i, p := range pm.players {
		p.SetRole(roles[i])
		p.SetAssassin(roles[i].GetKind() == RoleKindAssassin)
	}

	pm.leaderIndex = pm.rng.Intn(len(pm.players))
	for i, p := range pm.players {
		p.SetLeader(i == pm.leaderIndex)
	}
	return nil
}

// NextLeader advances the leader to the next player in turn order.
func (pm *PlayersManager) NextLeader() {
	if len(pm.players) == 0 {
		return
	}
	pm.players[pm.leaderIndex].SetLeader(false)
	pm.leaderIndex = (pm.leaderIndex + 1) % len(pm.players)
	pm.players[pm.leaderIndex].SetLeader(true)
}

func (pm *PlayersManager) GetLeader() *Player {
	if len(pm.players) == 0 {
		return nil
	}
	return pm.players[pm.leaderIndex]
}

func (pm *PlayersManager) GetAssassin() *Player {
	for _, p := range pm.players {
		if p.IsAssassin() {
			return p
		}
	}
	return nil
}

// GetVictim returns the player marked assassinated, if any.
func (pm *PlayersManager) GetVictim() *Player {
	for _, p := range pm.players {
		if p.IsAssassinated() {
			return p
		}
	}
	return nil
}

// ToggleIsProposed flips the proposed flag of the named player. Unknown
// usernames are ignored: the leader client is expected to only toggle
// players it has already been told about.
func (pm *PlayersManager) ToggleIsProposed(username string) {
	if p := pm.findByUsername(username); p != nil {
		p.SetProposed(!p.IsProposed())
	}
}

func (pm *PlayersManager) GetProposedPlayers() []*Player {
	var proposed []*Player
	for _, p := range pm.players {
		if p.IsProposed() {
			proposed = append(proposed, p)
		}
	}
	return proposed
}

// IsAllowedToProposePlayer reports whether username is the current leader.
func (pm *PlayersManager) IsAllowedToProposePlayer(username string) bool {
	leader := pm.GetLeader()
	return leader != nil && leader.GetUsername() == username
}

// IsAllowedToProposeTeam is an alias of IsAllowedToProposePlayer: only the
// leader may submit the proposed team.
func (pm *PlayersManager) IsAllowedToProposeTeam(username string) bool {
	return pm.IsAllowedToProposePlayer(username)
}

func (pm *PlayersManager) MarkAsSubmitted() { pm.isSubmitted = true }

func (pm *PlayersManager) UnmarkAsSubmitted() { pm.isSubmitted = false }

func (pm *PlayersManager) GetIsSubmitted() bool { return pm.isSubmitted }

// SetVote assigns vote to the player it names.
func (pm *PlayersManager) SetVote(vote Vote) error {
	p := pm.findByUsername(vote.GetUsername())
	if p == nil {
		return ErrPlayerNotFound
	}
	p.SetVote(&vote)
	return nil
}

// IsAllowedToVoteForTeam reports whether username exists and has not yet
// cast a team vote this round.
func (pm *PlayersManager) IsAllowedToVoteForTeam(username string) bool {
	p := pm.findByUsername(username)
	return p != nil && p.GetVote() == nil
}

// IsAllowedToVoteForQuest reports whether username exists, was on the
// proposed (approved) team, and has not yet cast a quest vote.
func (pm *PlayersManager) IsAllowedToVoteForQuest(username string) bool {
	p := pm.findByUsername(username)
	return p != nil && p.IsProposed() && p.GetVote() == nil
}

// ResetVotes clears every player's current vote.
func (pm *PlayersManager) ResetVotes() {
	for _, p := range pm.players {
		p.SetVote(nil)
	}
}

// ResetPropositions clears every player's proposed flag.
func (pm *PlayersManager) ResetPropositions() {
	for _, p := range pm.players {
		p.SetProposed(false)
	}
}

// Assassinate marks victimUsername as assassinated, provided assassinUsername
// names the player holding the Assassin role.
func (pm *PlayersManager) Assassinate(assassinUsername, victimUsername string) error {
	assassin := pm.GetAssassin()
	if assassin == nil || assassin.GetUsername() != assassinUsername {
		return ErrNoRightToAssassinate
	}
	victim := pm.findByUsername(victimUsername)
	if victim == nil {
		return ErrPlayerNotFound
	}
	victim.SetAssassinated(true)
	return nil
}

// Serialize returns the snapshot shape: {players, leaderIndex, isSubmitted}.
func (pm *PlayersManager) Serialize() map[string]interface{} {
	players := make([]map[string]interface{}, len(pm.players))
	for i, p := range pm.players {
		players[i] = p.Serialize()
	}
	return map[string]interface{}{
		"players":     players,
		"leaderIndex": pm.leaderIndex,
		"isSubmitted": pm.isSubmitted,
	}
}
