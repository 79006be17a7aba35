package game

import (
	"math/rand"
	"sync"
	"time"
)

type revealHandle struct {
	ch chan struct{}
}

// Game is the facade over a single match: it owns the player roster, the
// quest history, and the state machine driving both, and is the only type
// external collaborators (transport, persistence) talk to.
type Game struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	startedAt *time.Time
	finishedAt *time.Time

	rolesAreRevealed bool
	revealPending    *revealHandle

	levelPreset *LevelPreset
	players     *PlayersManager
	quests      *QuestsManager
	fsm         *GameStateMachine

	rng *rand.Rand
}

// NewGame builds an unstarted game with no players. rng is used for role
// assignment and leader selection; pass a seeded *rand.Rand for
// deterministic tests.
func NewGame(id string, rng *rand.Rand) *Game {
	return NewGameWithTimers(id, rng, DefaultTimersConfig())
}

// NewGameWithTimers is NewGame with an explicit TimersConfig, for tests that
// want zero-wait (synchronous) transitions.
func NewGameWithTimers(id string, rng *rand.Rand, timers TimersConfig) *Game {
	return &Game{
		id:        id,
		createdAt: time.Now(),
		players:   NewPlayersManager(rng),
		fsm:       NewGameStateMachine(timers),
		rng:       rng,
	}
}

func (g *Game) GetId() string { return g.id }

func (g *Game) GetState() StateKind { return g.fsm.Current() }

func (g *Game) GetPlayersManager() *PlayersManager { return g.players }

func (g *Game) GetQuestsManager() *QuestsManager { return g.quests }

func (g *Game) GetLevelPreset() *LevelPreset { return g.levelPreset }

// checkCommand rejects cmd unless the current state allows it.
func (g *Game) checkCommand(cmd command) error {
	if !allowedCommands[g.fsm.Current()][cmd] {
		return commandTimeError(cmd)
	}
	return nil
}

// AddPlayer enrolls a new player while the game is still in Preparation.
func (g *Game) AddPlayer(player *Player) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fsm.Current() != StatePreparation {
		return ErrGameAlreadyStarted
	}
	return g.players.Add(player)
}

// Start assigns roles and moves the game into TeamProposition. opts
// configures which optional roles are in play; pass the zero RoleOptions
// for the base Merlin/Assassin/Servant/Minion set.
func (g *Game) Start(opts RoleOptions) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fsm.Current() != StatePreparation {
		return ErrGameAlreadyStarted
	}
	n := g.players.Count()
	preset, err := NewLevelPreset(n)
	if err != nil {
		return ErrIncorrectNumberOfPlayers
	}
	if err := g.players.AssignRoles(preset, opts); err != nil {
		return err
	}
	g.levelPreset = preset
	g.quests = NewQuestsManager(preset)
	now := time.Now()
	g.startedAt = &now

	if _, err := g.fsm.Go(StateTeamProposition); err != nil {
		return err
	}
	return nil
}

// RevealRoles starts (or rejoins) a one-shot concealment timer: after
// seconds have elapsed, rolesAreRevealed becomes true. Re-entering while a
// previous timer is pending returns the same handle; re-entering after
// completion starts a fresh timer and returns a fresh handle.
func (g *Game) RevealRoles(seconds int) <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revealPending != nil {
		return g.revealPending.ch
	}
	ch := make(chan struct{})
	g.revealPending = &revealHandle{ch: ch}
	time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		g.mu.Lock()
		g.rolesAreRevealed = true
		g.revealPending = nil
		g.mu.Unlock()
		close(ch)
	})
	return ch
}

// ToggleIsProposed flips whether target is on the leader's proposed team.
func (g *Game) ToggleIsProposed(leaderUsername, targetUsername string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkCommand(cmdToggleIsProposed); err != nil {
		return err
	}
	if !g.players.IsAllowedToProposePlayer(leaderUsername) {
		return ErrNoRightToPropose
	}
	g.players.ToggleIsProposed(targetUsername)
	return nil
}

// SubmitTeam locks in the leader's proposed team and moves to team voting
// (or, on the fifth round, directly to the forced-approval state).
func (g *Game) SubmitTeam(leaderUsername string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkCommand(cmdSubmitTeam); err != nil {
		return err
	}
	if !g.players.IsAllowedToProposeTeam(leaderUsername) {
		return ErrNoRightToSubmitTeam
	}
	quest := g.quests.GetCurrentQuest()
	if len(g.players.GetProposedPlayers()) != quest.GetVotesNeeded() {
		return ErrIncorrectNumberOfPlayers
	}
	g.players.MarkAsSubmitted()

	if quest.IsLastRoundOfTeamVoting() {
		ch, err := g.fsm.Go(StateTeamVotingPreApproved)
		if err != nil {
			return err
		}
		go g.autoApproveAfter(ch)
		return nil
	}

	_, err := g.fsm.Go(StateTeamVoting)
	return err
}

// autoApproveAfter waits for the TeamVotingPreApproved frozen interval to
// end, then records every player's team vote as an approval and advances to
// QuestVoting. It runs on its own goroutine (started by SubmitTeam) so it
// never contends with the caller's hold on mu: by the time ch closes, the
// command that triggered it has already returned and released the lock.
func (g *Game) autoApproveAfter(ch <-chan struct{}) {
	<-ch
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fsm.Current() != StateTeamVotingPreApproved {
		return
	}
	quest := g.quests.GetCurrentQuest()
	for _, p := range g.players.GetAll() {
		quest.AddVote(NewVote(p.GetUsername(), true))
	}
	g.players.ResetVotes()
	g.fsm.Go(StateQuestVoting)
}

// VoteForTeam casts a team (approve/reject) vote.
func (g *Game) VoteForTeam(username string, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkCommand(cmdVoteForTeam); err != nil {
		return err
	}
	if !g.players.IsAllowedToVoteForTeam(username) {
		return ErrNoRightToVote
	}
	vote := NewVote(username, value)
	if err := g.quests.AddVote(vote); err != nil {
		return err
	}
	if err := g.players.SetVote(vote); err != nil {
		return err
	}
	g.settleTeamVotingRoundLocked()
	return nil
}

// settleTeamVotingRoundLocked runs after a team vote is recorded; mu must
// already be held. If the round just completed it either advances to quest
// voting (approved) or re-proposes with the next leader (rejected, and not
// the forced-approval round).
func (g *Game) settleTeamVotingRoundLocked() {
	quest := g.quests.GetCurrentQuest()
	if !quest.CurrentRoundComplete() {
		return
	}
	if quest.TeamVotingSucceeded() {
		g.players.ResetVotes()
		g.fsm.Go(StateQuestVoting)
		return
	}
	if quest.IsLastRoundOfTeamVoting() {
		// Unreachable in practice: the fifth round never collects real
		// team votes, see SubmitTeam / TeamVotingPreApproved.
		return
	}
	quest.TeamVotingRoundFinished()
	g.players.UnmarkAsSubmitted()
	g.players.ResetPropositions()
	g.players.ResetVotes()
	g.players.NextLeader()
	g.fsm.Go(StateTeamProposition)
}

// VoteForQuest casts a quest (success/fail) vote.
func (g *Game) VoteForQuest(username string, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkCommand(cmdVoteForQuest); err != nil {
		return err
	}
	if !g.players.IsAllowedToVoteForQuest(username) {
		return ErrNoRightToVote
	}
	vote := NewVote(username, value)
	if err := g.quests.AddVote(vote); err != nil {
		return err
	}
	if err := g.players.SetVote(vote); err != nil {
		return err
	}
	g.settleQuestVotingLocked()
	return nil
}

func (g *Game) settleQuestVotingLocked() {
	quest := g.quests.GetCurrentQuest()
	if !quest.QuestVotingFinished() {
		return
	}
	fails, successes := g.quests.TerminalQuestCounts()
	if fails >= 3 {
		g.finish()
		return
	}
	if successes >= 3 {
		assassin := g.players.GetAssassin()
		if assassin != nil && !assassin.IsAssassinated() {
			g.fsm.Go(StateAssassination)
			return
		}
		g.finish()
		return
	}
	g.players.ResetVotes()
	g.players.ResetPropositions()
	g.players.NextLeader()
	g.quests.NextQuest()
	g.fsm.Go(StateTeamProposition)
}

// Assassinate lets the assassin guess which player is Merlin, ending the
// game.
func (g *Game) Assassinate(assassinUsername, victimUsername string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkCommand(cmdAssassinate); err != nil {
		return err
	}
	if err := g.players.Assassinate(assassinUsername, victimUsername); err != nil {
		return err
	}
	victim := g.players.GetVictim()
	victimWasMerlin := victim != nil && victim.GetRole() != nil && victim.GetRole().GetKind() == RoleKindMerlin
	if err := g.quests.SetAssassinationStatus(victimWasMerlin); err != nil {
		return err
	}
	g.finish()
	return nil
}

func (g *Game) finish() {
	now := time.Now()
	g.finishedAt = &now
	g.fsm.Go(StateFinish)
}

// Serialize returns the full game snapshot: {id, createdAt, startedAt,
// finishedAt, rolesAreRevealed, playersManager, questsManager, state}.
func (g *Game) Serialize() map[string]interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	var startedAt, finishedAt interface{}
	if g.startedAt != nil {
		startedAt = g.startedAt.Format(time.RFC3339)
	}
	if g.finishedAt != nil {
		finishedAt = g.finishedAt.Format(time.RFC3339)
	}
	var questsManager interface{}
	if g.quests != nil {
		questsManager = g.quests.Serialize()
	}

	return map[string]interface{}{
		"id":               g.id,
		"createdAt":        g.createdAt.Format(time.RFC3339),
		"startedAt":        startedAt,
		"finishedAt":       finishedAt,
		"rolesAreRevealed": g.rolesAreRevealed,
		"playersManager":   g.players.Serialize(),
		"questsManager":    questsManager,
		"state":            string(g.fsm.Current()),
	}
}
