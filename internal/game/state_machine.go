package game

import (
	"sync"
	"time"
)

// StateKind names a node in the game's state graph.
type StateKind string

const (
	StatePreparation           StateKind = "PREPARATION"
	StateTeamProposition       StateKind = "TEAM_PROPOSITION"
	StateTeamVoting            StateKind = "TEAM_VOTING"
	StateTeamVotingPreApproved StateKind = "TEAM_VOTING_PRE_APPROVED"
	StateQuestVoting           StateKind = "QUEST_VOTING"
	StateAssassination         StateKind = "ASSASSINATION"
	StateFrozen                StateKind = "FROZEN"
	StateFinish                StateKind = "FINISH"
)

// permittedTransitions is the full state graph. A transition not listed
// here is rejected with ErrIllegalTransition.
var permittedTransitions = map[StateKind]map[StateKind]bool{
	StatePreparation: {
		StateTeamProposition: true,
	},
	StateTeamProposition: {
		StateTeamVoting:            true,
		StateTeamVotingPreApproved: true,
	},
	StateTeamVoting: {
		StateTeamProposition: true, // team rejected, re-propose
		StateQuestVoting:     true, // team approved
	},
	StateTeamVotingPreApproved: {
		StateQuestVoting: true, // forced approval after the fifth round
	},
	StateQuestVoting: {
		StateTeamProposition: true, // quest resolved, neither side has won yet
		StateAssassination:   true, // good reached three successes
		StateFinish:          true, // evil reached three failures
	},
	StateAssassination: {
		StateFinish: true,
	},
}

// TimersConfig controls how long the machine stays Frozen between a command
// and the state it leads to. Zero durations make the transition immediate,
// which is what tests want.
type TimersConfig struct {
	AfterTeamProposition time.Duration
	AfterTeamVoting      time.Duration
	AfterQuestVoting     time.Duration
}

// DefaultTimersConfig matches the original implementation's five-second
// pause before revealing the outcome of a proposition, vote, or quest.
func DefaultTimersConfig() TimersConfig {
	return TimersConfig{
		AfterTeamProposition: 5 * time.Second,
		AfterTeamVoting:      5 * time.Second,
		AfterQuestVoting:     5 * time.Second,
	}
}

// GameStateMachine is the typed FSM driving a single Game. Every transition
// not explicitly in permittedTransitions is rejected. Transitions leaving
// TeamProposition, TeamVoting/TeamVotingPreApproved, or QuestVoting install
// a FrozenState for the configured wait before the destination state is
// installed; the caller gets back a channel that closes once that happens.
type GameStateMachine struct {
	mu      sync.Mutex
	current StateKind
	timers  TimersConfig
}

// NewGameStateMachine starts in Preparation.
func NewGameStateMachine(timers TimersConfig) *GameStateMachine {
	return &GameStateMachine{current: StatePreparation, timers: timers}
}

// Current returns the active state.
func (m *GameStateMachine) Current() StateKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *GameStateMachine) waitFor(from, to StateKind) time.Duration {
	switch from {
	case StateTeamProposition:
		return m.timers.AfterTeamProposition
	case StateTeamVoting, StateTeamVotingPreApproved:
		return m.timers.AfterTeamVoting
	case StateQuestVoting:
		return m.timers.AfterQuestVoting
	default:
		return 0
	}
}

// Go attempts the transition current -> target. It returns
// ErrIllegalTransition if the transition is not in permittedTransitions.
// On success it returns a channel that is closed once target has actually
// been installed: immediately (already-closed channel) if no wait applies,
// or after the configured wait, during which the machine reports Frozen.
func (m *GameStateMachine) Go(target StateKind) (<-chan struct{}, error) {
	m.mu.Lock()
	from := m.current
	if !permittedTransitions[from][target] {
		m.mu.Unlock()
		return nil, ErrIllegalTransition
	}
	wait := m.waitFor(from, target)
	if wait <= 0 {
		m.current = target
		m.mu.Unlock()
		ch := make(chan struct{})
		close(ch)
		return ch, nil
	}

	m.current = StateFrozen
	m.mu.Unlock()

	ch := make(chan struct{})
	time.AfterFunc(wait, func() {
		m.mu.Lock()
		m.current = target
		m.mu.Unlock()
		close(ch)
	})
	return ch, nil
}
