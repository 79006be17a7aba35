package game

// command names one of the operations a client can issue against a Game.
// The set of commands valid in a given StateKind is a dispatch table
// (allowedCommands) rather than a class hierarchy: every state is the same
// StateKind value, and validity is a lookup, not a virtual method call.
type command string

const (
	cmdAddPlayer        command = "addPlayer"
	cmdStart            command = "start"
	cmdToggleIsProposed command = "toggleIsProposed"
	cmdSubmitTeam       command = "submitTeam"
	cmdVoteForTeam      command = "voteForTeam"
	cmdVoteForQuest     command = "voteForQuest"
	cmdAssassinate      command = "assassinate"
)

// allowedCommands lists, per state, which commands may be issued. A command
// absent from its state's set fails with the time/state error from
// commandTimeError. revealRoles is absent: Game.RevealRoles does not consult
// this table and makes no state check, so it runs in every state,
// Preparation included.
var allowedCommands = map[StateKind]map[command]bool{
	StatePreparation: {
		cmdAddPlayer: true,
		cmdStart:     true,
	},
	StateTeamProposition: {
		cmdToggleIsProposed: true,
		cmdSubmitTeam:       true,
	},
	StateTeamVoting: {
		cmdVoteForTeam: true,
	},
	StateTeamVotingPreApproved: {},
	StateQuestVoting: {
		cmdVoteForQuest: true,
	},
	StateAssassination: {
		cmdAssassinate: true,
	},
	StateFrozen: {},
	StateFinish: {},
}

// commandTimeError maps a rejected command to its wire-level time/state
// error. Frozen rejects every command this way too: a command attempted
// while frozen gets the same error it would get in any other state where
// that command is not currently valid.
func commandTimeError(cmd command) error {
	switch cmd {
	case cmdToggleIsProposed, cmdSubmitTeam:
		return ErrNoPropositionTime
	case cmdVoteForTeam, cmdVoteForQuest:
		return ErrNoVotingTime
	case cmdAssassinate:
		return ErrNoAssassinationTime
	default:
		return ErrIllegalTransition
	}
}
