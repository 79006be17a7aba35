package game

// AssassinationOutcome records the result of the assassin's guess once the
// good team has completed three successful quests.
type AssassinationOutcome int

const (
	AssassinationPending AssassinationOutcome = iota
	AssassinationFail
	AssassinationSuccess
)

func (a AssassinationOutcome) String() string {
	switch a {
	case AssassinationFail:
		return "FAIL"
	case AssassinationSuccess:
		return "SUCCESS"
	default:
		return ""
	}
}

// QuestsManager owns the five quests of a game and the assassination
// outcome that can override a provisional good victory.
type QuestsManager struct {
	quests              [5]*Quest
	currentQuestIndex   int
	assassinationStatus AssassinationOutcome
}

// NewQuestsManager builds the five quests for preset's configuration.
func NewQuestsManager(preset *LevelPreset) *QuestsManager {
	qm := &QuestsManager{assassinationStatus: AssassinationPending}
	totalPlayers := preset.GetPlayerCount()
	for i, cfg := range preset.GetQuestsConfig() {
		qm.quests[i] = NewQuest(cfg.VotesNeeded, cfg.FailsNeeded, totalPlayers)
	}
	return qm
}

func (qm *QuestsManager) GetCurrentQuest() *Quest { return qm.quests[qm.currentQuestIndex] }

func (qm *QuestsManager) GetCurrentQuestIndex() int { return qm.currentQuestIndex }

func (qm *QuestsManager) GetQuests() [5]*Quest { return qm.quests }

// NextQuest advances to the next quest once the current one has a decided
// outcome. It is a no-op once the fifth quest has been reached.
func (qm *QuestsManager) NextQuest() error {
	if qm.GetCurrentQuest().GetStatus() == -1 {
		return ErrNoVotingTime
	}
	if qm.currentQuestIndex < 4 {
		qm.currentQuestIndex++
	}
	return nil
}

// AddVote delegates to the current quest.
func (qm *QuestsManager) AddVote(vote Vote) error {
	return qm.GetCurrentQuest().AddVote(vote)
}

// TerminalQuestCounts tallies how many of the five quests have concluded
// failed or succeeded so far.
func (qm *QuestsManager) TerminalQuestCounts() (fails, successes int) {
	for _, q := range qm.quests {
		switch q.GetStatus() {
		case 0:
			fails++
		case 1:
			successes++
		}
	}
	return fails, successes
}

// GetTeamVotingRoundsExhausted reports whether the current quest's team
// proposition has reached its fifth (forced-approval) round.
func (qm *QuestsManager) GetTeamVotingRoundsExhausted() bool {
	return qm.GetCurrentQuest().IsLastRoundOfTeamVoting()
}

// AssassinationIsAllowed reports whether the good team has won three
// quests and the assassin has not yet made a guess.
func (qm *QuestsManager) AssassinationIsAllowed() bool {
	_, successes := qm.TerminalQuestCounts()
	return successes >= 3 && qm.assassinationStatus == AssassinationPending
}

// SetAssassinationStatus records the outcome of the assassin's guess.
// victimWasMerlin true means the assassin guessed correctly (evil wins).
func (qm *QuestsManager) SetAssassinationStatus(victimWasMerlin bool) error {
	if !qm.AssassinationIsAllowed() {
		return ErrAssassinationNotAllowed
	}
	if victimWasMerlin {
		qm.assassinationStatus = AssassinationSuccess
	} else {
		qm.assassinationStatus = AssassinationFail
	}
	return nil
}

func (qm *QuestsManager) GetAssassinationStatus() AssassinationOutcome {
	return qm.assassinationStatus
}

// GetStatus returns -1 while the overall game outcome is undecided, 0 if
// evil has won (three failed quests, or the assassin correctly killed
// Merlin), 1 if good has won.
func (qm *QuestsManager) GetStatus() int {
	fails, successes := qm.TerminalQuestCounts()
	if fails >= 3 {
		return 0
	}
	if successes >= 3 {
		switch qm.assassinationStatus {
		case AssassinationSuccess:
			return 0
		case AssassinationFail:
			return 1
		default:
			return 1 // provisional: good has won the quests, assassination pending
		}
	}
	return -1
}

// Serialize returns the snapshot shape: {quests, currentQuestIndex,
// assassinationStatus, teamVotingRoundsExhausted}.
func (qm *QuestsManager) Serialize() map[string]interface{} {
	quests := make([]map[string]interface{}, len(qm.quests))
	for i, q := range qm.quests {
		quests[i] = q.Serialize()
	}
	var assassinationStatus interface{}
	if qm.assassinationStatus != AssassinationPending {
		assassinationStatus = qm.assassinationStatus.String()
	}
	return map[string]interface{}{
		"quests":                    quests,
		"currentQuestIndex":         qm.currentQuestIndex,
		"assassinationStatus":       assassinationStatus,
		"teamVotingRoundsExhausted": qm.GetTeamVotingRoundsExhausted(),
	}
}
