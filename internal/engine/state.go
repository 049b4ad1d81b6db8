package engine

// ConversationState is the closed classification of where the dialogue
// stands. issue_resolved is terminal and only ever set by explicit caller
// action (resolving the escalation case); the deriver never produces it.
type ConversationState string

const (
	StateInitialContact        ConversationState = "initial_contact"
	StateSeekingInfo           ConversationState = "seeking_info"
	StateSolvingIssue          ConversationState = "solving_issue"
	StateConsideringEscalation ConversationState = "considering_escalation"
	StateEscalationActive      ConversationState = "escalation_active"
	StateIssueResolved         ConversationState = "issue_resolved"
)

// stateRule is one entry of the ordered derivation list; first match wins.
type stateRule struct {
	state ConversationState
	match func(history HistoryWindow, intent Intent, score int) bool
}

var stateRules = []stateRule{
	{StateInitialContact, func(h HistoryWindow, _ Intent, _ int) bool {
		return len(h) == 0
	}},
	// Case followups reuse the information-seeking state deliberately; they
	// are not their own state.
	{StateSeekingInfo, func(_ HistoryWindow, i Intent, _ int) bool {
		return i == IntentCaseFollowup
	}},
	{StateEscalationActive, func(_ HistoryWindow, i Intent, score int) bool {
		return i == IntentEscalationRequest || score >= ThresholdImmediate
	}},
	{StateConsideringEscalation, func(_ HistoryWindow, _ Intent, score int) bool {
		return score >= ThresholdOffer
	}},
	{StateSolvingIssue, func(_ HistoryWindow, i Intent, _ int) bool {
		return i == IntentComplaint
	}},
}

// DeriveState maps (window, intent, escalation score) to one state.
func DeriveState(history HistoryWindow, intent Intent, escalationScore int) ConversationState {
	for _, rule := range stateRules {
		if rule.match(history, intent, escalationScore) {
			return rule.state
		}
	}
	return StateSeekingInfo
}
