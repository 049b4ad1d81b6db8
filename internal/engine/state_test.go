package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveState_RuleOrder(t *testing.T) {
	someHistory := HistoryWindow{
		{Role: RoleCustomer, Content: "hi"},
		{Role: RoleAssistant, Content: "hello, how can I help?"},
	}

	tests := []struct {
		name    string
		history HistoryWindow
		intent  Intent
		score   int
		want    ConversationState
	}{
		{"empty history always initial", nil, IntentEscalationRequest, 100, StateInitialContact},
		{"case followup reuses seeking_info", someHistory, IntentCaseFollowup, 0, StateSeekingInfo},
		{"escalation intent", someHistory, IntentEscalationRequest, 0, StateEscalationActive},
		{"score 100 without intent", someHistory, IntentInformationReq, 100, StateEscalationActive},
		{"score 75 considering", someHistory, IntentInformationReq, 75, StateConsideringEscalation},
		{"score 74 not considering", someHistory, IntentInformationReq, 74, StateSeekingInfo},
		{"complaint", someHistory, IntentComplaint, 0, StateSolvingIssue},
		{"complaint at 75 still considering", someHistory, IntentComplaint, 75, StateConsideringEscalation},
		{"default", someHistory, IntentPricingInquiry, 24, StateSeekingInfo},
		{"greeting with history", someHistory, IntentGreeting, 0, StateSeekingInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveState(tt.history, tt.intent, tt.score))
		})
	}
}

// issue_resolved is part of the state space but only caller action (closing
// an escalation case) produces it. The deriver must never return it.
func TestDeriveState_NeverProducesIssueResolved(t *testing.T) {
	intents := []Intent{
		IntentEscalationRequest, IntentCaseFollowup, IntentGreeting,
		IntentComplaint, IntentPricingInquiry, IntentInformationReq,
	}
	for _, intent := range intents {
		for score := 0; score <= 100; score += 5 {
			assert.NotEqual(t, StateIssueResolved, DeriveState(nil, intent, score))
			assert.NotEqual(t, StateIssueResolved, DeriveState(HistoryWindow{{Role: RoleCustomer}}, intent, score))
		}
	}
}
