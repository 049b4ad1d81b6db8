package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_RuleOrder(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Intent
	}{
		// Rule 1: human request + case reference → escalation beats followup.
		{"human plus case wins escalation", "I need to speak to a manager about case 123456", IntentEscalationRequest},
		{"talk to human with ticket", "can I talk to someone, ticket #881 is stuck", IntentEscalationRequest},

		// Rule 2: case reference without human request.
		{"case followup", "any update on case 123456?", IntentCaseFollowup},
		{"ticket followup", "what's the status of my ticket", IntentCaseFollowup},

		// Rule 3: greeting only in leading position, whole token.
		{"hello", "hello", IntentGreeting},
		{"hi with tail", "hi, are you open today?", IntentGreeting},
		{"good morning", "Good morning!", IntentGreeting},
		{"hi is not a prefix of history", "history of my orders please", IntentInformationReq},
		{"greeting not leading", "well hello, I have a complaint", IntentComplaint},

		// Rule 4: bare human request.
		{"want a human", "I want to talk to a human", IntentEscalationRequest},
		{"representative", "get me a representative", IntentEscalationRequest},

		// Rule 5: complaint.
		{"complaint phrase", "this is wrong, my order is broken", IntentComplaint},
		{"not working", "the checkout page is not working", IntentComplaint},

		// Rule 6: pricing.
		{"pricing", "how much does the premium plan cost", IntentPricingInquiry},
		{"fees", "are there any hidden fees?", IntentPricingInquiry},

		// Rule 7: default.
		{"default", "where are you located", IntentInformationReq},
		{"empty query", "", IntentInformationReq},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query, nil))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	query := "I am disappointed, how much will the repair cost?"
	first := Classify(query, nil)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Classify(query, nil))
	}
	// Complaint (rule 5) outranks pricing (rule 6).
	assert.Equal(t, IntentComplaint, first)
}
