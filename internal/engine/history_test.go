package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildWindow_BoundsAndOrder(t *testing.T) {
	log := make([]RawTurn, 10)
	for i := range log {
		log[i] = RawTurn{
			Sender:  "customer",
			Content: fmt.Sprintf("message %d", i),
			SentAt:  time.Unix(int64(i), 0),
		}
	}

	window := BuildWindow(log, 6)
	assert.Len(t, window, 6)
	// Oldest first, most recent last.
	assert.Equal(t, "message 4", window[0].Content)
	assert.Equal(t, "message 9", window[5].Content)
}

func TestBuildWindow_RoleNormalization(t *testing.T) {
	log := []RawTurn{
		{Sender: "customer", Content: "a"},
		{Sender: "Bot", Content: "b"},
		{Sender: "ai", Content: "c"},
		{Sender: "user", Content: "d"},
		{Sender: "agent-jane", Content: "e"},
		{Sender: "supervisor", Content: "f"},
	}

	window := BuildWindow(log, 10)
	assert.Equal(t, RoleCustomer, window[0].Role)
	assert.Equal(t, RoleAssistant, window[1].Role)
	assert.Equal(t, RoleAssistant, window[2].Role)
	assert.Equal(t, RoleCustomer, window[3].Role)
	// Anything else is treated as a human agent.
	assert.Equal(t, RoleHumanAgent, window[4].Role)
	assert.Equal(t, RoleHumanAgent, window[5].Role)
}

func TestBuildWindow_EmptyLogIsNoContext(t *testing.T) {
	window := BuildWindow(nil, 6)
	assert.Empty(t, window)
	assert.Equal(t, 0, window.customerTurns())
	assert.Equal(t, 0, window.assistantTurnsContaining(assistantAdmissionPhrases))
}

func TestBuildWindow_ZeroLimitFallsBackToDefault(t *testing.T) {
	log := make([]RawTurn, 9)
	for i := range log {
		log[i] = RawTurn{Sender: "customer", Content: "m"}
	}
	assert.Len(t, BuildWindow(log, 0), DefaultWindowLimit)
}
