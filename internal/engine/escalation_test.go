package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreEscalation_ExplicitRequestHitsCeiling(t *testing.T) {
	score, fired := ScoreEscalation("I want to talk to a manager", nil, SessionCounters{})

	assert.Equal(t, 100, score)
	assert.Contains(t, fired, "explicit_request")
	assert.Equal(t, TierImmediate, TierFor(score))
}

func TestScoreEscalation_FrustrationBandsSingleHit(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"anger band", "I am absolutely furious about this", 60},
		{"useless band", "this chat is useless and a waste of time", 55},
		{"superlative band", "worst service ever", 50},
		{"frustration band", "I'm getting frustrated here", 45},
		{"disappointment band", "honestly, I'm disappointed", 30},
		// Both anger and disappointment present: strongest band wins, they
		// never stack.
		{"strongest only", "I'm furious and disappointed", 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := bandHit(tt.query, frustrationBands)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreEscalation_UrgencyBandsSingleHit(t *testing.T) {
	got, name := bandHit("this is urgent and also quite complicated", urgencyBands)
	assert.Equal(t, 40, got)
	assert.Equal(t, "urgent", name)

	got, _ = bandHit("a complicated question", urgencyBands)
	assert.Equal(t, 15, got)

	got, _ = bandHit("nothing special", urgencyBands)
	assert.Equal(t, 0, got)
}

func TestScoreEscalation_RepeatedAttemptsLinearUntilFinalClamp(t *testing.T) {
	// Neutral query so S3 is the only contribution.
	query := "do you ship abroad"

	score, fired := ScoreEscalation(query, nil, SessionCounters{EscalationAttempts: 4})
	assert.Equal(t, 80, score)
	assert.Equal(t, []string{"repeated_attempts"}, fired)
	assert.Equal(t, TierOffer, TierFor(score))

	// 6 attempts contribute 120 before the single final clamp.
	score, _ = ScoreEscalation(query, nil, SessionCounters{EscalationAttempts: 6})
	assert.Equal(t, 100, score)
	assert.True(t, score >= ThresholdImmediate)
}

func TestScoreEscalation_HistoryPressure(t *testing.T) {
	window := HistoryWindow{
		{Role: RoleCustomer, Content: "where is my order"},
		{Role: RoleAssistant, Content: "I don't have that information yet"},
		{Role: RoleCustomer, Content: "can you check again"},
		{Role: RoleAssistant, Content: "sorry, that is not available to me"},
		{Role: RoleCustomer, Content: "seriously?"},
	}

	score, fired := ScoreEscalation("do you ship abroad", window, SessionCounters{})
	// +15 for more than two customer messages, +25 for two admissions.
	assert.Equal(t, 40, score)
	assert.Contains(t, fired, "history_pressure")
}

func TestScoreEscalation_CriticalTopic(t *testing.T) {
	score, _ := ScoreEscalation("what is your delivery time", nil, SessionCounters{})
	assert.Equal(t, 10, score)
}

func TestScoreEscalation_AlwaysInRange(t *testing.T) {
	queries := []string{
		"", "hi",
		"I am furious, this is urgent, talk to a manager about my order NOW",
		"useless useless useless",
	}
	counters := []int{0, 1, 3, 10, 50}

	for _, q := range queries {
		for _, c := range counters {
			score, _ := ScoreEscalation(q, nil, SessionCounters{EscalationAttempts: c})
			require.GreaterOrEqual(t, score, 0, "query %q attempts %d", q, c)
			require.LessOrEqual(t, score, 100, "query %q attempts %d", q, c)
		}
	}
}

func TestTierFor_InclusiveThresholds(t *testing.T) {
	assert.Equal(t, TierImmediate, TierFor(100))
	assert.Equal(t, TierOffer, TierFor(99))
	assert.Equal(t, TierOffer, TierFor(75))
	assert.Equal(t, TierSuggestAlt, TierFor(74))
	assert.Equal(t, TierSuggestAlt, TierFor(50))
	assert.Equal(t, TierGraceful, TierFor(49))
	assert.Equal(t, TierGraceful, TierFor(25))
	assert.Equal(t, TierNone, TierFor(24))
	assert.Equal(t, TierNone, TierFor(0))
}
