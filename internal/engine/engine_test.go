package engine_test

import (
	"testing"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateTurn_ExplicitHumanRequest(t *testing.T) {
	eng := engine.New(engine.Config{})

	res, err := eng.EvaluateTurn(engine.Input{
		Query: "I want to talk to a manager",
	})
	require.NoError(t, err)

	assert.Equal(t, engine.IntentEscalationRequest, res.Intent)
	assert.GreaterOrEqual(t, res.Decision.Score, 100)
	assert.True(t, res.Decision.ShouldEscalateNow)
	assert.Equal(t, engine.TierImmediate, res.Decision.Tier)
	// Empty history wins over everything in state derivation.
	assert.Equal(t, engine.StateInitialContact, res.State)
}

func TestEvaluateTurn_GreetingFirstContact(t *testing.T) {
	eng := engine.New(engine.Config{})

	res, err := eng.EvaluateTurn(engine.Input{Query: "hello"})
	require.NoError(t, err)

	assert.Equal(t, engine.IntentGreeting, res.Intent)
	assert.Equal(t, engine.StateInitialContact, res.State)
	assert.False(t, res.Decision.ShouldEscalateNow)
	assert.Equal(t, engine.TierNone, res.Decision.Tier)
}

func TestEvaluateTurn_EscalationPrecedenceOverCaseFollowup(t *testing.T) {
	eng := engine.New(engine.Config{})

	res, err := eng.EvaluateTurn(engine.Input{
		Query: "let me speak to a manager about case 123456",
		Log:   makeLog(3),
	})
	require.NoError(t, err)
	assert.Equal(t, engine.IntentEscalationRequest, res.Intent)
	assert.Equal(t, engine.StateEscalationActive, res.State)
}

// makeLog builds a small customer/bot exchange.
func makeLog(pairs int) []engine.RawTurn {
	var log []engine.RawTurn
	base := time.Unix(1700000000, 0)
	for i := 0; i < pairs; i++ {
		log = append(log,
			engine.RawTurn{Sender: "customer", Content: "still waiting", SentAt: base.Add(time.Duration(2*i) * time.Minute)},
			engine.RawTurn{Sender: "bot", Content: "let me check", SentAt: base.Add(time.Duration(2*i+1) * time.Minute)},
		)
	}
	return log
}

func TestEvaluateTurn_OppositeDirectionsOnFailedHistory(t *testing.T) {
	eng := engine.New(engine.Config{})
	base := time.Unix(1700000000, 0)

	log := []engine.RawTurn{
		{Sender: "customer", Content: "where is my package", SentAt: base},
		{Sender: "bot", Content: "I don't have that information", SentAt: base.Add(time.Minute)},
		{Sender: "customer", Content: "please check again", SentAt: base.Add(2 * time.Minute)},
		{Sender: "bot", Content: "I don't have that information", SentAt: base.Add(3 * time.Minute)},
	}

	with, err := eng.EvaluateTurn(engine.Input{Query: "do you ship abroad", Log: log})
	require.NoError(t, err)
	without, err := eng.EvaluateTurn(engine.Input{Query: "do you ship abroad"})
	require.NoError(t, err)

	assert.Greater(t, with.Decision.Score, without.Decision.Score)
	assert.Less(t, with.Confidence.Score, without.Confidence.Score)
}

func TestEvaluateTurn_CounterDrivenScore(t *testing.T) {
	eng := engine.New(engine.Config{})

	res, err := eng.EvaluateTurn(engine.Input{
		Query:    "do you ship abroad",
		Counters: engine.SessionCounters{EscalationAttempts: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 80, res.Decision.Score)
	assert.False(t, res.Decision.ShouldEscalateNow)
}

func TestEvaluateTurn_FallbackAlwaysPresent(t *testing.T) {
	eng := engine.New(engine.Config{})

	res, err := eng.EvaluateTurn(engine.Input{
		Query:   "tell me about your company",
		Catalog: engine.Catalog{HasFAQs: true},
	})
	require.NoError(t, err)
	assert.Equal(t, engine.StrategyGeneralInfo.Name, res.Fallback.Name)

	res, err = eng.EvaluateTurn(engine.Input{Query: "tell me about your company"})
	require.NoError(t, err)
	assert.Equal(t, engine.StrategyGeneralFallback.Name, res.Fallback.Name)
}

func TestEvaluateTurn_RejectsInvalidShape(t *testing.T) {
	eng := engine.New(engine.Config{})

	_, err := eng.EvaluateTurn(engine.Input{Query: string([]byte{0xff, 0xfe, 0xfd})})
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "query", verr.Field)

	_, err = eng.EvaluateTurn(engine.Input{
		Query:    "hello",
		Counters: engine.SessionCounters{EscalationAttempts: -1},
	})
	require.ErrorAs(t, err, &verr)
}

func TestEvaluateTurn_EmptyQueryIsDegenerateNotError(t *testing.T) {
	eng := engine.New(engine.Config{})

	res, err := eng.EvaluateTurn(engine.Input{Query: ""})
	require.NoError(t, err)
	assert.Equal(t, engine.IntentInformationReq, res.Intent)
	assert.GreaterOrEqual(t, res.Decision.Score, 0)
	assert.GreaterOrEqual(t, res.Confidence.Score, 0)
	assert.LessOrEqual(t, res.Confidence.Score, 100)
}
