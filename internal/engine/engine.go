// Package engine implements the escalation-and-confidence decision engine
// of the support chat. For every incoming customer message it classifies
// intent, scores escalation urgency and answer confidence, derives the
// conversation state and selects a fallback response strategy.
//
// The engine is pure: every function is deterministic over its inputs, does
// no I/O and holds no shared state. It may be called concurrently for any
// mix of sessions. Persisting turns, incrementing session counters, calling
// the LLM and opening escalation cases are all the caller's job.
//
// All signals are keyword/pattern and count based on purpose — decisions
// must stay explainable to the business owner reviewing an escalation.
package engine

import (
	"unicode/utf8"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
)

// Config carries the engine tunables.
type Config struct {
	// WindowLimit bounds the history window; zero means DefaultWindowLimit.
	WindowLimit int
}

// Engine evaluates chat turns. Safe for concurrent use.
type Engine struct {
	windowLimit int
}

// New creates an Engine.
func New(cfg Config) *Engine {
	limit := cfg.WindowLimit
	if limit <= 0 {
		limit = DefaultWindowLimit
	}
	return &Engine{windowLimit: limit}
}

// Input is everything EvaluateTurn needs for one customer message.
type Input struct {
	// Query is the raw customer message.
	Query string

	// Log is the full persisted turn log of the session, oldest first.
	Log []RawTurn

	// Counters is read-only session state; the caller increments
	// EscalationAttempts after observing ShouldEscalateNow.
	Counters SessionCounters

	// Knowledge holds the retrieved candidate facts for this query.
	Knowledge []KnowledgeItem

	// BusinessName is carried through for the caller's prompt filling.
	BusinessName string

	// Catalog reports which knowledge categories the business has at all.
	Catalog Catalog
}

// Result is the decision record for one turn.
type Result struct {
	Intent     Intent             `json:"intent"`
	Decision   EscalationDecision `json:"escalationDecision"`
	Confidence ConfidenceResult   `json:"confidenceResult"`
	State      ConversationState  `json:"conversationState"`

	// Fallback is always selected; whether it is used depends on the
	// caller's confidence threshold.
	Fallback FallbackStrategy `json:"fallbackStrategy"`

	// Signals lists the escalation signals that fired, for logging.
	Signals []string `json:"-"`
}

// EvaluateTurn runs the whole decision pipeline for one customer message:
// window, intent, escalation score, confidence score, state, fallback.
// Invalid input shape is rejected before any scoring; empty query, log and
// knowledge are valid degenerate inputs, not errors.
func (e *Engine) EvaluateTurn(in Input) (*Result, error) {
	if !utf8.ValidString(in.Query) {
		return nil, &domain.ErrValidation{Field: "query", Message: "query must be valid UTF-8 text"}
	}
	if in.Counters.EscalationAttempts < 0 {
		return nil, &domain.ErrValidation{Field: "escalationAttempts", Message: "must not be negative"}
	}

	window := BuildWindow(in.Log, e.windowLimit)
	intent := Classify(in.Query, window)

	score, fired := ScoreEscalation(in.Query, window, in.Counters)
	confidence := ScoreConfidence(in.Query, in.Knowledge, window)
	state := DeriveState(window, intent, score)
	fallback := SelectFallback(in.Query, intent, in.Catalog)

	return &Result{
		Intent: intent,
		Decision: EscalationDecision{
			Score:             score,
			Tier:              TierFor(score),
			Intent:            intent,
			State:             state,
			ShouldEscalateNow: score >= ThresholdImmediate,
		},
		Confidence: ConfidenceResult{Score: confidence},
		State:      state,
		Fallback:   fallback,
		Signals:    fired,
	}, nil
}
