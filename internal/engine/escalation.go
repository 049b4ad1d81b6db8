package engine

import "strings"

// Tier is the escalation-urgency band derived from the final score.
type Tier string

const (
	TierImmediate   Tier = "immediate_escalation"
	TierOffer       Tier = "offer_escalation"
	TierSuggestAlt  Tier = "suggest_alternatives"
	TierGraceful    Tier = "handle_gracefully"
	TierNone        Tier = ""
)

// Tier thresholds, inclusive, evaluated highest first.
const (
	ThresholdImmediate  = 100
	ThresholdOffer      = 75
	ThresholdSuggestAlt = 50
	ThresholdGraceful   = 25
)

// SessionCounters is per-session state owned and persisted by the caller.
// The engine only reads it; incrementing after an immediate-escalation
// decision is the caller's job.
type SessionCounters struct {
	EscalationAttempts int
}

// EscalationDecision is the engine's verdict for one turn.
type EscalationDecision struct {
	Score             int               `json:"score"`
	Tier              Tier              `json:"tier,omitempty"`
	Intent            Intent            `json:"intent"`
	State             ConversationState `json:"conversationState"`
	ShouldEscalateNow bool              `json:"shouldEscalateNow"`
}

// lexiconBand is one (phrase set, weight) entry of a banded lexicon.
// Bands are evaluated strongest first and at most one applies.
type lexiconBand struct {
	name    string
	weight  int
	phrases []string
}

var frustrationBands = []lexiconBand{
	{"anger", 60, []string{"angry", "furious", "outraged", "fed up", "infuriating"}},
	{"useless", 55, []string{"useless", "waste of time", "pointless"}},
	{"superlative_negative", 50, []string{"terrible", "horrible", "awful", "worst"}},
	{"frustration", 45, []string{"frustrated", "frustrating", "annoyed", "annoying"}},
	{"disappointment", 30, []string{"disappointed", "disappointing", "unhappy", "not happy"}},
}

var urgencyBands = []lexiconBand{
	{"urgent", 40, []string{"urgent", "emergency", "asap", "immediately", "right away"}},
	{"important", 25, []string{"important", "critical", "serious"}},
	{"complex", 15, []string{"complex", "complicated", "difficult"}},
}

// assistantAdmissionPhrases mark an assistant reply that conceded it could
// not help. Used by the history-pressure signal.
var assistantAdmissionPhrases = []string{
	"i don't know", "don't have", "not available",
}

var criticalTopicPhrases = []string{
	"price", "cost", "appointment", "booking", "schedule", "availability",
	"order", "delivery", "contact", "phone", "email",
}

// escalationSignal is one named additive contribution to the urgency score.
// Keeping the signals in an ordered table keeps rule order auditable and
// each signal unit-testable on its own.
type escalationSignal struct {
	name string
	eval func(q string, history HistoryWindow, counters SessionCounters) int
}

var escalationSignals = []escalationSignal{
	{"explicit_request", func(q string, _ HistoryWindow, _ SessionCounters) int {
		if containsAny(q, humanRequestPhrases) {
			return 100
		}
		return 0
	}},
	{"frustration_lexicon", func(q string, _ HistoryWindow, _ SessionCounters) int {
		w, _ := bandHit(q, frustrationBands)
		return w
	}},
	{"repeated_attempts", func(_ string, _ HistoryWindow, c SessionCounters) int {
		return 20 * c.EscalationAttempts
	}},
	{"urgency_lexicon", func(q string, _ HistoryWindow, _ SessionCounters) int {
		w, _ := bandHit(q, urgencyBands)
		return w
	}},
	{"history_pressure", func(_ string, history HistoryWindow, _ SessionCounters) int {
		score := 0
		if history.customerTurns() > 2 {
			score += 15
		}
		if history.assistantTurnsContaining(assistantAdmissionPhrases) > 1 {
			score += 25
		}
		return score
	}},
	{"critical_topic", func(q string, _ HistoryWindow, _ SessionCounters) int {
		if containsAny(q, criticalTopicPhrases) {
			return 10
		}
		return 0
	}},
}

// ScoreEscalation computes the 0-100 urgency score for one turn. Signals are
// summed unclamped so large negative and positive contributions can cancel,
// then the total is clamped once. The returned names identify which signals
// fired, for logging.
func ScoreEscalation(query string, history HistoryWindow, counters SessionCounters) (int, []string) {
	q := strings.ToLower(query)

	total := 0
	var fired []string
	for _, sig := range escalationSignals {
		if v := sig.eval(q, history, counters); v != 0 {
			total += v
			fired = append(fired, sig.name)
		}
	}
	return clamp(total), fired
}

// TierFor maps a clamped escalation score to its tier.
func TierFor(score int) Tier {
	switch {
	case score >= ThresholdImmediate:
		return TierImmediate
	case score >= ThresholdOffer:
		return TierOffer
	case score >= ThresholdSuggestAlt:
		return TierSuggestAlt
	case score >= ThresholdGraceful:
		return TierGraceful
	default:
		return TierNone
	}
}

// bandHit returns the weight and name of the strongest matching band, or
// zero when none match. At most one band ever applies.
func bandHit(q string, bands []lexiconBand) (int, string) {
	for _, b := range bands {
		if containsAny(q, b.phrases) {
			return b.weight, b.name
		}
	}
	return 0, ""
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
