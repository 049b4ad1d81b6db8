package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreConfidence_ComplexTopicPenalizedDespiteGoodMatch(t *testing.T) {
	answer := strings.Repeat("You can send items back within 30 days. ", 2) // > 50 chars
	returnFAQ := []KnowledgeItem{{
		PrimaryText:   "What is your return policy?",
		SecondaryText: answer,
	}}
	shippingFAQ := []KnowledgeItem{{
		PrimaryText:   "What is your shipping policy?",
		SecondaryText: answer,
	}}

	withPenalty := ScoreConfidence("What is your return policy?", returnFAQ, nil)
	withoutPenalty := ScoreConfidence("What is your shipping policy?", shippingFAQ, nil)

	// Identical match quality, identical data quality; only the complex
	// topic penalty separates them.
	assert.Equal(t, withoutPenalty-30, withPenalty)
	assert.Less(t, withPenalty, withoutPenalty)
}

func TestScoreConfidence_RelevanceCappedAt40(t *testing.T) {
	items := make([]KnowledgeItem, 8)
	for i := range items {
		items[i] = KnowledgeItem{PrimaryText: "opening hours", SecondaryText: "we are open monday through friday, nine in the morning until five"}
	}

	// Every query word matches every item: 8 * 10 = 80 before the cap.
	score := ScoreConfidence("opening hours", items, nil)
	// C1=40 (capped) + C2=20 + C4=15.
	assert.Equal(t, 75, score)
}

func TestScoreConfidence_QueryComplexityBands(t *testing.T) {
	assert.Equal(t, 20, complexityContribution(0))
	assert.Equal(t, 20, complexityContribution(5))
	assert.Equal(t, 15, complexityContribution(6))
	assert.Equal(t, 15, complexityContribution(10))
	assert.Equal(t, 10, complexityContribution(11))
}

func TestScoreConfidence_ContextCappedAt25(t *testing.T) {
	assert.Equal(t, 0, contextContribution(0))
	assert.Equal(t, 10, contextContribution(2))
	assert.Equal(t, 25, contextContribution(5))
	assert.Equal(t, 25, contextContribution(6))
}

func TestScoreConfidence_DataQualityBands(t *testing.T) {
	long := KnowledgeItem{PrimaryText: "q", SecondaryText: strings.Repeat("a", 51)}
	short := KnowledgeItem{PrimaryText: "q", SecondaryText: "short"}

	assert.Equal(t, 15, qualityContribution([]KnowledgeItem{short, long}))
	assert.Equal(t, 8, qualityContribution([]KnowledgeItem{short}))
	assert.Equal(t, 0, qualityContribution(nil))
}

func TestScoreConfidence_RepeatedFailurePenalty(t *testing.T) {
	oneMiss := HistoryWindow{
		{Role: RoleCustomer, Content: "where is my package"},
		{Role: RoleAssistant, Content: "I don't have that information"},
	}
	twoMisses := append(HistoryWindow{}, oneMiss...)
	twoMisses = append(twoMisses,
		Turn{Role: RoleCustomer, Content: "try again"},
		Turn{Role: RoleAssistant, Content: "I don't have that information"},
	)

	assert.Equal(t, -15, failureContribution(oneMiss))
	assert.Equal(t, -30, failureContribution(twoMisses))
	assert.Equal(t, 0, failureContribution(nil))
}

// The two scorers must move independently in opposite directions for the
// same failed-assistant history.
func TestScorers_IndependentOnFailureHistory(t *testing.T) {
	window := HistoryWindow{
		{Role: RoleCustomer, Content: "where is my package"},
		{Role: RoleAssistant, Content: "I don't have that information"},
		{Role: RoleCustomer, Content: "please check again"},
		{Role: RoleAssistant, Content: "I don't have that information"},
	}

	query := "do you ship abroad"

	escWith, _ := ScoreEscalation(query, window, SessionCounters{})
	escWithout, _ := ScoreEscalation(query, nil, SessionCounters{})
	confWith := ScoreConfidence(query, nil, window)
	confWithout := ScoreConfidence(query, nil, nil)

	// Escalation gains the +25 admission bonus (two customer turns only, so
	// no message-count bonus); confidence loses 30 but gains 5*4 context.
	assert.Equal(t, 25, escWith-escWithout)
	assert.Equal(t, -30+20, confWith-confWithout)
}

func TestScoreConfidence_ClampedToZero(t *testing.T) {
	window := HistoryWindow{
		{Role: RoleAssistant, Content: "I don't know"},
		{Role: RoleAssistant, Content: "that is not available"},
	}
	// C2=20, C3=10, C5=-30, C6=-30: sums to -30 before the final clamp.
	score := ScoreConfidence("refund", nil, window)
	assert.Equal(t, 0, score)
}

func TestScoreConfidence_AlwaysInRange(t *testing.T) {
	windows := []HistoryWindow{nil, {
		{Role: RoleAssistant, Content: "I don't know"},
		{Role: RoleAssistant, Content: "not available"},
	}}
	queries := []string{"", "refund dispute warranty", "hi", strings.Repeat("word ", 40)}

	for _, w := range windows {
		for _, q := range queries {
			score := ScoreConfidence(q, nil, w)
			require.GreaterOrEqual(t, score, 0)
			require.LessOrEqual(t, score, 100)
		}
	}
}

func TestQueryWords_DropsShortWords(t *testing.T) {
	words := queryWords("is my order on its way?")
	assert.Equal(t, []string{"order", "its", "way"}, words)
}
