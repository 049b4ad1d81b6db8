package engine

import (
	"math"
	"strings"
)

// KnowledgeItem is one retrieved candidate fact (FAQ, product, service,
// policy or free-text entry). The engine treats both texts as opaque.
type KnowledgeItem struct {
	PrimaryText   string
	SecondaryText string
}

// ConfidenceResult estimates how well an automated answer would satisfy the
// query. Independent of the escalation score: a query can be urgent and
// unanswerable, or calm and trivially answerable.
type ConfidenceResult struct {
	Score int `json:"confidenceScore"`
}

// complexTopicPhrases name topics that structurally require human judgment.
// They are penalized regardless of how much matching knowledge exists;
// matching text does not imply a correct automated resolution.
var complexTopicPhrases = []string{
	"return", "refund", "dispute", "chargeback", "billing issue",
	"locked out", "account locked", "cannot log in", "can't log in",
	"not working", "broken", "stopped working",
	"warranty", "defective", "damaged", "lost my", "never arrived",
}

// confidenceAdmissionPhrases mark assistant turns that already failed the
// customer. Wider than the escalation list: softened phrasings count too.
var confidenceAdmissionPhrases = []string{
	"i don't have", "i don't know", "don't know", "not available",
	"wish i had more", "i'd love to help but",
}

// ScoreConfidence computes the 0-100 confidence score from the query, the
// retrieved knowledge and the history window. Six signals, summed unclamped,
// clamped once at the end.
func ScoreConfidence(query string, knowledge []KnowledgeItem, history HistoryWindow) int {
	q := strings.ToLower(query)
	words := queryWords(q)

	total := relevanceContribution(words, knowledge)
	total += complexityContribution(len(words))
	total += contextContribution(len(history))
	total += qualityContribution(knowledge)
	if containsAny(q, complexTopicPhrases) {
		total -= 30
	}
	total += failureContribution(history)

	return clamp(total)
}

// relevanceContribution (0-40): per item, the fraction of query words found
// as substrings of the item's combined text, times 10. Fractions accumulate
// in float and are rounded once after the 40 cap.
func relevanceContribution(words []string, knowledge []KnowledgeItem) int {
	if len(words) == 0 || len(knowledge) == 0 {
		return 0
	}

	sum := 0.0
	for _, item := range knowledge {
		text := strings.ToLower(item.PrimaryText + " " + item.SecondaryText)
		matched := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				matched++
			}
		}
		sum += float64(matched) / float64(len(words)) * 10
	}
	if sum > 40 {
		sum = 40
	}
	return int(math.Round(sum))
}

// complexityContribution: shorter queries are assumed easier to answer well.
func complexityContribution(wordCount int) int {
	switch {
	case wordCount <= 5:
		return 20
	case wordCount <= 10:
		return 15
	default:
		return 10
	}
}

// contextContribution (0-25): +5 per turn of history, capped.
func contextContribution(turns int) int {
	c := 5 * turns
	if c > 25 {
		c = 25
	}
	return c
}

// qualityContribution: substantial answers beat stub entries beat nothing.
func qualityContribution(knowledge []KnowledgeItem) int {
	for _, item := range knowledge {
		if len(item.SecondaryText) > 50 {
			return 15
		}
	}
	if len(knowledge) > 0 {
		return 8
	}
	return 0
}

// failureContribution penalizes sessions the assistant has already failed:
// -30 for two or more admission turns, -15 for exactly one.
func failureContribution(history HistoryWindow) int {
	switch n := history.assistantTurnsContaining(confidenceAdmissionPhrases); {
	case n >= 2:
		return -30
	case n == 1:
		return -15
	default:
		return 0
	}
}

// queryWords splits the lowered query and keeps words longer than two runes.
func queryWords(q string) []string {
	var words []string
	for _, w := range strings.Fields(q) {
		w = strings.Trim(w, ".,!?;:'\"()")
		if len([]rune(w)) > 2 {
			words = append(words, w)
		}
	}
	return words
}
