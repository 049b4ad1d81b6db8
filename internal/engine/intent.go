package engine

import (
	"strings"
	"unicode"
)

// Intent is the closed classification of what the customer is trying to do.
type Intent string

const (
	IntentEscalationRequest Intent = "escalation_request"
	IntentCaseFollowup      Intent = "case_followup"
	IntentGreeting          Intent = "greeting"
	IntentComplaint         Intent = "complaint"
	IntentPricingInquiry    Intent = "pricing_inquiry"
	IntentInformationReq    Intent = "information_request"
)

// Phrase families shared between the classifier and the escalation scorer.
// Matching is substring containment on the lower-cased query; no tokenizer.
var (
	humanRequestPhrases = []string{
		"speak to", "talk to", "human", "agent",
		"representative", "manager", "supervisor", "real person",
	}
	caseReferencePhrases = []string{
		"case", "ticket", "reference number", "follow up", "followup", "status of",
	}
	greetingTokens = []string{
		"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	}
	complaintPhrases = []string{
		"complaint", "problem", "issue", "wrong", "error",
		"broken", "not working", "disappointed",
	}
	pricingPhrases = []string{
		"price", "cost", "how much", "fee", "charge", "payment",
	}
)

// intentRule is one entry of the ordered decision list. The first rule whose
// predicate fires wins; later rules are never evaluated. The order is part of
// the contract: a returning customer asking for a human about an existing
// case is an escalation request, not a case followup.
type intentRule struct {
	intent Intent
	match  func(q string) bool
}

var intentRules = []intentRule{
	{IntentEscalationRequest, func(q string) bool {
		return containsAny(q, humanRequestPhrases) && containsAny(q, caseReferencePhrases)
	}},
	{IntentCaseFollowup, func(q string) bool {
		return containsAny(q, caseReferencePhrases) && !containsAny(q, humanRequestPhrases)
	}},
	{IntentGreeting, func(q string) bool {
		return startsWithGreeting(q)
	}},
	{IntentEscalationRequest, func(q string) bool {
		return containsAny(q, humanRequestPhrases)
	}},
	{IntentComplaint, func(q string) bool {
		return containsAny(q, complaintPhrases)
	}},
	{IntentPricingInquiry, func(q string) bool {
		return containsAny(q, pricingPhrases)
	}},
}

// Classify maps a query to exactly one Intent. It is total: anything the
// decision list does not claim falls through to information_request.
func Classify(query string, _ HistoryWindow) Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, rule := range intentRules {
		if rule.match(q) {
			return rule.intent
		}
	}
	return IntentInformationReq
}

func containsAny(q string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

// startsWithGreeting matches a greeting token in leading position only, as a
// whole token ("hi there" yes, "history of orders" no).
func startsWithGreeting(q string) bool {
	for _, tok := range greetingTokens {
		if q == tok {
			return true
		}
		if strings.HasPrefix(q, tok) {
			next := rune(q[len(tok)])
			if !unicode.IsLetter(next) && !unicode.IsDigit(next) {
				return true
			}
		}
	}
	return false
}
