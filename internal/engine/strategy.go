package engine

import "strings"

// FallbackStrategy names a response-generation approach used when confidence
// is low. Template identifies the prompt template the caller fills before
// invoking the LLM; Priority is the tie-break position when several
// conditions hold.
type FallbackStrategy struct {
	Name     string `json:"name"`
	Template string `json:"template"`
	Priority int    `json:"-"`
}

var (
	StrategyPricingAvailable = FallbackStrategy{"pricing_available", "tpl_pricing_available", 1}
	StrategyServiceInquiry   = FallbackStrategy{"service_inquiry", "tpl_service_inquiry", 2}
	StrategyCheckFAQPolicy   = FallbackStrategy{"check_faq_policy", "tpl_check_faq_policy", 3}
	StrategyGeneralInfo      = FallbackStrategy{"general_info_available", "tpl_general_info", 4}
	StrategyCaseFollowup     = FallbackStrategy{"case_followup_fallback", "tpl_case_followup", 5}
	StrategySuggestTopics    = FallbackStrategy{"suggest_available_topics", "tpl_suggest_topics", 6}
	StrategyGeneralFallback  = FallbackStrategy{"general_fallback", "tpl_general_fallback", 7}
)

// Catalog reports which knowledge categories exist for the business.
type Catalog struct {
	HasProducts bool
	HasServices bool
	HasFAQs     bool
	HasPolicies bool
}

// Any reports whether any knowledge category is available at all.
func (c Catalog) Any() bool {
	return c.HasProducts || c.HasServices || c.HasFAQs || c.HasPolicies
}

var bookingShapedPhrases = []string{
	"book", "appointment", "schedule", "reserve", "reservation", "availability",
}

var supportShapedPhrases = []string{
	"how do i", "how to", "help with", "trouble", "error",
	"not working", "issue", "problem", "support",
}

// selectionRule pairs a strategy with its matching condition. Rules are
// ordered by strategy priority; the first match wins.
type selectionRule struct {
	strategy FallbackStrategy
	match    func(q string, intent Intent, cat Catalog) bool
}

var fallbackRules = []selectionRule{
	{StrategyPricingAvailable, func(q string, _ Intent, cat Catalog) bool {
		return containsAny(q, pricingPhrases) && (cat.HasServices || cat.HasProducts)
	}},
	{StrategyServiceInquiry, func(q string, _ Intent, _ Catalog) bool {
		return containsAny(q, bookingShapedPhrases)
	}},
	{StrategyCheckFAQPolicy, func(q string, _ Intent, cat Catalog) bool {
		return containsAny(q, supportShapedPhrases) && (cat.HasFAQs || cat.HasPolicies)
	}},
	// "Generic" means a plain information request. Classified followups,
	// greetings and complaints fall through so case_followup_fallback and
	// suggest_available_topics stay reachable when knowledge exists.
	{StrategyGeneralInfo, func(_ string, intent Intent, cat Catalog) bool {
		return intent == IntentInformationReq && cat.Any()
	}},
	{StrategyCaseFollowup, func(_ string, intent Intent, _ Catalog) bool {
		return intent == IntentCaseFollowup
	}},
	{StrategySuggestTopics, func(_ string, _ Intent, cat Catalog) bool {
		return cat.Any()
	}},
}

// SelectFallback picks the response strategy for a low-confidence turn.
// The confidence threshold itself is the caller's policy; the engine only
// answers "which strategy, should one be needed".
func SelectFallback(query string, intent Intent, cat Catalog) FallbackStrategy {
	q := strings.ToLower(query)
	for _, rule := range fallbackRules {
		if rule.match(q, intent, cat) {
			return rule.strategy
		}
	}
	return StrategyGeneralFallback
}
