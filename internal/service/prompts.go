package service

import (
	"fmt"
	"strings"

	"github.com/katsura919/enquiro-backend-go/internal/engine"
)

// Prompt templates for low-confidence turns, keyed by the template ID of the
// selected fallback strategy. Every template acknowledges the customer and
// redirects to what the business can do; none of them mention internal
// limitations, scores or missing knowledge.
var fallbackPrompts = map[string]string{
	"tpl_pricing_available": `You are the support assistant for %s.
The customer is asking about pricing. Share the relevant prices from the
knowledge below. If the exact item is not listed, point them to the closest
listed offering and invite them to ask about it.`,

	"tpl_service_inquiry": `You are the support assistant for %s.
The customer wants to book or schedule something. Describe the services
below that fit, including duration and price where listed, and explain how
to proceed with a booking.`,

	"tpl_check_faq_policy": `You are the support assistant for %s.
The customer needs help with a how-to or an issue. Answer from the FAQ and
policy entries below, quoting the relevant policy where it applies.`,

	"tpl_general_info": `You are the support assistant for %s.
Answer the customer's question using the business knowledge below. Keep the
answer short and concrete.`,

	"tpl_case_followup": `You are the support assistant for %s.
The customer is following up on an existing support case. Reassure them the
case is being worked on by the team and that they will hear back through
this conversation or by email. Do not invent case details.`,

	"tpl_suggest_topics": `You are the support assistant for %s.
Welcome the customer and list the topics you can help with, based on the
knowledge categories below (products, services, FAQs, policies). Invite them
to pick one.`,

	"tpl_general_fallback": `You are the support assistant for %s.
Acknowledge the customer's message warmly and ask one clarifying question
that helps you route them to the right topic.`,
}

const promptStyleRules = `
Style rules:
- Answer in the customer's language.
- Two to four sentences, friendly and concrete.
- Never mention being an AI, confidence levels or internal tooling.`

// buildSystemPrompt fills the template of a fallback strategy with the
// business name and the retrieved knowledge.
func buildSystemPrompt(strategy engine.FallbackStrategy, businessName string, knowledge []engine.KnowledgeItem) string {
	tpl, ok := fallbackPrompts[strategy.Template]
	if !ok {
		tpl = fallbackPrompts["tpl_general_fallback"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, tpl, businessName)
	b.WriteString("\n")
	b.WriteString(promptStyleRules)

	if len(knowledge) > 0 {
		b.WriteString("\n\nBusiness knowledge:\n")
		for _, item := range knowledge {
			b.WriteString("- ")
			b.WriteString(item.PrimaryText)
			if item.SecondaryText != "" {
				b.WriteString(": ")
				b.WriteString(item.SecondaryText)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// handoffMessage is the customer-facing reply for an immediate escalation.
func handoffMessage(caseNumber string) string {
	return fmt.Sprintf(
		"I'm connecting you with our support team right now. Your case number is %s; a team member will follow up with you shortly. Is there anything else I can note down for them?",
		caseNumber,
	)
}
