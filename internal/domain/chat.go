// Package domain — chat.go defines the chat API contract: what the customer
// widget sends per turn and what the backend answers with. The decision
// fields mirror the engine's result record so the frontend (and the
// business dashboard) can show why a turn escalated.
package domain

// ChatRequest is the body of POST /v1/chat/{businessId}/{sessionId}.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatEscalation is the escalation slice of a chat reply.
type ChatEscalation struct {
	Score             int    `json:"score"`
	Tier              string `json:"tier,omitempty"`
	ShouldEscalateNow bool   `json:"shouldEscalateNow"`
	CaseNumber        string `json:"caseNumber,omitempty"`
}

// ChatReply is the backend's answer for one turn.
type ChatReply struct {
	Answer            string         `json:"answer"`
	Intent            string         `json:"intent"`
	ConversationState string         `json:"conversationState"`
	ConfidenceScore   int            `json:"confidenceScore"`
	FallbackStrategy  string         `json:"fallbackStrategy,omitempty"`
	Escalation        ChatEscalation `json:"escalation"`
}

// GeneratedAnswer is what the LLM collaborator returns for a filled prompt.
type GeneratedAnswer struct {
	Text             string `json:"text"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
}

// OutboundEmail is one transactional email handed to the email provider.
type OutboundEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// MailboxMessage is one message of the escalation mailbox thread.
type MailboxMessage struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Date     string `json:"date"`
}

// CreateSessionRequest opens a new chat session for a business.
type CreateSessionRequest struct {
	CustomerName  string `json:"customerName,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}
