package domain

import "time"

// ============================================================
// Business & knowledge resources
// ============================================================

// Business is a tenant of the support platform.
type Business struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Address     string    `json:"address,omitempty"`
	LogoURL     string    `json:"logoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Product is an item the business sells.
type Product struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"businessId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency,omitempty"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ServiceItem is a bookable service the business offers.
type ServiceItem struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"businessId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Duration    string    `json:"duration,omitempty"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Policy is a business policy document (returns, privacy, terms...).
type Policy struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Type       string    `json:"type,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FAQ is one question/answer pair of the business knowledge base.
type FAQ struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// QRSettings configures the business' printable chat entry QR code.
type QRSettings struct {
	BusinessID      string    `json:"businessId"`
	ChatURL         string    `json:"chatUrl"`
	ForegroundColor string    `json:"foregroundColor,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	LogoEnabled     bool      `json:"logoEnabled"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// KnowledgeCatalog reports which knowledge categories a business has rows in.
type KnowledgeCatalog struct {
	HasProducts bool `json:"hasProducts"`
	HasServices bool `json:"hasServices"`
	HasFAQs     bool `json:"hasFaqs"`
	HasPolicies bool `json:"hasPolicies"`
}

// ============================================================
// Chat sessions & messages
// ============================================================

// Session status values.
const (
	SessionStatusActive    = "active"
	SessionStatusEscalated = "escalated"
	SessionStatusResolved  = "resolved"
	SessionStatusClosed    = "closed"
)

// ChatSession is one customer conversation with a business.
type ChatSession struct {
	ID                 string    `json:"id"`
	BusinessID         string    `json:"businessId"`
	CustomerName       string    `json:"customerName,omitempty"`
	CustomerEmail      string    `json:"customerEmail,omitempty"`
	Status             string    `json:"status"`
	ConversationState  string    `json:"conversationState"`
	EscalationAttempts int       `json:"escalationAttempts"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ChatMessage is one persisted turn of a session. Sender carries the
// storage-level role label ("customer", "bot", or an agent identifier).
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================================
// Escalation cases
// ============================================================

// Escalation case status values.
const (
	EscalationStatusPending    = "pending"
	EscalationStatusInProgress = "in_progress"
	EscalationStatusResolved   = "resolved"
	EscalationStatusDismissed  = "dismissed"
)

// EscalationCase is a human-handoff case opened from a chat session.
type EscalationCase struct {
	ID            string     `json:"id"`
	CaseNumber    string     `json:"caseNumber"`
	SessionID     string     `json:"sessionId"`
	BusinessID    string     `json:"businessId"`
	CustomerName  string     `json:"customerName,omitempty"`
	CustomerEmail string     `json:"customerEmail,omitempty"`
	Reason        string     `json:"reason"`
	Score         int        `json:"score"`
	Tier          string     `json:"tier,omitempty"`
	Status        string     `json:"status"`
	Resolution    string     `json:"resolution,omitempty"`
	ResolvedBy    string     `json:"resolvedBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
}

// EscalationFilters narrows escalation case listings.
type EscalationFilters struct {
	BusinessID string
	SessionID  string
	Status     string
}

// ============================================================
// Support agents
// ============================================================

// SupportAgent is a human operator of a business dashboard.
type SupportAgent struct {
	ID           string    `json:"id"`
	BusinessID   string    `json:"businessId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
