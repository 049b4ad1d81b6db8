// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from concrete implementations: the document store, the LLM, the email
// provider and the mailbox API are all collaborators behind interfaces, so
// the decision engine and the services around it stay testable with mocks.
package port

import (
	"context"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
)

// ChatStore persists chat sessions and their turn logs.
type ChatStore interface {
	CreateSession(ctx context.Context, businessID string, req *domain.CreateSessionRequest) (*domain.ChatSession, error)
	GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error)
	UpdateSessionState(ctx context.Context, sessionID, status, conversationState string) error

	// IncrementEscalationAttempts bumps the per-session counter after an
	// immediate-escalation decision. The store serializes concurrent bumps
	// for the same session.
	IncrementEscalationAttempts(ctx context.Context, sessionID string) error

	AppendMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}

// BusinessStore persists the business tenants and their QR settings.
type BusinessStore interface {
	CreateBusiness(ctx context.Context, b *domain.Business) (*domain.Business, error)
	GetBusiness(ctx context.Context, businessID string) (*domain.Business, error)
	ListBusinesses(ctx context.Context, page, pageSize int) ([]domain.Business, error)
	UpdateBusiness(ctx context.Context, b *domain.Business) (*domain.Business, error)
	DeleteBusiness(ctx context.Context, businessID string) error

	GetQRSettings(ctx context.Context, businessID string) (*domain.QRSettings, error)
	UpsertQRSettings(ctx context.Context, s *domain.QRSettings) (*domain.QRSettings, error)
}

// KnowledgeStore persists the per-business knowledge base: products,
// services, policies and FAQs.
type KnowledgeStore interface {
	// Products
	CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context, businessID string) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error

	// Services
	CreateService(ctx context.Context, s *domain.ServiceItem) (*domain.ServiceItem, error)
	ListServices(ctx context.Context, businessID string) ([]domain.ServiceItem, error)
	UpdateService(ctx context.Context, s *domain.ServiceItem) (*domain.ServiceItem, error)
	DeleteService(ctx context.Context, serviceID string) error

	// Policies
	CreatePolicy(ctx context.Context, p *domain.Policy) (*domain.Policy, error)
	ListPolicies(ctx context.Context, businessID string) ([]domain.Policy, error)
	UpdatePolicy(ctx context.Context, p *domain.Policy) (*domain.Policy, error)
	DeletePolicy(ctx context.Context, policyID string) error

	// FAQs
	CreateFAQ(ctx context.Context, f *domain.FAQ) (*domain.FAQ, error)
	ListFAQs(ctx context.Context, businessID string) ([]domain.FAQ, error)
	UpdateFAQ(ctx context.Context, f *domain.FAQ) (*domain.FAQ, error)
	DeleteFAQ(ctx context.Context, faqID string) error
}

// EscalationStore persists human-handoff cases.
type EscalationStore interface {
	CreateEscalation(ctx context.Context, e *domain.EscalationCase) (*domain.EscalationCase, error)
	GetEscalation(ctx context.Context, caseID string) (*domain.EscalationCase, error)
	GetEscalationByCaseNumber(ctx context.Context, caseNumber string) (*domain.EscalationCase, error)
	ListEscalations(ctx context.Context, filters domain.EscalationFilters, page, pageSize int) ([]domain.EscalationCase, error)
	UpdateEscalationStatus(ctx context.Context, caseID, status string) error
	ResolveEscalation(ctx context.Context, caseID, resolution, resolvedBy string, resolvedAt time.Time) error
}

// AuthStore persists support agents and refresh tokens.
type AuthStore interface {
	GetAgentByEmail(ctx context.Context, email string) (*domain.SupportAgent, error)
	GetAgentByID(ctx context.Context, agentID string) (*domain.SupportAgent, error)
	CreateAgent(ctx context.Context, agent *domain.SupportAgent) (*domain.SupportAgent, error)

	StoreRefreshToken(ctx context.Context, agentID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, agentID string) error
}

// ResponseGenerator is the LLM collaborator. It takes an already-filled
// prompt and returns generated text; which prompt to fill is the engine's
// decision, not the generator's.
type ResponseGenerator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (*domain.GeneratedAnswer, error)
}

// EmailSender delivers outbound transactional email.
type EmailSender interface {
	Send(ctx context.Context, email *domain.OutboundEmail) error
}

// Mailbox reads and appends to the escalation mail thread of a business.
type Mailbox interface {
	AppendMessage(ctx context.Context, threadID string, msg *domain.MailboxMessage) error
	ListThread(ctx context.Context, threadID string) ([]domain.MailboxMessage, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
