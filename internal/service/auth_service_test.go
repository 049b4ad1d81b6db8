package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock ---

type mockAuthStore struct {
	agents  map[string]*domain.SupportAgent // keyed by email
	tokens  map[string]*domain.AuthRefreshToken
	revoked int
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{
		agents: map[string]*domain.SupportAgent{},
		tokens: map[string]*domain.AuthRefreshToken{},
	}
}

func (m *mockAuthStore) GetAgentByEmail(_ context.Context, email string) (*domain.SupportAgent, error) {
	if a, ok := m.agents[email]; ok {
		return a, nil
	}
	return nil, &domain.ErrNotFound{Resource: "agent", ID: email}
}

func (m *mockAuthStore) GetAgentByID(_ context.Context, agentID string) (*domain.SupportAgent, error) {
	for _, a := range m.agents {
		if a.ID == agentID {
			return a, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "agent", ID: agentID}
}

func (m *mockAuthStore) CreateAgent(_ context.Context, agent *domain.SupportAgent) (*domain.SupportAgent, error) {
	m.agents[agent.Email] = agent
	return agent, nil
}

func (m *mockAuthStore) StoreRefreshToken(_ context.Context, agentID, tokenHash string, expiresAt time.Time) error {
	m.tokens[tokenHash] = &domain.AuthRefreshToken{
		AgentID:   agentID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (m *mockAuthStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	if tok, ok := m.tokens[tokenHash]; ok {
		return tok, nil
	}
	return nil, &domain.ErrNotFound{Resource: "refresh_token", ID: tokenHash}
}

func (m *mockAuthStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if tok, ok := m.tokens[tokenHash]; ok {
		tok.Revoked = true
	}
	return nil
}

func (m *mockAuthStore) RevokeAllRefreshTokens(_ context.Context, _ string) error {
	m.revoked++
	return nil
}

func newAuthService(store *mockAuthStore) *service.AuthService {
	return service.NewAuthService(store, "test-secret", 15*time.Minute, time.Hour, zap.NewNop())
}

// --- Tests ---

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newMockAuthStore()
	store.agents["taken@acme.test"] = &domain.SupportAgent{ID: "agent-1", Email: "taken@acme.test"}
	svc := newAuthService(store)

	_, err := svc.Register(context.Background(), &domain.CreateAgentRequest{
		BusinessID: "biz-1",
		Email:      "taken@acme.test",
		Password:   "longenough",
	})

	var dup *domain.ErrDuplicate
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if dup.Key != "taken@acme.test" {
		t.Errorf("expected duplicate key to be the email, got '%s'", dup.Key)
	}
}

func TestRegister_CreatesAgentWithDefaultRole(t *testing.T) {
	store := newMockAuthStore()
	svc := newAuthService(store)

	agent, err := svc.Register(context.Background(), &domain.CreateAgentRequest{
		BusinessID: "biz-1",
		Name:       "Sam",
		Email:      "sam@acme.test",
		Password:   "longenough",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if agent.Role != "agent" {
		t.Errorf("expected default role 'agent', got '%s'", agent.Role)
	}
	if agent.PasswordHash == "" || agent.PasswordHash == "longenough" {
		t.Error("expected a hashed password")
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	svc := newAuthService(newMockAuthStore())

	_, err := svc.Register(context.Background(), &domain.CreateAgentRequest{
		Email:    "new@acme.test",
		Password: "short",
	})

	var validationErr *domain.ErrValidation
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	store := newMockAuthStore()
	store.agents["sam@acme.test"] = &domain.SupportAgent{
		ID:           "agent-1",
		BusinessID:   "biz-1",
		Name:         "Sam",
		Email:        "sam@acme.test",
		PasswordHash: string(hash),
	}
	svc := newAuthService(store)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "sam@acme.test",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected a token pair")
	}
	if resp.BusinessID != "biz-1" {
		t.Errorf("expected business id 'biz-1', got '%s'", resp.BusinessID)
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("expected issued token to validate, got %v", err)
	}
	if claims.Sub != "agent-1" || claims.BusinessID != "biz-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	store := newMockAuthStore()
	store.agents["sam@acme.test"] = &domain.SupportAgent{
		ID:           "agent-1",
		Email:        "sam@acme.test",
		PasswordHash: string(hash),
	}
	svc := newAuthService(store)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "sam@acme.test",
		Password: "wrong",
	})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	store := newMockAuthStore()
	store.agents["sam@acme.test"] = &domain.SupportAgent{
		ID:           "agent-1",
		Email:        "sam@acme.test",
		PasswordHash: string(hash),
	}
	svc := newAuthService(store)

	login, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "sam@acme.test",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("expected the refresh token to rotate")
	}

	// The old token is revoked; a second use must fail.
	_, err = svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected reuse of a rotated token to fail, got %v", err)
	}
}
