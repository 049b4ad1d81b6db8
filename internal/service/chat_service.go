package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/engine"
	"github.com/katsura919/enquiro-backend-go/internal/infra/observability"
	"github.com/katsura919/enquiro-backend-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// senderBot is the storage label for engine-generated turns.
const senderBot = "bot"

// ChatService runs the per-turn pipeline: load context, evaluate the turn
// with the decision engine, then either hand off to a human or generate an
// answer, persisting everything along the way.
type ChatService struct {
	chatStore       port.ChatStore
	businessStore   port.BusinessStore
	escalationStore port.EscalationStore
	knowledge       *KnowledgeService
	generator       port.ResponseGenerator
	email           port.EmailSender
	mailbox         port.Mailbox
	engine          *engine.Engine
	metrics         *observability.Metrics
	logger          *zap.Logger

	// confidenceThreshold is the policy line between answering directly
	// and answering through a fallback strategy.
	confidenceThreshold int
}

// NewChatService creates the chat service with all dependencies injected.
func NewChatService(
	chatStore port.ChatStore,
	businessStore port.BusinessStore,
	escalationStore port.EscalationStore,
	knowledge *KnowledgeService,
	generator port.ResponseGenerator,
	email port.EmailSender,
	mailbox port.Mailbox,
	eng *engine.Engine,
	confidenceThreshold int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		chatStore:           chatStore,
		businessStore:       businessStore,
		escalationStore:     escalationStore,
		knowledge:           knowledge,
		generator:           generator,
		email:               email,
		mailbox:             mailbox,
		engine:              eng,
		metrics:             metrics,
		logger:              logger,
		confidenceThreshold: confidenceThreshold,
	}
}

// StartSession opens a new chat session for a business.
func (s *ChatService) StartSession(ctx context.Context, businessID string, req *domain.CreateSessionRequest) (*domain.ChatSession, error) {
	ctx, span := tracer.Start(ctx, "ChatService.StartSession")
	defer span.End()

	if _, err := s.businessStore.GetBusiness(ctx, businessID); err != nil {
		return nil, err
	}
	return s.chatStore.CreateSession(ctx, businessID, req)
}

// GetSession returns one session, scoped to its business.
func (s *ChatService) GetSession(ctx context.Context, businessID, sessionID string) (*domain.ChatSession, error) {
	session, err := s.chatStore.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.BusinessID != businessID {
		return nil, &domain.ErrNotFound{Resource: "session", ID: sessionID}
	}
	return session, nil
}

// ListMessages returns the turn log of a session.
func (s *ChatService) ListMessages(ctx context.Context, businessID, sessionID string) ([]domain.ChatMessage, error) {
	if _, err := s.GetSession(ctx, businessID, sessionID); err != nil {
		return nil, err
	}
	return s.chatStore.ListMessages(ctx, sessionID)
}

// HandleTurn processes one customer message end to end and returns the
// reply together with the decision record.
func (s *ChatService) HandleTurn(ctx context.Context, businessID, sessionID string, req *domain.ChatRequest) (*domain.ChatReply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "ChatService.HandleTurn")
	defer span.End()
	span.SetAttributes(
		attribute.String("business.id", businessID),
		attribute.String("session.id", sessionID),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("chat_turn", time.Since(start))
	}()

	if strings.TrimSpace(req.Query) == "" {
		return nil, &domain.ErrValidation{Field: "query", Message: "must not be empty"}
	}

	// --- Step 1: load session, business, history and knowledge concurrently ---
	var (
		session  *domain.ChatSession
		business *domain.Business
		messages []domain.ChatMessage
		snap     *KnowledgeSnapshot
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		session, err = s.GetSession(gCtx, businessID, sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		business, err = s.businessStore.GetBusiness(gCtx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		messages, err = s.chatStore.ListMessages(gCtx, sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		snap, err = s.knowledge.Snapshot(gCtx, businessID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrTurn("error")
		return nil, err
	}

	// --- Step 2: evaluate the turn ---
	log := make([]engine.RawTurn, 0, len(messages))
	for _, m := range messages {
		log = append(log, engine.RawTurn{Sender: m.Sender, Content: m.Content, SentAt: m.CreatedAt})
	}

	result, err := s.engine.EvaluateTurn(engine.Input{
		Query:        req.Query,
		Log:          log,
		Counters:     engine.SessionCounters{EscalationAttempts: session.EscalationAttempts},
		Knowledge:    snap.Items,
		BusinessName: business.Name,
		Catalog:      snap.Catalog,
	})
	if err != nil {
		s.metrics.IncrTurn("invalid")
		return nil, err
	}

	s.metrics.RecordDecision(string(result.Intent), string(result.Decision.Tier), result.Decision.Score, result.Confidence.Score)
	s.logger.Info("turn evaluated",
		zap.String("session_id", sessionID),
		zap.String("intent", string(result.Intent)),
		zap.Int("escalation_score", result.Decision.Score),
		zap.Int("confidence_score", result.Confidence.Score),
		zap.String("state", string(result.State)),
		zap.Strings("signals", result.Signals),
	)

	// --- Step 3: persist the customer turn ---
	if err := s.chatStore.AppendMessage(ctx, &domain.ChatMessage{
		SessionID: sessionID,
		Sender:    "customer",
		Content:   req.Query,
		Intent:    string(result.Intent),
	}); err != nil {
		s.metrics.IncrTurn("error")
		return nil, err
	}

	// --- Step 4: escalate or answer ---
	reply := &domain.ChatReply{
		Intent:            string(result.Intent),
		ConversationState: string(result.State),
		ConfidenceScore:   result.Confidence.Score,
		Escalation: domain.ChatEscalation{
			Score:             result.Decision.Score,
			Tier:              string(result.Decision.Tier),
			ShouldEscalateNow: result.Decision.ShouldEscalateNow,
		},
	}

	sessionStatus := session.Status
	if result.Decision.ShouldEscalateNow {
		caseNumber, err := s.escalate(ctx, session, business, req.Query, result)
		if err != nil {
			s.metrics.IncrTurn("error")
			return nil, err
		}
		reply.Answer = handoffMessage(caseNumber)
		reply.Escalation.CaseNumber = caseNumber
		sessionStatus = domain.SessionStatusEscalated
		s.metrics.IncrTurn("escalated")
	} else {
		answer, err := s.generateAnswer(ctx, business.Name, req.Query, result, snap.Items)
		if err != nil {
			s.metrics.IncrTurn("error")
			return nil, err
		}
		reply.Answer = answer
		if result.Confidence.Score < s.confidenceThreshold {
			reply.FallbackStrategy = result.Fallback.Name
		}
		s.metrics.IncrTurn("answered")
	}

	// --- Step 5: persist the reply and the derived state ---
	if err := s.chatStore.AppendMessage(ctx, &domain.ChatMessage{
		SessionID: sessionID,
		Sender:    senderBot,
		Content:   reply.Answer,
	}); err != nil {
		return nil, err
	}
	if err := s.chatStore.UpdateSessionState(ctx, sessionID, sessionStatus, string(result.State)); err != nil {
		return nil, err
	}

	return reply, nil
}

// escalate opens a human-handoff case for a session: bump the attempt
// counter, create the case, notify the business by email and seed the
// mailbox thread.
func (s *ChatService) escalate(ctx context.Context, session *domain.ChatSession, business *domain.Business, query string, result *engine.Result) (string, error) {
	ctx, span := tracer.Start(ctx, "ChatService.escalate")
	defer span.End()

	if err := s.chatStore.IncrementEscalationAttempts(ctx, session.ID); err != nil {
		return "", err
	}

	caseNumber := fmt.Sprintf("ESC-%s", strings.ToUpper(uuid.New().String()[:8]))
	created, err := s.escalationStore.CreateEscalation(ctx, &domain.EscalationCase{
		ID:            uuid.New().String(),
		CaseNumber:    caseNumber,
		SessionID:     session.ID,
		BusinessID:    business.ID,
		CustomerName:  session.CustomerName,
		CustomerEmail: session.CustomerEmail,
		Reason:        query,
		Score:         result.Decision.Score,
		Tier:          string(result.Decision.Tier),
	})
	if err != nil {
		return "", err
	}

	// Notification failures must not lose the handoff; the case is already
	// persisted and visible on the dashboard.
	if err := s.email.Send(ctx, &domain.OutboundEmail{
		To:      business.Email,
		Subject: fmt.Sprintf("New escalation %s", created.CaseNumber),
		HTML: fmt.Sprintf(
			"<p>A chat conversation was escalated.</p><p><b>Case:</b> %s<br><b>Customer:</b> %s (%s)<br><b>Message:</b> %s</p>",
			created.CaseNumber, session.CustomerName, session.CustomerEmail, query,
		),
	}); err != nil {
		s.logger.Error("escalation email failed",
			zap.String("case_number", created.CaseNumber),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("email")
	}

	if err := s.mailbox.AppendMessage(ctx, created.ID, &domain.MailboxMessage{
		From:    session.CustomerEmail,
		Subject: fmt.Sprintf("Escalation %s", created.CaseNumber),
		Body:    query,
	}); err != nil {
		s.logger.Error("mailbox append failed",
			zap.String("case_number", created.CaseNumber),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("mailbox")
	}

	s.logger.Info("session escalated",
		zap.String("session_id", session.ID),
		zap.String("case_number", created.CaseNumber),
		zap.Int("score", result.Decision.Score),
	)
	return created.CaseNumber, nil
}

// generateAnswer produces the bot reply. Below the confidence threshold the
// selected fallback strategy shapes the prompt; above it the knowledge is
// offered directly.
func (s *ChatService) generateAnswer(ctx context.Context, businessName, query string, result *engine.Result, knowledge []engine.KnowledgeItem) (string, error) {
	ctx, span := tracer.Start(ctx, "ChatService.generateAnswer")
	defer span.End()

	strategy := engine.StrategyGeneralInfo
	if result.Confidence.Score < s.confidenceThreshold {
		strategy = result.Fallback
		s.metrics.IncrFallback(strategy.Name)
		span.SetAttributes(attribute.String("fallback.strategy", strategy.Name))
	}

	systemPrompt := buildSystemPrompt(strategy, businessName, knowledge)

	llmStart := time.Now()
	answer, err := s.generator.Generate(ctx, systemPrompt, query)
	s.metrics.RecordRequestDuration("llm", time.Since(llmStart))
	if err != nil {
		s.logger.Error("answer generation failed",
			zap.String("strategy", strategy.Name),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("llm")
		return "", fmt.Errorf("generate answer: %w", err)
	}
	s.metrics.RecordTokens(answer.PromptTokens, answer.CompletionTokens)

	return answer.Text, nil
}
