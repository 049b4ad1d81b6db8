package service

import (
	"context"
	"fmt"
	"time"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/engine"
	"github.com/katsura919/enquiro-backend-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EscalationService manages the lifecycle of human-handoff cases on the
// business dashboard.
type EscalationService struct {
	store     port.EscalationStore
	chatStore port.ChatStore
	email     port.EmailSender
	mailbox   port.Mailbox
	logger    *zap.Logger
}

// NewEscalationService creates an EscalationService.
func NewEscalationService(store port.EscalationStore, chatStore port.ChatStore, email port.EmailSender, mailbox port.Mailbox, logger *zap.Logger) *EscalationService {
	return &EscalationService{
		store:     store,
		chatStore: chatStore,
		email:     email,
		mailbox:   mailbox,
		logger:    logger,
	}
}

// List returns a filtered page of cases.
func (s *EscalationService) List(ctx context.Context, filters domain.EscalationFilters, page, pageSize int) ([]domain.EscalationCase, error) {
	ctx, span := tracer.Start(ctx, "EscalationService.List")
	defer span.End()

	return s.store.ListEscalations(ctx, filters, page, pageSize)
}

// Get returns one case by ID.
func (s *EscalationService) Get(ctx context.Context, caseID string) (*domain.EscalationCase, error) {
	ctx, span := tracer.Start(ctx, "EscalationService.Get")
	defer span.End()

	return s.store.GetEscalation(ctx, caseID)
}

// GetByCaseNumber returns one case by its public case number. Customers
// quote this number, so the lookup is also used by the chat widget.
func (s *EscalationService) GetByCaseNumber(ctx context.Context, caseNumber string) (*domain.EscalationCase, error) {
	ctx, span := tracer.Start(ctx, "EscalationService.GetByCaseNumber")
	defer span.End()

	return s.store.GetEscalationByCaseNumber(ctx, caseNumber)
}

// UpdateStatus moves a case between workflow states.
func (s *EscalationService) UpdateStatus(ctx context.Context, caseID, status string) error {
	ctx, span := tracer.Start(ctx, "EscalationService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("escalation.status", status))

	switch status {
	case domain.EscalationStatusPending, domain.EscalationStatusInProgress, domain.EscalationStatusDismissed:
	default:
		return &domain.ErrValidation{Field: "status", Message: "unknown escalation status"}
	}
	return s.store.UpdateEscalationStatus(ctx, caseID, status)
}

// Resolve closes a case with a resolution note, marks the originating
// session resolved and tells the customer by email. This is the only path
// that sets the issue_resolved conversation state; the engine never derives
// it from message content.
func (s *EscalationService) Resolve(ctx context.Context, caseID, resolution, resolvedBy string) (*domain.EscalationCase, error) {
	ctx, span := tracer.Start(ctx, "EscalationService.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("escalation.id", caseID))

	if resolution == "" {
		return nil, &domain.ErrValidation{Field: "resolution", Message: "must not be empty"}
	}

	esc, err := s.store.GetEscalation(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if esc.Status == domain.EscalationStatusResolved {
		return nil, &domain.ErrConflict{Message: "escalation already resolved"}
	}

	if err := s.store.ResolveEscalation(ctx, caseID, resolution, resolvedBy, time.Now()); err != nil {
		return nil, err
	}

	if err := s.chatStore.UpdateSessionState(ctx, esc.SessionID, domain.SessionStatusResolved, string(engine.StateIssueResolved)); err != nil {
		s.logger.Error("failed to mark session resolved",
			zap.String("session_id", esc.SessionID),
			zap.Error(err),
		)
	}

	if esc.CustomerEmail != "" {
		if err := s.email.Send(ctx, &domain.OutboundEmail{
			To:      esc.CustomerEmail,
			Subject: fmt.Sprintf("Your case %s has been resolved", esc.CaseNumber),
			HTML:    fmt.Sprintf("<p>Hi %s,</p><p>your support case %s has been resolved:</p><p>%s</p>", esc.CustomerName, esc.CaseNumber, resolution),
		}); err != nil {
			s.logger.Error("resolution email failed",
				zap.String("case_number", esc.CaseNumber),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("escalation resolved",
		zap.String("case_number", esc.CaseNumber),
		zap.String("resolved_by", resolvedBy),
	)
	return s.store.GetEscalation(ctx, caseID)
}

// Thread returns the mailbox thread of a case.
func (s *EscalationService) Thread(ctx context.Context, caseID string) ([]domain.MailboxMessage, error) {
	ctx, span := tracer.Start(ctx, "EscalationService.Thread")
	defer span.End()

	if _, err := s.store.GetEscalation(ctx, caseID); err != nil {
		return nil, err
	}
	return s.mailbox.ListThread(ctx, caseID)
}

// Reply appends an agent reply to the mailbox thread of a case.
func (s *EscalationService) Reply(ctx context.Context, caseID, from, body string) error {
	ctx, span := tracer.Start(ctx, "EscalationService.Reply")
	defer span.End()

	if body == "" {
		return &domain.ErrValidation{Field: "body", Message: "must not be empty"}
	}
	esc, err := s.store.GetEscalation(ctx, caseID)
	if err != nil {
		return err
	}
	return s.mailbox.AppendMessage(ctx, esc.ID, &domain.MailboxMessage{
		From:    from,
		Subject: fmt.Sprintf("Re: Escalation %s", esc.CaseNumber),
		Body:    body,
	})
}
