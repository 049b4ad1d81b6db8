package service

import (
	"context"
	"strings"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/port"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BusinessService manages business tenants and their knowledge base.
// Knowledge edits invalidate the cached snapshot the chat turns read.
type BusinessService struct {
	store     port.BusinessStore
	knowStore port.KnowledgeStore
	knowledge *KnowledgeService
	logger    *zap.Logger
}

// NewBusinessService creates a BusinessService.
func NewBusinessService(store port.BusinessStore, knowStore port.KnowledgeStore, knowledge *KnowledgeService, logger *zap.Logger) *BusinessService {
	return &BusinessService{
		store:     store,
		knowStore: knowStore,
		knowledge: knowledge,
		logger:    logger,
	}
}

// --- Businesses ---

func (s *BusinessService) Create(ctx context.Context, b *domain.Business) (*domain.Business, error) {
	ctx, span := tracer.Start(ctx, "BusinessService.Create")
	defer span.End()

	if strings.TrimSpace(b.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "must not be empty"}
	}
	if strings.TrimSpace(b.Email) == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "must not be empty"}
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	created, err := s.store.CreateBusiness(ctx, b)
	if err != nil {
		return nil, err
	}
	s.logger.Info("business created", zap.String("business_id", created.ID))
	return created, nil
}

func (s *BusinessService) Get(ctx context.Context, businessID string) (*domain.Business, error) {
	return s.store.GetBusiness(ctx, businessID)
}

func (s *BusinessService) List(ctx context.Context, page, pageSize int) ([]domain.Business, error) {
	return s.store.ListBusinesses(ctx, page, pageSize)
}

func (s *BusinessService) Update(ctx context.Context, b *domain.Business) (*domain.Business, error) {
	ctx, span := tracer.Start(ctx, "BusinessService.Update")
	defer span.End()

	if _, err := s.store.GetBusiness(ctx, b.ID); err != nil {
		return nil, err
	}
	return s.store.UpdateBusiness(ctx, b)
}

func (s *BusinessService) Delete(ctx context.Context, businessID string) error {
	ctx, span := tracer.Start(ctx, "BusinessService.Delete")
	defer span.End()

	if err := s.store.DeleteBusiness(ctx, businessID); err != nil {
		return err
	}
	s.knowledge.Invalidate(businessID)
	return nil
}

// --- QR settings ---

func (s *BusinessService) GetQRSettings(ctx context.Context, businessID string) (*domain.QRSettings, error) {
	return s.store.GetQRSettings(ctx, businessID)
}

func (s *BusinessService) UpsertQRSettings(ctx context.Context, settings *domain.QRSettings) (*domain.QRSettings, error) {
	if strings.TrimSpace(settings.ChatURL) == "" {
		return nil, &domain.ErrValidation{Field: "chatUrl", Message: "must not be empty"}
	}
	return s.store.UpsertQRSettings(ctx, settings)
}

// --- Products ---

func (s *BusinessService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "must not be empty"}
	}
	created, err := s.knowStore.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.knowledge.Invalidate(p.BusinessID)
	return created, nil
}

func (s *BusinessService) ListProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	return s.knowStore.ListProducts(ctx, businessID)
}

func (s *BusinessService) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	updated, err := s.knowStore.UpdateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.knowledge.Invalidate(p.BusinessID)
	return updated, nil
}

func (s *BusinessService) DeleteProduct(ctx context.Context, businessID, productID string) error {
	if err := s.knowStore.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	s.knowledge.Invalidate(businessID)
	return nil
}

// --- Services ---

func (s *BusinessService) CreateService(ctx context.Context, sv *domain.ServiceItem) (*domain.ServiceItem, error) {
	if strings.TrimSpace(sv.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "must not be empty"}
	}
	created, err := s.knowStore.CreateService(ctx, sv)
	if err != nil {
		return nil, err
	}
	s.knowledge.Invalidate(sv.BusinessID)
	return created, nil
}

func (s *BusinessService) ListServices(ctx context.Context, businessID string) ([]domain.ServiceItem, error) {
	return s.knowStore.ListServices(ctx, businessID)
}

func (s *BusinessService) UpdateService(ctx context.Context, sv *domain.ServiceItem) (*domain.ServiceItem, error) {
	updated, err := s.knowStore.UpdateService(ctx, sv)
	if err != nil {
		return nil, err
	}
	s.knowledge.Invalidate(sv.BusinessID)
	return updated, nil
}

func (s *BusinessService) DeleteService(ctx context.Context, businessID, serviceID string) error {
	if err := s.knowStore.DeleteService(ctx, serviceID); err != nil {
		return err
	}
	s.knowledge.Invalidate(businessID)
	return nil
}

// --- Policies ---

func (s *BusinessService) CreatePolicy(ctx context.Context, p *domain.Policy) (*domain.Policy, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, &domain.ErrValidation{Field: "title", Message: "must not be empty"}
	}
	created, err := s.knowStore.CreatePolicy(ctx, p)
	if err != nil {
		return nil, err
	}
	s.knowledge.Invalidate(p.BusinessID)
	return created, nil
}

func (s *BusinessService) ListPolicies(ctx context.Context, businessID string) ([]domain.Policy, error) {
	return s.knowStore.ListPolicies(ctx, businessID)
}

func (s *BusinessService) UpdatePolicy(ctx context.Context, p *domain.Policy) (*domain.Policy, error) {
	updated, err := s.knowStore.UpdatePolicy(ctx, p)
	if err != nil {
		return nil, err
	}
	s.knowledge.Invalidate(p.BusinessID)
	return updated, nil
}

func (s *BusinessService) DeletePolicy(ctx context.Context, businessID, policyID string) error {
	if err := s.knowStore.DeletePolicy(ctx, policyID); err != nil {
		return err
	}
	s.knowledge.Invalidate(businessID)
	return nil
}

// --- FAQs ---

func (s *BusinessService) CreateFAQ(ctx context.Context, f *domain.FAQ) (*domain.FAQ, error) {
	if strings.TrimSpace(f.Question) == "" {
		return nil, &domain.ErrValidation{Field: "question", Message: "must not be empty"}
	}
	created, err := s.knowStore.CreateFAQ(ctx, f)
	if err != nil {
		return nil, err
	}
	s.knowledge.Invalidate(f.BusinessID)
	return created, nil
}

func (s *BusinessService) ListFAQs(ctx context.Context, businessID string) ([]domain.FAQ, error) {
	return s.knowStore.ListFAQs(ctx, businessID)
}

func (s *BusinessService) UpdateFAQ(ctx context.Context, f *domain.FAQ) (*domain.FAQ, error) {
	updated, err := s.knowStore.UpdateFAQ(ctx, f)
	if err != nil {
		return nil, err
	}
	s.knowledge.Invalidate(f.BusinessID)
	return updated, nil
}

func (s *BusinessService) DeleteFAQ(ctx context.Context, businessID, faqID string) error {
	if err := s.knowStore.DeleteFAQ(ctx, faqID); err != nil {
		return err
	}
	s.knowledge.Invalidate(businessID)
	return nil
}
