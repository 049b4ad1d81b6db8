package service

import (
	"context"
	"fmt"

	"github.com/katsura919/enquiro-backend-go/internal/domain"
	"github.com/katsura919/enquiro-backend-go/internal/engine"
	"github.com/katsura919/enquiro-backend-go/internal/infra/observability"
	"github.com/katsura919/enquiro-backend-go/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// KnowledgeSnapshot is the per-business knowledge base flattened for the
// decision engine, plus the category catalog. Exported so the composition
// root can size its cache.
type KnowledgeSnapshot struct {
	Items   []engine.KnowledgeItem
	Catalog engine.Catalog
}

// KnowledgeService aggregates the four knowledge tables of a business into
// the flat item list the engine scores against. The aggregate is cached;
// every chat turn reads it.
type KnowledgeService struct {
	store   port.KnowledgeStore
	cache   port.Cache[*KnowledgeSnapshot]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewKnowledgeService creates a KnowledgeService.
func NewKnowledgeService(store port.KnowledgeStore, cache port.Cache[*KnowledgeSnapshot], metrics *observability.Metrics, logger *zap.Logger) *KnowledgeService {
	return &KnowledgeService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// Snapshot returns the flattened knowledge base of a business. The four
// tables are fetched concurrently on a cache miss.
func (s *KnowledgeService) Snapshot(ctx context.Context, businessID string) (*KnowledgeSnapshot, error) {
	ctx, span := tracer.Start(ctx, "KnowledgeService.Snapshot")
	defer span.End()

	cacheKey := fmt.Sprintf("knowledge:%s", businessID)
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("knowledge")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("knowledge")

	var (
		products []domain.Product
		services []domain.ServiceItem
		policies []domain.Policy
		faqs     []domain.FAQ
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.store.ListProducts(gCtx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		services, err = s.store.ListServices(gCtx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		policies, err = s.store.ListPolicies(gCtx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		faqs, err = s.store.ListFAQs(gCtx, businessID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load knowledge base",
			zap.String("business_id", businessID),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("knowledge")
		return nil, fmt.Errorf("knowledge fetch: %w", err)
	}

	snap := &KnowledgeSnapshot{
		Catalog: engine.Catalog{
			HasProducts: len(products) > 0,
			HasServices: len(services) > 0,
			HasFAQs:     len(faqs) > 0,
			HasPolicies: len(policies) > 0,
		},
	}
	for _, p := range products {
		snap.Items = append(snap.Items, engine.KnowledgeItem{
			PrimaryText:   p.Name,
			SecondaryText: fmt.Sprintf("%s (price: %.2f %s)", p.Description, p.Price, p.Currency),
		})
	}
	for _, sv := range services {
		snap.Items = append(snap.Items, engine.KnowledgeItem{
			PrimaryText:   sv.Name,
			SecondaryText: fmt.Sprintf("%s (price: %.2f, duration: %s)", sv.Description, sv.Price, sv.Duration),
		})
	}
	for _, p := range policies {
		snap.Items = append(snap.Items, engine.KnowledgeItem{
			PrimaryText:   p.Title,
			SecondaryText: p.Content,
		})
	}
	for _, f := range faqs {
		if !f.IsActive {
			continue
		}
		snap.Items = append(snap.Items, engine.KnowledgeItem{
			PrimaryText:   f.Question,
			SecondaryText: f.Answer,
		})
	}

	s.cache.Set(cacheKey, snap)
	return snap, nil
}

// Invalidate drops the cached snapshot of a business after a knowledge edit.
func (s *KnowledgeService) Invalidate(businessID string) {
	s.cache.Delete(fmt.Sprintf("knowledge:%s", businessID))
}
