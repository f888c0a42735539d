package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/pricing"
)

type productRepo struct{ s *Store }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type promotionRepo struct{ s *Store }

func (r *promotionRepo) ListActive(_ context.Context, tenantID string, day time.Time) ([]*entity.Promotion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Promotion
	for _, p := range r.s.data.promotions {
		if p.TenantID == tenantID && p.Active && p.Scope != entity.PromotionScopePack && pricing.WithinDays(day, p.ValidFrom, p.ValidTo) {
			out = append(out, clonePromotion(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *promotionRepo) ListBundles(_ context.Context, tenantID string, day time.Time) ([]*entity.BundleDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.BundleDefinition
	for _, b := range r.s.data.bundles {
		if b.TenantID != tenantID || !b.Active || !pricing.WithinDays(day, b.ValidFrom, b.ValidTo) {
			continue
		}
		cp := *b
		cp.Promotion = *clonePromotion(&b.Promotion)
		cp.Requirements = append([]entity.BundleRequirement(nil), b.Requirements...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *promotionRepo) IncrementUsage(_ context.Context, promotionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.data.promotions[promotionID]; ok {
		p.UsedCount++
		return nil
	}
	if b, ok := r.s.data.bundles[promotionID]; ok {
		b.UsedCount++
		return nil
	}
	return domain.ErrNotFound
}
