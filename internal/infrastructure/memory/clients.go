package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

type guaranteeRepo struct{ s *Store }

func (r *guaranteeRepo) AddGuarantee(_ context.Context, g *entity.Guarantee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.guarantees[g.ID] = *g
	return nil
}

func (r *guaranteeRepo) GetByID(_ context.Context, id string) (*entity.Guarantee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.data.guarantees[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r *guaranteeRepo) Update(_ context.Context, g *entity.Guarantee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.guarantees[g.ID]; !ok {
		return domain.ErrGuaranteeNotFound
	}
	r.s.data.guarantees[g.ID] = *g
	return nil
}

type clientRepo struct{ s *Store }

func (r *clientRepo) GetByID(_ context.Context, id string) (*entity.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.data.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *clientRepo) GetForUpdate(ctx context.Context, id string) (*entity.Client, error) {
	return r.GetByID(ctx, id)
}

func (r *clientRepo) UpdateBalances(_ context.Context, clientID string, credit decimal.Decimal, points int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.clients[clientID]
	if !ok {
		return domain.ErrClientNotFound
	}
	c.CreditBalance = credit
	c.LoyaltyPoints = points
	r.s.data.clients[clientID] = c
	return nil
}

func (r *clientRepo) ListIDsByTenant(_ context.Context, tenantID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []string
	for id, c := range r.s.data.clients {
		if c.TenantID == tenantID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type creditRepo struct{ s *Store }

func (r *creditRepo) AddEntry(_ context.Context, e *entity.ClientCreditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.credits = append(r.s.data.credits, *e)
	return nil
}

func (r *creditRepo) ListByClient(_ context.Context, clientID string) ([]*entity.ClientCreditEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.ClientCreditEntry
	for _, e := range r.s.data.credits {
		if e.ClientID == clientID {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *creditRepo) SumByClient(_ context.Context, clientID string) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range r.s.data.credits {
		if e.ClientID == clientID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

type loyaltyRepo struct{ s *Store }

func (r *loyaltyRepo) AddEntry(_ context.Context, e *entity.LoyaltyEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.loyalty = append(r.s.data.loyalty, *e)
	return nil
}

func (r *loyaltyRepo) SumByClient(_ context.Context, clientID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum int64
	for _, e := range r.s.data.loyalty {
		if e.ClientID == clientID {
			sum += e.Points
		}
	}
	return sum, nil
}

func (r *loyaltyRepo) SumByOperation(_ context.Context, clientID string, operationID int64) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum int64
	for _, e := range r.s.data.loyalty {
		if e.ClientID == clientID && e.OperationID == operationID {
			sum += e.Points
		}
	}
	return sum, nil
}

type couponRepo struct{ s *Store }

func (r *couponRepo) GetByCodeForUpdate(_ context.Context, tenantID, code string) (*entity.Coupon, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.data.coupons[couponKey(tenantID, code)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *couponRepo) IncrementUsage(_ context.Context, tenantID, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := couponKey(tenantID, code)
	c, ok := r.s.data.coupons[k]
	if !ok {
		return domain.ErrCouponInvalid
	}
	c.UsedCount++
	r.s.data.coupons[k] = c
	return nil
}

type referralRepo struct{ s *Store }

func (r *referralRepo) GetPendingByReferred(_ context.Context, referredClientID string) (*entity.Referral, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, ref := range r.s.data.referrals {
		if ref.ReferredClientID == referredClientID && ref.Status == entity.ReferralStatusPending {
			cp := ref
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *referralRepo) Update(_ context.Context, ref *entity.Referral) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.referrals[ref.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.data.referrals[ref.ID] = *ref
	return nil
}
