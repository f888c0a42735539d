package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/pricing"
	"github.com/jhoicas/Alquiler-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository   = (*ProductRepo)(nil)
	_ repository.PromotionRepository = (*PromotionRepo)(nil)
	_ repository.CouponRepository    = (*CouponRepo)(nil)
)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, tenant_id, name, category_id, sale_price, rental_price, can_sell, can_rent, serialized, created_at, updated_at
		FROM products WHERE id = $1`
	var (
		p        entity.Product
		category *string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.TenantID, &p.Name, &category, &p.SalePrice, &p.RentalPrice,
		&p.CanSell, &p.CanRent, &p.Serialized, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p.CategoryID = derefString(category)
	return &p, nil
}

// PromotionRepo promociones y combos.
type PromotionRepo struct {
	q Querier
}

// NewPromotionRepository construye el adaptador de promociones.
func NewPromotionRepository(q Querier) *PromotionRepo {
	return &PromotionRepo{q: q}
}

const promotionColumns = `id, tenant_id, name, scope, product_ids, category_ids, discount_type, value, valid_from, valid_to,
	applies_to, exclusive, max_uses, used_count, min_purchase, branch_ids, bundle_branch, active, created_at`

func scanPromotion(row pgx.Row) (*entity.BundleDefinition, error) {
	var (
		b      entity.BundleDefinition
		branch *string
	)
	p := &b.Promotion
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Scope, &p.ProductIDs, &p.CategoryIDs, &p.DiscountType, &p.Value,
		&p.ValidFrom, &p.ValidTo, &p.AppliesTo, &p.Exclusive, &p.MaxUses, &p.UsedCount, &p.MinPurchase,
		&p.BranchIDs, &branch, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.BranchID = derefString(branch)
	return &b, nil
}

// listByScope la vigencia se compara por día con pricing.WithinDays.
func (r *PromotionRepo) listByScope(ctx context.Context, tenantID string, day time.Time, pack bool) ([]*entity.BundleDefinition, error) {
	op := "<>"
	if pack {
		op = "="
	}
	query := `SELECT ` + promotionColumns + ` FROM promotions
		WHERE tenant_id = $1 AND active AND scope ` + op + ` $2
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, tenantID, entity.PromotionScopePack)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	all, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.BundleDefinition, error) { return scanPromotion(row) })
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	out := make([]*entity.BundleDefinition, 0, len(all))
	for _, b := range all {
		if pricing.WithinDays(day, b.ValidFrom, b.ValidTo) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *PromotionRepo) ListActive(ctx context.Context, tenantID string, day time.Time) ([]*entity.Promotion, error) {
	list, err := r.listByScope(ctx, tenantID, day, false)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Promotion, len(list))
	for i, b := range list {
		out[i] = &b.Promotion
	}
	return out, nil
}

func (r *PromotionRepo) ListBundles(ctx context.Context, tenantID string, day time.Time) ([]*entity.BundleDefinition, error) {
	list, err := r.listByScope(ctx, tenantID, day, true)
	if err != nil {
		return nil, err
	}
	query := `SELECT product_id, quantity FROM bundle_requirements WHERE promotion_id = $1 ORDER BY position, product_id`
	for _, b := range list {
		rows, err := r.q.Query(ctx, query, b.ID)
		if err != nil {
			return nil, fmt.Errorf("list bundle requirements: %w", err)
		}
		b.Requirements, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.BundleRequirement, error) {
			var req entity.BundleRequirement
			err := row.Scan(&req.ProductID, &req.Quantity)
			return req, err
		})
		if err != nil {
			return nil, fmt.Errorf("list bundle requirements: %w", err)
		}
	}
	return list, nil
}

func (r *PromotionRepo) IncrementUsage(ctx context.Context, promotionID string) error {
	tag, err := r.q.Exec(ctx, `UPDATE promotions SET used_count = used_count + 1 WHERE id = $1`, promotionID)
	if err != nil {
		return fmt.Errorf("increment promotion usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CouponRepo cupones por tenant y código.
type CouponRepo struct {
	q Querier
}

// NewCouponRepository construye el adaptador de cupones.
func NewCouponRepository(q Querier) *CouponRepo {
	return &CouponRepo{q: q}
}

func (r *CouponRepo) GetByCodeForUpdate(ctx context.Context, tenantID, code string) (*entity.Coupon, error) {
	query := `
		SELECT code, tenant_id, discount_type, value, max_uses, used_count, min_purchase, valid_from, valid_to, active
		FROM coupons WHERE tenant_id = $1 AND code = $2
		FOR UPDATE`
	var c entity.Coupon
	err := r.q.QueryRow(ctx, query, tenantID, code).Scan(&c.Code, &c.TenantID, &c.DiscountType, &c.Value,
		&c.MaxUses, &c.UsedCount, &c.MinPurchase, &c.ValidFrom, &c.ValidTo, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return &c, nil
}

func (r *CouponRepo) IncrementUsage(ctx context.Context, tenantID, code string) error {
	tag, err := r.q.Exec(ctx, `UPDATE coupons SET used_count = used_count + 1 WHERE tenant_id = $1 AND code = $2`, tenantID, code)
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponInvalid
	}
	return nil
}
