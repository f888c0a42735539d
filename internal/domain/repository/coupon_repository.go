package repository

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// CouponRepository puerto de persistencia para cupones.
type CouponRepository interface {
	// GetByCodeForUpdate bloquea el cupón mientras se valida su uso.
	GetByCodeForUpdate(ctx context.Context, tenantID, code string) (*entity.Coupon, error)
	IncrementUsage(ctx context.Context, tenantID, code string) error
}
