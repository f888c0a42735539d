package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// PromotionRepository promociones y combos vigentes por tenant.
type PromotionRepository interface {
	// ListActive promociones no-pack activas en el día indicado.
	ListActive(ctx context.Context, tenantID string, day time.Time) ([]*entity.Promotion, error)
	// ListBundles combos (scope pack) activos en el día indicado.
	ListBundles(ctx context.Context, tenantID string, day time.Time) ([]*entity.BundleDefinition, error)
	IncrementUsage(ctx context.Context, promotionID string) error
}
