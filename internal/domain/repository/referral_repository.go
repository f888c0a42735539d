package repository

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// ReferralRepository puerto de persistencia para referidos.
type ReferralRepository interface {
	GetPendingByReferred(ctx context.Context, referredClientID string) (*entity.Referral, error)
	Update(ctx context.Context, r *entity.Referral) error
}
