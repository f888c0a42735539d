package repository

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// GuaranteeRepository puerto de persistencia para garantías de alquiler.
type GuaranteeRepository interface {
	AddGuarantee(ctx context.Context, g *entity.Guarantee) error
	GetByID(ctx context.Context, id string) (*entity.Guarantee, error)
	Update(ctx context.Context, g *entity.Guarantee) error
}
