package repository

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// SaleRepository puerto de persistencia para Sale y sus líneas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetByOperationID(ctx context.Context, operationID int64) (*entity.Sale, error)
	// Update persiste estado, anulación y unidades devueltas por línea.
	Update(ctx context.Context, sale *entity.Sale) error
}
