package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// RentalRepository puerto de persistencia para Rental y sus líneas.
type RentalRepository interface {
	Create(ctx context.Context, rental *entity.Rental) error
	GetByID(ctx context.Context, id string) (*entity.Rental, error)
	GetByOperationID(ctx context.Context, operationID int64) (*entity.Rental, error)
	// Update persiste estado, fechas, penalidades y estado por línea.
	Update(ctx context.Context, rental *entity.Rental) error
	// ListOverdue alquileres en estado alquilado con fecha esperada anterior a now.
	ListOverdue(ctx context.Context, tenantID string, now time.Time) ([]*entity.Rental, error)
}
