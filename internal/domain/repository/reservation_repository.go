package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// ReservationRepository puerto de persistencia para Reservation y sus líneas.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	GetByID(ctx context.Context, id string) (*entity.Reservation, error)
	GetByOperationID(ctx context.Context, operationID int64) (*entity.Reservation, error)
	Update(ctx context.Context, reservation *entity.Reservation) error
	// ListExpired reservas pendientes/confirmadas con ExpiresAt anterior a now.
	ListExpired(ctx context.Context, tenantID string, now time.Time) ([]*entity.Reservation, error)
}
