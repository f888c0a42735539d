package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// OperationRepository puerto de persistencia para Operation.
// GetByID/GetForUpdate devuelven (nil, nil) si no existe.
type OperationRepository interface {
	// Create asigna ID (secuencia) y persiste la operación.
	Create(ctx context.Context, op *entity.Operation) error
	GetByID(ctx context.Context, id int64) (*entity.Operation, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) dentro de la transacción.
	GetForUpdate(ctx context.Context, id int64) (*entity.Operation, error)
	// Update aplica compare-and-swap sobre Version; devuelve domain.ErrConcurrentUpdate si cambió.
	Update(ctx context.Context, op *entity.Operation) error
	// NextDailySequence consecutivo diario por tenant y tipo para el código de referencia.
	NextDailySequence(ctx context.Context, tenantID string, t entity.OperationType, day time.Time) (int, error)
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*entity.Operation, error)
}
