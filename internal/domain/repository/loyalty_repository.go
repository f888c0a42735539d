package repository

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// LoyaltyRepository libro append-only de puntos de fidelidad.
type LoyaltyRepository interface {
	AddEntry(ctx context.Context, e *entity.LoyaltyEntry) error
	SumByClient(ctx context.Context, clientID string) (int64, error)
	// SumByOperation puntos netos que una operación aportó al cliente.
	SumByOperation(ctx context.Context, clientID string, operationID int64) (int64, error)
}
