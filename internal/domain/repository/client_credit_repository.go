package repository

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ClientCreditRepository libro append-only de la billetera del cliente.
type ClientCreditRepository interface {
	AddEntry(ctx context.Context, e *entity.ClientCreditEntry) error
	ListByClient(ctx context.Context, clientID string) ([]*entity.ClientCreditEntry, error)
	SumByClient(ctx context.Context, clientID string) (decimal.Decimal, error)
}
