package repository

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ClientRepository clientes con saldos cacheados.
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Client, error)
	// UpdateBalances reemplaza el snapshot cacheado de billetera y puntos.
	UpdateBalances(ctx context.Context, clientID string, credit decimal.Decimal, points int64) error
	ListIDsByTenant(ctx context.Context, tenantID string) ([]string, error)
}
