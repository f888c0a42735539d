package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Alquiler-api/internal/application/ports"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepositories arma todos los repositorios sobre un pool o una tx.
func NewRepositories(q Querier) ports.Repositories {
	return ports.Repositories{
		Operations:   NewOperationRepository(q),
		Payments:     NewPaymentRepository(q),
		Sales:        NewSaleRepository(q),
		Rentals:      NewRentalRepository(q),
		Reservations: NewReservationRepository(q),
		Inventory:    NewInventoryRepository(q),
		Guarantees:   NewGuaranteeRepository(q),
		Clients:      NewClientRepository(q),
		Credits:      NewClientCreditRepository(q),
		Loyalty:      NewLoyaltyRepository(q),
		Coupons:      NewCouponRepository(q),
		Referrals:    NewReferralRepository(q),
		Products:     NewProductRepository(q),
		Promotions:   NewPromotionRepository(q),
	}
}
