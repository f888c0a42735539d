package ports

import (
	"context"
	"time"

	"github.com/jhoicas/Alquiler-api/internal/domain/repository"
)

// Repositories conjunto de repositorios atados a una misma transacción (o al pool fuera de ella).
type Repositories struct {
	Operations   repository.OperationRepository
	Payments     repository.PaymentRepository
	Sales        repository.SaleRepository
	Rentals      repository.RentalRepository
	Reservations repository.ReservationRepository
	Inventory    repository.InventoryRepository
	Guarantees   repository.GuaranteeRepository
	Clients      repository.ClientRepository
	Credits      repository.ClientCreditRepository
	Loyalty      repository.LoyaltyRepository
	Coupons      repository.CouponRepository
	Referrals    repository.ReferralRepository
	Products     repository.ProductRepository
	Promotions   repository.PromotionRepository
}

// TxRunner ejecuta fn dentro de una unidad de trabajo: Commit si fn devuelve nil, Rollback en otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}

// Locker serializa secciones críticas por clave (operación o stock).
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// Metrics eventos de negocio observables del ciclo de vida.
type Metrics interface {
	OperationCreated(opType string)
	OperationCanceled(opType string)
	PaymentRegistered(method, direction string, amount float64)
	RentalReturned(status string)
	StockConflict(reason string)
}

// NopMetrics implementación vacía para pruebas y herramientas.
type NopMetrics struct{}

func (NopMetrics) OperationCreated(string)                   {}
func (NopMetrics) OperationCanceled(string)                  {}
func (NopMetrics) PaymentRegistered(string, string, float64) {}
func (NopMetrics) RentalReturned(string)                     {}
func (NopMetrics) StockConflict(string)                      {}
