package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentDirection sentido del flujo de caja.
type PaymentDirection string

const (
	PaymentDirectionIn  PaymentDirection = "in"
	PaymentDirectionOut PaymentDirection = "out"
)

// PaymentCategory categoría del asiento.
type PaymentCategory string

const (
	PaymentCategoryPayment    PaymentCategory = "payment"
	PaymentCategoryRefund     PaymentCategory = "refund"
	PaymentCategoryCorrection PaymentCategory = "correction"
)

// PaymentEntryStatus estado del asiento; solo los posted cuentan para saldos.
type PaymentEntryStatus string

const (
	PaymentEntryPending PaymentEntryStatus = "pending"
	PaymentEntryPosted  PaymentEntryStatus = "posted"
)

// Métodos de pago conocidos.
const (
	PaymentMethodCash         = "efectivo"
	PaymentMethodCard         = "tarjeta"
	PaymentMethodTransfer     = "transferencia"
	PaymentMethodClientCredit = "saldo_cliente" // consume saldo a favor del cliente
	PaymentMethodGuarantee    = "garantia"      // garantía en efectivo retenida
)

// Payment asiento inmutable del libro de pagos de una Operation.
// Amount siempre es positivo; el signo lo da Direction. Las reversas son asientos "out" nuevos.
type Payment struct {
	ID          string
	OperationID int64
	Sequence    int64 // orden de almacenamiento (desempate estable por fecha)
	Amount      decimal.Decimal
	Direction   PaymentDirection
	Category    PaymentCategory
	Status      PaymentEntryStatus
	Date        time.Time
	Method      string
	Reference   string
	CreatedBy   string
	CreatedAt   time.Time
}

// IsPosted indica si el asiento cuenta para los saldos.
func (p *Payment) IsPosted() bool {
	return p.Status == PaymentEntryPosted
}
