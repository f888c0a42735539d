package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus estado de la venta.
type SaleStatus string

// Estados de venta.
const (
	SaleStatusCompleted SaleStatus = "completada"
	SaleStatusCanceled  SaleStatus = "anulada"
	SaleStatusReturned  SaleStatus = "devuelta"
)

// Sale detalle de venta de una Operation.
type Sale struct {
	ID             string
	OperationID    int64
	Status         SaleStatus
	Items          []*SaleItem
	CouponCode     string
	CouponDiscount decimal.Decimal
	CanceledAt     *time.Time
	CancelReason   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
