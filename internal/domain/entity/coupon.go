package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon cupón de descuento aplicado al total de una venta.
type Coupon struct {
	Code         string
	TenantID     string
	DiscountType string
	Value        decimal.Decimal
	MaxUses      int
	UsedCount    int
	MinPurchase  decimal.Decimal
	ValidFrom    *time.Time
	ValidTo      *time.Time
	Active       bool
}
