package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo; Serialized indica si se controla por unidad.
type Product struct {
	ID          string
	TenantID    string
	Name        string
	CategoryID  string
	SalePrice   decimal.Decimal
	RentalPrice decimal.Decimal
	CanSell     bool
	CanRent     bool
	Serialized  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListPriceFor precio de lista según el tipo de operación.
func (p *Product) ListPriceFor(t OperationType) decimal.Decimal {
	if t == OperationTypeRental {
		return p.RentalPrice
	}
	return p.SalePrice
}
