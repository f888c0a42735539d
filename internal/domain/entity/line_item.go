package entity

import "github.com/shopspring/decimal"

// StockAllocation stock físico asignado a una línea: una unidad serializada o una porción de lote.
type StockAllocation struct {
	StockID  string
	Serial   bool
	Quantity int
}

// LineItem campos comunes de las líneas de venta, alquiler y reserva.
// StockID referencia una unidad serializada (Serial=true) o un lote.
type LineItem struct {
	ID             string
	ProductID      string
	ProductName    string
	StockID        string
	Serial         bool
	Quantity       int
	PriceAtMoment  decimal.Decimal // precio unitario final
	ListPrice      decimal.Decimal
	DiscountAmount decimal.Decimal // descuento total de la línea
	DiscountReason string
	LineTotal      decimal.Decimal
	BundleID       string // agrupa líneas co-prorrateadas de un mismo combo
	Allocations    []StockAllocation
}

// SaleItem línea de venta.
type SaleItem struct {
	LineItem
	SaleID   string
	Returned int // unidades devueltas
}

// Estados de una línea de alquiler.
const (
	RentalItemStatusRented   = "alquilado"
	RentalItemStatusReturned = "devuelto"
	RentalItemStatusDamaged  = "con_daños"
	RentalItemStatusLost     = "perdido"
)

// RentalItem línea de alquiler.
type RentalItem struct {
	LineItem
	RentalID      string
	Status        string
	PenaltyAmount decimal.Decimal
}

// ReservationItem línea de reserva.
type ReservationItem struct {
	LineItem
	ReservationID string
	Converted     bool
}
