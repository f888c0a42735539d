package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RentalStatus estado del detalle.
type RentalStatus string

// Estados de alquiler (enum cerrado).
const (
	RentalStatusRented       RentalStatus = "alquilado"
	RentalStatusReturned     RentalStatus = "devuelto"
	RentalStatusPhysicalHold RentalStatus = "reservado_fisico"
	RentalStatusOverdue      RentalStatus = "atrasado"
	RentalStatusDamaged      RentalStatus = "con_daños"
	RentalStatusLost         RentalStatus = "perdido"
	RentalStatusCanceled     RentalStatus = "anulado"
)

// Rental detalle de alquiler de una Operation.
type Rental struct {
	ID                 string
	OperationID        int64
	Status             RentalStatus
	OutDate            time.Time
	ExpectedReturnDate time.Time
	ActualReturnDate   *time.Time
	GuaranteeID        string
	Items              []*RentalItem
	PenaltyAmount      decimal.Decimal
	LateFee            decimal.Decimal
	CancelReason       string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsOpen indica si el alquiler aún tiene prendas fuera (alquilado o atrasado).
func (r *Rental) IsOpen() bool {
	return r.Status == RentalStatusRented || r.Status == RentalStatusOverdue || r.Status == RentalStatusPhysicalHold
}
