package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OperationType tipo de operación (variante del detalle).
type OperationType string

const (
	OperationTypeSale        OperationType = "sale"
	OperationTypeRental      OperationType = "rental"
	OperationTypeReservation OperationType = "reservation"
)

// Valid indica si el tipo pertenece al conjunto cerrado.
func (t OperationType) Valid() bool {
	switch t {
	case OperationTypeSale, OperationTypeRental, OperationTypeReservation:
		return true
	}
	return false
}

// ReferencePrefix prefijo del código legible (VEN, ALQ, RES).
func (t OperationType) ReferencePrefix() string {
	switch t {
	case OperationTypeSale:
		return "VEN"
	case OperationTypeRental:
		return "ALQ"
	case OperationTypeReservation:
		return "RES"
	}
	return "OPE"
}

// OperationStatus estado de la operación.
type OperationStatus string

const (
	OperationStatusPending    OperationStatus = "pending"
	OperationStatusInProgress OperationStatus = "in_progress"
	OperationStatusCompleted  OperationStatus = "completed"
	OperationStatusCanceled   OperationStatus = "canceled"
)

// PaymentStatus estado de pago derivado del libro de pagos.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Operation es el paraguas financiero de una transacción de cliente.
// Posee exactamente un detalle (Sale, Rental o Reservation) y cero o más Payments.
// Nunca se elimina: la anulación es lógica.
type Operation struct {
	ID            int64
	ReferenceCode string
	TenantID      string
	Type          OperationType
	Status        OperationStatus
	PaymentStatus PaymentStatus
	TotalAmount   decimal.Decimal
	BranchID      string
	SellerID      string
	ClientID      string
	Date          time.Time
	Notes         string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsCanceled indica si la operación fue anulada.
func (o *Operation) IsCanceled() bool {
	return o.Status == OperationStatusCanceled
}

// BuildReferenceCode genera el código legible, ej. ALQ-20260115-0007.
func BuildReferenceCode(t OperationType, date time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", t.ReferencePrefix(), date.Format("20060102"), seq)
}
