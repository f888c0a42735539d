package entity

import "time"

// ReservationStatus estado de la reserva.
type ReservationStatus string

// Estados de reserva.
const (
	ReservationStatusPending   ReservationStatus = "pendiente"
	ReservationStatusConfirmed ReservationStatus = "confirmada"
	ReservationStatusConverted ReservationStatus = "convertida"
	ReservationStatusCanceled  ReservationStatus = "anulada"
	ReservationStatusExpired   ReservationStatus = "vencida"
)

// Reservation reserva anticipada; TargetType indica si terminará en venta o alquiler.
type Reservation struct {
	ID           string
	OperationID  int64
	Status       ReservationStatus
	TargetType   OperationType
	PickupDate   time.Time
	ReturnDate   *time.Time
	ExpiresAt    time.Time
	Items        []*ReservationItem
	ConvertedAt  *time.Time
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsConvertible indica si la reserva aún puede convertirse.
func (r *Reservation) IsConvertible() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusConfirmed
}
