package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de garantía.
const (
	GuaranteeTypeCash     = "efectivo"
	GuaranteeTypeItem     = "prenda"
	GuaranteeTypeDocument = "documento"
)

// Estados de garantía.
const (
	GuaranteeStatusHeld     = "retenida"
	GuaranteeStatusReleased = "devuelta"
	GuaranteeStatusExecuted = "ejecutada"
	GuaranteeStatusPartial  = "parcial"
)

// Guarantee depósito (efectivo o bien) que respalda un alquiler.
type Guarantee struct {
	ID             string
	OperationID    int64
	ClientID       string
	Type           string
	Amount         decimal.Decimal
	Description    string
	Status         string
	RetainedAmount decimal.Decimal
	ReleasedAt     *time.Time
	CreatedAt      time.Time
}
