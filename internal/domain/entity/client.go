package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client cliente con saldos cacheados (billetera y puntos) derivados de sus libros.
type Client struct {
	ID            string
	TenantID      string
	Name          string
	Email         string
	Phone         string
	CreditBalance decimal.Decimal
	LoyaltyPoints int64
	ReferredBy    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Motivos de asientos de billetera y puntos.
const (
	CreditReasonOverpayment = "excedente_pago"
	CreditReasonSpent       = "consumo_saldo"
	CreditReasonReferral    = "referido"
	CreditReasonAdjustment  = "ajuste"

	CreditReasonOverpaymentReversed = "reverso_excedente"

	LoyaltyReasonEarned   = "acumulacion"
	LoyaltyReasonReversed = "reversion"
)

// ClientCreditEntry asiento firmado de la billetera del cliente.
type ClientCreditEntry struct {
	ID          string
	ClientID    string
	OperationID int64
	Amount      decimal.Decimal
	Reason      string
	CreatedAt   time.Time
}

// LoyaltyEntry asiento firmado de puntos de fidelidad.
type LoyaltyEntry struct {
	ID          string
	ClientID    string
	OperationID int64
	Points      int64
	Reason      string
	CreatedAt   time.Time
}
