package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de referido.
const (
	ReferralStatusPending  = "pendiente"
	ReferralStatusRewarded = "recompensado"
)

// Referral un cliente refirió a otro; se recompensa en la primera operación pagada del referido.
type Referral struct {
	ID               string
	TenantID         string
	ReferrerClientID string
	ReferredClientID string
	Status           string
	RewardAmount     decimal.Decimal
	OperationID      int64
	RewardedAt       *time.Time
	CreatedAt        time.Time
}
