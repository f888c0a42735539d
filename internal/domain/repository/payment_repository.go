package repository

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// PaymentRepository libro de pagos append-only (sin Delete).
// El único cambio permitido sobre un asiento es pending -> posted.
type PaymentRepository interface {
	// Create asigna Sequence y persiste el asiento.
	Create(ctx context.Context, p *entity.Payment) error
	// MarkPosted contabiliza un asiento pendiente; ErrPaymentNotPending si no lo estaba.
	MarkPosted(ctx context.Context, paymentID string) error
	GetPaymentsByOperationID(ctx context.Context, operationID int64) ([]*entity.Payment, error)
}
