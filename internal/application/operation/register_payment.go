package operation

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// RegisterPayment agrega un asiento al libro de la operación y recalcula su estado de pago.
// Un excedente nuevo genera un asiento en la billetera del cliente.
func (s *Service) RegisterPayment(ctx context.Context, actor Actor, operationID int64, req dto.RegisterPaymentRequest) (*dto.OperationResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	var out *dto.OperationResponse
	err := s.withLocks(ctx, []string{operationKey(operationID)}, func(ctx context.Context) error {
		return s.inTx(ctx, func(repos ports.Repositories, fx *txEffects) error {
			now := s.clock()
			op, err := loadForUpdate(ctx, repos, actor, operationID)
			if err != nil {
				return err
			}
			if op.IsCanceled() {
				return domain.NewBusinessError(domain.ErrOperationClosed, "OPERATION_CANCELED",
					"no se registran pagos en una operación anulada", map[string]any{"operation_id": op.ID})
			}
			p := &entity.Payment{
				Amount:    req.Amount,
				Direction: entity.PaymentDirectionIn,
				Category:  entity.PaymentCategoryPayment,
				Status:    entity.PaymentEntryPosted,
				Date:      now,
				Method:    req.Method,
				Reference: req.Reference,
				CreatedBy: actor.UserID,
				CreatedAt: now,
			}
			if req.Direction != "" {
				p.Direction = entity.PaymentDirection(req.Direction)
			}
			if req.Category != "" {
				p.Category = entity.PaymentCategory(req.Category)
			}
			if req.Pending {
				p.Status = entity.PaymentEntryPending
			}
			if err := s.postPayment(ctx, repos, fx, op, p); err != nil {
				return err
			}
			if op.Type == entity.OperationTypeReservation && p.IsPosted() {
				if err := confirmReservation(ctx, repos, op); err != nil {
					return err
				}
			}
			out, err = buildResponse(ctx, repos, op)
			if err != nil {
				return err
			}
			s.log.Info().Int64("operation_id", op.ID).Str("reference", op.ReferenceCode).
				Str("method", p.Method).Str("direction", string(p.Direction)).Str("amount", p.Amount.StringFixed(2)).
				Str("payment_status", string(op.PaymentStatus)).Msg("pago registrado")
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PostPayment contabiliza un asiento pendiente de la operación y aplica sus efectos
// (consumo de billetera, excedente, puntos y estado de pago) como si se registrara en ese momento.
func (s *Service) PostPayment(ctx context.Context, actor Actor, operationID int64, paymentID string) (*dto.OperationResponse, error) {
	if paymentID == "" {
		return nil, domain.NewValidationError("payment_id", "requerido")
	}
	var out *dto.OperationResponse
	err := s.withLocks(ctx, []string{operationKey(operationID)}, func(ctx context.Context) error {
		return s.inTx(ctx, func(repos ports.Repositories, fx *txEffects) error {
			op, err := loadForUpdate(ctx, repos, actor, operationID)
			if err != nil {
				return err
			}
			if op.IsCanceled() {
				return domain.NewBusinessError(domain.ErrOperationClosed, "OPERATION_CANCELED",
					"no se contabilizan pagos en una operación anulada", map[string]any{"operation_id": op.ID})
			}
			entries, err := repos.Payments.GetPaymentsByOperationID(ctx, op.ID)
			if err != nil {
				return err
			}
			var p *entity.Payment
			rest := make([]*entity.Payment, 0, len(entries))
			for _, e := range entries {
				if e.ID == paymentID {
					p = e
					continue
				}
				rest = append(rest, e)
			}
			if p == nil {
				return domain.ErrPaymentNotFound
			}
			if p.Status != entity.PaymentEntryPending {
				return domain.NewBusinessError(domain.ErrPaymentNotPending, "PAYMENT_NOT_PENDING",
					"el pago ya está contabilizado", map[string]any{"payment_id": p.ID, "status": string(p.Status)})
			}
			p.Status = entity.PaymentEntryPosted
			if err := s.settle(ctx, repos, fx, op, rest, p, func() error {
				return repos.Payments.MarkPosted(ctx, p.ID)
			}); err != nil {
				return err
			}
			if op.Type == entity.OperationTypeReservation {
				if err := confirmReservation(ctx, repos, op); err != nil {
					return err
				}
			}
			out, err = buildResponse(ctx, repos, op)
			if err != nil {
				return err
			}
			s.log.Info().Int64("operation_id", op.ID).Str("reference", op.ReferenceCode).
				Str("payment_id", p.ID).Str("amount", p.Amount.StringFixed(2)).
				Str("payment_status", string(op.PaymentStatus)).Msg("pago contabilizado")
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// confirmReservation una reserva pendiente con abono queda confirmada.
func confirmReservation(ctx context.Context, repos ports.Repositories, op *entity.Operation) error {
	res, err := repos.Reservations.GetByOperationID(ctx, op.ID)
	if err != nil || res == nil {
		return err
	}
	if res.Status != entity.ReservationStatusPending || op.PaymentStatus == entity.PaymentStatusPending {
		return nil
	}
	res.Status = entity.ReservationStatusConfirmed
	res.UpdatedAt = op.UpdatedAt
	return repos.Reservations.Update(ctx, res)
}
