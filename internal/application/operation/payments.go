package operation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/ledger"
)

// postPayment agrega un asiento al libro y propaga sus efectos:
// consumo de billetera, excedente a favor, puntos de fidelidad y estado de pago.
func (s *Service) postPayment(ctx context.Context, repos ports.Repositories, fx *txEffects, op *entity.Operation, p *entity.Payment) error {
	if !p.Amount.IsPositive() {
		return domain.NewValidationError("amount", "debe ser mayor que cero")
	}
	entries, err := repos.Payments.GetPaymentsByOperationID(ctx, op.ID)
	if err != nil {
		return err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.OperationID = op.ID
	if p.Category == "" {
		p.Category = entity.PaymentCategoryPayment
	}
	if p.Direction == "" {
		p.Direction = entity.PaymentDirectionIn
	}
	if p.Status == "" {
		p.Status = entity.PaymentEntryPosted
	}
	return s.settle(ctx, repos, fx, op, entries, p, func() error {
		return repos.Payments.Create(ctx, p)
	})
}

// settle valida y aplica los efectos de un asiento sobre la operación.
// entries es el libro sin p; write persiste el asiento (alta o contabilización de un pendiente).
func (s *Service) settle(ctx context.Context, repos ports.Repositories, fx *txEffects, op *entity.Operation, entries []*entity.Payment, p *entity.Payment, write func() error) error {
	before := ledger.CurrentNetPaid(entries)
	after := before.Add(ledger.Signed(p))
	if after.IsNegative() {
		return domain.NewBusinessError(domain.ErrRefundExceedsPaid, "REFUND_EXCEEDS_PAID",
			"la salida deja el neto pagado en negativo",
			map[string]any{"net_paid": before.StringFixed(2), "amount": p.Amount.StringFixed(2)})
	}
	surplus := ledger.NewSurplus(op.TotalAmount, before, after)
	if surplus.IsPositive() && op.ClientID == "" {
		return domain.NewBusinessError(domain.ErrClientRequiredForCredit, "CLIENT_REQUIRED_FOR_CREDIT",
			"el pago deja un excedente y la operación no tiene cliente",
			map[string]any{"surplus": surplus.StringFixed(2)})
	}

	creditDelta := decimal.Zero
	var pointsDelta int64

	if p.Method == entity.PaymentMethodClientCredit && p.IsPosted() {
		if op.ClientID == "" {
			return domain.NewValidationError("method", "saldo_cliente requiere un cliente")
		}
		if p.Direction == entity.PaymentDirectionIn {
			client, err := repos.Clients.GetForUpdate(ctx, op.ClientID)
			if err != nil {
				return err
			}
			if client == nil {
				return domain.ErrClientNotFound
			}
			if client.CreditBalance.LessThan(p.Amount) {
				return domain.NewBusinessError(domain.ErrInsufficientCredit, "INSUFFICIENT_CREDIT",
					"saldo a favor insuficiente", map[string]any{"available": client.CreditBalance, "required": p.Amount})
			}
			if err := addCredit(ctx, repos, op, p.Amount.Neg(), entity.CreditReasonSpent, p.Date); err != nil {
				return err
			}
			creditDelta = creditDelta.Sub(p.Amount)
		} else {
			// devolución a la billetera
			if err := addCredit(ctx, repos, op, p.Amount, entity.CreditReasonAdjustment, p.Date); err != nil {
				return err
			}
			creditDelta = creditDelta.Add(p.Amount)
		}
	}

	if err := write(); err != nil {
		return err
	}

	if op.ClientID != "" {
		if surplus.IsPositive() {
			if err := addCredit(ctx, repos, op, surplus, entity.CreditReasonOverpayment, p.Date); err != nil {
				return err
			}
			creditDelta = creditDelta.Add(surplus)
		}
		if ledger.ReducedSurplus(op.TotalAmount, before, after).IsPositive() {
			creditAfter := ledger.Summarize(op.TotalAmount, append(entries, p)).CreditAmount
			reversed, err := trimOverpayment(ctx, repos, op, creditAfter, p.Date)
			if err != nil {
				return err
			}
			creditDelta = creditDelta.Sub(reversed)
		}
		if pts := s.earnedPoints(p); pts > 0 {
			if err := addPoints(ctx, repos, op, pts, entity.LoyaltyReasonEarned, p.Date); err != nil {
				return err
			}
			pointsDelta += pts
		}
	}
	if err := adjustClient(ctx, repos, op.ClientID, creditDelta, pointsDelta); err != nil {
		return err
	}

	if p.IsPosted() {
		fx.payments = append(fx.payments, p)
	}
	return s.refreshPaymentStatus(ctx, repos, op, append(entries, p), p.Date)
}

// trimOverpayment retira de la billetera el excedente acreditado por la operación que supere keep.
// Devuelve el monto retirado; el snapshot del cliente lo ajusta el llamador.
func trimOverpayment(ctx context.Context, repos ports.Repositories, op *entity.Operation, keep decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	granted, err := creditedOverpayment(ctx, repos, op)
	if err != nil {
		return decimal.Zero, err
	}
	excess := granted.Sub(keep)
	if !excess.IsPositive() {
		return decimal.Zero, nil
	}
	if err := addCredit(ctx, repos, op, excess.Neg(), entity.CreditReasonOverpaymentReversed, now); err != nil {
		return decimal.Zero, err
	}
	return excess, nil
}

// creditedOverpayment excedente vigente que la operación dejó en la billetera.
func creditedOverpayment(ctx context.Context, repos ports.Repositories, op *entity.Operation) (decimal.Decimal, error) {
	entries, err := repos.Credits.ListByClient(ctx, op.ClientID)
	if err != nil {
		return decimal.Zero, err
	}
	granted := decimal.Zero
	for _, e := range entries {
		if e.OperationID != op.ID {
			continue
		}
		if e.Reason == entity.CreditReasonOverpayment || e.Reason == entity.CreditReasonOverpaymentReversed {
			granted = granted.Add(e.Amount)
		}
	}
	return granted, nil
}

// earnedPoints puntos por un pago entrante contabilizado. Consumo de billetera y garantías no acumulan.
func (s *Service) earnedPoints(p *entity.Payment) int64 {
	if !p.IsPosted() || p.Direction != entity.PaymentDirectionIn || p.Category != entity.PaymentCategoryPayment {
		return 0
	}
	if p.Method == entity.PaymentMethodClientCredit || p.Method == entity.PaymentMethodGuarantee {
		return 0
	}
	if !s.cfg.LoyaltyPointsPerUnit.IsPositive() {
		return 0
	}
	return p.Amount.Mul(s.cfg.LoyaltyPointsPerUnit).Floor().IntPart()
}

// refreshPaymentStatus recalcula el estado de pago; una venta pagada queda completada.
// La primera vez que una operación del cliente queda pagada se liquida su referido pendiente.
func (s *Service) refreshPaymentStatus(ctx context.Context, repos ports.Repositories, op *entity.Operation, entries []*entity.Payment, now time.Time) error {
	sum := ledger.Summarize(op.TotalAmount, entries)
	wasPaid := op.PaymentStatus == entity.PaymentStatusPaid
	op.PaymentStatus = sum.PaymentStatus
	if !op.IsCanceled() && op.Type == entity.OperationTypeSale {
		if sum.PaymentStatus == entity.PaymentStatusPaid {
			op.Status = entity.OperationStatusCompleted
		} else {
			op.Status = entity.OperationStatusInProgress
		}
	}
	op.UpdatedAt = now
	if err := repos.Operations.Update(ctx, op); err != nil {
		return err
	}
	if !wasPaid && sum.PaymentStatus == entity.PaymentStatusPaid && op.ClientID != "" && !op.IsCanceled() {
		return s.rewardReferral(ctx, repos, op, now)
	}
	return nil
}

func (s *Service) rewardReferral(ctx context.Context, repos ports.Repositories, op *entity.Operation, now time.Time) error {
	ref, err := repos.Referrals.GetPendingByReferred(ctx, op.ClientID)
	if err != nil || ref == nil {
		return err
	}
	reward := ref.RewardAmount
	if !reward.IsPositive() {
		reward = s.cfg.ReferralReward
	}
	if !reward.IsPositive() {
		return nil
	}
	entry := &entity.ClientCreditEntry{
		ID:          uuid.NewString(),
		ClientID:    ref.ReferrerClientID,
		OperationID: op.ID,
		Amount:      reward,
		Reason:      entity.CreditReasonReferral,
		CreatedAt:   now,
	}
	if err := repos.Credits.AddEntry(ctx, entry); err != nil {
		return err
	}
	if err := adjustClient(ctx, repos, ref.ReferrerClientID, reward, 0); err != nil {
		return err
	}
	ref.Status = entity.ReferralStatusRewarded
	ref.RewardAmount = reward
	ref.OperationID = op.ID
	ref.RewardedAt = &now
	s.log.Info().Str("referrer", ref.ReferrerClientID).Str("referred", ref.ReferredClientID).
		Str("reward", reward.StringFixed(2)).Msg("referido recompensado")
	return repos.Referrals.Update(ctx, ref)
}

func addCredit(ctx context.Context, repos ports.Repositories, op *entity.Operation, amount decimal.Decimal, reason string, now time.Time) error {
	return repos.Credits.AddEntry(ctx, &entity.ClientCreditEntry{
		ID:          uuid.NewString(),
		ClientID:    op.ClientID,
		OperationID: op.ID,
		Amount:      amount,
		Reason:      reason,
		CreatedAt:   now,
	})
}

func addPoints(ctx context.Context, repos ports.Repositories, op *entity.Operation, points int64, reason string, now time.Time) error {
	return repos.Loyalty.AddEntry(ctx, &entity.LoyaltyEntry{
		ID:          uuid.NewString(),
		ClientID:    op.ClientID,
		OperationID: op.ID,
		Points:      points,
		Reason:      reason,
		CreatedAt:   now,
	})
}

// adjustClient aplica deltas al snapshot cacheado de billetera y puntos.
func adjustClient(ctx context.Context, repos ports.Repositories, clientID string, credit decimal.Decimal, points int64) error {
	if clientID == "" || (credit.IsZero() && points == 0) {
		return nil
	}
	c, err := repos.Clients.GetForUpdate(ctx, clientID)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrClientNotFound
	}
	return repos.Clients.UpdateBalances(ctx, clientID, c.CreditBalance.Add(credit), c.LoyaltyPoints+points)
}

// reversePoints descuenta hasta limit puntos acumulados por la operación (limit<0 = todos).
func reversePoints(ctx context.Context, repos ports.Repositories, op *entity.Operation, limit int64, now time.Time) error {
	if op.ClientID == "" {
		return nil
	}
	earned, err := repos.Loyalty.SumByOperation(ctx, op.ClientID, op.ID)
	if err != nil {
		return err
	}
	if limit >= 0 && limit < earned {
		earned = limit
	}
	if earned <= 0 {
		return nil
	}
	if err := addPoints(ctx, repos, op, -earned, entity.LoyaltyReasonReversed, now); err != nil {
		return err
	}
	return adjustClient(ctx, repos, op.ClientID, decimal.Zero, -earned)
}

// initialPayments registra los pagos que acompañan la creación o conversión.
func (s *Service) initialPayments(ctx context.Context, repos ports.Repositories, fx *txEffects, op *entity.Operation, actor Actor, payments []dto.PaymentRequest, now time.Time) error {
	for _, pin := range payments {
		p := &entity.Payment{
			Amount:    pin.Amount,
			Direction: entity.PaymentDirectionIn,
			Category:  entity.PaymentCategoryPayment,
			Status:    entity.PaymentEntryPosted,
			Date:      now,
			Method:    pin.Method,
			Reference: pin.Reference,
			CreatedBy: actor.UserID,
			CreatedAt: now,
		}
		if pin.Pending {
			p.Status = entity.PaymentEntryPending
		}
		if err := s.postPayment(ctx, repos, fx, op, p); err != nil {
			return err
		}
	}
	if len(payments) == 0 {
		entries, err := repos.Payments.GetPaymentsByOperationID(ctx, op.ID)
		if err != nil {
			return err
		}
		return s.refreshPaymentStatus(ctx, repos, op, entries, now)
	}
	return nil
}
