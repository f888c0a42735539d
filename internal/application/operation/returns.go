package operation

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/inventory"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	rules "github.com/jhoicas/Alquiler-api/internal/domain/inventory"
	"github.com/jhoicas/Alquiler-api/internal/domain/ledger"
	"github.com/jhoicas/Alquiler-api/internal/domain/pricing"
)

// ReturnRental registra la devolución de prendas alquiladas.
// Cada línea se enruta según su condición; penalidades y mora suman al total de la operación.
// Al cerrar el alquiler se liquida la garantía contra el saldo pendiente.
func (s *Service) ReturnRental(ctx context.Context, actor Actor, operationID int64, req dto.ReturnRentalRequest) (*dto.OperationResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	keys, err := s.operationLocks(ctx, actor, operationID)
	if err != nil {
		return nil, err
	}
	var out *dto.OperationResponse
	var finalStatus string
	err = s.withLocks(ctx, keys, func(ctx context.Context) error {
		return s.inTx(ctx, func(repos ports.Repositories, fx *txEffects) error {
			now := s.clock()
			op, err := loadForUpdate(ctx, repos, actor, operationID)
			if err != nil {
				return err
			}
			if op.IsCanceled() {
				return domain.NewBusinessError(domain.ErrOperationClosed, "OPERATION_CANCELED", "el alquiler está anulado", nil)
			}
			if op.Type != entity.OperationTypeRental {
				return domain.NewBusinessError(domain.ErrInvalidStatusTransition, "NOT_A_RENTAL",
					"la operación no es un alquiler", map[string]any{"type": string(op.Type)})
			}
			rental, err := repos.Rentals.GetByOperationID(ctx, op.ID)
			if err != nil {
				return err
			}
			if rental == nil {
				return domain.ConsistencyError("operación %d sin detalle de alquiler", op.ID)
			}
			if !rental.IsOpen() {
				return domain.NewBusinessError(domain.ErrAlreadyReturned, "ALREADY_RETURNED",
					"el alquiler ya fue devuelto", map[string]any{"status": rental.Status})
			}

			returnDate := now
			if req.ReturnDate != nil {
				returnDate = req.ReturnDate.In(s.cfg.Location)
			}
			daysLate := lateDays(rental.ExpectedReturnDate.In(s.cfg.Location), returnDate)

			byID := make(map[string]*entity.RentalItem, len(rental.Items))
			for _, it := range rental.Items {
				byID[it.ID] = it
			}
			alloc := inventory.NewAllocator(repos.Inventory)
			added := decimal.Zero
			for _, r := range req.Items {
				it, ok := byID[r.RentalItemID]
				if !ok {
					return domain.NewValidationError("items.rental_item_id", "línea desconocida "+r.RentalItemID)
				}
				if it.Status != entity.RentalItemStatusRented {
					return domain.NewBusinessError(domain.ErrAlreadyReturned, "ALREADY_RETURNED",
						"la línea "+it.ProductName+" ya fue devuelta", map[string]any{"rental_item_id": it.ID})
				}
				cond := rules.ReturnCondition(r.Condition)
				if err := alloc.Return(ctx, it.Allocations, cond, r.Cleaning); err != nil {
					return err
				}
				it.Status = rentalItemStatus(cond)
				penalty := pricing.Round2(r.Penalty)
				it.PenaltyAmount = it.PenaltyAmount.Add(penalty)
				rental.PenaltyAmount = rental.PenaltyAmount.Add(penalty)
				added = added.Add(penalty)

				if daysLate > 0 && s.cfg.LateFeePerDay.IsPositive() {
					fee := s.cfg.LateFeePerDay.Mul(decimal.NewFromInt(int64(daysLate * it.Quantity)))
					rental.LateFee = rental.LateFee.Add(fee)
					added = added.Add(fee)
				}
			}
			op.TotalAmount = op.TotalAmount.Add(added)

			closed := true
			for _, it := range rental.Items {
				if it.Status == entity.RentalItemStatusRented {
					closed = false
					break
				}
			}
			if closed {
				rental.Status = closedRentalStatus(rental.Items)
				rental.ActualReturnDate = &returnDate
				op.Status = entity.OperationStatusCompleted
			}
			rental.UpdatedAt = now
			if err := repos.Rentals.Update(ctx, rental); err != nil {
				return err
			}
			finalStatus = string(rental.Status)

			entries, err := repos.Payments.GetPaymentsByOperationID(ctx, op.ID)
			if err != nil {
				return err
			}
			settled := false
			if closed && rental.GuaranteeID != "" {
				if settled, err = s.settleGuarantee(ctx, repos, fx, op, rental.GuaranteeID, entries, actor, now); err != nil {
					return err
				}
			}
			if !settled {
				if err := s.refreshPaymentStatus(ctx, repos, op, entries, now); err != nil {
					return err
				}
			}

			out, err = buildResponse(ctx, repos, op)
			if err != nil {
				return err
			}
			s.logTransition(op, string(rental.Status), "devolución de alquiler")
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RentalReturned(finalStatus)
	return out, nil
}

// lateDays días calendario entre la fecha esperada y la real; 0 si se devolvió a tiempo.
func lateDays(expected, actual time.Time) int {
	d := pricing.Day(actual).Sub(pricing.Day(expected)).Hours() / 24
	if d <= 0 {
		return 0
	}
	return int(math.Round(d))
}

func rentalItemStatus(c rules.ReturnCondition) string {
	switch c {
	case rules.ReturnConditionDamaged:
		return entity.RentalItemStatusDamaged
	case rules.ReturnConditionLost:
		return entity.RentalItemStatusLost
	}
	return entity.RentalItemStatusReturned
}

// closedRentalStatus estado final del alquiler: perdido domina sobre con_daños.
func closedRentalStatus(items []*entity.RentalItem) entity.RentalStatus {
	status := entity.RentalStatusReturned
	for _, it := range items {
		switch it.Status {
		case entity.RentalItemStatusLost:
			return entity.RentalStatusLost
		case entity.RentalItemStatusDamaged:
			status = entity.RentalStatusDamaged
		}
	}
	return status
}

// settleGuarantee libera o ejecuta la garantía al cerrar el alquiler.
// Una garantía en efectivo cubre el saldo pendiente y lo retenido entra al libro con método garantia.
// Devuelve true si registró un asiento (el estado de pago ya quedó recalculado).
func (s *Service) settleGuarantee(ctx context.Context, repos ports.Repositories, fx *txEffects, op *entity.Operation, guaranteeID string, entries []*entity.Payment, actor Actor, now time.Time) (bool, error) {
	g, err := repos.Guarantees.GetByID(ctx, guaranteeID)
	if err != nil {
		return false, err
	}
	if g == nil {
		return false, domain.ErrGuaranteeNotFound
	}
	if g.Status != entity.GuaranteeStatusHeld {
		return false, nil
	}
	balance := ledger.Summarize(op.TotalAmount, entries).Balance

	if g.Type != entity.GuaranteeTypeCash {
		if balance.IsPositive() {
			return false, nil
		}
		g.Status = entity.GuaranteeStatusReleased
		g.ReleasedAt = &now
		return false, repos.Guarantees.Update(ctx, g)
	}

	retain := decimal.Min(balance, g.Amount)
	g.RetainedAmount = retain
	g.ReleasedAt = &now
	switch {
	case !retain.IsPositive():
		g.Status = entity.GuaranteeStatusReleased
	case retain.Equal(g.Amount):
		g.Status = entity.GuaranteeStatusExecuted
	default:
		g.Status = entity.GuaranteeStatusPartial
	}
	if err := repos.Guarantees.Update(ctx, g); err != nil {
		return false, err
	}
	if !retain.IsPositive() {
		return false, nil
	}
	return true, s.postPayment(ctx, repos, fx, op, &entity.Payment{
		Amount:    retain,
		Direction: entity.PaymentDirectionIn,
		Category:  entity.PaymentCategoryPayment,
		Status:    entity.PaymentEntryPosted,
		Date:      now,
		Method:    entity.PaymentMethodGuarantee,
		Reference: "garantia " + g.ID,
		CreatedBy: actor.UserID,
		CreatedAt: now,
	})
}

// ReturnSale registra la devolución de unidades vendidas dentro del plazo configurado.
// El total baja por el valor de lo devuelto y se reembolsa solo lo que exceda el nuevo total.
func (s *Service) ReturnSale(ctx context.Context, actor Actor, operationID int64, req dto.ReturnSaleRequest) (*dto.OperationResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	keys, err := s.operationLocks(ctx, actor, operationID)
	if err != nil {
		return nil, err
	}
	var out *dto.OperationResponse
	err = s.withLocks(ctx, keys, func(ctx context.Context) error {
		return s.inTx(ctx, func(repos ports.Repositories, fx *txEffects) error {
			now := s.clock()
			op, err := loadForUpdate(ctx, repos, actor, operationID)
			if err != nil {
				return err
			}
			if op.IsCanceled() {
				return domain.NewBusinessError(domain.ErrOperationClosed, "OPERATION_CANCELED", "la venta está anulada", nil)
			}
			if op.Type != entity.OperationTypeSale {
				return domain.NewBusinessError(domain.ErrInvalidStatusTransition, "NOT_A_SALE",
					"la operación no es una venta", map[string]any{"type": string(op.Type)})
			}
			if s.cfg.SaleReturnWindowDays > 0 {
				limit := pricing.Day(op.Date.In(s.cfg.Location)).AddDate(0, 0, s.cfg.SaleReturnWindowDays)
				if pricing.Day(now).After(limit) {
					return domain.NewBusinessError(domain.ErrReturnWindowExceeded, "RETURN_WINDOW_EXCEEDED",
						"el plazo de devolución venció", map[string]any{"days": s.cfg.SaleReturnWindowDays})
				}
			}
			sale, err := repos.Sales.GetByOperationID(ctx, op.ID)
			if err != nil {
				return err
			}
			if sale == nil {
				return domain.ConsistencyError("operación %d sin detalle de venta", op.ID)
			}

			byID := make(map[string]*entity.SaleItem, len(sale.Items))
			for _, it := range sale.Items {
				byID[it.ID] = it
			}
			alloc := inventory.NewAllocator(repos.Inventory)
			value := decimal.Zero
			for _, r := range req.Items {
				it, ok := byID[r.SaleItemID]
				if !ok {
					return domain.NewValidationError("items.sale_item_id", "línea desconocida "+r.SaleItemID)
				}
				pending := it.Quantity - it.Returned
				if r.Quantity > pending {
					return domain.NewBusinessError(domain.ErrAlreadyReturned, "ALREADY_RETURNED",
						"la línea "+it.ProductName+" no tiene tantas unidades por devolver",
						map[string]any{"sale_item_id": it.ID, "pending": pending, "requested": r.Quantity})
				}
				allocs := sliceAllocations(it.Allocations, it.Returned, r.Quantity)
				if err := alloc.Return(ctx, allocs, rules.ReturnCondition(r.Condition), false); err != nil {
					return err
				}
				share := decimal.NewFromInt(int64(r.Quantity)).Div(decimal.NewFromInt(int64(it.Quantity)))
				value = value.Add(pricing.Round2(it.LineTotal.Mul(share)))
				it.Returned += r.Quantity
			}

			all := true
			for _, it := range sale.Items {
				if it.Returned < it.Quantity {
					all = false
					break
				}
			}
			if all {
				sale.Status = entity.SaleStatusReturned
			}
			sale.UpdatedAt = now
			if err := repos.Sales.Update(ctx, sale); err != nil {
				return err
			}

			entries, err := repos.Payments.GetPaymentsByOperationID(ctx, op.ID)
			if err != nil {
				return err
			}
			op.TotalAmount = decimal.Max(decimal.Zero, op.TotalAmount.Sub(value))
			refund := decimal.Min(value, ledger.Summarize(op.TotalAmount, entries).CreditAmount)
			if refund.IsPositive() {
				method := req.RefundMethod
				if method == "" {
					method = firstInMethod(entries)
				}
				if err := s.postPayment(ctx, repos, fx, op, &entity.Payment{
					Amount:    refund,
					Direction: entity.PaymentDirectionOut,
					Category:  entity.PaymentCategoryRefund,
					Status:    entity.PaymentEntryPosted,
					Date:      now,
					Method:    method,
					Reference: "devolucion",
					CreatedBy: actor.UserID,
					CreatedAt: now,
				}); err != nil {
					return err
				}
				if s.cfg.LoyaltyPointsPerUnit.IsPositive() {
					pts := refund.Mul(s.cfg.LoyaltyPointsPerUnit).Floor().IntPart()
					if err := reversePoints(ctx, repos, op, pts, now); err != nil {
						return err
					}
				}
			} else if err := s.refreshPaymentStatus(ctx, repos, op, entries, now); err != nil {
				return err
			}

			out, err = buildResponse(ctx, repos, op)
			if err != nil {
				return err
			}
			s.logTransition(op, string(sale.Status), "devolución de venta")
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// firstInMethod método del primer pago entrante contabilizado, en orden del libro.
func firstInMethod(entries []*entity.Payment) string {
	for _, p := range ledger.Ordered(entries) {
		if p.IsPosted() && p.Direction == entity.PaymentDirectionIn && p.Method != entity.PaymentMethodGuarantee {
			return p.Method
		}
	}
	return entity.PaymentMethodCash
}
