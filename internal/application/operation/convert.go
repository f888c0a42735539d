package operation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/inventory"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// ConvertReservation convierte la reserva en venta o alquiler sobre la misma Operation.
// Las unidades reservadas pasan a vendido/alquilado; los lotes ya estaban descontados.
// Las líneas no incluidas en ItemIDs se liberan y salen del total.
func (s *Service) ConvertReservation(ctx context.Context, actor Actor, operationID int64, req dto.ConvertReservationRequest) (*dto.OperationResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	keys, err := s.operationLocks(ctx, actor, operationID)
	if err != nil {
		return nil, err
	}
	var out *dto.OperationResponse
	var target entity.OperationType
	err = s.withLocks(ctx, keys, func(ctx context.Context) error {
		return s.inTx(ctx, func(repos ports.Repositories, fx *txEffects) error {
			now := s.clock()
			op, err := loadForUpdate(ctx, repos, actor, operationID)
			if err != nil {
				return err
			}
			if op.IsCanceled() {
				return domain.NewBusinessError(domain.ErrOperationClosed, "OPERATION_CANCELED", "la reserva está anulada", nil)
			}
			if op.Type != entity.OperationTypeReservation {
				return domain.NewBusinessError(domain.ErrInvalidStatusTransition, "NOT_A_RESERVATION",
					"la operación ya no es una reserva", map[string]any{"type": string(op.Type)})
			}
			res, err := repos.Reservations.GetByOperationID(ctx, op.ID)
			if err != nil {
				return err
			}
			if res == nil {
				return domain.ConsistencyError("operación %d sin detalle de reserva", op.ID)
			}
			if !res.IsConvertible() {
				return domain.NewBusinessError(domain.ErrInvalidStatusTransition, "RESERVATION_NOT_CONVERTIBLE",
					"la reserva está "+string(res.Status), map[string]any{"status": res.Status})
			}
			target = res.TargetType

			selected := make(map[string]bool, len(req.ItemIDs))
			for _, id := range req.ItemIDs {
				selected[id] = true
			}
			for id := range selected {
				found := false
				for _, it := range res.Items {
					if it.ID == id {
						found = true
						break
					}
				}
				if !found {
					return domain.ConsistencyError("%s: %s en reserva %s", domain.ErrReservationItemMissing, id, res.ID)
				}
			}

			alloc := inventory.NewAllocator(repos.Inventory)
			itemStatus := entity.ItemStatusSold
			if target == entity.OperationTypeRental {
				itemStatus = entity.ItemStatusRented
			}
			var lines []entity.LineItem
			released := decimal.Zero
			for _, it := range res.Items {
				if len(selected) > 0 && !selected[it.ID] {
					if err := alloc.Release(ctx, it.Allocations); err != nil {
						return err
					}
					released = released.Add(it.LineTotal)
					continue
				}
				if err := alloc.Transition(ctx, it.Allocations, itemStatus); err != nil {
					return err
				}
				it.Converted = true
				line := it.LineItem
				line.ID = uuid.NewString()
				lines = append(lines, line)
			}
			op.TotalAmount = op.TotalAmount.Sub(released)

			switch target {
			case entity.OperationTypeSale:
				sale := &entity.Sale{
					ID: uuid.NewString(), OperationID: op.ID, Status: entity.SaleStatusCompleted,
					CouponDiscount: decimal.Zero, CreatedAt: now, UpdatedAt: now,
				}
				for _, l := range lines {
					sale.Items = append(sale.Items, &entity.SaleItem{LineItem: l, SaleID: sale.ID})
				}
				if err := repos.Sales.Create(ctx, sale); err != nil {
					return err
				}
				op.Status = entity.OperationStatusInProgress
			case entity.OperationTypeRental:
				expected := res.ReturnDate
				if req.ExpectedReturnDate != nil {
					expected = req.ExpectedReturnDate
				}
				if expected == nil || !expected.After(now) {
					return domain.NewValidationError("expected_return_date", "debe ser posterior a la entrega")
				}
				if _, err := s.newRental(ctx, repos, op, lines, now, *expected, req.Guarantee, now); err != nil {
					return err
				}
				op.Status = entity.OperationStatusInProgress
			default:
				return domain.ConsistencyError("reserva %s con tipo destino %q", res.ID, target)
			}

			res.Status = entity.ReservationStatusConverted
			res.ConvertedAt = &now
			res.UpdatedAt = now
			if err := repos.Reservations.Update(ctx, res); err != nil {
				return err
			}
			op.Type = target
			if err := s.initialPayments(ctx, repos, fx, op, actor, req.Payments, now); err != nil {
				return err
			}
			out, err = buildResponse(ctx, repos, op)
			if err != nil {
				return err
			}
			s.logTransition(op, string(res.Status), "reserva convertida")
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OperationCreated(string(target))
	return out, nil
}
