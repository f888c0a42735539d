package operation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/inventory"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/ledger"
)

// CancelOperation anula la operación: libera stock, reembolsa el neto pagado con un asiento "out",
// revierte puntos y el crédito por excedente, y devuelve la garantía. Una segunda anulación falla.
func (s *Service) CancelOperation(ctx context.Context, actor Actor, operationID int64, req dto.CancelOperationRequest) (*dto.OperationResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	keys, err := s.operationLocks(ctx, actor, operationID)
	if err != nil {
		return nil, err
	}
	var out *dto.OperationResponse
	var opType entity.OperationType
	err = s.withLocks(ctx, keys, func(ctx context.Context) error {
		return s.inTx(ctx, func(repos ports.Repositories, fx *txEffects) error {
			now := s.clock()
			op, err := loadForUpdate(ctx, repos, actor, operationID)
			if err != nil {
				return err
			}
			if op.IsCanceled() {
				return domain.NewBusinessError(domain.ErrAlreadyCanceled, "ALREADY_CANCELED",
					"la operación "+op.ReferenceCode+" ya fue anulada", map[string]any{"operation_id": op.ID})
			}
			opType = op.Type
			alloc := inventory.NewAllocator(repos.Inventory)

			detail := ""
			switch op.Type {
			case entity.OperationTypeSale:
				if detail, err = cancelSale(ctx, repos, alloc, op, req.Reason, now); err != nil {
					return err
				}
			case entity.OperationTypeRental:
				if detail, err = cancelRental(ctx, repos, alloc, op, req.Reason, now); err != nil {
					return err
				}
			case entity.OperationTypeReservation:
				if detail, err = releaseReservation(ctx, repos, alloc, op, entity.ReservationStatusCanceled, req.Reason, now); err != nil {
					return err
				}
			}

			entries, err := repos.Payments.GetPaymentsByOperationID(ctx, op.ID)
			if err != nil {
				return err
			}
			op.Status = entity.OperationStatusCanceled
			if refund := ledger.CancellationRefund(op.ID, entries, now, actor.UserID); refund != nil {
				if err := s.postPayment(ctx, repos, fx, op, refund); err != nil {
					return err
				}
			} else if err := s.refreshPaymentStatus(ctx, repos, op, entries, now); err != nil {
				return err
			}
			if err := reverseOverpayment(ctx, repos, op, now); err != nil {
				return err
			}
			if err := reversePoints(ctx, repos, op, -1, now); err != nil {
				return err
			}

			out, err = buildResponse(ctx, repos, op)
			if err != nil {
				return err
			}
			s.logTransition(op, detail, "operación anulada")
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OperationCanceled(string(opType))
	return out, nil
}

func cancelSale(ctx context.Context, repos ports.Repositories, alloc *inventory.Allocator, op *entity.Operation, reason string, now time.Time) (string, error) {
	sale, err := repos.Sales.GetByOperationID(ctx, op.ID)
	if err != nil {
		return "", err
	}
	if sale == nil {
		return "", domain.ConsistencyError("operación %d sin detalle de venta", op.ID)
	}
	for _, it := range sale.Items {
		pending := it.Quantity - it.Returned
		if pending <= 0 {
			continue
		}
		if err := alloc.Release(ctx, sliceAllocations(it.Allocations, it.Returned, pending)); err != nil {
			return "", err
		}
	}
	sale.Status = entity.SaleStatusCanceled
	sale.CanceledAt = &now
	sale.CancelReason = reason
	sale.UpdatedAt = now
	return string(sale.Status), repos.Sales.Update(ctx, sale)
}

func cancelRental(ctx context.Context, repos ports.Repositories, alloc *inventory.Allocator, op *entity.Operation, reason string, now time.Time) (string, error) {
	rental, err := repos.Rentals.GetByOperationID(ctx, op.ID)
	if err != nil {
		return "", err
	}
	if rental == nil {
		return "", domain.ConsistencyError("operación %d sin detalle de alquiler", op.ID)
	}
	if !rental.IsOpen() {
		return "", domain.NewBusinessError(domain.ErrOperationClosed, "RENTAL_CLOSED",
			"no se puede anular un alquiler ya devuelto", map[string]any{"status": rental.Status})
	}
	for _, it := range rental.Items {
		if it.Status != entity.RentalItemStatusRented {
			continue
		}
		if err := alloc.Release(ctx, it.Allocations); err != nil {
			return "", err
		}
	}
	if rental.GuaranteeID != "" {
		g, err := repos.Guarantees.GetByID(ctx, rental.GuaranteeID)
		if err != nil {
			return "", err
		}
		if g != nil && g.Status == entity.GuaranteeStatusHeld {
			g.Status = entity.GuaranteeStatusReleased
			g.ReleasedAt = &now
			if err := repos.Guarantees.Update(ctx, g); err != nil {
				return "", err
			}
		}
	}
	rental.Status = entity.RentalStatusCanceled
	rental.CancelReason = reason
	rental.UpdatedAt = now
	return string(rental.Status), repos.Rentals.Update(ctx, rental)
}

// releaseReservation libera el stock apartado y deja la reserva en el estado indicado (anulada o vencida).
func releaseReservation(ctx context.Context, repos ports.Repositories, alloc *inventory.Allocator, op *entity.Operation, status entity.ReservationStatus, reason string, now time.Time) (string, error) {
	res, err := repos.Reservations.GetByOperationID(ctx, op.ID)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", domain.ConsistencyError("operación %d sin detalle de reserva", op.ID)
	}
	if !res.IsConvertible() {
		return "", domain.NewBusinessError(domain.ErrInvalidStatusTransition, "RESERVATION_CLOSED",
			"la reserva está "+string(res.Status), map[string]any{"status": res.Status})
	}
	for _, it := range res.Items {
		if err := alloc.Release(ctx, it.Allocations); err != nil {
			return "", err
		}
	}
	res.Status = status
	res.CancelReason = reason
	res.UpdatedAt = now
	return string(res.Status), repos.Reservations.Update(ctx, res)
}

// reverseOverpayment retira de la billetera el excedente que la operación había acreditado:
// el reembolso de anulación ya devuelve el neto completo.
func reverseOverpayment(ctx context.Context, repos ports.Repositories, op *entity.Operation, now time.Time) error {
	if op.ClientID == "" {
		return nil
	}
	reversed, err := trimOverpayment(ctx, repos, op, decimal.Zero, now)
	if err != nil {
		return err
	}
	return adjustClient(ctx, repos, op.ClientID, reversed.Neg(), 0)
}
