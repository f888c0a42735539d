package operation

import (
	"context"
	"errors"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/inventory"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// MarkOverdueRentals pasa a atrasado los alquileres vencidos del tenant.
// Cada alquiler se procesa en su propia unidad de trabajo.
func (s *Service) MarkOverdueRentals(ctx context.Context, tenantID string) (*dto.BatchResult, error) {
	now := s.clock()
	rentals, err := s.repos.Rentals.ListOverdue(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}
	out := &dto.BatchResult{}
	for _, r := range rentals {
		opID := r.OperationID
		marked := false
		err := s.withLocks(ctx, []string{operationKey(opID)}, func(ctx context.Context) error {
			return s.tx.Run(ctx, func(repos ports.Repositories) error {
				op, err := loadForUpdate(ctx, repos, Actor{TenantID: tenantID}, opID)
				if err != nil {
					return err
				}
				rental, err := repos.Rentals.GetByOperationID(ctx, opID)
				if err != nil || rental == nil {
					return err
				}
				if op.IsCanceled() || rental.Status != entity.RentalStatusRented || !rental.ExpectedReturnDate.Before(now) {
					return nil
				}
				rental.Status = entity.RentalStatusOverdue
				rental.UpdatedAt = now
				if err := repos.Rentals.Update(ctx, rental); err != nil {
					return err
				}
				marked = true
				s.logTransition(op, string(rental.Status), "alquiler atrasado")
				return nil
			})
		})
		if err != nil {
			return out, err
		}
		if marked {
			out.Processed++
			out.IDs = append(out.IDs, r.ID)
		}
	}
	return out, nil
}

// ExpireReservations vence las reservas cuya fecha límite pasó: libera el stock y anula la operación.
// El abono recibido no se reembolsa.
func (s *Service) ExpireReservations(ctx context.Context, tenantID string) (*dto.BatchResult, error) {
	now := s.clock()
	expired, err := s.repos.Reservations.ListExpired(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}
	actor := Actor{TenantID: tenantID}
	out := &dto.BatchResult{}
	for _, r := range expired {
		opID := r.OperationID
		keys, err := s.operationLocks(ctx, actor, opID)
		if err != nil {
			return out, err
		}
		done := false
		err = s.withLocks(ctx, keys, func(ctx context.Context) error {
			return s.tx.Run(ctx, func(repos ports.Repositories) error {
				op, err := loadForUpdate(ctx, repos, actor, opID)
				if err != nil {
					return err
				}
				if op.IsCanceled() || op.Type != entity.OperationTypeReservation {
					return nil
				}
				alloc := inventory.NewAllocator(repos.Inventory)
				status, err := releaseReservation(ctx, repos, alloc, op, entity.ReservationStatusExpired, "vencida", now)
				if err != nil {
					return err
				}
				op.Status = entity.OperationStatusCanceled
				entries, err := repos.Payments.GetPaymentsByOperationID(ctx, op.ID)
				if err != nil {
					return err
				}
				if err := s.refreshPaymentStatus(ctx, repos, op, entries, now); err != nil {
					return err
				}
				done = true
				s.logTransition(op, status, "reserva vencida")
				return nil
			})
		})
		if errors.Is(err, domain.ErrInvalidStatusTransition) {
			continue
		}
		if err != nil {
			return out, err
		}
		if done {
			out.Processed++
			out.IDs = append(out.IDs, r.ID)
			s.metrics.OperationCanceled(string(entity.OperationTypeReservation))
		}
	}
	return out, nil
}

// ReconcileClientBalances recalcula billetera y puntos cacheados desde sus libros y corrige desvíos.
func (s *Service) ReconcileClientBalances(ctx context.Context, tenantID string) (*dto.BatchResult, error) {
	ids, err := s.repos.Clients.ListIDsByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := &dto.BatchResult{}
	for _, id := range ids {
		fixed := false
		err := s.tx.Run(ctx, func(repos ports.Repositories) error {
			c, err := repos.Clients.GetForUpdate(ctx, id)
			if err != nil || c == nil {
				return err
			}
			credit, err := repos.Credits.SumByClient(ctx, id)
			if err != nil {
				return err
			}
			points, err := repos.Loyalty.SumByClient(ctx, id)
			if err != nil {
				return err
			}
			if c.CreditBalance.Equal(credit) && c.LoyaltyPoints == points {
				return nil
			}
			s.log.Warn().Str("client_id", id).
				Str("cached_credit", c.CreditBalance.StringFixed(2)).Str("ledger_credit", credit.StringFixed(2)).
				Int64("cached_points", c.LoyaltyPoints).Int64("ledger_points", points).
				Msg("saldo de cliente desalineado")
			fixed = true
			return repos.Clients.UpdateBalances(ctx, id, credit, points)
		})
		if err != nil {
			return out, err
		}
		if fixed {
			out.Processed++
			out.IDs = append(out.IDs, id)
		}
	}
	return out, nil
}
