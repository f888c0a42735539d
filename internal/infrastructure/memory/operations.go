package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

type operationRepo struct{ s *Store }

func (r *operationRepo) Create(_ context.Context, op *entity.Operation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.opSeq++
	op.ID = r.s.data.opSeq
	if op.Version == 0 {
		op.Version = 1
	}
	r.s.data.operations[op.ID] = *op
	return nil
}

func (r *operationRepo) GetByID(_ context.Context, id int64) (*entity.Operation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	op, ok := r.s.data.operations[id]
	if !ok {
		return nil, nil
	}
	return &op, nil
}

func (r *operationRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Operation, error) {
	return r.GetByID(ctx, id)
}

func (r *operationRepo) Update(_ context.Context, op *entity.Operation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.data.operations[op.ID]
	if !ok {
		return domain.ErrOperationNotFound
	}
	if cur.Version != op.Version {
		return domain.ErrConcurrentUpdate
	}
	op.Version++
	r.s.data.operations[op.ID] = *op
	return nil
}

func (r *operationRepo) NextDailySequence(_ context.Context, tenantID string, t entity.OperationType, day time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%s", tenantID, t, day.Format("20060102"))
	r.s.data.daily[key]++
	return r.s.data.daily[key], nil
}

func (r *operationRepo) ListByClient(_ context.Context, clientID string, limit, offset int) ([]*entity.Operation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Operation
	for _, op := range r.s.data.operations {
		if op.ClientID == clientID {
			cp := op
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []*entity.Operation{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(_ context.Context, p *entity.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.paySeq++
	p.Sequence = r.s.data.paySeq
	r.s.data.payments[p.OperationID] = append(r.s.data.payments[p.OperationID], *p)
	return nil
}

func (r *paymentRepo) MarkPosted(_ context.Context, paymentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for opID, list := range r.s.data.payments {
		for i := range list {
			if list[i].ID != paymentID {
				continue
			}
			if list[i].Status != entity.PaymentEntryPending {
				return domain.ErrPaymentNotPending
			}
			list[i].Status = entity.PaymentEntryPosted
			r.s.data.payments[opID] = list
			return nil
		}
	}
	return domain.ErrPaymentNotPending
}

func (r *paymentRepo) GetPaymentsByOperationID(_ context.Context, operationID int64) ([]*entity.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := r.s.data.payments[operationID]
	out := make([]*entity.Payment, len(list))
	for i := range list {
		p := list[i]
		out[i] = &p
	}
	return out, nil
}

type saleRepo struct{ s *Store }

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.sales[sale.ID] = cloneSale(sale)
	return nil
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneSale(r.s.data.sales[id]), nil
}

func (r *saleRepo) GetByOperationID(_ context.Context, operationID int64) (*entity.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.data.sales {
		if v.OperationID == operationID {
			return cloneSale(v), nil
		}
	}
	return nil, nil
}

func (r *saleRepo) Update(_ context.Context, sale *entity.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.sales[sale.ID]; !ok {
		return domain.ErrSaleNotFound
	}
	r.s.data.sales[sale.ID] = cloneSale(sale)
	return nil
}

type rentalRepo struct{ s *Store }

func (r *rentalRepo) Create(_ context.Context, rental *entity.Rental) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.rentals[rental.ID] = cloneRental(rental)
	return nil
}

func (r *rentalRepo) GetByID(_ context.Context, id string) (*entity.Rental, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneRental(r.s.data.rentals[id]), nil
}

func (r *rentalRepo) GetByOperationID(_ context.Context, operationID int64) (*entity.Rental, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.data.rentals {
		if v.OperationID == operationID {
			return cloneRental(v), nil
		}
	}
	return nil, nil
}

func (r *rentalRepo) Update(_ context.Context, rental *entity.Rental) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.rentals[rental.ID]; !ok {
		return domain.ErrRentalNotFound
	}
	r.s.data.rentals[rental.ID] = cloneRental(rental)
	return nil
}

func (r *rentalRepo) ListOverdue(_ context.Context, tenantID string, now time.Time) ([]*entity.Rental, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Rental
	for _, v := range r.s.data.rentals {
		op := r.s.data.operations[v.OperationID]
		if op.TenantID != tenantID || v.Status != entity.RentalStatusRented || !v.ExpectedReturnDate.Before(now) {
			continue
		}
		out = append(out, cloneRental(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OperationID < out[j].OperationID })
	return out, nil
}

type reservationRepo struct{ s *Store }

func (r *reservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.reservations[res.ID] = cloneReservation(res)
	return nil
}

func (r *reservationRepo) GetByID(_ context.Context, id string) (*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneReservation(r.s.data.reservations[id]), nil
}

func (r *reservationRepo) GetByOperationID(_ context.Context, operationID int64) (*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.data.reservations {
		if v.OperationID == operationID {
			return cloneReservation(v), nil
		}
	}
	return nil, nil
}

func (r *reservationRepo) Update(_ context.Context, res *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.reservations[res.ID]; !ok {
		return domain.ErrReservationNotFound
	}
	r.s.data.reservations[res.ID] = cloneReservation(res)
	return nil
}

func (r *reservationRepo) ListExpired(_ context.Context, tenantID string, now time.Time) ([]*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Reservation
	for _, v := range r.s.data.reservations {
		op := r.s.data.operations[v.OperationID]
		if op.TenantID != tenantID || !v.IsConvertible() || !v.ExpiresAt.Before(now) {
			continue
		}
		out = append(out, cloneReservation(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OperationID < out[j].OperationID })
	return out, nil
}
