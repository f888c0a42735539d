package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/repository"
)

var (
	_ repository.SaleRepository        = (*SaleRepo)(nil)
	_ repository.RentalRepository      = (*RentalRepo)(nil)
	_ repository.ReservationRepository = (*ReservationRepo)(nil)
	_ repository.GuaranteeRepository   = (*GuaranteeRepo)(nil)
)

// ──────────────────────────────────────────────────────────────────────────────
// Ventas
// ──────────────────────────────────────────────────────────────────────────────

// SaleRepo ventas y sus líneas.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func saleLines(s *entity.Sale) []lineRecord {
	out := make([]lineRecord, len(s.Items))
	for i, it := range s.Items {
		out[i] = lineRecord{LineItem: it.LineItem, Returned: it.Returned}
	}
	return out
}

func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	query := `
		INSERT INTO sales (id, operation_id, status, coupon_code, coupon_discount, canceled_at, cancel_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query, sale.ID, sale.OperationID, sale.Status, nullString(sale.CouponCode),
		sale.CouponDiscount, sale.CanceledAt, sale.CancelReason).Scan(&sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create sale: %w", err)
	}
	return saveLines(ctx, r.q, lineOwnerSale, sale.ID, saleLines(sale))
}

func (r *SaleRepo) get(ctx context.Context, where string, arg any) (*entity.Sale, error) {
	query := `
		SELECT id, operation_id, status, coupon_code, coupon_discount, canceled_at, cancel_reason, created_at, updated_at
		FROM sales WHERE ` + where
	var (
		s      entity.Sale
		coupon *string
	)
	err := r.q.QueryRow(ctx, query, arg).Scan(&s.ID, &s.OperationID, &s.Status, &coupon, &s.CouponDiscount,
		&s.CanceledAt, &s.CancelReason, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}
	s.CouponCode = derefString(coupon)

	lines, err := loadLines(ctx, r.q, lineOwnerSale, s.ID)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		s.Items = append(s.Items, &entity.SaleItem{LineItem: l.LineItem, SaleID: s.ID, Returned: l.Returned})
	}
	return &s, nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *SaleRepo) GetByOperationID(ctx context.Context, operationID int64) (*entity.Sale, error) {
	return r.get(ctx, "operation_id = $1", operationID)
}

func (r *SaleRepo) Update(ctx context.Context, sale *entity.Sale) error {
	query := `
		UPDATE sales SET status = $2, canceled_at = $3, cancel_reason = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, sale.ID, sale.Status, sale.CanceledAt, sale.CancelReason)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}
	return saveLines(ctx, r.q, lineOwnerSale, sale.ID, saleLines(sale))
}

// ──────────────────────────────────────────────────────────────────────────────
// Alquileres
// ──────────────────────────────────────────────────────────────────────────────

// RentalRepo alquileres y sus líneas.
type RentalRepo struct {
	q Querier
}

// NewRentalRepository construye el adaptador de alquileres.
func NewRentalRepository(q Querier) *RentalRepo {
	return &RentalRepo{q: q}
}

const rentalColumns = `r.id, r.operation_id, r.status, r.out_date, r.expected_return_date, r.actual_return_date,
	r.guarantee_id, r.penalty_amount, r.late_fee, r.cancel_reason, r.created_at, r.updated_at`

func scanRental(row pgx.Row) (*entity.Rental, error) {
	var (
		v         entity.Rental
		guarantee *string
	)
	err := row.Scan(&v.ID, &v.OperationID, &v.Status, &v.OutDate, &v.ExpectedReturnDate, &v.ActualReturnDate,
		&guarantee, &v.PenaltyAmount, &v.LateFee, &v.CancelReason, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.GuaranteeID = derefString(guarantee)
	return &v, nil
}

func rentalLines(v *entity.Rental) []lineRecord {
	out := make([]lineRecord, len(v.Items))
	for i, it := range v.Items {
		out[i] = lineRecord{LineItem: it.LineItem, Status: it.Status, Penalty: it.PenaltyAmount}
	}
	return out
}

func (r *RentalRepo) attachItems(ctx context.Context, v *entity.Rental) error {
	lines, err := loadLines(ctx, r.q, lineOwnerRental, v.ID)
	if err != nil {
		return err
	}
	for _, l := range lines {
		v.Items = append(v.Items, &entity.RentalItem{LineItem: l.LineItem, RentalID: v.ID, Status: l.Status, PenaltyAmount: l.Penalty})
	}
	return nil
}

func (r *RentalRepo) Create(ctx context.Context, rental *entity.Rental) error {
	query := `
		INSERT INTO rentals (id, operation_id, status, out_date, expected_return_date, actual_return_date,
			guarantee_id, penalty_amount, late_fee, cancel_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query, rental.ID, rental.OperationID, rental.Status, rental.OutDate,
		rental.ExpectedReturnDate, rental.ActualReturnDate, nullString(rental.GuaranteeID),
		rental.PenaltyAmount, rental.LateFee, rental.CancelReason).Scan(&rental.CreatedAt, &rental.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create rental: %w", err)
	}
	return saveLines(ctx, r.q, lineOwnerRental, rental.ID, rentalLines(rental))
}

func (r *RentalRepo) get(ctx context.Context, where string, arg any) (*entity.Rental, error) {
	v, err := scanRental(r.q.QueryRow(ctx, `SELECT `+rentalColumns+` FROM rentals r WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rental: %w", err)
	}
	if err := r.attachItems(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *RentalRepo) GetByID(ctx context.Context, id string) (*entity.Rental, error) {
	return r.get(ctx, "r.id = $1", id)
}

func (r *RentalRepo) GetByOperationID(ctx context.Context, operationID int64) (*entity.Rental, error) {
	return r.get(ctx, "r.operation_id = $1", operationID)
}

func (r *RentalRepo) Update(ctx context.Context, rental *entity.Rental) error {
	query := `
		UPDATE rentals
		SET status = $2, expected_return_date = $3, actual_return_date = $4, guarantee_id = $5,
			penalty_amount = $6, late_fee = $7, cancel_reason = $8, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, rental.ID, rental.Status, rental.ExpectedReturnDate, rental.ActualReturnDate,
		nullString(rental.GuaranteeID), rental.PenaltyAmount, rental.LateFee, rental.CancelReason)
	if err != nil {
		return fmt.Errorf("update rental: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRentalNotFound
	}
	return saveLines(ctx, r.q, lineOwnerRental, rental.ID, rentalLines(rental))
}

// ListOverdue alquileres del tenant aún en estado alquilado con fecha esperada vencida.
func (r *RentalRepo) ListOverdue(ctx context.Context, tenantID string, now time.Time) ([]*entity.Rental, error) {
	query := `SELECT ` + rentalColumns + `
		FROM rentals r
		JOIN operations o ON o.id = r.operation_id
		WHERE o.tenant_id = $1 AND r.status = $2 AND r.expected_return_date < $3
		ORDER BY r.operation_id`
	rows, err := r.q.Query(ctx, query, tenantID, entity.RentalStatusRented, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue rentals: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Rental, error) { return scanRental(row) })
	if err != nil {
		return nil, fmt.Errorf("list overdue rentals: %w", err)
	}
	for _, v := range list {
		if err := r.attachItems(ctx, v); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Reservas
// ──────────────────────────────────────────────────────────────────────────────

// ReservationRepo reservas y sus líneas.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador de reservas.
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `r.id, r.operation_id, r.status, r.target_type, r.pickup_date, r.return_date,
	r.expires_at, r.converted_at, r.cancel_reason, r.created_at, r.updated_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var v entity.Reservation
	err := row.Scan(&v.ID, &v.OperationID, &v.Status, &v.TargetType, &v.PickupDate, &v.ReturnDate,
		&v.ExpiresAt, &v.ConvertedAt, &v.CancelReason, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func reservationLines(v *entity.Reservation) []lineRecord {
	out := make([]lineRecord, len(v.Items))
	for i, it := range v.Items {
		out[i] = lineRecord{LineItem: it.LineItem, Converted: it.Converted}
	}
	return out
}

func (r *ReservationRepo) attachItems(ctx context.Context, v *entity.Reservation) error {
	lines, err := loadLines(ctx, r.q, lineOwnerReservation, v.ID)
	if err != nil {
		return err
	}
	for _, l := range lines {
		v.Items = append(v.Items, &entity.ReservationItem{LineItem: l.LineItem, ReservationID: v.ID, Converted: l.Converted})
	}
	return nil
}

func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	query := `
		INSERT INTO reservations (id, operation_id, status, target_type, pickup_date, return_date, expires_at,
			converted_at, cancel_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query, res.ID, res.OperationID, res.Status, res.TargetType, res.PickupDate,
		res.ReturnDate, res.ExpiresAt, res.ConvertedAt, res.CancelReason).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return saveLines(ctx, r.q, lineOwnerReservation, res.ID, reservationLines(res))
}

func (r *ReservationRepo) get(ctx context.Context, where string, arg any) (*entity.Reservation, error) {
	v, err := scanReservation(r.q.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations r WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if err := r.attachItems(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	return r.get(ctx, "r.id = $1", id)
}

func (r *ReservationRepo) GetByOperationID(ctx context.Context, operationID int64) (*entity.Reservation, error) {
	return r.get(ctx, "r.operation_id = $1", operationID)
}

func (r *ReservationRepo) Update(ctx context.Context, res *entity.Reservation) error {
	query := `
		UPDATE reservations
		SET status = $2, converted_at = $3, cancel_reason = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, res.ID, res.Status, res.ConvertedAt, res.CancelReason)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return saveLines(ctx, r.q, lineOwnerReservation, res.ID, reservationLines(res))
}

// ListExpired reservas pendientes o confirmadas vencidas.
func (r *ReservationRepo) ListExpired(ctx context.Context, tenantID string, now time.Time) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations r
		JOIN operations o ON o.id = r.operation_id
		WHERE o.tenant_id = $1 AND r.status IN ($2, $3) AND r.expires_at < $4
		ORDER BY r.operation_id`
	rows, err := r.q.Query(ctx, query, tenantID, entity.ReservationStatusPending, entity.ReservationStatusConfirmed, now)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Reservation, error) { return scanReservation(row) })
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	for _, v := range list {
		if err := r.attachItems(ctx, v); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Garantías
// ──────────────────────────────────────────────────────────────────────────────

// GuaranteeRepo garantías de alquiler.
type GuaranteeRepo struct {
	q Querier
}

// NewGuaranteeRepository construye el adaptador de garantías.
func NewGuaranteeRepository(q Querier) *GuaranteeRepo {
	return &GuaranteeRepo{q: q}
}

func (r *GuaranteeRepo) AddGuarantee(ctx context.Context, g *entity.Guarantee) error {
	query := `
		INSERT INTO guarantees (id, operation_id, client_id, type, amount, description, status, retained_amount, released_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING created_at`
	err := r.q.QueryRow(ctx, query, g.ID, g.OperationID, nullString(g.ClientID), g.Type, g.Amount, g.Description,
		g.Status, g.RetainedAmount, g.ReleasedAt).Scan(&g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create guarantee: %w", err)
	}
	return nil
}

func (r *GuaranteeRepo) GetByID(ctx context.Context, id string) (*entity.Guarantee, error) {
	query := `
		SELECT id, operation_id, client_id, type, amount, description, status, retained_amount, released_at, created_at
		FROM guarantees WHERE id = $1`
	var (
		g      entity.Guarantee
		client *string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&g.ID, &g.OperationID, &client, &g.Type, &g.Amount, &g.Description,
		&g.Status, &g.RetainedAmount, &g.ReleasedAt, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get guarantee: %w", err)
	}
	g.ClientID = derefString(client)
	return &g, nil
}

func (r *GuaranteeRepo) Update(ctx context.Context, g *entity.Guarantee) error {
	query := `UPDATE guarantees SET status = $2, retained_amount = $3, released_at = $4 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, g.ID, g.Status, g.RetainedAmount, g.ReleasedAt)
	if err != nil {
		return fmt.Errorf("update guarantee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGuaranteeNotFound
	}
	return nil
}
