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
	_ repository.OperationRepository = (*OperationRepo)(nil)
	_ repository.PaymentRepository   = (*PaymentRepo)(nil)
)

// OperationRepo implementación de OperationRepository sobre PostgreSQL (usable con pool o tx).
type OperationRepo struct {
	q Querier
}

// NewOperationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOperationRepository(q Querier) *OperationRepo {
	return &OperationRepo{q: q}
}

const operationColumns = `id, reference_code, tenant_id, type, status, payment_status, total_amount,
	branch_id, seller_id, client_id, date, notes, version, created_at, updated_at`

func scanOperation(row pgx.Row) (*entity.Operation, error) {
	var (
		op                         entity.Operation
		branchID, sellerID, client *string
	)
	err := row.Scan(
		&op.ID, &op.ReferenceCode, &op.TenantID, &op.Type, &op.Status, &op.PaymentStatus, &op.TotalAmount,
		&branchID, &sellerID, &client, &op.Date, &op.Notes, &op.Version, &op.CreatedAt, &op.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	op.BranchID = derefString(branchID)
	op.SellerID = derefString(sellerID)
	op.ClientID = derefString(client)
	return &op, nil
}

// Create inserta la operación y asigna ID y Version.
func (r *OperationRepo) Create(ctx context.Context, op *entity.Operation) error {
	query := `
		INSERT INTO operations (reference_code, tenant_id, type, status, payment_status, total_amount,
			branch_id, seller_id, client_id, date, notes, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, now(), now())
		RETURNING id, version, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		op.ReferenceCode, op.TenantID, op.Type, op.Status, op.PaymentStatus, op.TotalAmount,
		nullString(op.BranchID), nullString(op.SellerID), nullString(op.ClientID), op.Date, op.Notes,
	).Scan(&op.ID, &op.Version, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create operation: código de referencia duplicado %s: %w", op.ReferenceCode, err)
		}
		return fmt.Errorf("create operation: %w", err)
	}
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *OperationRepo) GetByID(ctx context.Context, id int64) (*entity.Operation, error) {
	op, err := scanOperation(r.q.QueryRow(ctx, `SELECT `+operationColumns+` FROM operations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get operation: %w", err)
	}
	return op, nil
}

// GetForUpdate bloquea la fila hasta el fin de la transacción.
func (r *OperationRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Operation, error) {
	op, err := scanOperation(r.q.QueryRow(ctx, `SELECT `+operationColumns+` FROM operations WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get operation for update: %w", err)
	}
	return op, nil
}

// Update persiste estado y total con compare-and-swap sobre version.
func (r *OperationRepo) Update(ctx context.Context, op *entity.Operation) error {
	query := `
		UPDATE operations
		SET type = $3, status = $4, payment_status = $5, total_amount = $6, notes = $7,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query, op.ID, op.Version, op.Type, op.Status, op.PaymentStatus, op.TotalAmount, op.Notes)
	if err := expectOne(tag, err, "update operation"); err != nil {
		return err
	}
	op.Version++
	return nil
}

// NextDailySequence incrementa el contador (tenant, tipo, día) con upsert atómico.
func (r *OperationRepo) NextDailySequence(ctx context.Context, tenantID string, t entity.OperationType, day time.Time) (int, error) {
	query := `
		INSERT INTO operation_daily_sequences (tenant_id, type, day, last_seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (tenant_id, type, day)
		DO UPDATE SET last_seq = operation_daily_sequences.last_seq + 1
		RETURNING last_seq`
	var seq int
	if err := r.q.QueryRow(ctx, query, tenantID, t, day.Format("2006-01-02")).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next daily sequence: %w", err)
	}
	return seq, nil
}

// ListByClient operaciones del cliente, más recientes primero. limit 0 = sin límite.
func (r *OperationRepo) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*entity.Operation, error) {
	query := `SELECT ` + operationColumns + `
		FROM operations WHERE client_id = $1
		ORDER BY id DESC
		LIMIT NULLIF($2, 0) OFFSET $3`
	rows, err := r.q.Query(ctx, query, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list operations by client: %w", err)
	}
	defer rows.Close()

	list := []*entity.Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, op)
	}
	return list, rows.Err()
}

// PaymentRepo libro de pagos; solo inserta y lee.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador de pagos.
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create inserta el asiento; sequence lo asigna la base.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (id, operation_id, amount, direction, category, status, date, method, reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING sequence, created_at`
	err := r.q.QueryRow(ctx, query,
		p.ID, p.OperationID, p.Amount, p.Direction, p.Category, p.Status, p.Date, p.Method, p.Reference, p.CreatedBy,
	).Scan(&p.Sequence, &p.CreatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("create payment: monto o categoría inválidos: %w", err)
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// MarkPosted pending -> posted; cualquier otro estado no se toca.
func (r *PaymentRepo) MarkPosted(ctx context.Context, paymentID string) error {
	query := `UPDATE payments SET status = 'posted' WHERE id = $1 AND status = 'pending'`
	tag, err := r.q.Exec(ctx, query, paymentID)
	if err != nil {
		return fmt.Errorf("post payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotPending
	}
	return nil
}

// GetPaymentsByOperationID asientos ordenados por fecha y orden de inserción.
func (r *PaymentRepo) GetPaymentsByOperationID(ctx context.Context, operationID int64) ([]*entity.Payment, error) {
	query := `
		SELECT id, operation_id, sequence, amount, direction, category, status, date, method, reference, created_by, created_at
		FROM payments WHERE operation_id = $1
		ORDER BY date, sequence`
	rows, err := r.q.Query(ctx, query, operationID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Payment, error) {
		var p entity.Payment
		err := row.Scan(&p.ID, &p.OperationID, &p.Sequence, &p.Amount, &p.Direction, &p.Category, &p.Status,
			&p.Date, &p.Method, &p.Reference, &p.CreatedBy, &p.CreatedAt)
		return &p, err
	})
}
