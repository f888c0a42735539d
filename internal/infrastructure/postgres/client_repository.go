package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/repository"
)

var (
	_ repository.ClientRepository       = (*ClientRepo)(nil)
	_ repository.ClientCreditRepository = (*ClientCreditRepo)(nil)
	_ repository.LoyaltyRepository      = (*LoyaltyRepo)(nil)
	_ repository.ReferralRepository     = (*ReferralRepo)(nil)
)

// ClientRepo clientes y su snapshot de saldos.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador de clientes.
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

func (r *ClientRepo) get(ctx context.Context, id, suffix string) (*entity.Client, error) {
	query := `
		SELECT id, tenant_id, name, email, phone, credit_balance, loyalty_points, referred_by, created_at, updated_at
		FROM clients WHERE id = $1` + suffix
	var (
		c                        entity.Client
		email, phone, referredBy *string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&c.ID, &c.TenantID, &c.Name, &email, &phone, &c.CreditBalance,
		&c.LoyaltyPoints, &referredBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	c.Email = derefString(email)
	c.Phone = derefString(phone)
	c.ReferredBy = derefString(referredBy)
	return &c, nil
}

func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	return r.get(ctx, id, "")
}

func (r *ClientRepo) GetForUpdate(ctx context.Context, id string) (*entity.Client, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *ClientRepo) UpdateBalances(ctx context.Context, clientID string, credit decimal.Decimal, points int64) error {
	query := `UPDATE clients SET credit_balance = $2, loyalty_points = $3, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, clientID, credit, points)
	if err != nil {
		return fmt.Errorf("update client balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepo) ListIDsByTenant(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM clients WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ClientCreditRepo libro de billetera (solo inserciones).
type ClientCreditRepo struct {
	q Querier
}

// NewClientCreditRepository construye el adaptador del libro de billetera.
func NewClientCreditRepository(q Querier) *ClientCreditRepo {
	return &ClientCreditRepo{q: q}
}

func (r *ClientCreditRepo) AddEntry(ctx context.Context, e *entity.ClientCreditEntry) error {
	query := `
		INSERT INTO client_credit_entries (id, client_id, operation_id, amount, reason, created_at)
		VALUES ($1, $2, NULLIF($3::bigint, 0), $4, $5, now())
		RETURNING created_at`
	if err := r.q.QueryRow(ctx, query, e.ID, e.ClientID, e.OperationID, e.Amount, e.Reason).Scan(&e.CreatedAt); err != nil {
		return fmt.Errorf("add credit entry: %w", err)
	}
	return nil
}

func (r *ClientCreditRepo) ListByClient(ctx context.Context, clientID string) ([]*entity.ClientCreditEntry, error) {
	query := `
		SELECT id, client_id, COALESCE(operation_id, 0), amount, reason, created_at
		FROM client_credit_entries WHERE client_id = $1
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list credit entries: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.ClientCreditEntry, error) {
		var e entity.ClientCreditEntry
		err := row.Scan(&e.ID, &e.ClientID, &e.OperationID, &e.Amount, &e.Reason, &e.CreatedAt)
		return &e, err
	})
}

func (r *ClientCreditRepo) SumByClient(ctx context.Context, clientID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM client_credit_entries WHERE client_id = $1`, clientID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum credit entries: %w", err)
	}
	return sum, nil
}

// LoyaltyRepo libro de puntos (solo inserciones).
type LoyaltyRepo struct {
	q Querier
}

// NewLoyaltyRepository construye el adaptador del libro de puntos.
func NewLoyaltyRepository(q Querier) *LoyaltyRepo {
	return &LoyaltyRepo{q: q}
}

func (r *LoyaltyRepo) AddEntry(ctx context.Context, e *entity.LoyaltyEntry) error {
	query := `
		INSERT INTO loyalty_entries (id, client_id, operation_id, points, reason, created_at)
		VALUES ($1, $2, NULLIF($3::bigint, 0), $4, $5, now())
		RETURNING created_at`
	if err := r.q.QueryRow(ctx, query, e.ID, e.ClientID, e.OperationID, e.Points, e.Reason).Scan(&e.CreatedAt); err != nil {
		return fmt.Errorf("add loyalty entry: %w", err)
	}
	return nil
}

func (r *LoyaltyRepo) SumByClient(ctx context.Context, clientID string) (int64, error) {
	var sum int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(points), 0)::bigint FROM loyalty_entries WHERE client_id = $1`, clientID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum loyalty entries: %w", err)
	}
	return sum, nil
}

func (r *LoyaltyRepo) SumByOperation(ctx context.Context, clientID string, operationID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(points), 0)::bigint FROM loyalty_entries WHERE client_id = $1 AND operation_id = $2`
	var sum int64
	if err := r.q.QueryRow(ctx, query, clientID, operationID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum loyalty by operation: %w", err)
	}
	return sum, nil
}

// ReferralRepo referidos entre clientes.
type ReferralRepo struct {
	q Querier
}

// NewReferralRepository construye el adaptador de referidos.
func NewReferralRepository(q Querier) *ReferralRepo {
	return &ReferralRepo{q: q}
}

// GetPendingByReferred el referido pendiente más antiguo, bloqueado; (nil, nil) si no hay.
func (r *ReferralRepo) GetPendingByReferred(ctx context.Context, referredClientID string) (*entity.Referral, error) {
	query := `
		SELECT id, tenant_id, referrer_client_id, referred_client_id, status, reward_amount,
			COALESCE(operation_id, 0), rewarded_at, created_at
		FROM referrals
		WHERE referred_client_id = $1 AND status = $2
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE`
	var ref entity.Referral
	err := r.q.QueryRow(ctx, query, referredClientID, entity.ReferralStatusPending).Scan(&ref.ID, &ref.TenantID,
		&ref.ReferrerClientID, &ref.ReferredClientID, &ref.Status, &ref.RewardAmount, &ref.OperationID,
		&ref.RewardedAt, &ref.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending referral: %w", err)
	}
	return &ref, nil
}

func (r *ReferralRepo) Update(ctx context.Context, ref *entity.Referral) error {
	query := `
		UPDATE referrals SET status = $2, reward_amount = $3, operation_id = NULLIF($4::bigint, 0), rewarded_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, ref.ID, ref.Status, ref.RewardAmount, ref.OperationID, ref.RewardedAt)
	if err != nil {
		return fmt.Errorf("update referral: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
