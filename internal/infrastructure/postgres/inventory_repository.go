package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo unidades serializadas (inventory_items) y lotes por cantidad (stock_lots).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador de inventario. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// stockFilter filtros opcionales: cadena vacía no filtra.
const stockFilter = `
	($1 = '' OR tenant_id = $1)
	AND ($2 = '' OR product_id = $2)
	AND ($3 = '' OR branch_id = $3)
	AND ($4 = '' OR size = $4)
	AND ($5 = '' OR color = $5)
	AND ($6 = '' OR status = $6)`

func stockArgs(q repository.StockQuery) []any {
	return []any{q.TenantID, q.ProductID, q.BranchID, q.Variant.Size, q.Variant.Color, string(q.Status)}
}

const itemColumns = `id, tenant_id, product_id, branch_id, serial_number, size, color, status, version, created_at, updated_at`

func scanItem(row pgx.Row) (*entity.InventoryItem, error) {
	var (
		it     entity.InventoryItem
		serial *string
	)
	err := row.Scan(&it.ID, &it.TenantID, &it.ProductID, &it.BranchID, &serial, &it.Variant.Size, &it.Variant.Color,
		&it.Status, &it.Version, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.SerialNumber = derefString(serial)
	return &it, nil
}

func (r *InventoryRepo) CreateItem(ctx context.Context, item *entity.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (id, tenant_id, product_id, branch_id, serial_number, size, color, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, now(), now())
		RETURNING version, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, item.ID, item.TenantID, item.ProductID, item.BranchID, nullString(item.SerialNumber),
		item.Variant.Size, item.Variant.Color, item.Status).Scan(&item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: la unidad %s ya existe", domain.ErrInvalidInput, item.ID)
		}
		return fmt.Errorf("create inventory item: %w", err)
	}
	return nil
}

func (r *InventoryRepo) getItem(ctx context.Context, id, suffix string) (*entity.InventoryItem, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`+suffix, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return it, nil
}

func (r *InventoryRepo) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.getItem(ctx, id, "")
}

func (r *InventoryRepo) GetItemForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.getItem(ctx, id, " FOR UPDATE")
}

func (r *InventoryRepo) UpdateItemStatus(ctx context.Context, id string, status entity.ItemStatus, expectedVersion int64) error {
	query := `
		UPDATE inventory_items SET status = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query, id, expectedVersion, status)
	return expectOne(tag, err, "update inventory item")
}

// FindItems limit 0 = sin límite.
func (r *InventoryRepo) FindItems(ctx context.Context, q repository.StockQuery, limit int) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE ` + stockFilter + `
		ORDER BY created_at, id
		LIMIT NULLIF($7, 0)`
	rows, err := r.q.Query(ctx, query, append(stockArgs(q), limit)...)
	if err != nil {
		return nil, fmt.Errorf("find inventory items: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.InventoryItem, error) { return scanItem(row) })
}

const lotColumns = `id, tenant_id, product_id, branch_id, size, color, status, quantity, version, created_at, updated_at`

func scanLot(row pgx.Row) (*entity.StockLot, error) {
	var l entity.StockLot
	err := row.Scan(&l.ID, &l.TenantID, &l.ProductID, &l.BranchID, &l.Variant.Size, &l.Variant.Color,
		&l.Status, &l.Quantity, &l.Version, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *InventoryRepo) CreateLot(ctx context.Context, lot *entity.StockLot) error {
	query := `
		INSERT INTO stock_lots (id, tenant_id, product_id, branch_id, size, color, status, quantity, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, COALESCE($9, now()), now())
		RETURNING version, created_at, updated_at`
	var createdAt any
	if !lot.CreatedAt.IsZero() {
		createdAt = lot.CreatedAt
	}
	err := r.q.QueryRow(ctx, query, lot.ID, lot.TenantID, lot.ProductID, lot.BranchID, lot.Variant.Size, lot.Variant.Color,
		lot.Status, lot.Quantity, createdAt).Scan(&lot.Version, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("%w: el lote %s ya existe", domain.ErrInvalidInput, lot.ID)
		case isCheckViolation(err):
			return domain.ErrNegativeQuantity
		}
		return fmt.Errorf("create stock lot: %w", err)
	}
	return nil
}

func (r *InventoryRepo) getLot(ctx context.Context, id, suffix string) (*entity.StockLot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM stock_lots WHERE id = $1`+suffix, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stock lot: %w", err)
	}
	return l, nil
}

func (r *InventoryRepo) GetLot(ctx context.Context, id string) (*entity.StockLot, error) {
	return r.getLot(ctx, id, "")
}

func (r *InventoryRepo) GetLotForUpdate(ctx context.Context, id string) (*entity.StockLot, error) {
	return r.getLot(ctx, id, " FOR UPDATE")
}

func (r *InventoryRepo) UpdateLotQuantity(ctx context.Context, id string, quantity int, expectedVersion int64) error {
	if quantity < 0 {
		return domain.ErrNegativeQuantity
	}
	query := `
		UPDATE stock_lots SET quantity = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query, id, expectedVersion, quantity)
	if err != nil && isCheckViolation(err) {
		return domain.ErrNegativeQuantity
	}
	return expectOne(tag, err, "update stock lot")
}

// ListLotsForUpdate orden FIFO; las filas quedan bloqueadas hasta el fin de la transacción.
func (r *InventoryRepo) ListLotsForUpdate(ctx context.Context, q repository.StockQuery) ([]*entity.StockLot, error) {
	query := `SELECT ` + lotColumns + ` FROM stock_lots WHERE ` + stockFilter + `
		ORDER BY created_at, id
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, stockArgs(q)...)
	if err != nil {
		return nil, fmt.Errorf("list stock lots: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.StockLot, error) { return scanLot(row) })
}

func (r *InventoryRepo) IsSerial(ctx context.Context, stockID string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM inventory_items WHERE id = $1),
		       EXISTS (SELECT 1 FROM stock_lots WHERE id = $1)`
	var item, lot bool
	if err := r.q.QueryRow(ctx, query, stockID).Scan(&item, &lot); err != nil {
		return false, fmt.Errorf("resolve stock id: %w", err)
	}
	switch {
	case item:
		return true, nil
	case lot:
		return false, nil
	}
	return false, domain.ErrStockNotFound
}
