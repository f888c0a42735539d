package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// Tipos de detalle dueños de líneas en operation_lines.
const (
	lineOwnerSale        = "sale"
	lineOwnerRental      = "rental"
	lineOwnerReservation = "reservation"
)

// allocationJSON forma persistida en la columna allocations (jsonb).
type allocationJSON struct {
	StockID  string `json:"stock_id"`
	Serial   bool   `json:"serial"`
	Quantity int    `json:"quantity"`
}

func toAllocationJSON(in []entity.StockAllocation) []allocationJSON {
	out := make([]allocationJSON, len(in))
	for i, a := range in {
		out[i] = allocationJSON{StockID: a.StockID, Serial: a.Serial, Quantity: a.Quantity}
	}
	return out
}

func fromAllocationJSON(in []allocationJSON) []entity.StockAllocation {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity.StockAllocation, len(in))
	for i, a := range in {
		out[i] = entity.StockAllocation{StockID: a.StockID, Serial: a.Serial, Quantity: a.Quantity}
	}
	return out
}

// lineRecord una fila de operation_lines con los campos propios de cada detalle.
type lineRecord struct {
	entity.LineItem
	Returned  int
	Status    string
	Penalty   decimal.Decimal
	Converted bool
}

// saveLines inserta o actualiza las líneas del detalle; el orden de la slice se conserva en position.
func saveLines(ctx context.Context, q Querier, owner, detailID string, lines []lineRecord) error {
	query := `
		INSERT INTO operation_lines (id, detail_type, detail_id, position, product_id, product_name, stock_id, serial,
			quantity, price_at_moment, list_price, discount_amount, discount_reason, line_total, bundle_id,
			allocations, returned, status, penalty_amount, converted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			stock_id = EXCLUDED.stock_id,
			allocations = EXCLUDED.allocations,
			returned = EXCLUDED.returned,
			status = EXCLUDED.status,
			penalty_amount = EXCLUDED.penalty_amount,
			converted = EXCLUDED.converted`
	for i, l := range lines {
		_, err := q.Exec(ctx, query,
			l.ID, owner, detailID, i, l.ProductID, l.ProductName, nullString(l.StockID), l.Serial,
			l.Quantity, l.PriceAtMoment, l.ListPrice, l.DiscountAmount, l.DiscountReason, l.LineTotal, nullString(l.BundleID),
			toAllocationJSON(l.Allocations), l.Returned, l.Status, l.Penalty, l.Converted,
		)
		if err != nil {
			return fmt.Errorf("save %s line %s: %w", owner, l.ID, err)
		}
	}
	return nil
}

// loadLines líneas de un detalle en su orden original.
func loadLines(ctx context.Context, q Querier, owner, detailID string) ([]lineRecord, error) {
	query := `
		SELECT id, product_id, product_name, stock_id, serial, quantity, price_at_moment, list_price,
			discount_amount, discount_reason, line_total, bundle_id, allocations, returned, status, penalty_amount, converted
		FROM operation_lines
		WHERE detail_type = $1 AND detail_id = $2
		ORDER BY position`
	rows, err := q.Query(ctx, query, owner, detailID)
	if err != nil {
		return nil, fmt.Errorf("load %s lines: %w", owner, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (lineRecord, error) {
		var (
			l                 lineRecord
			stockID, bundleID *string
			allocs            []allocationJSON
		)
		err := row.Scan(&l.ID, &l.ProductID, &l.ProductName, &stockID, &l.Serial, &l.Quantity, &l.PriceAtMoment,
			&l.ListPrice, &l.DiscountAmount, &l.DiscountReason, &l.LineTotal, &bundleID, &allocs,
			&l.Returned, &l.Status, &l.Penalty, &l.Converted)
		l.StockID = derefString(stockID)
		l.BundleID = derefString(bundleID)
		l.Allocations = fromAllocationJSON(allocs)
		return l, err
	})
}
