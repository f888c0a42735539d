package inventory

import (
	"sort"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// LotSlice porción de la demanda asignada a un lote.
type LotSlice struct {
	LotID    string
	Quantity int
}

// SortFIFO ordena lotes por fecha de creación (y luego id para estabilidad).
func SortFIFO(lots []*entity.StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].CreatedAt.Equal(lots[j].CreatedAt) {
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		}
		return lots[i].ID < lots[j].ID
	})
}

// PlanFIFO reparte demand entre los lotes en orden de creación hasta cubrirla.
// Nunca cumple parcialmente: si el total no alcanza devuelve InsufficientStockError.
func PlanFIFO(productID, productName string, lots []*entity.StockLot, demand int) ([]LotSlice, error) {
	if demand <= 0 {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	ordered := make([]*entity.StockLot, 0, len(lots))
	available := 0
	for _, l := range lots {
		if l == nil || l.Quantity <= 0 {
			continue
		}
		ordered = append(ordered, l)
		available += l.Quantity
	}
	if available < demand {
		return nil, &domain.InsufficientStockError{
			ProductID: productID, ProductName: productName, Required: demand, Available: available,
		}
	}
	SortFIFO(ordered)

	remaining := demand
	plan := make([]LotSlice, 0, len(ordered))
	for _, l := range ordered {
		if remaining == 0 {
			break
		}
		take := l.Quantity
		if take > remaining {
			take = remaining
		}
		plan = append(plan, LotSlice{LotID: l.ID, Quantity: take})
		remaining -= take
	}
	return plan, nil
}
