package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/repository"
)

type inventoryRepo struct{ s *Store }

func matchStock(q repository.StockQuery, tenantID, productID, branchID string, v entity.Variant, status entity.ItemStatus) bool {
	if q.TenantID != "" && q.TenantID != tenantID {
		return false
	}
	if q.ProductID != "" && q.ProductID != productID {
		return false
	}
	if q.BranchID != "" && q.BranchID != branchID {
		return false
	}
	if q.Variant.Size != "" && q.Variant.Size != v.Size {
		return false
	}
	if q.Variant.Color != "" && q.Variant.Color != v.Color {
		return false
	}
	return q.Status == "" || q.Status == status
}

func (r *inventoryRepo) CreateItem(_ context.Context, item *entity.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.items[item.ID]; ok {
		return domain.ErrInvalidInput
	}
	if item.Version == 0 {
		item.Version = 1
	}
	r.s.data.items[item.ID] = *item
	return nil
}

func (r *inventoryRepo) GetItem(_ context.Context, id string) (*entity.InventoryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.data.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r *inventoryRepo) GetItemForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.GetItem(ctx, id)
}

func (r *inventoryRepo) UpdateItemStatus(_ context.Context, id string, status entity.ItemStatus, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.data.items[id]
	if !ok {
		return domain.ErrStockNotFound
	}
	if it.Version != expectedVersion {
		return domain.ErrConcurrentUpdate
	}
	it.Status = status
	it.Version++
	r.s.data.items[id] = it
	return nil
}

func (r *inventoryRepo) FindItems(_ context.Context, q repository.StockQuery, limit int) ([]*entity.InventoryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.InventoryItem
	for _, it := range r.s.data.items {
		if matchStock(q, it.TenantID, it.ProductID, it.BranchID, it.Variant, it.Status) {
			cp := it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *inventoryRepo) CreateLot(_ context.Context, lot *entity.StockLot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.lots[lot.ID]; ok {
		return domain.ErrInvalidInput
	}
	if lot.Version == 0 {
		lot.Version = 1
	}
	r.s.data.lots[lot.ID] = *lot
	return nil
}

func (r *inventoryRepo) GetLot(_ context.Context, id string) (*entity.StockLot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.data.lots[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *inventoryRepo) GetLotForUpdate(ctx context.Context, id string) (*entity.StockLot, error) {
	return r.GetLot(ctx, id)
}

func (r *inventoryRepo) UpdateLotQuantity(_ context.Context, id string, quantity int, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.data.lots[id]
	if !ok {
		return domain.ErrStockNotFound
	}
	if l.Version != expectedVersion {
		return domain.ErrConcurrentUpdate
	}
	if quantity < 0 {
		return domain.ErrNegativeQuantity
	}
	l.Quantity = quantity
	l.Version++
	r.s.data.lots[id] = l
	return nil
}

func (r *inventoryRepo) ListLotsForUpdate(_ context.Context, q repository.StockQuery) ([]*entity.StockLot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.StockLot
	for _, l := range r.s.data.lots {
		if matchStock(q, l.TenantID, l.ProductID, l.BranchID, l.Variant, l.Status) {
			cp := l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *inventoryRepo) IsSerial(_ context.Context, stockID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.data.items[stockID]; ok {
		return true, nil
	}
	if _, ok := r.s.data.lots[stockID]; ok {
		return false, nil
	}
	return false, domain.ErrStockNotFound
}
