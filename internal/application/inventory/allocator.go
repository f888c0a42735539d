package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	rules "github.com/jhoicas/Alquiler-api/internal/domain/inventory"
	"github.com/jhoicas/Alquiler-api/internal/domain/repository"
)

// Allocator mueve stock físico dentro de la unidad de trabajo del llamador.
// Unidades serializadas cambian de estado; lotes cambian de cantidad. Nunca ambas cosas.
type Allocator struct {
	repo repository.InventoryRepository
}

// NewAllocator construye el asignador sobre el repositorio de la transacción en curso.
func NewAllocator(repo repository.InventoryRepository) *Allocator {
	return &Allocator{repo: repo}
}

// Request pedido de stock para una línea.
// StockID fija una unidad o lote concreto; vacío = elegir por producto/variante/sucursal.
type Request struct {
	TenantID    string
	ProductID   string
	ProductName string
	BranchID    string
	Variant     entity.Variant
	Serialized  bool
	Quantity    int
	StockID     string
	Target      entity.ItemStatus // estado destino de unidades serializadas
}

// IsSerial indica si el id corresponde a una unidad serializada (true) o a un lote (false).
func (a *Allocator) IsSerial(ctx context.Context, stockID string) (bool, error) {
	return a.repo.IsSerial(ctx, stockID)
}

// UpdateItemStatus cambia el estado de una unidad serializada. Mismo estado = no-op.
func (a *Allocator) UpdateItemStatus(ctx context.Context, itemID string, status entity.ItemStatus) error {
	item, err := a.repo.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrStockNotFound
	}
	if item.Status == status {
		return nil
	}
	if err := rules.CheckTransition(item.ID, item.Status, status); err != nil {
		return err
	}
	return a.repo.UpdateItemStatus(ctx, item.ID, status, item.Version)
}

// DecreaseLotQuantity resta amount del lote; nunca deja cantidad negativa.
func (a *Allocator) DecreaseLotQuantity(ctx context.Context, lotID string, amount int) error {
	lot, err := a.lotForUpdate(ctx, lotID)
	if err != nil {
		return err
	}
	qty, err := rules.DecreaseQuantity(lot.ID, lot.Quantity, amount)
	if err != nil {
		return err
	}
	return a.repo.UpdateLotQuantity(ctx, lot.ID, qty, lot.Version)
}

// IncreaseLotQuantity suma amount al lote.
func (a *Allocator) IncreaseLotQuantity(ctx context.Context, lotID string, amount int) error {
	lot, err := a.lotForUpdate(ctx, lotID)
	if err != nil {
		return err
	}
	qty, err := rules.IncreaseQuantity(lot.Quantity, amount)
	if err != nil {
		return err
	}
	return a.repo.UpdateLotQuantity(ctx, lot.ID, qty, lot.Version)
}

func (a *Allocator) lotForUpdate(ctx context.Context, lotID string) (*entity.StockLot, error) {
	lot, err := a.repo.GetLotForUpdate(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrStockNotFound
	}
	return lot, nil
}

// Allocate asigna stock a una línea y devuelve lo tomado.
// Serializado: cada unidad pasa a req.Target. Lotes: FIFO por antigüedad, resta cantidad.
// Si no alcanza devuelve InsufficientStockError sin tocar nada.
func (a *Allocator) Allocate(ctx context.Context, req Request) ([]entity.StockAllocation, error) {
	if req.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if req.StockID != "" {
		return a.allocateExplicit(ctx, req)
	}
	q := repository.StockQuery{
		TenantID:  req.TenantID,
		ProductID: req.ProductID,
		BranchID:  req.BranchID,
		Variant:   req.Variant,
		Status:    entity.ItemStatusAvailable,
	}
	if req.Serialized {
		items, err := a.repo.FindItems(ctx, q, req.Quantity)
		if err != nil {
			return nil, err
		}
		if len(items) < req.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID: req.ProductID, ProductName: req.ProductName, Required: req.Quantity, Available: len(items),
			}
		}
		allocs := make([]entity.StockAllocation, 0, req.Quantity)
		for _, it := range items[:req.Quantity] {
			if err := a.UpdateItemStatus(ctx, it.ID, req.Target); err != nil {
				return nil, err
			}
			allocs = append(allocs, entity.StockAllocation{StockID: it.ID, Serial: true, Quantity: 1})
		}
		return allocs, nil
	}

	lots, err := a.repo.ListLotsForUpdate(ctx, q)
	if err != nil {
		return nil, err
	}
	plan, err := rules.PlanFIFO(req.ProductID, req.ProductName, lots, req.Quantity)
	if err != nil {
		return nil, err
	}
	allocs := make([]entity.StockAllocation, 0, len(plan))
	for _, s := range plan {
		if err := a.DecreaseLotQuantity(ctx, s.LotID, s.Quantity); err != nil {
			return nil, err
		}
		allocs = append(allocs, entity.StockAllocation{StockID: s.LotID, Quantity: s.Quantity})
	}
	return allocs, nil
}

func (a *Allocator) allocateExplicit(ctx context.Context, req Request) ([]entity.StockAllocation, error) {
	serial, err := a.repo.IsSerial(ctx, req.StockID)
	if err != nil {
		return nil, err
	}
	if serial {
		if req.Quantity != 1 {
			return nil, domain.NewValidationError("quantity", "una unidad serializada se asigna de a una")
		}
		item, err := a.repo.GetItem(ctx, req.StockID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.ErrStockNotFound
		}
		if item.ProductID != req.ProductID {
			return nil, domain.ConsistencyError("la unidad %s no pertenece al producto %s", item.ID, req.ProductID)
		}
		if item.Status != entity.ItemStatusAvailable {
			return nil, &domain.InsufficientStockError{
				ProductID: req.ProductID, ProductName: req.ProductName, Required: 1, Available: 0,
			}
		}
		if err := a.UpdateItemStatus(ctx, item.ID, req.Target); err != nil {
			return nil, err
		}
		return []entity.StockAllocation{{StockID: item.ID, Serial: true, Quantity: 1}}, nil
	}

	lot, err := a.lotForUpdate(ctx, req.StockID)
	if err != nil {
		return nil, err
	}
	if lot.ProductID != req.ProductID {
		return nil, domain.ConsistencyError("el lote %s no pertenece al producto %s", lot.ID, req.ProductID)
	}
	if lot.Quantity < req.Quantity {
		return nil, &domain.InsufficientStockError{
			ProductID: req.ProductID, ProductName: req.ProductName, Required: req.Quantity, Available: lot.Quantity,
		}
	}
	if err := a.DecreaseLotQuantity(ctx, lot.ID, req.Quantity); err != nil {
		return nil, err
	}
	return []entity.StockAllocation{{StockID: lot.ID, Quantity: req.Quantity}}, nil
}

// Transition mueve las unidades serializadas asignadas a otro estado; los lotes no cambian.
func (a *Allocator) Transition(ctx context.Context, allocs []entity.StockAllocation, to entity.ItemStatus) error {
	for _, al := range allocs {
		if !al.Serial {
			continue
		}
		if err := a.UpdateItemStatus(ctx, al.StockID, to); err != nil {
			return err
		}
	}
	return nil
}

// Release devuelve el stock asignado a disponible: unidades cambian de estado y lotes recuperan cantidad.
func (a *Allocator) Release(ctx context.Context, allocs []entity.StockAllocation) error {
	for _, al := range allocs {
		var err error
		if al.Serial {
			err = a.UpdateItemStatus(ctx, al.StockID, entity.ItemStatusAvailable)
		} else {
			err = a.IncreaseLotQuantity(ctx, al.StockID, al.Quantity)
		}
		if err != nil {
			return fmt.Errorf("liberar stock %s: %w", al.StockID, err)
		}
	}
	return nil
}

// Return enruta el stock devuelto según la condición declarada.
// Serializado: pasa por devuelto y luego al destino de la condición. Lotes: solo ok reintegra cantidad.
func (a *Allocator) Return(ctx context.Context, allocs []entity.StockAllocation, cond rules.ReturnCondition, cleaning bool) error {
	if !cond.Valid() {
		return domain.NewValidationError("condition", fmt.Sprintf("condición desconocida %q", cond))
	}
	target := rules.ReturnTarget(cond, cleaning)
	for _, al := range allocs {
		if al.Serial {
			if err := a.UpdateItemStatus(ctx, al.StockID, entity.ItemStatusReturned); err != nil {
				return err
			}
			if err := a.UpdateItemStatus(ctx, al.StockID, target); err != nil {
				return err
			}
			continue
		}
		if rules.RestoresLotQuantity(cond) {
			if err := a.IncreaseLotQuantity(ctx, al.StockID, al.Quantity); err != nil {
				return err
			}
		}
	}
	return nil
}
