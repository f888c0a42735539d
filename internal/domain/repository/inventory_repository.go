package repository

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// StockQuery filtro para buscar stock disponible de un producto.
type StockQuery struct {
	TenantID  string
	ProductID string
	BranchID  string
	Variant   entity.Variant
	Status    entity.ItemStatus
}

// InventoryRepository dos almacenes lineales: unidades serializadas y lotes por cantidad.
// Los métodos ForUpdate bloquean filas; los Update aplican compare-and-swap sobre Version.
type InventoryRepository interface {
	CreateItem(ctx context.Context, item *entity.InventoryItem) error
	GetItem(ctx context.Context, id string) (*entity.InventoryItem, error)
	GetItemForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error)
	// UpdateItemStatus cambia el estado si Version coincide con expectedVersion.
	UpdateItemStatus(ctx context.Context, id string, status entity.ItemStatus, expectedVersion int64) error
	// FindItems unidades en el estado pedido ordenadas por antigüedad.
	FindItems(ctx context.Context, q StockQuery, limit int) ([]*entity.InventoryItem, error)

	CreateLot(ctx context.Context, lot *entity.StockLot) error
	GetLot(ctx context.Context, id string) (*entity.StockLot, error)
	GetLotForUpdate(ctx context.Context, id string) (*entity.StockLot, error)
	// UpdateLotQuantity fija la cantidad si Version coincide con expectedVersion.
	UpdateLotQuantity(ctx context.Context, id string, quantity int, expectedVersion int64) error
	// ListLotsForUpdate lotes que cumplen el filtro, ordenados por CreatedAt (FIFO) y bloqueados.
	ListLotsForUpdate(ctx context.Context, q StockQuery) ([]*entity.StockLot, error)

	// IsSerial indica a qué almacén pertenece un id de stock; ErrStockNotFound si no existe en ninguno.
	IsSerial(ctx context.Context, stockID string) (bool, error)
}
