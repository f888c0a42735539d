package entity

import "time"

// ItemStatus vocabulario de estados de stock (unidades serializadas y lotes).
type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "disponible"
	ItemStatusReserved    ItemStatus = "reservado"
	ItemStatusRented      ItemStatus = "alquilado"
	ItemStatusSold        ItemStatus = "vendido"
	ItemStatusReturned    ItemStatus = "devuelto"
	ItemStatusMaintenance ItemStatus = "en_mantenimiento"
	ItemStatusLaundry     ItemStatus = "en_lavanderia"
	ItemStatusRetired     ItemStatus = "retirado"
	ItemStatusLost        ItemStatus = "perdido"
)

// Variant talla/color de una prenda.
type Variant struct {
	Size  string
	Color string
}

// InventoryItem unidad física serializada (una fila = un ítem).
type InventoryItem struct {
	ID           string
	TenantID     string
	ProductID    string
	BranchID     string
	SerialNumber string
	Variant      Variant
	Status       ItemStatus
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StockLot stock no serializado contado por cantidad.
type StockLot struct {
	ID        string
	TenantID  string
	ProductID string
	BranchID  string
	Variant   Variant
	Status    ItemStatus
	Quantity  int
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
