package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alcance de la promoción.
const (
	PromotionScopeGlobal   = "global"
	PromotionScopeCategory = "category"
	PromotionScopeProduct  = "product"
	PromotionScopePack     = "pack"
)

// Tipo de descuento.
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// A qué operaciones aplica.
const (
	AppliesToSale   = "sale"
	AppliesToRental = "rental"
	AppliesToBoth   = "both"
)

// Promotion promoción por producto/categoría/global. ValidFrom/ValidTo se comparan por día.
type Promotion struct {
	ID           string
	TenantID     string
	Name         string
	Scope        string
	ProductIDs   []string
	CategoryIDs  []string
	DiscountType string
	Value        decimal.Decimal
	ValidFrom    *time.Time
	ValidTo      *time.Time
	AppliesTo    string
	Exclusive    bool
	MaxUses      int // 0 = sin límite
	UsedCount    int
	MinPurchase  decimal.Decimal
	BranchIDs    []string // vacío = todas las sucursales
	Active       bool
	CreatedAt    time.Time
}

// AppliesToOperation indica si la promoción aplica al tipo de operación.
func (p *Promotion) AppliesToOperation(t OperationType) bool {
	switch p.AppliesTo {
	case "", AppliesToBoth:
		return true
	case AppliesToSale:
		return t == OperationTypeSale
	case AppliesToRental:
		return t == OperationTypeRental
	}
	return false
}

// BundleRequirement cantidad requerida de un producto dentro del combo.
type BundleRequirement struct {
	ProductID string
	Quantity  int
}

// BundleDefinition promoción de tipo pack: exige productos/cantidades y reprecia el grupo.
// Para DiscountType fixed, Value es el precio final de una instancia del combo.
type BundleDefinition struct {
	Promotion
	BranchID     string
	Requirements []BundleRequirement
}
