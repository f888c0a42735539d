package pricing

import (
	"fmt"
	"time"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Rules umbrales de negocio del precio.
// Los porcentajes se expresan como fracción (0.20 = 20%).
type Rules struct {
	MaxDiscountPercentageAllowed    decimal.Decimal
	RequireAdminAuthForDiscountOver decimal.Decimal
	AllowStacking                   bool
}

// Input datos para calcular el precio unitario de una línea.
type Input struct {
	Product        *entity.Product
	OperationType  entity.OperationType
	ListPrice      decimal.Decimal
	Promotions     []*entity.Promotion
	Rules          Rules
	ManualDiscount decimal.Decimal // monto por unidad solicitado por el vendedor
	BranchID       string
	CartSubtotal   decimal.Decimal // para compra mínima
	Date           time.Time
	// BundlePrice si no es nil omite la búsqueda de promociones y fija el precio.
	BundlePrice *decimal.Decimal
}

// Result precio final y descuento aplicado.
type Result struct {
	ListPrice         decimal.Decimal
	FinalPrice        decimal.Decimal
	DiscountAmount    decimal.Decimal
	DiscountReason    string
	PromotionID       string
	ManualDiscount    decimal.Decimal
	RequiresAdminAuth bool
}

// Motivos de descuento.
const (
	ReasonNone      = ""
	ReasonPromotion = "promocion"
	ReasonManual    = "manual"
	ReasonBundle    = "combo"
)

// CheckCapability valida que el producto admita el tipo de operación.
// Las reservas heredan la restricción del tipo destino, se validan con ese tipo.
func CheckCapability(p *entity.Product, t entity.OperationType) error {
	if p == nil {
		return domain.ErrProductNotFound
	}
	ok := true
	switch t {
	case entity.OperationTypeSale:
		ok = p.CanSell
	case entity.OperationTypeRental:
		ok = p.CanRent
	}
	if ok {
		return nil
	}
	return domain.NewBusinessError(domain.ErrProductNotAvailableForOperation, "PRODUCT_NOT_AVAILABLE",
		fmt.Sprintf("%s no está habilitado para %s", p.Name, t),
		map[string]any{"product_id": p.ID, "product_name": p.Name, "operation_type": string(t)})
}

// Calculate aplica la mejor promoción vigente y el descuento manual permitido.
func Calculate(in Input) (*Result, error) {
	if err := CheckCapability(in.Product, in.OperationType); err != nil {
		return nil, err
	}
	if in.ListPrice.IsNegative() {
		return nil, domain.NewValidationError("list_price", "no puede ser negativo")
	}
	if in.ManualDiscount.IsNegative() {
		return nil, domain.NewValidationError("manual_discount", "no puede ser negativo")
	}
	res := &Result{ListPrice: in.ListPrice}

	if in.BundlePrice != nil {
		final := Round2(ClampZero(*in.BundlePrice))
		res.FinalPrice = final
		res.DiscountAmount = ClampZero(in.ListPrice.Sub(final))
		res.DiscountReason = ReasonBundle
		return res, nil
	}

	best, promoDiscount := BestPromotion(in.Promotions, in.Product, in.OperationType, in.ListPrice, in.BranchID, in.CartSubtotal, in.Date)

	manual := in.ManualDiscount
	if manual.IsPositive() {
		if best != nil && (best.Exclusive || !in.Rules.AllowStacking) {
			return nil, domain.NewBusinessError(domain.ErrDiscountNotStackable, "DISCOUNT_NOT_STACKABLE",
				fmt.Sprintf("la promoción %s no admite descuento manual", best.Name),
				map[string]any{"promotion_id": best.ID, "product_id": in.Product.ID})
		}
		ceiling := in.ListPrice.Mul(in.Rules.MaxDiscountPercentageAllowed)
		if manual.GreaterThan(ceiling) {
			return nil, domain.NewBusinessError(domain.ErrDiscountExceedsCeiling, "DISCOUNT_CEILING",
				fmt.Sprintf("descuento %s excede el máximo %s para %s", manual.StringFixed(2), ceiling.StringFixed(2), in.Product.Name),
				map[string]any{"product_id": in.Product.ID, "requested": manual, "max_allowed": ceiling})
		}
		if in.ListPrice.IsPositive() {
			ratio := manual.Div(in.ListPrice)
			res.RequiresAdminAuth = ratio.GreaterThan(in.Rules.RequireAdminAuthForDiscountOver)
		}
		res.ManualDiscount = manual
	}

	final := Round2(ClampZero(in.ListPrice.Sub(promoDiscount).Sub(manual)))
	res.FinalPrice = final
	res.DiscountAmount = in.ListPrice.Sub(final)
	switch {
	case best != nil:
		res.PromotionID = best.ID
		res.DiscountReason = ReasonPromotion
	case manual.IsPositive():
		res.DiscountReason = ReasonManual
	}
	return res, nil
}

// BestPromotion filtra promociones aplicables y elige la de mayor descuento absoluto.
// En empate se conserva la primera encontrada.
func BestPromotion(
	promos []*entity.Promotion,
	product *entity.Product,
	opType entity.OperationType,
	listPrice decimal.Decimal,
	branchID string,
	cartSubtotal decimal.Decimal,
	date time.Time,
) (*entity.Promotion, decimal.Decimal) {
	var best *entity.Promotion
	bestDiscount := decimal.Zero
	for _, p := range promos {
		if !Applicable(p, product, opType, branchID, cartSubtotal, date) {
			continue
		}
		d := PromotionDiscount(p, listPrice)
		if best == nil || d.GreaterThan(bestDiscount) {
			best = p
			bestDiscount = d
		}
	}
	return best, bestDiscount
}

// Applicable indica si la promoción aplica al producto en la fecha, sucursal y operación dadas.
func Applicable(p *entity.Promotion, product *entity.Product, opType entity.OperationType, branchID string, cartSubtotal decimal.Decimal, date time.Time) bool {
	if p == nil || !p.Active || product == nil {
		return false
	}
	if !WithinDays(date, p.ValidFrom, p.ValidTo) {
		return false
	}
	if !p.AppliesToOperation(opType) {
		return false
	}
	if p.MaxUses > 0 && p.UsedCount >= p.MaxUses {
		return false
	}
	if p.MinPurchase.IsPositive() && cartSubtotal.LessThan(p.MinPurchase) {
		return false
	}
	if len(p.BranchIDs) > 0 && !contains(p.BranchIDs, branchID) {
		return false
	}
	switch p.Scope {
	case entity.PromotionScopeGlobal:
		return true
	case entity.PromotionScopeCategory:
		return product.CategoryID != "" && contains(p.CategoryIDs, product.CategoryID)
	case entity.PromotionScopeProduct:
		return contains(p.ProductIDs, product.ID)
	}
	// pack: solo lo usa el motor de combos
	return false
}

// PromotionDiscount descuento unitario de una promoción sobre el precio de lista (nunca mayor al precio).
func PromotionDiscount(p *entity.Promotion, listPrice decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch p.DiscountType {
	case entity.DiscountTypePercentage:
		d = Percent(listPrice, p.Value)
	case entity.DiscountTypeFixed:
		d = p.Value
	default:
		return decimal.Zero
	}
	if d.GreaterThan(listPrice) {
		d = listPrice
	}
	return ClampZero(d)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
