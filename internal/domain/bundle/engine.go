package bundle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// CartLine línea del carrito candidata a combo. ListPrice es unitario.
// Available es la disponibilidad reportada para alquileres en el rango pedido (nil = no reportada).
type CartLine struct {
	LineID        string
	ProductID     string
	ProductName   string
	TenantID      string
	BranchID      string
	OperationType entity.OperationType
	Quantity      int
	ListPrice     decimal.Decimal
	Available     *int
}

// ListTotal precio de lista por cantidad.
func (l CartLine) ListTotal() decimal.Decimal {
	return l.ListPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PricedLine línea consumida por el combo con su total reprorrateado.
// LineTotal es el valor autoritativo; UnitPrice es informativo.
type PricedLine struct {
	CartLine
	LineTotal      decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	BundleID       string
}

// Shortfall producto requerido con cantidad insuficiente en el carrito.
type Shortfall struct {
	ProductID string
	Required  int
	InCart    int
}

// AvailabilityIssue disponibilidad de alquiler menor a la necesaria para todas las instancias.
type AvailabilityIssue struct {
	ProductID string
	Required  int
	Available int
}

// Result resultado de aplicar un combo sobre el carrito.
type Result struct {
	PromotionID        string
	BundleID           string
	PossibleCount      int
	Consumed           []PricedLine
	Remainder          []CartLine
	Shortfalls         []Shortfall
	AvailabilityIssues []AvailabilityIssue
}

// Savings diferencia entre el total de lista consumido y el total del combo.
func (r *Result) Savings() decimal.Decimal {
	s := decimal.Zero
	for _, l := range r.Consumed {
		s = s.Add(l.DiscountAmount)
	}
	return s
}

// Validate comprueba que la definición sea utilizable.
func Validate(def *entity.BundleDefinition) error {
	if def == nil {
		return domain.NewValidationError("bundle", "definición requerida")
	}
	if len(def.Requirements) == 0 {
		return domain.NewValidationError("requirements", "el combo no define productos")
	}
	seen := make(map[string]bool, len(def.Requirements))
	for _, r := range def.Requirements {
		if r.ProductID == "" || r.Quantity <= 0 {
			return domain.NewValidationError("requirements", fmt.Sprintf("requisito inválido para %q", r.ProductID))
		}
		if seen[r.ProductID] {
			return domain.NewValidationError("requirements", fmt.Sprintf("producto %s repetido", r.ProductID))
		}
		seen[r.ProductID] = true
	}
	switch def.DiscountType {
	case entity.DiscountTypePercentage:
		if def.Value.IsNegative() || def.Value.GreaterThan(decimal.NewFromInt(100)) {
			return domain.NewValidationError("value", "porcentaje fuera de rango")
		}
	case entity.DiscountTypeFixed:
		if def.Value.IsNegative() {
			return domain.NewValidationError("value", "precio del combo negativo")
		}
	default:
		return domain.NewValidationError("discount_type", "tipo de descuento desconocido")
	}
	return nil
}

func matches(def *entity.BundleDefinition, l CartLine) bool {
	if def.TenantID != "" && l.TenantID != def.TenantID {
		return false
	}
	if def.BranchID != "" && l.BranchID != def.BranchID {
		return false
	}
	return def.AppliesToOperation(l.OperationType)
}

func required(def *entity.BundleDefinition) map[string]int {
	m := make(map[string]int, len(def.Requirements))
	for _, r := range def.Requirements {
		m[r.ProductID] = r.Quantity
	}
	return m
}

// CheckEligibility calcula cuántas instancias del combo caben en el carrito.
// possible = min(floor(cantidad/requerida)) sobre los productos del combo.
func CheckEligibility(def *entity.BundleDefinition, lines []CartLine) (int, []Shortfall) {
	inCart := make(map[string]int)
	for _, l := range lines {
		if matches(def, l) {
			inCart[l.ProductID] += l.Quantity
		}
	}
	possible := -1
	var shortfalls []Shortfall
	for _, r := range def.Requirements {
		have := inCart[r.ProductID]
		n := have / r.Quantity
		if n == 0 {
			shortfalls = append(shortfalls, Shortfall{ProductID: r.ProductID, Required: r.Quantity, InCart: have})
		}
		if possible < 0 || n < possible {
			possible = n
		}
	}
	if possible < 0 {
		possible = 0
	}
	return possible, shortfalls
}

// CheckRentalAvailability reduce possible a lo que soporta la disponibilidad reportada.
// Solo aplica si el combo vale para alquileres; productos sin disponibilidad reportada no limitan.
func CheckRentalAvailability(def *entity.BundleDefinition, lines []CartLine, possible int) (int, []AvailabilityIssue) {
	if possible <= 0 || !def.AppliesToOperation(entity.OperationTypeRental) {
		return possible, nil
	}
	avail := make(map[string]int)
	reported := make(map[string]bool)
	for _, l := range lines {
		if !matches(def, l) || l.OperationType != entity.OperationTypeRental || l.Available == nil {
			continue
		}
		avail[l.ProductID] += *l.Available
		reported[l.ProductID] = true
	}
	supported := possible
	var issues []AvailabilityIssue
	for _, r := range def.Requirements {
		if !reported[r.ProductID] {
			continue
		}
		need := r.Quantity * possible
		if avail[r.ProductID] < need {
			issues = append(issues, AvailabilityIssue{ProductID: r.ProductID, Required: need, Available: avail[r.ProductID]})
			if n := avail[r.ProductID] / r.Quantity; n < supported {
				supported = n
			}
		}
	}
	return supported, issues
}

// Consume recorre el carrito en orden y toma lo requerido por producto.
// Una línea consumida parcialmente se divide en consumida + remanente sin perder unidades.
func Consume(def *entity.BundleDefinition, lines []CartLine, possible int) (consumed, remainder []CartLine) {
	pending := required(def)
	for k := range pending {
		pending[k] *= possible
	}
	for _, l := range lines {
		need := pending[l.ProductID]
		if need <= 0 || l.Quantity <= 0 || !matches(def, l) {
			remainder = append(remainder, l)
			continue
		}
		take := l.Quantity
		if take > need {
			take = need
		}
		pending[l.ProductID] = need - take

		c := l
		c.Quantity = take
		consumed = append(consumed, c)
		if rest := l.Quantity - take; rest > 0 {
			r := l
			r.Quantity = rest
			remainder = append(remainder, r)
		}
	}
	return consumed, remainder
}

// Prorate reprecia las líneas consumidas.
// Porcentaje: cada grupo (venta/alquiler) baja el mismo porcentaje.
// Fijo: un único factor precioCombo/totalLista para todos los grupos; el residuo de
// redondeo va a la última línea consumida para que la suma sea exacta.
func Prorate(def *entity.BundleDefinition, consumed []CartLine, possible int, bundleID string) []PricedLine {
	out := make([]PricedLine, len(consumed))
	for i, l := range consumed {
		out[i] = PricedLine{CartLine: l, BundleID: bundleID}
	}
	if len(out) == 0 {
		return out
	}

	switch def.DiscountType {
	case entity.DiscountTypePercentage:
		keep := decimal.NewFromInt(1).Sub(def.Value.Div(decimal.NewFromInt(100)))
		for _, idx := range groupByType(consumed) {
			groupList := decimal.Zero
			for _, i := range idx {
				groupList = groupList.Add(consumed[i].ListTotal())
			}
			distribute(out, idx, groupList.Mul(keep), keep)
		}
	case entity.DiscountTypeFixed:
		all := make([]int, len(consumed))
		sum := decimal.Zero
		for i := range consumed {
			all[i] = i
			sum = sum.Add(consumed[i].ListTotal())
		}
		final := def.Value.Mul(decimal.NewFromInt(int64(possible)))
		factor := decimal.Zero
		if sum.IsPositive() {
			factor = final.Div(sum)
		}
		distribute(out, all, final, factor)
	}

	for i := range out {
		list := out[i].ListTotal()
		out[i].DiscountAmount = list.Sub(out[i].LineTotal)
		if out[i].Quantity > 0 {
			out[i].UnitPrice = pricing.Round2(out[i].LineTotal.Div(decimal.NewFromInt(int64(out[i].Quantity))))
		}
	}
	return out
}

// distribute asigna total*factor redondeado a cada línea y el residuo a la última.
func distribute(out []PricedLine, idx []int, target, factor decimal.Decimal) {
	target = pricing.Round2(target)
	acc := decimal.Zero
	for n, i := range idx {
		if n == len(idx)-1 {
			out[i].LineTotal = target.Sub(acc)
			return
		}
		t := pricing.Round2(out[i].ListTotal().Mul(factor))
		out[i].LineTotal = t
		acc = acc.Add(t)
	}
}

// groupByType agrupa índices por tipo de operación respetando el orden de aparición.
func groupByType(lines []CartLine) [][]int {
	pos := make(map[entity.OperationType]int)
	var groups [][]int
	for i, l := range lines {
		g, ok := pos[l.OperationType]
		if !ok {
			g = len(groups)
			pos[l.OperationType] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// Apply ejecuta elegibilidad, disponibilidad, consumo y prorrateo.
// Si el combo no aplica devuelve PossibleCount 0 y el carrito completo como remanente.
func Apply(def *entity.BundleDefinition, lines []CartLine, date time.Time) (*Result, error) {
	if err := Validate(def); err != nil {
		return nil, err
	}
	res := &Result{PromotionID: def.ID}
	if !def.Active || !pricing.WithinDays(date, def.ValidFrom, def.ValidTo) ||
		(def.MaxUses > 0 && def.UsedCount >= def.MaxUses) {
		res.Remainder = lines
		return res, nil
	}

	possible, shortfalls := CheckEligibility(def, lines)
	res.Shortfalls = shortfalls
	possible, issues := CheckRentalAvailability(def, lines, possible)
	res.AvailabilityIssues = issues
	if possible <= 0 {
		res.Remainder = lines
		return res, nil
	}
	if def.MinPurchase.IsPositive() {
		subtotal := decimal.Zero
		for _, l := range lines {
			subtotal = subtotal.Add(l.ListTotal())
		}
		if subtotal.LessThan(def.MinPurchase) {
			res.Remainder = lines
			return res, nil
		}
	}

	consumed, remainder := Consume(def, lines, possible)
	res.PossibleCount = possible
	res.BundleID = uuid.NewString()
	res.Consumed = Prorate(def, consumed, possible, res.BundleID)
	res.Remainder = remainder
	return res, nil
}
