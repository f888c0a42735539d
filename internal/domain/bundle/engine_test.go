package bundle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/bundle"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

var fecha = time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(n int) *int { return &n }

func comboFijo(price string) *entity.BundleDefinition {
	return &entity.BundleDefinition{
		Promotion: entity.Promotion{
			ID: "combo-1", TenantID: "t1", Name: "Traje completo", Scope: entity.PromotionScopePack,
			DiscountType: entity.DiscountTypeFixed, Value: dec(price), AppliesTo: entity.AppliesToBoth, Active: true,
		},
		Requirements: []entity.BundleRequirement{{ProductID: "X", Quantity: 2}, {ProductID: "Y", Quantity: 1}},
	}
}

func linea(id, product string, op entity.OperationType, qty int, price string) bundle.CartLine {
	return bundle.CartLine{
		LineID: id, ProductID: product, ProductName: product, TenantID: "t1", BranchID: "b1",
		OperationType: op, Quantity: qty, ListPrice: dec(price),
	}
}

func sumTotals(lines []bundle.PricedLine) decimal.Decimal {
	s := decimal.Zero
	for _, l := range lines {
		s = s.Add(l.LineTotal)
	}
	return s
}

func qtyByProduct(consumed []bundle.PricedLine, remainder []bundle.CartLine) map[string]int {
	m := map[string]int{}
	for _, l := range consumed {
		m[l.ProductID] += l.Quantity
	}
	for _, l := range remainder {
		m[l.ProductID] += l.Quantity
	}
	return m
}

// ── Precio fijo: 3×X(40) + 1×Y(30), combo 2X+1Y a 90 ─────────────────────────

func TestApply_PrecioFijo_Prorrateo(t *testing.T) {
	cart := []bundle.CartLine{
		linea("l1", "X", entity.OperationTypeSale, 3, "40"),
		linea("l2", "Y", entity.OperationTypeSale, 1, "30"),
	}
	res, err := bundle.Apply(comboFijo("90"), cart, fecha)
	require.NoError(t, err)

	assert.Equal(t, 1, res.PossibleCount)
	require.Len(t, res.Consumed, 2)
	assert.Equal(t, 2, res.Consumed[0].Quantity)
	assert.Equal(t, "65.45", res.Consumed[0].LineTotal.StringFixed(2))
	assert.Equal(t, "24.55", res.Consumed[1].LineTotal.StringFixed(2))
	assert.True(t, sumTotals(res.Consumed).Equal(dec("90")))

	require.Len(t, res.Remainder, 1)
	assert.Equal(t, "X", res.Remainder[0].ProductID)
	assert.Equal(t, 1, res.Remainder[0].Quantity)
	assert.True(t, res.Remainder[0].ListPrice.Equal(dec("40")))

	assert.NotEmpty(t, res.BundleID)
	for _, l := range res.Consumed {
		assert.Equal(t, res.BundleID, l.BundleID)
	}
	assert.Equal(t, map[string]int{"X": 3, "Y": 1}, qtyByProduct(res.Consumed, res.Remainder))
	assert.True(t, res.Savings().Equal(dec("20")))
}

func TestApply_PrecioFijo_FactorGlobalEntreGrupos(t *testing.T) {
	cart := []bundle.CartLine{
		linea("l1", "X", entity.OperationTypeSale, 2, "33.33"),
		linea("l2", "Y", entity.OperationTypeRental, 1, "17.17"),
		linea("l3", "X", entity.OperationTypeRental, 2, "33.33"),
		linea("l4", "Y", entity.OperationTypeSale, 1, "17.17"),
	}
	res, err := bundle.Apply(comboFijo("70"), cart, fecha)
	require.NoError(t, err)
	assert.Equal(t, 2, res.PossibleCount)
	assert.Empty(t, res.Remainder)
	assert.True(t, sumTotals(res.Consumed).Equal(dec("140")), "suma %s", sumTotals(res.Consumed))
}

// ── Porcentaje: cada grupo baja el mismo porcentaje ──────────────────────────

func TestApply_Porcentaje_PorGrupo(t *testing.T) {
	def := comboFijo("15")
	def.DiscountType = entity.DiscountTypePercentage
	cart := []bundle.CartLine{
		linea("l1", "X", entity.OperationTypeSale, 1, "19.99"),
		linea("l2", "X", entity.OperationTypeRental, 1, "12.35"),
		linea("l3", "Y", entity.OperationTypeSale, 1, "7.77"),
	}
	res, err := bundle.Apply(def, cart, fecha)
	require.NoError(t, err)
	require.Equal(t, 1, res.PossibleCount)

	byType := map[entity.OperationType][2]decimal.Decimal{}
	for _, l := range res.Consumed {
		acc := byType[l.OperationType]
		acc[0] = acc[0].Add(l.ListTotal())
		acc[1] = acc[1].Add(l.LineTotal)
		byType[l.OperationType] = acc
	}
	keep := dec("0.85")
	for op, v := range byType {
		want := v[0].Mul(keep).Round(2)
		assert.True(t, v[1].Sub(want).Abs().LessThanOrEqual(dec("0.01")), "grupo %s: %s vs %s", op, v[1], want)
	}
}

// ── Elegibilidad y disponibilidad ────────────────────────────────────────────

func TestApply_FaltanteReportado(t *testing.T) {
	cart := []bundle.CartLine{
		linea("l1", "X", entity.OperationTypeSale, 1, "40"),
		linea("l2", "Y", entity.OperationTypeSale, 1, "30"),
	}
	res, err := bundle.Apply(comboFijo("90"), cart, fecha)
	require.NoError(t, err)
	assert.Zero(t, res.PossibleCount)
	assert.Empty(t, res.Consumed)
	assert.Len(t, res.Remainder, 2)
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, bundle.Shortfall{ProductID: "X", Required: 2, InCart: 1}, res.Shortfalls[0])
}

func TestCheckEligibility_IgnoraOtraSucursal(t *testing.T) {
	def := comboFijo("90")
	def.BranchID = "b1"
	otra := linea("l1", "X", entity.OperationTypeSale, 4, "40")
	otra.BranchID = "b2"
	possible, shortfalls := bundle.CheckEligibility(def, []bundle.CartLine{otra, linea("l2", "Y", entity.OperationTypeSale, 2, "30")})
	assert.Zero(t, possible)
	assert.Len(t, shortfalls, 1)
}

func TestApply_DisponibilidadReduceInstancias(t *testing.T) {
	x := linea("l1", "X", entity.OperationTypeRental, 4, "40")
	x.Available = intPtr(3)
	y := linea("l2", "Y", entity.OperationTypeRental, 2, "30")
	y.Available = intPtr(5)

	res, err := bundle.Apply(comboFijo("90"), []bundle.CartLine{x, y}, fecha)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PossibleCount)
	require.Len(t, res.AvailabilityIssues, 1)
	assert.Equal(t, bundle.AvailabilityIssue{ProductID: "X", Required: 4, Available: 3}, res.AvailabilityIssues[0])
	assert.Equal(t, map[string]int{"X": 4, "Y": 2}, qtyByProduct(res.Consumed, res.Remainder))
}

func TestApply_FueraDeVigencia(t *testing.T) {
	def := comboFijo("90")
	ayer := fecha.AddDate(0, 0, -1)
	def.ValidTo = &ayer
	cart := []bundle.CartLine{
		linea("l1", "X", entity.OperationTypeSale, 2, "40"),
		linea("l2", "Y", entity.OperationTypeSale, 1, "30"),
	}
	res, err := bundle.Apply(def, cart, fecha)
	require.NoError(t, err)
	assert.Zero(t, res.PossibleCount)
	assert.Equal(t, cart, res.Remainder)
}

func TestApply_DefinicionInvalida(t *testing.T) {
	def := comboFijo("90")
	def.Requirements = nil
	_, err := bundle.Apply(def, nil, fecha)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestConsume_ConservaUnidades(t *testing.T) {
	cart := []bundle.CartLine{
		linea("l1", "X", entity.OperationTypeSale, 1, "40"),
		linea("l2", "Z", entity.OperationTypeSale, 7, "5"),
		linea("l3", "X", entity.OperationTypeSale, 5, "40"),
		linea("l4", "Y", entity.OperationTypeSale, 3, "30"),
	}
	consumed, remainder := bundle.Consume(comboFijo("90"), cart, 2)
	got := map[string]int{}
	for _, l := range consumed {
		got[l.ProductID] += l.Quantity
	}
	assert.Equal(t, map[string]int{"X": 4, "Y": 2}, got)
	total := map[string]int{}
	for _, l := range append(consumed, remainder...) {
		total[l.ProductID] += l.Quantity
	}
	assert.Equal(t, map[string]int{"X": 6, "Y": 3, "Z": 7}, total)
}
