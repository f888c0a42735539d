package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones de unidades serializadas
// ──────────────────────────────────────────────────────────────────────────────

func TestCanTransition_CicloDeAlquiler(t *testing.T) {
	path := []entity.ItemStatus{
		entity.ItemStatusAvailable,
		entity.ItemStatusReserved,
		entity.ItemStatusRented,
		entity.ItemStatusReturned,
		entity.ItemStatusAvailable,
	}
	for i := 1; i < len(path); i++ {
		assert.True(t, inventory.CanTransition(path[i-1], path[i]), "%s -> %s", path[i-1], path[i])
	}
}

func TestCanTransition_VentaDirecta(t *testing.T) {
	assert.True(t, inventory.CanTransition(entity.ItemStatusAvailable, entity.ItemStatusSold))
}

func TestCanTransition_MismoEstadoEsNoOp(t *testing.T) {
	for _, s := range []entity.ItemStatus{entity.ItemStatusRetired, entity.ItemStatusSold, entity.ItemStatusLost} {
		assert.True(t, inventory.CanTransition(s, s))
	}
}

func TestCheckTransition_TerminalesNoSalen(t *testing.T) {
	err := inventory.CheckTransition("item-1", entity.ItemStatusRetired, entity.ItemStatusAvailable)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidStatusTransition))

	err = inventory.CheckTransition("item-1", entity.ItemStatusLost, entity.ItemStatusAvailable)
	assert.True(t, errors.Is(err, domain.ErrInvalidStatusTransition))
}

func TestCheckTransition_EstadoDesconocido(t *testing.T) {
	err := inventory.CheckTransition("item-1", entity.ItemStatusAvailable, "prestado")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestReturnTarget(t *testing.T) {
	assert.Equal(t, entity.ItemStatusAvailable, inventory.ReturnTarget(inventory.ReturnConditionOK, false))
	assert.Equal(t, entity.ItemStatusLaundry, inventory.ReturnTarget(inventory.ReturnConditionOK, true))
	assert.Equal(t, entity.ItemStatusMaintenance, inventory.ReturnTarget(inventory.ReturnConditionDamaged, false))
	assert.Equal(t, entity.ItemStatusLost, inventory.ReturnTarget(inventory.ReturnConditionLost, true))
	assert.True(t, inventory.RestoresLotQuantity(inventory.ReturnConditionOK))
	assert.False(t, inventory.RestoresLotQuantity(inventory.ReturnConditionDamaged))
	assert.False(t, inventory.RestoresLotQuantity(inventory.ReturnConditionLost))
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación FIFO de lotes
// ──────────────────────────────────────────────────────────────────────────────

func lotsFixture() []*entity.StockLot {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*entity.StockLot{
		{ID: "lote-c", Quantity: 10, CreatedAt: base.Add(48 * time.Hour)},
		{ID: "lote-a", Quantity: 3, CreatedAt: base},
		{ID: "lote-b", Quantity: 4, CreatedAt: base.Add(24 * time.Hour)},
	}
}

func TestPlanFIFO_RepartePorAntiguedad(t *testing.T) {
	plan, err := inventory.PlanFIFO("p1", "Camisa", lotsFixture(), 9)
	require.NoError(t, err)
	assert.Equal(t, []inventory.LotSlice{
		{LotID: "lote-a", Quantity: 3},
		{LotID: "lote-b", Quantity: 4},
		{LotID: "lote-c", Quantity: 2},
	}, plan)
}

func TestPlanFIFO_UnSoloLote(t *testing.T) {
	plan, err := inventory.PlanFIFO("p1", "Camisa", lotsFixture(), 2)
	require.NoError(t, err)
	assert.Equal(t, []inventory.LotSlice{{LotID: "lote-a", Quantity: 2}}, plan)
}

func TestPlanFIFO_StockInsuficienteNoCumpleParcial(t *testing.T) {
	plan, err := inventory.PlanFIFO("p1", "Camisa", lotsFixture(), 18)
	require.Error(t, err)
	assert.Nil(t, plan)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 18, stockErr.Required)
	assert.Equal(t, 17, stockErr.Available)
	assert.Equal(t, "Camisa", stockErr.ProductName)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
}

func TestPlanFIFO_DemandaInvalida(t *testing.T) {
	_, err := inventory.PlanFIFO("p1", "Camisa", lotsFixture(), 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ──────────────────────────────────────────────────────────────────────────────
// Cantidades de lote
// ──────────────────────────────────────────────────────────────────────────────

func TestLotQuantity_IdaYVuelta(t *testing.T) {
	qty, err := inventory.DecreaseQuantity("lote-a", 7, 5)
	require.NoError(t, err)
	qty, err = inventory.IncreaseQuantity(qty, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, qty)
}

func TestLotQuantity_NuncaNegativa(t *testing.T) {
	_, err := inventory.DecreaseQuantity("lote-a", 2, 3)
	assert.True(t, errors.Is(err, domain.ErrNegativeQuantity))
}
