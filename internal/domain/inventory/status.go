package inventory

import (
	"fmt"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// transitions tabla de transiciones permitidas para unidades serializadas.
// retirado y perdido son terminales.
var transitions = map[entity.ItemStatus][]entity.ItemStatus{
	entity.ItemStatusAvailable: {
		entity.ItemStatusReserved, entity.ItemStatusRented, entity.ItemStatusSold,
		entity.ItemStatusMaintenance, entity.ItemStatusLaundry, entity.ItemStatusRetired,
	},
	entity.ItemStatusReserved: {
		entity.ItemStatusAvailable, entity.ItemStatusRented, entity.ItemStatusSold,
	},
	entity.ItemStatusRented: {
		entity.ItemStatusReturned, entity.ItemStatusAvailable, entity.ItemStatusLaundry,
		entity.ItemStatusMaintenance, entity.ItemStatusRetired, entity.ItemStatusLost,
	},
	entity.ItemStatusSold: {
		entity.ItemStatusAvailable, entity.ItemStatusReturned,
	},
	entity.ItemStatusReturned: {
		entity.ItemStatusAvailable, entity.ItemStatusLaundry, entity.ItemStatusMaintenance,
		entity.ItemStatusRetired, entity.ItemStatusLost,
	},
	entity.ItemStatusLaundry: {
		entity.ItemStatusAvailable, entity.ItemStatusMaintenance, entity.ItemStatusRetired,
	},
	entity.ItemStatusMaintenance: {
		entity.ItemStatusAvailable, entity.ItemStatusLaundry, entity.ItemStatusRetired,
	},
}

// ValidStatus indica si el estado pertenece al vocabulario.
func ValidStatus(s entity.ItemStatus) bool {
	switch s {
	case entity.ItemStatusAvailable, entity.ItemStatusReserved, entity.ItemStatusRented,
		entity.ItemStatusSold, entity.ItemStatusReturned, entity.ItemStatusMaintenance,
		entity.ItemStatusLaundry, entity.ItemStatusRetired, entity.ItemStatusLost:
		return true
	}
	return false
}

// CanTransition indica si from -> to está permitido. Mismo estado siempre es válido (no-op).
func CanTransition(from, to entity.ItemStatus) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition devuelve ErrInvalidStatusTransition con contexto si no está permitido.
func CheckTransition(itemID string, from, to entity.ItemStatus) error {
	if !ValidStatus(to) {
		return domain.NewValidationError("status", fmt.Sprintf("estado desconocido %q", to))
	}
	if CanTransition(from, to) {
		return nil
	}
	return domain.NewBusinessError(domain.ErrInvalidStatusTransition, "INVALID_TRANSITION",
		fmt.Sprintf("la unidad %s no puede pasar de %s a %s", itemID, from, to),
		map[string]any{"item_id": itemID, "from": string(from), "to": string(to)})
}

// ReturnCondition condición declarada al devolver una prenda; decide la ruta del stock.
type ReturnCondition string

const (
	ReturnConditionOK      ReturnCondition = "ok"
	ReturnConditionDamaged ReturnCondition = "dañado"
	ReturnConditionLost    ReturnCondition = "perdido"
)

// Valid indica si la condición es conocida.
func (c ReturnCondition) Valid() bool {
	return c == ReturnConditionOK || c == ReturnConditionDamaged || c == ReturnConditionLost
}

// ReturnTarget estado destino de una unidad serializada según la condición de devolución.
// ok vuelve a disponible (o al estado de limpieza pedido), dañado va a mantenimiento, perdido es terminal.
func ReturnTarget(c ReturnCondition, cleaning bool) entity.ItemStatus {
	switch c {
	case ReturnConditionDamaged:
		return entity.ItemStatusMaintenance
	case ReturnConditionLost:
		return entity.ItemStatusLost
	}
	if cleaning {
		return entity.ItemStatusLaundry
	}
	return entity.ItemStatusAvailable
}

// RestoresLotQuantity indica si la devolución reintegra cantidad al lote.
// Dañados y perdidos no cambian la cantidad.
func RestoresLotQuantity(c ReturnCondition) bool {
	return c == ReturnConditionOK
}
