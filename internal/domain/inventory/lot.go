package inventory

import (
	"fmt"

	"github.com/jhoicas/Alquiler-api/internal/domain"
)

// DecreaseQuantity calcula la nueva cantidad de un lote; rechaza resultados negativos.
func DecreaseQuantity(lotID string, current, amount int) (int, error) {
	if amount < 0 {
		return 0, domain.NewValidationError("quantity", "no puede ser negativa")
	}
	if current-amount < 0 {
		return 0, domain.NewBusinessError(domain.ErrNegativeQuantity, "NEGATIVE_LOT",
			fmt.Sprintf("el lote %s tiene %d unidades, se pidieron %d", lotID, current, amount),
			map[string]any{"lot_id": lotID, "available": current, "required": amount})
	}
	return current - amount, nil
}

// IncreaseQuantity calcula la nueva cantidad de un lote.
func IncreaseQuantity(current, amount int) (int, error) {
	if amount < 0 {
		return 0, domain.NewValidationError("quantity", "no puede ser negativa")
	}
	return current + amount, nil
}
