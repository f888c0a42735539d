package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 redondea a centavos (mitad hacia arriba para montos positivos).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ClampZero devuelve 0 si d es negativo.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Percent devuelve base * pct / 100.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// Day trunca un instante al inicio de su día en la zona del instante.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WithinDays indica si day está en [from, to] comparando solo por día. Límites nil = abiertos.
func WithinDays(day time.Time, from, to *time.Time) bool {
	d := Day(day)
	if from != nil && d.Before(Day(from.In(day.Location()))) {
		return false
	}
	if to != nil && d.After(Day(to.In(day.Location()))) {
		return false
	}
	return true
}
