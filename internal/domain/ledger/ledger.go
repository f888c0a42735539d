package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// Signed monto con signo de un asiento: +amount para "in", -amount para "out"; 0 si no está contabilizado.
func Signed(p *entity.Payment) decimal.Decimal {
	if p == nil || !p.IsPosted() {
		return decimal.Zero
	}
	if p.Direction == entity.PaymentDirectionOut {
		return p.Amount.Neg()
	}
	return p.Amount
}

// CurrentNetPaid suma con signo de todos los asientos contabilizados.
func CurrentNetPaid(entries []*entity.Payment) decimal.Decimal {
	net := decimal.Zero
	for _, p := range entries {
		net = net.Add(Signed(p))
	}
	return net
}

// Ordered copia de los asientos en orden estable (fecha, secuencia).
func Ordered(entries []*entity.Payment) []*entity.Payment {
	out := make([]*entity.Payment, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// HistoricalNetPaid neto pagado hasta e inclusive el asiento target, en orden (fecha, secuencia).
// Si target no pertenece a entries devuelve el neto actual.
func HistoricalNetPaid(entries []*entity.Payment, target *entity.Payment) decimal.Decimal {
	net := decimal.Zero
	for _, p := range Ordered(entries) {
		net = net.Add(Signed(p))
		if p == target || (target != nil && p.ID != "" && p.ID == target.ID) {
			return net
		}
	}
	return net
}

// Summary estado de cuenta de una operación.
type Summary struct {
	Total         decimal.Decimal
	NetPaid       decimal.Decimal
	Balance       decimal.Decimal
	CreditAmount  decimal.Decimal
	IsCredit      bool
	PaymentStatus entity.PaymentStatus
}

// Summarize deriva saldo, crédito y estado de pago. Exactamente uno de
// (balance > 0, crédito > 0, ambos 0) se cumple.
func Summarize(total decimal.Decimal, entries []*entity.Payment) Summary {
	return summarize(total, CurrentNetPaid(entries))
}

func summarize(total, net decimal.Decimal) Summary {
	s := Summary{Total: total, NetPaid: net, Balance: decimal.Zero, CreditAmount: decimal.Zero}
	diff := total.Sub(net)
	switch {
	case diff.IsPositive():
		s.Balance = diff
	case diff.IsNegative():
		s.CreditAmount = diff.Neg()
		s.IsCredit = true
	}
	switch {
	case s.Balance.IsZero() && (net.IsPositive() || total.IsZero()):
		s.PaymentStatus = entity.PaymentStatusPaid
	case net.IsPositive():
		s.PaymentStatus = entity.PaymentStatusPartial
	default:
		s.PaymentStatus = entity.PaymentStatusPending
	}
	return s
}

// HistoryLine asiento con el estado de cuenta al momento en que se registró.
type HistoryLine struct {
	Payment *entity.Payment
	Signed  decimal.Decimal
	Summary Summary
}

// History recorre el libro en orden (fecha, secuencia) con el saldo acumulado por asiento.
func History(total decimal.Decimal, entries []*entity.Payment) []HistoryLine {
	ordered := Ordered(entries)
	lines := make([]HistoryLine, 0, len(ordered))
	net := decimal.Zero
	for _, p := range ordered {
		s := Signed(p)
		net = net.Add(s)
		lines = append(lines, HistoryLine{Payment: p, Signed: s, Summary: summarize(total, net)})
	}
	return lines
}

// NewSurplus excedente creado por pasar de before a after contra total.
// Solo cuenta el crédito nuevo: si ya había excedente, devuelve el incremento.
func NewSurplus(total, before, after decimal.Decimal) decimal.Decimal {
	creditBefore := summarize(total, before).CreditAmount
	creditAfter := summarize(total, after).CreditAmount
	if creditAfter.GreaterThan(creditBefore) {
		return creditAfter.Sub(creditBefore)
	}
	return decimal.Zero
}

// ReducedSurplus excedente que desaparece al pasar de before a after (salidas o correcciones).
func ReducedSurplus(total, before, after decimal.Decimal) decimal.Decimal {
	creditBefore := summarize(total, before).CreditAmount
	creditAfter := summarize(total, after).CreditAmount
	if creditBefore.GreaterThan(creditAfter) {
		return creditBefore.Sub(creditAfter)
	}
	return decimal.Zero
}

// CancellationRefund asiento "out" por el neto actual, con el método del primer pago por fecha.
// Devuelve nil si el neto es <= 0.
func CancellationRefund(operationID int64, entries []*entity.Payment, now time.Time, createdBy string) *entity.Payment {
	net := CurrentNetPaid(entries)
	if !net.IsPositive() {
		return nil
	}
	method := entity.PaymentMethodCash
	for _, p := range Ordered(entries) {
		if p.IsPosted() && p.Direction == entity.PaymentDirectionIn && p.Method != "" {
			method = p.Method
			break
		}
	}
	return &entity.Payment{
		OperationID: operationID,
		Amount:      net,
		Direction:   entity.PaymentDirectionOut,
		Category:    entity.PaymentCategoryRefund,
		Status:      entity.PaymentEntryPosted,
		Date:        now,
		Method:      method,
		Reference:   "anulacion",
		CreatedBy:   createdBy,
		CreatedAt:   now,
	}
}

// Refund asiento "out" de devolución por amount, acotado al neto pagado. nil si no hay nada que devolver.
func Refund(operationID int64, entries []*entity.Payment, amount decimal.Decimal, method, reference string, now time.Time, createdBy string) *entity.Payment {
	net := CurrentNetPaid(entries)
	if amount.GreaterThan(net) {
		amount = net
	}
	if !amount.IsPositive() {
		return nil
	}
	return &entity.Payment{
		OperationID: operationID,
		Amount:      amount,
		Direction:   entity.PaymentDirectionOut,
		Category:    entity.PaymentCategoryRefund,
		Status:      entity.PaymentEntryPosted,
		Date:        now,
		Method:      method,
		Reference:   reference,
		CreatedBy:   createdBy,
		CreatedAt:   now,
	}
}
