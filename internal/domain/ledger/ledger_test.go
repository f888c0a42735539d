package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/ledger"
)

var base = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pago(id string, seq int64, hour int, amount string, dir entity.PaymentDirection, method string) *entity.Payment {
	return &entity.Payment{
		ID: id, OperationID: 1, Sequence: seq, Amount: dec(amount), Direction: dir,
		Category: entity.PaymentCategoryPayment, Status: entity.PaymentEntryPosted,
		Date: base.Add(time.Duration(hour) * time.Hour), Method: method,
	}
}

// ── Escenarios A y B ─────────────────────────────────────────────────────────

func TestSummarize_PagoExacto(t *testing.T) {
	entries := []*entity.Payment{pago("p1", 1, 10, "300", entity.PaymentDirectionIn, entity.PaymentMethodCash)}
	s := ledger.Summarize(dec("300"), entries)
	assert.True(t, s.Balance.IsZero())
	assert.False(t, s.IsCredit)
	assert.Equal(t, entity.PaymentStatusPaid, s.PaymentStatus)
}

func TestSummarize_SegundoPagoGeneraCredito(t *testing.T) {
	p1 := pago("p1", 1, 10, "300", entity.PaymentDirectionIn, entity.PaymentMethodCash)
	p2 := pago("p2", 2, 11, "50", entity.PaymentDirectionIn, entity.PaymentMethodCard)
	entries := []*entity.Payment{p1, p2}

	s := ledger.Summarize(dec("300"), entries)
	assert.True(t, s.Balance.IsZero())
	assert.True(t, s.IsCredit)
	assert.True(t, s.CreditAmount.Equal(dec("50")))

	before := ledger.HistoricalNetPaid(entries, p1)
	after := ledger.HistoricalNetPaid(entries, p2)
	assert.True(t, ledger.NewSurplus(dec("300"), before, after).Equal(dec("50")))
}

func TestNewSurplus_SoloIncremento(t *testing.T) {
	total := dec("100")
	assert.True(t, ledger.NewSurplus(total, dec("80"), dec("90")).IsZero())
	assert.True(t, ledger.NewSurplus(total, dec("80"), dec("130")).Equal(dec("30")))
	assert.True(t, ledger.NewSurplus(total, dec("130"), dec("150")).Equal(dec("20")))
	assert.True(t, ledger.NewSurplus(total, dec("150"), dec("120")).IsZero())
}

// ── Tricotomía ───────────────────────────────────────────────────────────────

func TestSummarize_Tricotomia(t *testing.T) {
	cases := []struct {
		total, net string
		status     entity.PaymentStatus
	}{
		{"100", "0", entity.PaymentStatusPending},
		{"100", "40", entity.PaymentStatusPartial},
		{"100", "100", entity.PaymentStatusPaid},
		{"100", "130", entity.PaymentStatusPaid},
		{"0", "0", entity.PaymentStatusPaid},
		{"100", "-10", entity.PaymentStatusPending},
	}
	for _, tc := range cases {
		entries := []*entity.Payment{}
		net := dec(tc.net)
		if net.IsPositive() {
			entries = append(entries, pago("in", 1, 9, tc.net, entity.PaymentDirectionIn, entity.PaymentMethodCash))
		} else if net.IsNegative() {
			entries = append(entries, pago("out", 1, 9, net.Neg().String(), entity.PaymentDirectionOut, entity.PaymentMethodCash))
		}
		s := ledger.Summarize(dec(tc.total), entries)

		n := 0
		if s.Balance.IsPositive() {
			n++
		}
		if s.CreditAmount.IsPositive() {
			n++
		}
		if s.Balance.IsZero() && s.CreditAmount.IsZero() {
			n++
		}
		assert.Equal(t, 1, n, "total=%s net=%s", tc.total, tc.net)
		assert.Equal(t, s.CreditAmount.IsPositive(), s.IsCredit)
		assert.Equal(t, tc.status, s.PaymentStatus, "total=%s net=%s", tc.total, tc.net)
	}
}

func TestSigned_IgnoraPendientes(t *testing.T) {
	p := pago("p1", 1, 10, "80", entity.PaymentDirectionIn, entity.PaymentMethodCash)
	p.Status = entity.PaymentEntryPending
	assert.True(t, ledger.Signed(p).IsZero())
	assert.True(t, ledger.CurrentNetPaid([]*entity.Payment{p}).IsZero())
}

// ── Historial ────────────────────────────────────────────────────────────────

func TestHistoricalNetPaid_OrdenFechaSecuencia(t *testing.T) {
	p1 := pago("p1", 3, 10, "100", entity.PaymentDirectionIn, entity.PaymentMethodCash)
	p2 := pago("p2", 1, 12, "40", entity.PaymentDirectionOut, entity.PaymentMethodCash)
	p3 := pago("p3", 2, 10, "25", entity.PaymentDirectionIn, entity.PaymentMethodCard)
	entries := []*entity.Payment{p1, p2, p3}

	// mismo instante: gana la secuencia (p3 antes que p1)
	assert.True(t, ledger.HistoricalNetPaid(entries, p3).Equal(dec("25")))
	assert.True(t, ledger.HistoricalNetPaid(entries, p1).Equal(dec("125")))
	assert.True(t, ledger.HistoricalNetPaid(entries, p2).Equal(dec("85")))

	hist := ledger.History(dec("100"), entries)
	require.Len(t, hist, 3)
	assert.Equal(t, "p3", hist[0].Payment.ID)
	assert.True(t, hist[1].Summary.IsCredit)
	assert.True(t, hist[2].Summary.Balance.Equal(dec("15")))
	assert.Equal(t, entity.PaymentStatusPartial, hist[2].Summary.PaymentStatus)
}

// ── Anulación ────────────────────────────────────────────────────────────────

func TestCancellationRefund(t *testing.T) {
	entries := []*entity.Payment{
		pago("p2", 2, 11, "50", entity.PaymentDirectionIn, entity.PaymentMethodCard),
		pago("p1", 1, 10, "100", entity.PaymentDirectionIn, entity.PaymentMethodTransfer),
		pago("p3", 3, 12, "30", entity.PaymentDirectionOut, entity.PaymentMethodCash),
	}
	now := base.Add(20 * time.Hour)
	r := ledger.CancellationRefund(1, entries, now, "u1")
	require.NotNil(t, r)
	assert.True(t, r.Amount.Equal(dec("120")))
	assert.Equal(t, entity.PaymentDirectionOut, r.Direction)
	assert.Equal(t, entity.PaymentCategoryRefund, r.Category)
	assert.Equal(t, entity.PaymentMethodTransfer, r.Method)
	assert.Equal(t, now, r.Date)

	after := append(entries, r)
	assert.True(t, ledger.CurrentNetPaid(after).IsZero())
	assert.Nil(t, ledger.CancellationRefund(1, after, now, "u1"))
}

func TestRefund_AcotadoAlNeto(t *testing.T) {
	entries := []*entity.Payment{pago("p1", 1, 10, "60", entity.PaymentDirectionIn, entity.PaymentMethodCash)}
	r := ledger.Refund(1, entries, dec("80"), entity.PaymentMethodCash, "devolucion", base, "u1")
	require.NotNil(t, r)
	assert.True(t, r.Amount.Equal(dec("60")))
	assert.Nil(t, ledger.Refund(1, nil, dec("10"), entity.PaymentMethodCash, "devolucion", base, "u1"))
}

func TestReducedSurplus_SalidaRecortaExcedente(t *testing.T) {
	total := dec("300")
	assert.True(t, dec("50").Equal(ledger.ReducedSurplus(total, dec("350"), dec("300"))))
	assert.True(t, dec("20").Equal(ledger.ReducedSurplus(total, dec("350"), dec("330"))))
	// Por debajo del total ya no queda excedente que recortar.
	assert.True(t, dec("50").Equal(ledger.ReducedSurplus(total, dec("350"), dec("200"))))
	assert.True(t, ledger.ReducedSurplus(total, dec("300"), dec("350")).IsZero())
	assert.True(t, ledger.ReducedSurplus(total, dec("250"), dec("200")).IsZero())
}
