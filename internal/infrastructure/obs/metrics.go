package obs

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/Alquiler-api/internal/application/ports"
)

var _ ports.Metrics = (*DomainMetrics)(nil)

// DomainMetrics contadores del ciclo de vida de operaciones, pagos y stock.
type DomainMetrics struct {
	OperationsCreated  *prometheus.CounterVec
	OperationsCanceled *prometheus.CounterVec
	Payments           *prometheus.CounterVec
	PaymentAmount      *prometheus.CounterVec
	RentalsReturned    *prometheus.CounterVec
	StockConflicts     *prometheus.CounterVec
}

// NewDomainMetrics crea y registra los colectores. Si ya estaban registrados reutiliza los existentes.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &DomainMetrics{
		OperationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_created_total",
			Help:      "Operaciones creadas por tipo.",
		}, []string{"type"}),
		OperationsCanceled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_canceled_total",
			Help:      "Operaciones anuladas o vencidas por tipo.",
		}, []string{"type"}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Asientos del libro de pagos por método y sentido.",
		}, []string{"method", "direction"}),
		PaymentAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_amount_total",
			Help:      "Monto acumulado de asientos por método y sentido.",
		}, []string{"method", "direction"}),
		RentalsReturned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rentals_returned_total",
			Help:      "Devoluciones de alquiler por estado resultante.",
		}, []string{"status"}),
		StockConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_conflicts_total",
			Help:      "Rechazos por stock insuficiente o actualización concurrente.",
		}, []string{"reason"}),
	}
	m.OperationsCreated = registerCounterVec(reg, m.OperationsCreated)
	m.OperationsCanceled = registerCounterVec(reg, m.OperationsCanceled)
	m.Payments = registerCounterVec(reg, m.Payments)
	m.PaymentAmount = registerCounterVec(reg, m.PaymentAmount)
	m.RentalsReturned = registerCounterVec(reg, m.RentalsReturned)
	m.StockConflicts = registerCounterVec(reg, m.StockConflicts)
	return m
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if v, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return v
			}
		}
		panic(fmt.Errorf("registrar métrica: %w", err))
	}
	return c
}

func (m *DomainMetrics) OperationCreated(opType string) {
	m.OperationsCreated.WithLabelValues(opType).Inc()
}

func (m *DomainMetrics) OperationCanceled(opType string) {
	m.OperationsCanceled.WithLabelValues(opType).Inc()
}

func (m *DomainMetrics) PaymentRegistered(method, direction string, amount float64) {
	m.Payments.WithLabelValues(method, direction).Inc()
	if amount > 0 {
		m.PaymentAmount.WithLabelValues(method, direction).Add(amount)
	}
}

func (m *DomainMetrics) RentalReturned(status string) {
	m.RentalsReturned.WithLabelValues(status).Inc()
}

func (m *DomainMetrics) StockConflict(reason string) {
	m.StockConflicts.WithLabelValues(reason).Inc()
}
