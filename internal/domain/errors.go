package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
// Agrupados por clase: validación, no encontrado, regla de negocio, consistencia y concurrencia.
var (
	// Validación
	ErrInvalidInput = errors.New("entrada inválida")

	// No encontrado
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrOperationNotFound      = errors.New("operación no encontrada")
	ErrSaleNotFound           = errors.New("venta no encontrada")
	ErrRentalNotFound         = errors.New("alquiler no encontrado")
	ErrReservationNotFound    = errors.New("reserva no encontrada")
	ErrProductNotFound        = errors.New("producto no encontrado")
	ErrClientNotFound         = errors.New("cliente no encontrado")
	ErrStockNotFound          = errors.New("stock no encontrado")
	ErrGuaranteeNotFound      = errors.New("garantía no encontrada")
	ErrReservationItemMissing = errors.New("ítem de reserva no encontrado")
	ErrPaymentNotFound        = errors.New("pago no encontrado")

	// Reglas de negocio
	ErrInsufficientStock               = errors.New("stock insuficiente")
	ErrAlreadyReturned                 = errors.New("el ítem ya fue devuelto")
	ErrAlreadyCanceled                 = errors.New("la operación ya fue anulada")
	ErrReturnWindowExceeded            = errors.New("plazo de devolución excedido")
	ErrDiscountExceedsCeiling          = errors.New("el descuento excede el máximo permitido")
	ErrDiscountNotStackable            = errors.New("la promoción no admite descuento manual adicional")
	ErrProductNotAvailableForOperation = errors.New("el producto no está habilitado para este tipo de operación")
	ErrInvalidStatusTransition         = errors.New("transición de estado no permitida")
	ErrInsufficientCredit              = errors.New("saldo a favor insuficiente")
	ErrCouponInvalid                   = errors.New("cupón inválido o vencido")
	ErrOperationClosed                 = errors.New("la operación no admite cambios en su estado actual")
	ErrNegativeQuantity                = errors.New("la cantidad del lote no puede quedar negativa")
	ErrClientRequiredForCredit         = errors.New("el excedente requiere un cliente con billetera")
	ErrRefundExceedsPaid               = errors.New("la salida excede lo pagado")
	ErrPaymentNotPending               = errors.New("el pago no está pendiente")

	// Consistencia (datos corruptos aguas arriba, no recuperable)
	ErrConsistency = errors.New("inconsistencia de datos")

	// Concurrencia
	ErrConcurrentUpdate = errors.New("el recurso fue modificado por otra operación")

	// Heredados del API (resolución de tenant)
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
)

// BusinessError describe una violación de regla de negocio con contexto suficiente
// para que el llamador construya un mensaje preciso. Unwrap devuelve el sentinel.
type BusinessError struct {
	Err     error
	Code    string
	Message string
	Details map[string]any
}

func (e *BusinessError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewBusinessError construye un error de negocio sobre un sentinel.
func NewBusinessError(sentinel error, code, message string, details map[string]any) *BusinessError {
	return &BusinessError{Err: sentinel, Code: code, Message: message, Details: details}
}

// InsufficientStockError reporta faltante de stock por producto (requerido vs disponible).
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Required    int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("stock insuficiente para %s: requerido %d, disponible %d", name, e.Required, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ValidationError agrupa errores de campo detectados antes de cualquier efecto.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrInvalidInput.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError crea un error de validación para un único campo.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ConsistencyError indica datos corruptos detectados durante un caso de uso.
func ConsistencyError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConsistency, fmt.Sprintf(format, args...))
}
