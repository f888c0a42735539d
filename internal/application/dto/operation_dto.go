package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineRequest línea pedida en venta, alquiler o reserva.
// StockID opcional fija una unidad serializada o un lote concreto.
type LineRequest struct {
	ProductID      string          `json:"product_id" validate:"required"`
	StockID        string          `json:"stock_id,omitempty"`
	Size           string          `json:"size,omitempty"`
	Color          string          `json:"color,omitempty"`
	Quantity       int             `json:"quantity" validate:"required,min=1"`
	ManualDiscount decimal.Decimal `json:"manual_discount" validate:"gte=0"`
	Available      *int            `json:"available,omitempty" validate:"omitempty,min=0"`
}

// PaymentRequest pago inicial o abono.
type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Method    string          `json:"method" validate:"required,oneof=efectivo tarjeta transferencia saldo_cliente"`
	Reference string          `json:"reference,omitempty" validate:"max=120"`
	Pending   bool            `json:"pending,omitempty"`
}

// GuaranteeRequest garantía entregada al alquilar.
type GuaranteeRequest struct {
	Type        string          `json:"type" validate:"required,oneof=efectivo prenda documento"`
	Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
	Description string          `json:"description,omitempty" validate:"max=255"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	ClientID   string           `json:"client_id,omitempty"`
	Items      []LineRequest    `json:"items" validate:"required,min=1,dive"`
	Payments   []PaymentRequest `json:"payments,omitempty" validate:"dive"`
	CouponCode string           `json:"coupon_code,omitempty" validate:"max=40"`
	Notes      string           `json:"notes,omitempty" validate:"max=500"`
}

// CreateRentalRequest body para POST /api/rentals.
type CreateRentalRequest struct {
	ClientID           string            `json:"client_id" validate:"required"`
	Items              []LineRequest     `json:"items" validate:"required,min=1,dive"`
	Payments           []PaymentRequest  `json:"payments,omitempty" validate:"dive"`
	OutDate            time.Time         `json:"out_date" validate:"required"`
	ExpectedReturnDate time.Time         `json:"expected_return_date" validate:"required"`
	Guarantee          *GuaranteeRequest `json:"guarantee,omitempty"`
	Notes              string            `json:"notes,omitempty" validate:"max=500"`
}

// CreateReservationRequest body para POST /api/reservations.
// TargetType indica si la reserva terminará en venta o alquiler.
type CreateReservationRequest struct {
	ClientID   string           `json:"client_id" validate:"required"`
	TargetType string           `json:"target_type" validate:"required,oneof=sale rental"`
	Items      []LineRequest    `json:"items" validate:"required,min=1,dive"`
	Payments   []PaymentRequest `json:"payments,omitempty" validate:"dive"`
	PickupDate time.Time        `json:"pickup_date" validate:"required"`
	ReturnDate *time.Time       `json:"return_date,omitempty"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty"`
	Notes      string           `json:"notes,omitempty" validate:"max=500"`
}

// ConvertReservationRequest body para POST /api/reservations/:id/convert.
// ItemIDs vacío convierte todas las líneas; las no incluidas se liberan.
type ConvertReservationRequest struct {
	ItemIDs            []string          `json:"item_ids,omitempty"`
	ExpectedReturnDate *time.Time        `json:"expected_return_date,omitempty"`
	Guarantee          *GuaranteeRequest `json:"guarantee,omitempty"`
	Payments           []PaymentRequest  `json:"payments,omitempty" validate:"dive"`
}

// RegisterPaymentRequest body para POST /api/operations/:id/payments.
type RegisterPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Method    string          `json:"method" validate:"required,oneof=efectivo tarjeta transferencia saldo_cliente"`
	Direction string          `json:"direction,omitempty" validate:"omitempty,oneof=in out"`
	Category  string          `json:"category,omitempty" validate:"omitempty,oneof=payment refund correction"`
	Reference string          `json:"reference,omitempty" validate:"max=120"`
	Pending   bool            `json:"pending,omitempty"`
}

// CancelOperationRequest body para POST /api/operations/:id/cancel.
type CancelOperationRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

// ReturnItemRequest devolución de una línea de alquiler.
type ReturnItemRequest struct {
	RentalItemID string          `json:"rental_item_id" validate:"required"`
	Condition    string          `json:"condition" validate:"required,oneof=ok dañado perdido"`
	Penalty      decimal.Decimal `json:"penalty" validate:"gte=0"`
	Cleaning     bool            `json:"cleaning,omitempty"`
}

// ReturnRentalRequest body para POST /api/rentals/:operation_id/return.
type ReturnRentalRequest struct {
	Items      []ReturnItemRequest `json:"items" validate:"required,min=1,dive"`
	ReturnDate *time.Time          `json:"return_date,omitempty"`
}

// ReturnSaleItemRequest devolución parcial o total de una línea de venta.
type ReturnSaleItemRequest struct {
	SaleItemID string `json:"sale_item_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
	Condition  string `json:"condition" validate:"required,oneof=ok dañado"`
}

// ReturnSaleRequest body para POST /api/sales/:operation_id/return.
type ReturnSaleRequest struct {
	Items        []ReturnSaleItemRequest `json:"items" validate:"required,min=1,dive"`
	RefundMethod string                  `json:"refund_method,omitempty" validate:"omitempty,oneof=efectivo tarjeta transferencia saldo_cliente"`
}

// QuoteRequest body para POST /api/quotes.
type QuoteRequest struct {
	OperationType string        `json:"operation_type" validate:"required,oneof=sale rental"`
	Items         []LineRequest `json:"items" validate:"required,min=1,dive"`
}

// LineResponse línea de una operación o cotización.
type LineResponse struct {
	ID             string          `json:"id,omitempty"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	ListPrice      decimal.Decimal `json:"list_price"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountReason string          `json:"discount_reason,omitempty"`
	LineTotal      decimal.Decimal `json:"line_total"`
	BundleID       string          `json:"bundle_id,omitempty"`
	Status         string          `json:"status,omitempty"`
	StockIDs       []string        `json:"stock_ids,omitempty"`
}

// QuoteResponse cotización de un carrito.
type QuoteResponse struct {
	Lines             []LineResponse  `json:"lines"`
	ListTotal         decimal.Decimal `json:"list_total"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	RequiresAdminAuth bool            `json:"requires_admin_auth"`
}

// PaymentResponse asiento del libro con el estado de cuenta al momento de registrarse.
type PaymentResponse struct {
	ID                string          `json:"id"`
	Sequence          int64           `json:"sequence"`
	Amount            decimal.Decimal `json:"amount"`
	Direction         string          `json:"direction"`
	Category          string          `json:"category"`
	Status            string          `json:"status"`
	Method            string          `json:"method"`
	Reference         string          `json:"reference,omitempty"`
	Date              time.Time       `json:"date"`
	HistoricalNet     decimal.Decimal `json:"historical_net_paid"`
	HistoricalBalance decimal.Decimal `json:"historical_balance"`
}

// OperationResponse operación con su detalle y estado de cuenta.
type OperationResponse struct {
	ID                 int64             `json:"id"`
	ReferenceCode      string            `json:"reference_code"`
	Type               string            `json:"type"`
	Status             string            `json:"status"`
	DetailStatus       string            `json:"detail_status"`
	PaymentStatus      string            `json:"payment_status"`
	ClientID           string            `json:"client_id,omitempty"`
	BranchID           string            `json:"branch_id,omitempty"`
	Date               time.Time         `json:"date"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	NetPaid            decimal.Decimal   `json:"net_paid"`
	Balance            decimal.Decimal   `json:"balance"`
	CreditAmount       decimal.Decimal   `json:"credit_amount"`
	IsCredit           bool              `json:"is_credit"`
	Lines              []LineResponse    `json:"lines"`
	Payments           []PaymentResponse `json:"payments,omitempty"`
	ExpectedReturnDate *time.Time        `json:"expected_return_date,omitempty"`
	PenaltyAmount      decimal.Decimal   `json:"penalty_amount,omitempty"`
	LateFee            decimal.Decimal   `json:"late_fee,omitempty"`
	GuaranteeStatus    string            `json:"guarantee_status,omitempty"`
	RequiresAdminAuth  bool              `json:"requires_admin_auth,omitempty"`
}

// OperationListResponse listado paginado de operaciones.
type OperationListResponse struct {
	Items []OperationResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// BatchResult resultado de procesos por lote (atrasos, vencimientos, conciliación).
type BatchResult struct {
	Processed int      `json:"processed"`
	IDs       []string `json:"ids,omitempty"`
}
