package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/operation"
)

// OperationHandler ventas, alquileres, reservas, pagos, anulaciones y devoluciones (protegido).
type OperationHandler struct {
	svc *operation.Service
	log zerolog.Logger
}

// NewOperationHandler construye el handler.
func NewOperationHandler(svc *operation.Service, log zerolog.Logger) *OperationHandler {
	return &OperationHandler{svc: svc, log: log}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// operationID lee :id como entero positivo.
func operationID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de operación inválido"})
}

// CreateSale godoc
// @Summary      Registrar venta
// @Description  Descuenta stock, aplica descuentos y registra los pagos iniciales.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "client_id, items, payments, coupon_code"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *OperationHandler) CreateSale(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.CreateSale(c.UserContext(), ActorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateRental godoc
// @Summary      Registrar alquiler
// @Description  Asigna unidades, calcula el total del periodo y registra la garantía.
// @Tags         rentals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRentalRequest  true  "client_id, items, out_date, expected_return_date, guarantee"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/rentals [post]
func (h *OperationHandler) CreateRental(c *fiber.Ctx) error {
	var in dto.CreateRentalRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.CreateRental(c.UserContext(), ActorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateReservation godoc
// @Summary      Registrar reserva
// @Description  Aparta stock para una venta o alquiler futuro.
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReservationRequest  true  "client_id, target_type, items, pickup_date"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *OperationHandler) CreateReservation(c *fiber.Ctx) error {
	var in dto.CreateReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.CreateReservation(c.UserContext(), ActorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ConvertReservation godoc
// @Summary      Convertir reserva
// @Description  Convierte la reserva en venta o alquiler; las líneas no incluidas se liberan.
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "ID de la operación"
// @Param        body  body  dto.ConvertReservationRequest  false  "item_ids, expected_return_date, guarantee, payments"
// @Success      200  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/convert [post]
func (h *OperationHandler) ConvertReservation(c *fiber.Ctx) error {
	id, ok := operationID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.ConvertReservationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.svc.ConvertReservation(c.UserContext(), ActorFrom(c), id, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// RegisterPayment godoc
// @Summary      Registrar pago
// @Description  Agrega un asiento (entrada, salida o corrección) al libro de pagos.
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "ID de la operación"
// @Param        body  body  dto.RegisterPaymentRequest  true  "amount, method, direction, category"
// @Success      201  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/operations/{id}/payments [post]
func (h *OperationHandler) RegisterPayment(c *fiber.Ctx) error {
	id, ok := operationID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.RegisterPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.RegisterPayment(c.UserContext(), ActorFrom(c), id, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// PostPayment godoc
// @Summary      Contabilizar pago pendiente
// @Description  Pasa un asiento de pending a posted y aplica sus efectos sobre la cuenta y la billetera.
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        id          path  int     true  "ID de la operación"
// @Param        payment_id  path  string  true  "ID del pago"
// @Success      200  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/operations/{id}/payments/{payment_id}/post [post]
func (h *OperationHandler) PostPayment(c *fiber.Ctx) error {
	id, ok := operationID(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.svc.PostPayment(c.UserContext(), ActorFrom(c), id, c.Params("payment_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Anular operación
// @Description  Libera stock, revierte garantía y devuelve lo pagado.
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "ID de la operación"
// @Param        body  body  dto.CancelOperationRequest  true  "reason"
// @Success      200  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/operations/{id}/cancel [post]
func (h *OperationHandler) Cancel(c *fiber.Ctx) error {
	id, ok := operationID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.CancelOperationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.CancelOperation(c.UserContext(), ActorFrom(c), id, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ReturnRental godoc
// @Summary      Devolver alquiler
// @Description  Registra la devolución de prendas con su condición, multas y recargo por atraso.
// @Tags         rentals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "ID de la operación"
// @Param        body  body  dto.ReturnRentalRequest  true  "items, return_date"
// @Success      200  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/rentals/{id}/return [post]
func (h *OperationHandler) ReturnRental(c *fiber.Ctx) error {
	id, ok := operationID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.ReturnRentalRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.ReturnRental(c.UserContext(), ActorFrom(c), id, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ReturnSale godoc
// @Summary      Devolver venta
// @Description  Devolución parcial o total dentro de la ventana permitida.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "ID de la operación"
// @Param        body  body  dto.ReturnSaleRequest  true  "items, refund_method"
// @Success      200  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/return [post]
func (h *OperationHandler) ReturnSale(c *fiber.Ctx) error {
	id, ok := operationID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.ReturnSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.ReturnSale(c.UserContext(), ActorFrom(c), id, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetSummary godoc
// @Summary      Estado de cuenta
// @Description  Operación con su detalle y el historial de pagos con saldo acumulado.
// @Tags         operations
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "ID de la operación"
// @Success      200  {object}  dto.OperationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/operations/{id} [get]
func (h *OperationHandler) GetSummary(c *fiber.Ctx) error {
	id, ok := operationID(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.svc.GetOperationSummary(c.UserContext(), ActorFrom(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListByClient godoc
// @Summary      Operaciones de un cliente
// @Tags         operations
// @Security     Bearer
// @Produce      json
// @Param        client_id  path  string  true  "ID del cliente"
// @Param        limit  query  int  false  "Tamaño de página"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.OperationListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/clients/{client_id}/operations [get]
func (h *OperationHandler) ListByClient(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	out, err := h.svc.ListByClient(c.UserContext(), ActorFrom(c), c.Params("client_id"), page)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Quote godoc
// @Summary      Cotizar carrito
// @Description  Calcula precios y descuentos sin efectos.
// @Tags         quotes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.QuoteRequest  true  "operation_type, items"
// @Success      200  {object}  dto.QuoteResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/quotes [post]
func (h *OperationHandler) Quote(c *fiber.Ctx) error {
	var in dto.QuoteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.svc.Quote(c.UserContext(), ActorFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// MarkOverdue godoc
// @Summary      Marcar alquileres vencidos
// @Tags         batch
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.BatchResult
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/batch/overdue [post]
func (h *OperationHandler) MarkOverdue(c *fiber.Ctx) error {
	out, err := h.svc.MarkOverdueRentals(c.UserContext(), GetTenantID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ExpireReservations godoc
// @Summary      Vencer reservas
// @Tags         batch
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.BatchResult
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/batch/expire-reservations [post]
func (h *OperationHandler) ExpireReservations(c *fiber.Ctx) error {
	out, err := h.svc.ExpireReservations(c.UserContext(), GetTenantID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ReconcileBalances godoc
// @Summary      Conciliar saldos de clientes
// @Tags         batch
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.BatchResult
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/batch/reconcile-balances [post]
func (h *OperationHandler) ReconcileBalances(c *fiber.Ctx) error {
	out, err := h.svc.ReconcileClientBalances(c.UserContext(), GetTenantID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
