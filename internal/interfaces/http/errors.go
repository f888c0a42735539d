package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/domain"
)

// sentinelStatus código HTTP y código de error por sentinel de dominio.
var sentinelStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrOperationNotFound, fiber.StatusNotFound, "OPERATION_NOT_FOUND"},
	{domain.ErrSaleNotFound, fiber.StatusNotFound, "SALE_NOT_FOUND"},
	{domain.ErrRentalNotFound, fiber.StatusNotFound, "RENTAL_NOT_FOUND"},
	{domain.ErrReservationNotFound, fiber.StatusNotFound, "RESERVATION_NOT_FOUND"},
	{domain.ErrProductNotFound, fiber.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{domain.ErrClientNotFound, fiber.StatusNotFound, "CLIENT_NOT_FOUND"},
	{domain.ErrStockNotFound, fiber.StatusNotFound, "STOCK_NOT_FOUND"},
	{domain.ErrGuaranteeNotFound, fiber.StatusNotFound, "GUARANTEE_NOT_FOUND"},
	{domain.ErrPaymentNotFound, fiber.StatusNotFound, "PAYMENT_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrConcurrentUpdate, fiber.StatusConflict, "CONCURRENT_UPDATE"},
	{domain.ErrAlreadyCanceled, fiber.StatusConflict, "ALREADY_CANCELED"},
	{domain.ErrAlreadyReturned, fiber.StatusConflict, "ALREADY_RETURNED"},
	{domain.ErrOperationClosed, fiber.StatusConflict, "OPERATION_CLOSED"},
	{domain.ErrInvalidStatusTransition, fiber.StatusConflict, "INVALID_STATUS_TRANSITION"},
	{domain.ErrNegativeQuantity, fiber.StatusConflict, "NEGATIVE_QUANTITY"},
	{domain.ErrPaymentNotPending, fiber.StatusConflict, "PAYMENT_NOT_PENDING"},
	{domain.ErrReturnWindowExceeded, fiber.StatusUnprocessableEntity, "RETURN_WINDOW_EXCEEDED"},
	{domain.ErrDiscountExceedsCeiling, fiber.StatusUnprocessableEntity, "DISCOUNT_EXCEEDS_CEILING"},
	{domain.ErrDiscountNotStackable, fiber.StatusUnprocessableEntity, "DISCOUNT_NOT_STACKABLE"},
	{domain.ErrProductNotAvailableForOperation, fiber.StatusUnprocessableEntity, "PRODUCT_NOT_AVAILABLE"},
	{domain.ErrInsufficientCredit, fiber.StatusUnprocessableEntity, "INSUFFICIENT_CREDIT"},
	{domain.ErrCouponInvalid, fiber.StatusUnprocessableEntity, "COUPON_INVALID"},
	{domain.ErrClientRequiredForCredit, fiber.StatusUnprocessableEntity, "CLIENT_REQUIRED_FOR_CREDIT"},
	{domain.ErrRefundExceedsPaid, fiber.StatusUnprocessableEntity, "REFUND_EXCEEDS_PAID"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrConsistency, fiber.StatusInternalServerError, "DATA_INCONSISTENCY"},
}

// writeError traduce un error de caso de uso a respuesta HTTP con dto.ErrorResponse.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, resp := errorResponse(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("route", c.Route().Path).Msg("error interno")
	}
	return c.Status(status).JSON(resp)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			status, code = s.status, s.code
			break
		}
	}
	resp := dto.ErrorResponse{Code: code, Message: err.Error()}
	if status == fiber.StatusInternalServerError && code == "INTERNAL" {
		resp.Message = "error interno"
	}

	var (
		verr  *domain.ValidationError
		berr  *domain.BusinessError
		stock *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		resp.Details = make(map[string]any, len(verr.Fields))
		for k, v := range verr.Fields {
			resp.Details[k] = v
		}
	case errors.As(err, &stock):
		resp.Details = map[string]any{
			"product_id":   stock.ProductID,
			"product_name": stock.ProductName,
			"required":     stock.Required,
			"available":    stock.Available,
		}
	case errors.As(err, &berr):
		if berr.Code != "" {
			resp.Code = berr.Code
		}
		resp.Details = berr.Details
	}
	return status, resp
}
