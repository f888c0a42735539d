package operation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/pricing"
)

// CreateSale cotiza, asigna stock (unidades a vendido, lotes FIFO), aplica cupón y registra pagos iniciales.
func (s *Service) CreateSale(ctx context.Context, actor Actor, req dto.CreateSaleRequest) (*dto.OperationResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	var out *dto.OperationResponse
	err := s.withLocks(ctx, lineKeys(actor.TenantID, req.Items), func(ctx context.Context) error {
		return s.inTx(ctx, func(repos ports.Repositories, fx *txEffects) error {
			now := s.clock()
			if err := checkClient(ctx, repos, actor.TenantID, req.ClientID); err != nil {
				return err
			}
			q, err := s.quote(ctx, repos, actor, entity.OperationTypeSale, req.Items, now)
			if err != nil {
				return err
			}
			total := q.Total
			couponDiscount := decimal.Zero
			if req.CouponCode != "" {
				couponDiscount, err = redeemCoupon(ctx, repos, actor.TenantID, req.CouponCode, total, now)
				if err != nil {
					return err
				}
				total = pricing.Round2(pricing.ClampZero(total.Sub(couponDiscount)))
			}

			op, err := newOperation(ctx, repos, actor, entity.OperationTypeSale, req.ClientID, req.Notes, total, now)
			if err != nil {
				return err
			}
			lines, err := allocateLines(ctx, repos, actor, q, entity.ItemStatusSold)
			if err != nil {
				return err
			}
			sale := &entity.Sale{
				ID:             uuid.NewString(),
				OperationID:    op.ID,
				Status:         entity.SaleStatusCompleted,
				CouponCode:     req.CouponCode,
				CouponDiscount: couponDiscount,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			for _, l := range lines {
				sale.Items = append(sale.Items, &entity.SaleItem{LineItem: l, SaleID: sale.ID})
			}
			if err := repos.Sales.Create(ctx, sale); err != nil {
				return err
			}
			if err := s.initialPayments(ctx, repos, fx, op, actor, req.Payments, now); err != nil {
				return err
			}
			out, err = buildResponse(ctx, repos, op)
			if err != nil {
				return err
			}
			out.RequiresAdminAuth = q.RequiresAdminAuth
			s.logTransition(op, string(sale.Status), "venta registrada")
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OperationCreated(string(entity.OperationTypeSale))
	return out, nil
}

// CreateRental cotiza a precio de alquiler, pasa unidades a alquilado, registra garantía y pagos.
func (s *Service) CreateRental(ctx context.Context, actor Actor, req dto.CreateRentalRequest) (*dto.OperationResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if !req.ExpectedReturnDate.After(req.OutDate) {
		return nil, domain.NewValidationError("expected_return_date", "debe ser posterior a la fecha de salida")
	}
	var out *dto.OperationResponse
	err := s.withLocks(ctx, lineKeys(actor.TenantID, req.Items), func(ctx context.Context) error {
		return s.inTx(ctx, func(repos ports.Repositories, fx *txEffects) error {
			now := s.clock()
			if err := checkClient(ctx, repos, actor.TenantID, req.ClientID); err != nil {
				return err
			}
			q, err := s.quote(ctx, repos, actor, entity.OperationTypeRental, req.Items, now)
			if err != nil {
				return err
			}
			op, err := newOperation(ctx, repos, actor, entity.OperationTypeRental, req.ClientID, req.Notes, q.Total, now)
			if err != nil {
				return err
			}
			op.Status = entity.OperationStatusInProgress
			lines, err := allocateLines(ctx, repos, actor, q, entity.ItemStatusRented)
			if err != nil {
				return err
			}
			rental, err := s.newRental(ctx, repos, op, lines, req.OutDate, req.ExpectedReturnDate, req.Guarantee, now)
			if err != nil {
				return err
			}
			if err := s.initialPayments(ctx, repos, fx, op, actor, req.Payments, now); err != nil {
				return err
			}
			out, err = buildResponse(ctx, repos, op)
			if err != nil {
				return err
			}
			out.RequiresAdminAuth = q.RequiresAdminAuth
			s.logTransition(op, string(rental.Status), "alquiler registrado")
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OperationCreated(string(entity.OperationTypeRental))
	return out, nil
}

func (s *Service) newRental(ctx context.Context, repos ports.Repositories, op *entity.Operation, lines []entity.LineItem, outDate, expected time.Time, g *dto.GuaranteeRequest, now time.Time) (*entity.Rental, error) {
	rental := &entity.Rental{
		ID:                 uuid.NewString(),
		OperationID:        op.ID,
		Status:             entity.RentalStatusRented,
		OutDate:            outDate,
		ExpectedReturnDate: expected,
		PenaltyAmount:      decimal.Zero,
		LateFee:            decimal.Zero,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if g != nil {
		guarantee, err := newGuarantee(g, op, now)
		if err != nil {
			return nil, err
		}
		if err := repos.Guarantees.AddGuarantee(ctx, guarantee); err != nil {
			return nil, err
		}
		rental.GuaranteeID = guarantee.ID
	}
	for _, l := range lines {
		rental.Items = append(rental.Items, &entity.RentalItem{
			LineItem:      l,
			RentalID:      rental.ID,
			Status:        entity.RentalItemStatusRented,
			PenaltyAmount: decimal.Zero,
		})
	}
	if err := repos.Rentals.Create(ctx, rental); err != nil {
		return nil, err
	}
	return rental, nil
}

// CreateReservation aparta stock (unidades a reservado, lotes descontados) con abono opcional.
func (s *Service) CreateReservation(ctx context.Context, actor Actor, req dto.CreateReservationRequest) (*dto.OperationResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	target := entity.OperationType(req.TargetType)
	if target == entity.OperationTypeRental && (req.ReturnDate == nil || !req.ReturnDate.After(req.PickupDate)) {
		return nil, domain.NewValidationError("return_date", "requerida y posterior a la fecha de retiro")
	}
	var out *dto.OperationResponse
	err := s.withLocks(ctx, lineKeys(actor.TenantID, req.Items), func(ctx context.Context) error {
		return s.inTx(ctx, func(repos ports.Repositories, fx *txEffects) error {
			now := s.clock()
			if err := checkClient(ctx, repos, actor.TenantID, req.ClientID); err != nil {
				return err
			}
			q, err := s.quote(ctx, repos, actor, target, req.Items, now)
			if err != nil {
				return err
			}
			op, err := newOperation(ctx, repos, actor, entity.OperationTypeReservation, req.ClientID, req.Notes, q.Total, now)
			if err != nil {
				return err
			}
			lines, err := allocateLines(ctx, repos, actor, q, entity.ItemStatusReserved)
			if err != nil {
				return err
			}
			expires := pricing.Day(req.PickupDate.In(s.cfg.Location)).AddDate(0, 0, 1)
			if req.ExpiresAt != nil {
				expires = *req.ExpiresAt
			}
			res := &entity.Reservation{
				ID:          uuid.NewString(),
				OperationID: op.ID,
				Status:      entity.ReservationStatusPending,
				TargetType:  target,
				PickupDate:  req.PickupDate,
				ReturnDate:  req.ReturnDate,
				ExpiresAt:   expires,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			for _, l := range lines {
				res.Items = append(res.Items, &entity.ReservationItem{LineItem: l, ReservationID: res.ID})
			}
			if err := s.initialPayments(ctx, repos, fx, op, actor, req.Payments, now); err != nil {
				return err
			}
			if op.PaymentStatus != entity.PaymentStatusPending {
				res.Status = entity.ReservationStatusConfirmed
			}
			if err := repos.Reservations.Create(ctx, res); err != nil {
				return err
			}
			out, err = buildResponse(ctx, repos, op)
			if err != nil {
				return err
			}
			out.RequiresAdminAuth = q.RequiresAdminAuth
			s.logTransition(op, string(res.Status), "reserva registrada")
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OperationCreated(string(entity.OperationTypeReservation))
	return out, nil
}

// redeemCoupon valida el cupón contra el total y consume un uso.
func redeemCoupon(ctx context.Context, repos ports.Repositories, tenantID, code string, total decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	c, err := repos.Coupons.GetByCodeForUpdate(ctx, tenantID, code)
	if err != nil {
		return decimal.Zero, err
	}
	invalid := func(reason string) error {
		return domain.NewBusinessError(domain.ErrCouponInvalid, "COUPON_INVALID", "cupón "+code+": "+reason,
			map[string]any{"code": code})
	}
	switch {
	case c == nil:
		return decimal.Zero, invalid("no existe")
	case !c.Active || !pricing.WithinDays(now, c.ValidFrom, c.ValidTo):
		return decimal.Zero, invalid("no vigente")
	case c.MaxUses > 0 && c.UsedCount >= c.MaxUses:
		return decimal.Zero, invalid("sin usos disponibles")
	case c.MinPurchase.IsPositive() && total.LessThan(c.MinPurchase):
		return decimal.Zero, invalid("no alcanza la compra mínima")
	}
	var discount decimal.Decimal
	switch c.DiscountType {
	case entity.DiscountTypePercentage:
		discount = pricing.Round2(pricing.Percent(total, c.Value))
	case entity.DiscountTypeFixed:
		discount = c.Value
	default:
		return decimal.Zero, invalid("tipo de descuento desconocido")
	}
	if discount.GreaterThan(total) {
		discount = total
	}
	if err := repos.Coupons.IncrementUsage(ctx, tenantID, code); err != nil {
		return decimal.Zero, err
	}
	return discount, nil
}

func (s *Service) logTransition(op *entity.Operation, detailStatus, msg string) {
	s.log.Info().
		Int64("operation_id", op.ID).
		Str("reference", op.ReferenceCode).
		Str("type", string(op.Type)).
		Str("status", string(op.Status)).
		Str("detail_status", detailStatus).
		Str("payment_status", string(op.PaymentStatus)).
		Msg(msg)
}
