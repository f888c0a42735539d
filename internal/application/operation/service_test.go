package operation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/operation"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/pricing"
	"github.com/jhoicas/Alquiler-api/internal/infrastructure/lock"
	"github.com/jhoicas/Alquiler-api/internal/infrastructure/memory"
)

var inicio = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memory.Store
	svc    *operation.Service
	now    time.Time
	cfg    operation.Config
	seller operation.Actor
	admin  operation.Actor
}

// newFixture catálogo: "traje" por lotes (5 u.) y "vestido" serializado (1 unidad).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  memory.New(),
		now:    inicio,
		seller: operation.Actor{TenantID: "t1", BranchID: "b1", UserID: "u-vendedor", Role: "seller"},
		admin:  operation.Actor{TenantID: "t1", BranchID: "b1", UserID: "u-admin", Role: "admin"},
	}
	f.store.AddProduct(entity.Product{ID: "traje", TenantID: "t1", Name: "Traje", SalePrice: dec("300"), RentalPrice: dec("100"), CanSell: true, CanRent: true})
	f.store.AddProduct(entity.Product{ID: "vestido", TenantID: "t1", Name: "Vestido", SalePrice: dec("900"), RentalPrice: dec("200"), CanSell: true, CanRent: true, Serialized: true})
	f.store.AddClient(entity.Client{ID: "c1", TenantID: "t1", Name: "Ana"})

	inv := f.store.Repositories().Inventory
	require.NoError(t, inv.CreateLot(f.ctx, &entity.StockLot{
		ID: "lote-traje", TenantID: "t1", ProductID: "traje", BranchID: "b1",
		Status: entity.ItemStatusAvailable, Quantity: 5, CreatedAt: inicio.AddDate(0, -1, 0),
	}))
	require.NoError(t, inv.CreateItem(f.ctx, &entity.InventoryItem{
		ID: "vestido-1", TenantID: "t1", ProductID: "vestido", BranchID: "b1", SerialNumber: "V-001",
		Status: entity.ItemStatusAvailable, CreatedAt: inicio.AddDate(0, -1, 0),
	}))

	f.cfg = operation.Config{
		Pricing: pricing.Rules{
			MaxDiscountPercentageAllowed:    dec("0.25"),
			RequireAdminAuthForDiscountOver: dec("0.10"),
			AllowStacking:                   true,
		},
		SaleReturnWindowDays: 30,
		LateFeePerDay:        dec("10"),
		LoyaltyPointsPerUnit: dec("0.01"),
		ReferralReward:       dec("20"),
		Location:             time.UTC,
	}
	f.withMetrics(nil)
	return f
}

// withMetrics reconstruye el servicio con otro colector de métricas.
func (f *fixture) withMetrics(m ports.Metrics) {
	f.svc = operation.NewService(f.store, f.store.Repositories(), lock.NewLocalLocker(), m, f.cfg, zerolog.Nop()).
		WithClock(func() time.Time { return f.now })
}

func (f *fixture) lotQty() int {
	lot, err := f.store.Repositories().Inventory.GetLot(f.ctx, "lote-traje")
	require.NoError(f.t, err)
	return lot.Quantity
}

func (f *fixture) itemStatus() entity.ItemStatus {
	it, err := f.store.Repositories().Inventory.GetItem(f.ctx, "vestido-1")
	require.NoError(f.t, err)
	return it.Status
}

func (f *fixture) client(id string) *entity.Client {
	c, err := f.store.Repositories().Clients.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) sale(clientID, productID string, qty int, paid string) *dto.OperationResponse {
	req := dto.CreateSaleRequest{
		ClientID: clientID,
		Items:    []dto.LineRequest{{ProductID: productID, Quantity: qty}},
	}
	if paid != "" {
		req.Payments = []dto.PaymentRequest{{Amount: dec(paid), Method: entity.PaymentMethodCash}}
	}
	resp, err := f.svc.CreateSale(f.ctx, f.seller, req)
	require.NoError(f.t, err)
	return resp
}

func (f *fixture) rental(productID string, qty int, days int, g *dto.GuaranteeRequest, paid string) *dto.OperationResponse {
	req := dto.CreateRentalRequest{
		ClientID:           "c1",
		Items:              []dto.LineRequest{{ProductID: productID, Quantity: qty}},
		OutDate:            f.now,
		ExpectedReturnDate: f.now.AddDate(0, 0, days),
		Guarantee:          g,
	}
	if paid != "" {
		req.Payments = []dto.PaymentRequest{{Amount: dec(paid), Method: entity.PaymentMethodCash}}
	}
	resp, err := f.svc.CreateRental(f.ctx, f.seller, req)
	require.NoError(f.t, err)
	return resp
}

func (f *fixture) reservation(target string, paid string) *dto.OperationResponse {
	ret := f.now.AddDate(0, 0, 3)
	req := dto.CreateReservationRequest{
		ClientID:   "c1",
		TargetType: target,
		Items:      []dto.LineRequest{{ProductID: "vestido", Quantity: 1}},
		PickupDate: f.now.AddDate(0, 0, 1),
	}
	if target == "rental" {
		req.ReturnDate = &ret
	}
	if paid != "" {
		req.Payments = []dto.PaymentRequest{{Amount: dec(paid), Method: entity.PaymentMethodCash}}
	}
	resp, err := f.svc.CreateReservation(f.ctx, f.seller, req)
	require.NoError(f.t, err)
	return resp
}

// ── Venta y libro de pagos ──

func TestCreateSale_PagadaQuedaCompletada(t *testing.T) {
	f := newFixture(t)
	resp := f.sale("c1", "traje", 1, "300")

	assert.Equal(t, "VEN-20260601-0001", resp.ReferenceCode)
	assert.Equal(t, string(entity.OperationStatusCompleted), resp.Status)
	assert.Equal(t, string(entity.PaymentStatusPaid), resp.PaymentStatus)
	assert.True(t, resp.Balance.IsZero())
	assert.Equal(t, 4, f.lotQty())
	assert.Equal(t, int64(3), f.client("c1").LoyaltyPoints)
}

func TestRegisterPayment_ExcedenteGeneraUnCredito(t *testing.T) {
	f := newFixture(t)
	sale := f.sale("c1", "traje", 1, "300")

	f.now = inicio.Add(time.Hour)
	resp, err := f.svc.RegisterPayment(f.ctx, f.seller, sale.ID, dto.RegisterPaymentRequest{
		Amount: dec("50"), Method: entity.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.True(t, resp.Balance.IsZero())
	assert.True(t, resp.IsCredit)
	assert.True(t, resp.CreditAmount.Equal(dec("50")))

	entries, err := f.store.Repositories().Credits.ListByClient(f.ctx, "c1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Amount.Equal(dec("50")))
	assert.Equal(t, entity.CreditReasonOverpayment, entries[0].Reason)
	assert.True(t, f.client("c1").CreditBalance.Equal(dec("50")))

	require.Len(t, resp.Payments, 2)
	assert.True(t, resp.Payments[0].HistoricalNet.Equal(dec("300")))
	assert.True(t, resp.Payments[0].HistoricalBalance.IsZero())
	assert.True(t, resp.Payments[1].HistoricalNet.Equal(dec("350")))
}

func TestRegisterPayment_PendienteNoCuenta(t *testing.T) {
	f := newFixture(t)
	sale := f.sale("", "traje", 1, "")
	assert.Equal(t, string(entity.PaymentStatusPending), sale.PaymentStatus)

	resp, err := f.svc.RegisterPayment(f.ctx, f.seller, sale.ID, dto.RegisterPaymentRequest{
		Amount: dec("300"), Method: entity.PaymentMethodTransfer, Pending: true,
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.PaymentStatusPending), resp.PaymentStatus)
	assert.True(t, resp.Balance.Equal(dec("300")))
}

func TestSaldoCliente_SeConsumeYNoAlcanza(t *testing.T) {
	f := newFixture(t)
	first := f.sale("c1", "traje", 1, "300")
	_, err := f.svc.RegisterPayment(f.ctx, f.seller, first.ID, dto.RegisterPaymentRequest{Amount: dec("50"), Method: entity.PaymentMethodCash})
	require.NoError(t, err)

	second, err := f.svc.CreateSale(f.ctx, f.seller, dto.CreateSaleRequest{
		ClientID: "c1",
		Items:    []dto.LineRequest{{ProductID: "traje", Quantity: 1}},
		Payments: []dto.PaymentRequest{
			{Amount: dec("50"), Method: entity.PaymentMethodClientCredit},
			{Amount: dec("250"), Method: entity.PaymentMethodCash},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.PaymentStatusPaid), second.PaymentStatus)
	assert.True(t, f.client("c1").CreditBalance.IsZero())

	_, err = f.svc.RegisterPayment(f.ctx, f.seller, second.ID, dto.RegisterPaymentRequest{
		Amount: dec("10"), Method: entity.PaymentMethodClientCredit,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientCredit))
}

func TestCreateSale_StockInsuficienteRevierteTodo(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateSale(f.ctx, f.seller, dto.CreateSaleRequest{
		Items: []dto.LineRequest{{ProductID: "traje", Quantity: 3}, {ProductID: "vestido", Quantity: 2}},
	})
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "vestido", stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Required)
	assert.Equal(t, 1, stockErr.Available)

	assert.Equal(t, 5, f.lotQty())
	assert.Equal(t, entity.ItemStatusAvailable, f.itemStatus())
	op, err := f.store.Repositories().Operations.GetByID(f.ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, op)
}

func TestCreateSale_DescuentoManualRequiereAdmin(t *testing.T) {
	f := newFixture(t)
	req := dto.CreateSaleRequest{
		Items: []dto.LineRequest{{ProductID: "traje", Quantity: 1, ManualDiscount: dec("40")}},
	}
	_, err := f.svc.CreateSale(f.ctx, f.seller, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.Equal(t, 5, f.lotQty())

	resp, err := f.svc.CreateSale(f.ctx, f.admin, req)
	require.NoError(t, err)
	assert.True(t, resp.TotalAmount.Equal(dec("260")))
	assert.True(t, resp.RequiresAdminAuth)
	assert.Equal(t, pricing.ReasonManual, resp.Lines[0].DiscountReason)
}

func TestCreateSale_Cupon(t *testing.T) {
	f := newFixture(t)
	f.store.AddCoupon(entity.Coupon{
		Code: "JUNIO", TenantID: "t1", DiscountType: entity.DiscountTypePercentage,
		Value: dec("10"), MaxUses: 1, Active: true,
	})
	req := dto.CreateSaleRequest{Items: []dto.LineRequest{{ProductID: "traje", Quantity: 1}}, CouponCode: "JUNIO"}

	resp, err := f.svc.CreateSale(f.ctx, f.seller, req)
	require.NoError(t, err)
	assert.True(t, resp.TotalAmount.Equal(dec("270")))

	_, err = f.svc.CreateSale(f.ctx, f.seller, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCouponInvalid))
}

func TestCreateSale_ValidacionAntesDeEfectos(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateSale(f.ctx, f.seller, dto.CreateSaleRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestReferido_RecompensaAlPrimerPagoCompleto(t *testing.T) {
	f := newFixture(t)
	f.store.AddClient(entity.Client{ID: "c2", TenantID: "t1", Name: "Luis", ReferredBy: "c1"})
	f.store.AddReferral(entity.Referral{
		ID: "r1", TenantID: "t1", ReferrerClientID: "c1", ReferredClientID: "c2",
		Status: entity.ReferralStatusPending, CreatedAt: inicio,
	})

	f.sale("c2", "traje", 1, "300")

	assert.True(t, f.client("c1").CreditBalance.Equal(dec("20")))
	pending, err := f.store.Repositories().Referrals.GetPendingByReferred(f.ctx, "c2")
	require.NoError(t, err)
	assert.Nil(t, pending)
}

// ── Anulación ──

func TestCancel_SegundaAnulacionFallaSinReembolsoExtra(t *testing.T) {
	f := newFixture(t)
	sale := f.sale("c1", "traje", 1, "300")

	resp, err := f.svc.CancelOperation(f.ctx, f.seller, sale.ID, dto.CancelOperationRequest{Reason: "cliente desiste"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.OperationStatusCanceled), resp.Status)
	assert.Equal(t, string(entity.SaleStatusCanceled), resp.DetailStatus)
	assert.True(t, resp.NetPaid.IsZero())
	require.Len(t, resp.Payments, 2)
	refund := resp.Payments[1]
	assert.Equal(t, string(entity.PaymentDirectionOut), refund.Direction)
	assert.Equal(t, entity.PaymentMethodCash, refund.Method)
	assert.True(t, refund.Amount.Equal(dec("300")))

	assert.Equal(t, 5, f.lotQty())
	assert.Equal(t, int64(0), f.client("c1").LoyaltyPoints)

	_, err = f.svc.CancelOperation(f.ctx, f.seller, sale.ID, dto.CancelOperationRequest{Reason: "otra vez"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyCanceled))

	summary, err := f.svc.GetOperationSummary(f.ctx, f.seller, sale.ID)
	require.NoError(t, err)
	assert.Len(t, summary.Payments, 2)
}

func TestCancel_ReversaExcedenteAcreditado(t *testing.T) {
	f := newFixture(t)
	sale := f.sale("c1", "traje", 1, "350")
	assert.True(t, f.client("c1").CreditBalance.Equal(dec("50")))

	resp, err := f.svc.CancelOperation(f.ctx, f.seller, sale.ID, dto.CancelOperationRequest{Reason: "error de caja"})
	require.NoError(t, err)
	assert.True(t, resp.Payments[1].Amount.Equal(dec("350")))
	assert.True(t, f.client("c1").CreditBalance.IsZero())
}

func TestCancel_AlquilerLiberaUnidadYGarantia(t *testing.T) {
	f := newFixture(t)
	rental := f.rental("vestido", 1, 2, &dto.GuaranteeRequest{Type: entity.GuaranteeTypeDocument}, "")
	assert.Equal(t, entity.ItemStatusRented, f.itemStatus())

	resp, err := f.svc.CancelOperation(f.ctx, f.seller, rental.ID, dto.CancelOperationRequest{Reason: "cambio de fecha"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.RentalStatusCanceled), resp.DetailStatus)
	assert.Equal(t, entity.GuaranteeStatusReleased, resp.GuaranteeStatus)
	assert.Equal(t, entity.ItemStatusAvailable, f.itemStatus())
}

func TestCancel_OtroTenantNoEncuentra(t *testing.T) {
	f := newFixture(t)
	sale := f.sale("", "traje", 1, "300")
	other := operation.Actor{TenantID: "t2", UserID: "u"}

	_, err := f.svc.CancelOperation(f.ctx, other, sale.ID, dto.CancelOperationRequest{Reason: "x"})
	assert.True(t, errors.Is(err, domain.ErrOperationNotFound))
}

// ── Reservas ──

func TestReserva_CicloSerializadoSinTocarLotes(t *testing.T) {
	f := newFixture(t)
	res := f.reservation("rental", "50")
	assert.Equal(t, entity.ItemStatusReserved, f.itemStatus())
	assert.Equal(t, string(entity.ReservationStatusConfirmed), res.DetailStatus)
	assert.Equal(t, 5, f.lotQty())

	conv, err := f.svc.ConvertReservation(f.ctx, f.seller, res.ID, dto.ConvertReservationRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(entity.OperationTypeRental), conv.Type)
	assert.Equal(t, string(entity.RentalStatusRented), conv.DetailStatus)
	assert.Equal(t, entity.ItemStatusRented, f.itemStatus())
	assert.Equal(t, 5, f.lotQty())
	assert.True(t, conv.NetPaid.Equal(dec("50")))

	back, err := f.svc.ReturnRental(f.ctx, f.seller, conv.ID, dto.ReturnRentalRequest{
		Items: []dto.ReturnItemRequest{{RentalItemID: conv.Lines[0].ID, Condition: "ok"}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.RentalStatusReturned), back.DetailStatus)
	assert.Equal(t, entity.ItemStatusAvailable, f.itemStatus())
	assert.Equal(t, 5, f.lotQty())
}

func TestConvert_ItemInexistenteEsInconsistencia(t *testing.T) {
	f := newFixture(t)
	res := f.reservation("sale", "")

	_, err := f.svc.ConvertReservation(f.ctx, f.seller, res.ID, dto.ConvertReservationRequest{ItemIDs: []string{"no-existe"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConsistency))
	assert.Equal(t, entity.ItemStatusReserved, f.itemStatus())

	summary, err := f.svc.GetOperationSummary(f.ctx, f.seller, res.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.OperationTypeReservation), summary.Type)
	assert.Equal(t, string(entity.ReservationStatusPending), summary.DetailStatus)
}

func TestExpireReservations_LiberaYRetieneAbono(t *testing.T) {
	f := newFixture(t)
	res := f.reservation("sale", "50")

	f.now = inicio.AddDate(0, 0, 3)
	out, err := f.svc.ExpireReservations(f.ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Processed)
	assert.Equal(t, entity.ItemStatusAvailable, f.itemStatus())

	summary, err := f.svc.GetOperationSummary(f.ctx, f.seller, res.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.OperationStatusCanceled), summary.Status)
	assert.Equal(t, string(entity.ReservationStatusExpired), summary.DetailStatus)
	assert.True(t, summary.NetPaid.Equal(dec("50")))

	again, err := f.svc.ExpireReservations(f.ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Processed)
}

// ── Devoluciones de alquiler ──

func TestReturnRental_MoraYGarantiaEnEfectivo(t *testing.T) {
	f := newFixture(t)
	rental := f.rental("vestido", 1, 2, &dto.GuaranteeRequest{Type: entity.GuaranteeTypeCash, Amount: dec("100")}, "100")

	f.now = inicio.AddDate(0, 0, 4)
	resp, err := f.svc.ReturnRental(f.ctx, f.seller, rental.ID, dto.ReturnRentalRequest{
		Items: []dto.ReturnItemRequest{{RentalItemID: rental.Lines[0].ID, Condition: "ok"}},
	})
	require.NoError(t, err)

	assert.True(t, resp.LateFee.Equal(dec("20")))
	assert.True(t, resp.TotalAmount.Equal(dec("220")))
	assert.Equal(t, entity.GuaranteeStatusExecuted, resp.GuaranteeStatus)
	assert.True(t, resp.NetPaid.Equal(dec("200")))
	assert.True(t, resp.Balance.Equal(dec("20")))
	assert.Equal(t, string(entity.PaymentStatusPartial), resp.PaymentStatus)
	assert.Equal(t, string(entity.RentalStatusReturned), resp.DetailStatus)
	assert.Equal(t, string(entity.OperationStatusCompleted), resp.Status)
	assert.Equal(t, entity.PaymentMethodGuarantee, resp.Payments[len(resp.Payments)-1].Method)
	assert.Equal(t, entity.ItemStatusAvailable, f.itemStatus())
	assert.Equal(t, int64(1), f.client("c1").LoyaltyPoints)

	_, err = f.svc.ReturnRental(f.ctx, f.seller, rental.ID, dto.ReturnRentalRequest{
		Items: []dto.ReturnItemRequest{{RentalItemID: rental.Lines[0].ID, Condition: "ok"}},
	})
	assert.True(t, errors.Is(err, domain.ErrAlreadyReturned))
}

func TestReturnRental_GarantiaSinSaldoSeDevuelve(t *testing.T) {
	f := newFixture(t)
	rental := f.rental("vestido", 1, 2, &dto.GuaranteeRequest{Type: entity.GuaranteeTypeCash, Amount: dec("100")}, "200")

	resp, err := f.svc.ReturnRental(f.ctx, f.seller, rental.ID, dto.ReturnRentalRequest{
		Items: []dto.ReturnItemRequest{{RentalItemID: rental.Lines[0].ID, Condition: "ok", Cleaning: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.GuaranteeStatusReleased, resp.GuaranteeStatus)
	assert.Len(t, resp.Payments, 1)
	assert.Equal(t, entity.ItemStatusLaundry, f.itemStatus())
}

func TestReturnRental_LoteDanadoNoReintegra(t *testing.T) {
	f := newFixture(t)
	rental := f.rental("traje", 2, 2, nil, "")
	assert.Equal(t, 3, f.lotQty())

	resp, err := f.svc.ReturnRental(f.ctx, f.seller, rental.ID, dto.ReturnRentalRequest{
		Items: []dto.ReturnItemRequest{{RentalItemID: rental.Lines[0].ID, Condition: "dañado", Penalty: dec("30")}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.RentalStatusDamaged), resp.DetailStatus)
	assert.True(t, resp.PenaltyAmount.Equal(dec("30")))
	assert.True(t, resp.TotalAmount.Equal(dec("230")))
	assert.Equal(t, 3, f.lotQty())
}

func TestMarkOverdueRentals(t *testing.T) {
	f := newFixture(t)
	rental := f.rental("vestido", 1, 1, nil, "")

	out, err := f.svc.MarkOverdueRentals(f.ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Processed)

	f.now = inicio.AddDate(0, 0, 2)
	out, err = f.svc.MarkOverdueRentals(f.ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Processed)

	summary, err := f.svc.GetOperationSummary(f.ctx, f.seller, rental.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.RentalStatusOverdue), summary.DetailStatus)

	// un alquiler atrasado todavía se puede devolver
	_, err = f.svc.ReturnRental(f.ctx, f.seller, rental.ID, dto.ReturnRentalRequest{
		Items: []dto.ReturnItemRequest{{RentalItemID: rental.Lines[0].ID, Condition: "ok"}},
	})
	assert.NoError(t, err)
}

// ── Devoluciones de venta ──

func TestReturnSale_ParcialReembolsaYRevierteStock(t *testing.T) {
	f := newFixture(t)
	sale := f.sale("c1", "traje", 2, "600")
	assert.Equal(t, 3, f.lotQty())
	assert.Equal(t, int64(6), f.client("c1").LoyaltyPoints)

	f.now = inicio.AddDate(0, 0, 5)
	resp, err := f.svc.ReturnSale(f.ctx, f.seller, sale.ID, dto.ReturnSaleRequest{
		Items: []dto.ReturnSaleItemRequest{{SaleItemID: sale.Lines[0].ID, Quantity: 1, Condition: "ok"}},
	})
	require.NoError(t, err)

	assert.True(t, resp.TotalAmount.Equal(dec("300")))
	assert.True(t, resp.NetPaid.Equal(dec("300")))
	assert.Equal(t, string(entity.SaleStatusCompleted), resp.DetailStatus)
	refund := resp.Payments[len(resp.Payments)-1]
	assert.Equal(t, string(entity.PaymentCategoryRefund), refund.Category)
	assert.True(t, refund.Amount.Equal(dec("300")))
	assert.Equal(t, 4, f.lotQty())
	assert.Equal(t, int64(3), f.client("c1").LoyaltyPoints)

	_, err = f.svc.ReturnSale(f.ctx, f.seller, sale.ID, dto.ReturnSaleRequest{
		Items: []dto.ReturnSaleItemRequest{{SaleItemID: sale.Lines[0].ID, Quantity: 2, Condition: "ok"}},
	})
	assert.True(t, errors.Is(err, domain.ErrAlreadyReturned))
}

func TestReturnSale_FueraDePlazo(t *testing.T) {
	f := newFixture(t)
	sale := f.sale("", "traje", 1, "300")

	f.now = inicio.AddDate(0, 0, 31)
	_, err := f.svc.ReturnSale(f.ctx, f.seller, sale.ID, dto.ReturnSaleRequest{
		Items: []dto.ReturnSaleItemRequest{{SaleItemID: sale.Lines[0].ID, Quantity: 1, Condition: "ok"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrReturnWindowExceeded))
	assert.Equal(t, 4, f.lotQty())
}

func TestReturnSale_UnidadDanadaVaAMantenimiento(t *testing.T) {
	f := newFixture(t)
	sale := f.sale("", "vestido", 1, "900")

	resp, err := f.svc.ReturnSale(f.ctx, f.seller, sale.ID, dto.ReturnSaleRequest{
		Items:        []dto.ReturnSaleItemRequest{{SaleItemID: sale.Lines[0].ID, Quantity: 1, Condition: "dañado"}},
		RefundMethod: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.SaleStatusReturned), resp.DetailStatus)
	assert.Equal(t, entity.PaymentMethodTransfer, resp.Payments[len(resp.Payments)-1].Method)
	assert.Equal(t, entity.ItemStatusMaintenance, f.itemStatus())
}

// ── Consultas y procesos por lote ──

func TestListByClient(t *testing.T) {
	f := newFixture(t)
	f.sale("c1", "traje", 1, "300")
	f.sale("c1", "traje", 1, "")
	f.sale("", "traje", 1, "300")

	out, err := f.svc.ListByClient(f.ctx, f.seller, "c1", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, 20, out.Page.Limit)
	assert.Greater(t, out.Items[0].ID, out.Items[1].ID)

	_, err = f.svc.ListByClient(f.ctx, f.seller, "desconocido", dto.PageRequest{})
	assert.True(t, errors.Is(err, domain.ErrClientNotFound))
}

func TestQuote_SinEfectos(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Quote(f.ctx, f.seller, dto.QuoteRequest{
		OperationType: "rental",
		Items:         []dto.LineRequest{{ProductID: "traje", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.True(t, q.Total.Equal(dec("200")))
	assert.Equal(t, 5, f.lotQty())
}

func TestReconcileClientBalances_CorrigeDesvio(t *testing.T) {
	f := newFixture(t)
	f.store.AddClient(entity.Client{ID: "c3", TenantID: "t1", Name: "Eva", CreditBalance: dec("75"), LoyaltyPoints: 9})
	f.sale("c1", "traje", 1, "350")

	out, err := f.svc.ReconcileClientBalances(f.ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Processed)
	assert.Equal(t, []string{"c3"}, out.IDs)

	c3 := f.client("c3")
	assert.True(t, c3.CreditBalance.IsZero())
	assert.Equal(t, int64(0), c3.LoyaltyPoints)
	assert.True(t, f.client("c1").CreditBalance.Equal(dec("50")))
}
