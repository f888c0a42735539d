package operation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/application/checkout"
	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/inventory"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/pricing"
)

// Config reglas de negocio del ciclo de vida.
type Config struct {
	Pricing              pricing.Rules
	SaleReturnWindowDays int
	LateFeePerDay        decimal.Decimal
	LoyaltyPointsPerUnit decimal.Decimal // puntos por unidad monetaria pagada
	ReferralReward       decimal.Decimal
	LockTTL              time.Duration
	Location             *time.Location
}

// Actor quien ejecuta la operación (resuelto desde el token).
type Actor struct {
	TenantID string
	BranchID string
	UserID   string
	Role     string
}

// IsAdmin indica si el actor puede autorizar descuentos sobre el umbral.
func (a Actor) IsAdmin() bool { return a.Role == "admin" }

// Service casos de uso de venta, alquiler y reserva sobre una Operation.
// Cada caso de uso toma locks por operación/stock y corre en una unidad de trabajo.
type Service struct {
	tx      ports.TxRunner
	repos   ports.Repositories
	locker  ports.Locker
	metrics ports.Metrics
	cfg     Config
	log     zerolog.Logger
	now     func() time.Time
}

// NewService construye el servicio. repos se usa solo para lecturas fuera de transacción.
func NewService(
	tx ports.TxRunner,
	repos ports.Repositories,
	locker ports.Locker,
	metrics ports.Metrics,
	cfg Config,
	log zerolog.Logger,
) *Service {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &Service{
		tx:      tx,
		repos:   repos,
		locker:  locker,
		metrics: metrics,
		cfg:     cfg,
		log:     log.With().Str("component", "operation").Logger(),
		now:     time.Now,
	}
}

// WithClock reemplaza el reloj (pruebas y procesos por lote con fecha fija).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// txEffects eventos que solo se publican si la unidad de trabajo confirma.
type txEffects struct {
	payments []*entity.Payment
}

// inTx corre fn en una unidad de trabajo y, tras el commit, emite las métricas acumuladas.
func (s *Service) inTx(ctx context.Context, fn func(repos ports.Repositories, fx *txEffects) error) error {
	fx := &txEffects{}
	if err := s.tx.Run(ctx, func(repos ports.Repositories) error { return fn(repos, fx) }); err != nil {
		return err
	}
	for _, p := range fx.payments {
		s.metrics.PaymentRegistered(p.Method, string(p.Direction), p.Amount.InexactFloat64())
	}
	return nil
}

func (s *Service) clock() time.Time {
	return s.now().In(s.cfg.Location)
}

func operationKey(id int64) string { return fmt.Sprintf("operation:%d", id) }

func stockKey(tenantID, productID string) string { return "stock:" + tenantID + ":" + productID }

// withLocks toma las claves en orden estable (evita interbloqueos) y ejecuta fn.
func (s *Service) withLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	uniq := make(map[string]struct{}, len(keys))
	ordered := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := uniq[k]; ok {
			continue
		}
		uniq[k] = struct{}{}
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)
	err := s.lockChain(ctx, ordered, fn)
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		s.metrics.StockConflict("insufficient_stock")
	case errors.Is(err, domain.ErrConcurrentUpdate):
		s.metrics.StockConflict("concurrent_update")
	}
	return err
}

func (s *Service) lockChain(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	if len(keys) == 0 {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, keys[0], s.cfg.LockTTL, func(ctx context.Context) error {
		return s.lockChain(ctx, keys[1:], fn)
	})
}

func lineKeys(tenantID string, items []dto.LineRequest) []string {
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, stockKey(tenantID, it.ProductID))
	}
	return keys
}

func itemKeys(tenantID string, lines []entity.LineItem) []string {
	keys := make([]string, 0, len(lines))
	for _, l := range lines {
		keys = append(keys, stockKey(tenantID, l.ProductID))
	}
	return keys
}

// operationLocks precarga la operación fuera de la transacción para conocer las claves de stock.
func (s *Service) operationLocks(ctx context.Context, actor Actor, operationID int64) ([]string, error) {
	op, err := s.repos.Operations.GetByID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if op == nil || op.TenantID != actor.TenantID {
		return nil, domain.ErrOperationNotFound
	}
	keys := []string{operationKey(op.ID)}
	lines, err := detailLines(ctx, s.repos, op)
	if err != nil {
		return nil, err
	}
	return append(keys, itemKeys(actor.TenantID, lines)...), nil
}

// loadForUpdate bloquea la operación dentro de la transacción y valida el tenant.
func loadForUpdate(ctx context.Context, repos ports.Repositories, actor Actor, operationID int64) (*entity.Operation, error) {
	op, err := repos.Operations.GetForUpdate(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if op == nil || op.TenantID != actor.TenantID {
		return nil, domain.ErrOperationNotFound
	}
	return op, nil
}

// detailLines líneas del detalle vigente de la operación.
func detailLines(ctx context.Context, repos ports.Repositories, op *entity.Operation) ([]entity.LineItem, error) {
	var lines []entity.LineItem
	switch op.Type {
	case entity.OperationTypeSale:
		sale, err := repos.Sales.GetByOperationID(ctx, op.ID)
		if err != nil || sale == nil {
			return nil, err
		}
		for _, it := range sale.Items {
			lines = append(lines, it.LineItem)
		}
	case entity.OperationTypeRental:
		rental, err := repos.Rentals.GetByOperationID(ctx, op.ID)
		if err != nil || rental == nil {
			return nil, err
		}
		for _, it := range rental.Items {
			lines = append(lines, it.LineItem)
		}
	case entity.OperationTypeReservation:
		res, err := repos.Reservations.GetByOperationID(ctx, op.ID)
		if err != nil || res == nil {
			return nil, err
		}
		for _, it := range res.Items {
			lines = append(lines, it.LineItem)
		}
	}
	return lines, nil
}

// checkClient valida que el cliente exista y pertenezca al tenant.
func checkClient(ctx context.Context, repos ports.Repositories, tenantID, clientID string) error {
	if clientID == "" {
		return nil
	}
	c, err := repos.Clients.GetByID(ctx, clientID)
	if err != nil {
		return err
	}
	if c == nil || c.TenantID != tenantID {
		return domain.ErrClientNotFound
	}
	return nil
}

// newOperation crea la Operation con su código de referencia diario.
func newOperation(ctx context.Context, repos ports.Repositories, actor Actor, t entity.OperationType, clientID, notes string, total decimal.Decimal, now time.Time) (*entity.Operation, error) {
	day := pricing.Day(now)
	seq, err := repos.Operations.NextDailySequence(ctx, actor.TenantID, t, day)
	if err != nil {
		return nil, err
	}
	op := &entity.Operation{
		ReferenceCode: entity.BuildReferenceCode(t, day, seq),
		TenantID:      actor.TenantID,
		Type:          t,
		Status:        entity.OperationStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
		TotalAmount:   total,
		BranchID:      actor.BranchID,
		SellerID:      actor.UserID,
		ClientID:      clientID,
		Date:          now,
		Notes:         notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repos.Operations.Create(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// price cotiza las líneas pedidas sin efectos.
func (s *Service) price(ctx context.Context, repos ports.Repositories, actor Actor, t entity.OperationType, items []dto.LineRequest, now time.Time) (*checkout.Quote, error) {
	lines := make([]checkout.Line, len(items))
	for i, it := range items {
		lines[i] = checkout.Line{
			LineID:         fmt.Sprintf("%d", i+1),
			ProductID:      it.ProductID,
			StockID:        it.StockID,
			Variant:        entity.Variant{Size: it.Size, Color: it.Color},
			Quantity:       it.Quantity,
			ManualDiscount: it.ManualDiscount,
			Available:      it.Available,
		}
	}
	return checkout.NewService(repos.Products, repos.Promotions, s.cfg.Pricing).Quote(ctx, checkout.Request{
		TenantID:      actor.TenantID,
		BranchID:      actor.BranchID,
		OperationType: t,
		Lines:         lines,
		Date:          now,
	})
}

// quote cotiza y exige autorización de administrador si algún descuento la requiere.
// Consume un uso de cada promoción aplicada.
func (s *Service) quote(ctx context.Context, repos ports.Repositories, actor Actor, t entity.OperationType, items []dto.LineRequest, now time.Time) (*checkout.Quote, error) {
	q, err := s.price(ctx, repos, actor, t, items, now)
	if err != nil {
		return nil, err
	}
	if q.RequiresAdminAuth && !actor.IsAdmin() {
		return nil, domain.NewBusinessError(domain.ErrForbidden, "ADMIN_AUTH_REQUIRED",
			"el descuento manual requiere autorización de un administrador", nil)
	}
	for _, id := range q.PromotionIDs {
		if err := repos.Promotions.IncrementUsage(ctx, id); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// allocateLines asigna stock a cada línea cotizada y construye las líneas persistibles.
func allocateLines(ctx context.Context, repos ports.Repositories, actor Actor, q *checkout.Quote, target entity.ItemStatus) ([]entity.LineItem, error) {
	alloc := inventory.NewAllocator(repos.Inventory)
	out := make([]entity.LineItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		allocs, err := alloc.Allocate(ctx, inventory.Request{
			TenantID:    actor.TenantID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			BranchID:    actor.BranchID,
			Variant:     l.Variant,
			Serialized:  l.Serialized,
			Quantity:    l.Quantity,
			StockID:     l.StockID,
			Target:      target,
		})
		if err != nil {
			return nil, err
		}
		li := entity.LineItem{
			ID:             uuid.NewString(),
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			StockID:        l.StockID,
			Serial:         l.Serialized,
			Quantity:       l.Quantity,
			PriceAtMoment:  l.UnitPrice,
			ListPrice:      l.ListPrice,
			DiscountAmount: l.DiscountAmount,
			DiscountReason: l.DiscountReason,
			LineTotal:      l.LineTotal,
			BundleID:       l.BundleID,
			Allocations:    allocs,
		}
		if li.StockID == "" && len(allocs) > 0 {
			li.StockID = allocs[0].StockID
			li.Serial = allocs[0].Serial
		}
		out = append(out, li)
	}
	return out, nil
}

// sliceAllocations devuelve las asignaciones que cubren las unidades [skip, skip+n) en orden.
func sliceAllocations(allocs []entity.StockAllocation, skip, n int) []entity.StockAllocation {
	var out []entity.StockAllocation
	for _, a := range allocs {
		if n <= 0 {
			break
		}
		if skip >= a.Quantity {
			skip -= a.Quantity
			continue
		}
		take := a.Quantity - skip
		if take > n {
			take = n
		}
		out = append(out, entity.StockAllocation{StockID: a.StockID, Serial: a.Serial, Quantity: take})
		n -= take
		skip = 0
	}
	return out
}

func newGuarantee(req *dto.GuaranteeRequest, op *entity.Operation, now time.Time) (*entity.Guarantee, error) {
	if req.Type == entity.GuaranteeTypeCash && !req.Amount.IsPositive() {
		return nil, domain.NewValidationError("guarantee.amount", "una garantía en efectivo requiere monto")
	}
	return &entity.Guarantee{
		ID:             uuid.NewString(),
		OperationID:    op.ID,
		ClientID:       op.ClientID,
		Type:           req.Type,
		Amount:         req.Amount,
		Description:    req.Description,
		Status:         entity.GuaranteeStatusHeld,
		RetainedAmount: decimal.Zero,
		CreatedAt:      now,
	}, nil
}
