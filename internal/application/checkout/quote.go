package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/bundle"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/pricing"
	"github.com/jhoicas/Alquiler-api/internal/domain/repository"
)

// Line línea pedida en el carrito.
type Line struct {
	LineID         string
	ProductID      string
	StockID        string
	Variant        entity.Variant
	Quantity       int
	ManualDiscount decimal.Decimal // por unidad
	Available      *int            // disponibilidad reportada para alquiler
}

// Request carrito a cotizar.
type Request struct {
	TenantID      string
	BranchID      string
	OperationType entity.OperationType
	Lines         []Line
	Date          time.Time
}

// PricedLine línea cotizada. LineTotal es autoritativo; UnitPrice puede diferir por redondeo en combos.
type PricedLine struct {
	LineID            string
	ProductID         string
	ProductName       string
	StockID           string
	Variant           entity.Variant
	Serialized        bool
	Quantity          int
	ListPrice         decimal.Decimal
	UnitPrice         decimal.Decimal
	DiscountAmount    decimal.Decimal
	DiscountReason    string
	LineTotal         decimal.Decimal
	PromotionID       string
	BundleID          string
	RequiresAdminAuth bool
}

// Quote resultado de la cotización.
type Quote struct {
	Lines             []PricedLine
	ListTotal         decimal.Decimal
	Discount          decimal.Decimal
	Total             decimal.Decimal
	RequiresAdminAuth bool
	// PromotionIDs promociones y combos usados (para incrementar su contador).
	PromotionIDs []string
}

// Service cotiza carritos con promociones y combos vigentes.
type Service struct {
	products   repository.ProductRepository
	promotions repository.PromotionRepository
	rules      pricing.Rules
}

// NewService construye el cotizador.
func NewService(products repository.ProductRepository, promotions repository.PromotionRepository, rules pricing.Rules) *Service {
	return &Service{products: products, promotions: promotions, rules: rules}
}

// Quote aplica combos (mayor ahorro primero) y luego precios individuales al remanente.
func (s *Service) Quote(ctx context.Context, req Request) (*Quote, error) {
	if !req.OperationType.Valid() || req.OperationType == entity.OperationTypeReservation {
		return nil, domain.NewValidationError("operation_type", "debe ser sale o rental")
	}
	if len(req.Lines) == 0 {
		return nil, domain.NewValidationError("items", "el carrito está vacío")
	}

	products := make(map[string]*entity.Product, len(req.Lines))
	byLine := make(map[string]Line, len(req.Lines))
	cart := make([]bundle.CartLine, 0, len(req.Lines))
	subtotal := decimal.Zero
	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
		}
		if _, dup := byLine[l.LineID]; dup || l.LineID == "" {
			return nil, domain.NewValidationError("line_id", "identificador de línea vacío o repetido")
		}
		p, ok := products[l.ProductID]
		if !ok {
			var err error
			p, err = s.products.GetByID(ctx, l.ProductID)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, domain.NewBusinessError(domain.ErrProductNotFound, "PRODUCT_NOT_FOUND",
					"producto no encontrado: "+l.ProductID, map[string]any{"product_id": l.ProductID})
			}
			products[l.ProductID] = p
		}
		if err := pricing.CheckCapability(p, req.OperationType); err != nil {
			return nil, err
		}
		byLine[l.LineID] = l
		cl := bundle.CartLine{
			LineID:        l.LineID,
			ProductID:     p.ID,
			ProductName:   p.Name,
			TenantID:      req.TenantID,
			BranchID:      req.BranchID,
			OperationType: req.OperationType,
			Quantity:      l.Quantity,
			ListPrice:     p.ListPriceFor(req.OperationType),
			Available:     l.Available,
		}
		subtotal = subtotal.Add(cl.ListTotal())
		cart = append(cart, cl)
	}

	day := pricing.Day(req.Date)
	bundles, err := s.promotions.ListBundles(ctx, req.TenantID, day)
	if err != nil {
		return nil, err
	}
	promos, err := s.promotions.ListActive(ctx, req.TenantID, day)
	if err != nil {
		return nil, err
	}

	q := &Quote{}
	remaining := cart
	for len(bundles) > 0 && len(remaining) > 0 {
		bestIdx := -1
		var best *bundle.Result
		for i, def := range bundles {
			res, err := bundle.Apply(def, remaining, req.Date)
			if err != nil {
				return nil, err
			}
			if res.PossibleCount == 0 || !res.Savings().IsPositive() {
				continue
			}
			if best == nil || res.Savings().GreaterThan(best.Savings()) {
				best, bestIdx = res, i
			}
		}
		if best == nil {
			break
		}
		for _, c := range best.Consumed {
			src := byLine[c.LineID]
			q.Lines = append(q.Lines, PricedLine{
				LineID:         c.LineID,
				ProductID:      c.ProductID,
				ProductName:    c.ProductName,
				StockID:        src.StockID,
				Variant:        src.Variant,
				Serialized:     products[c.ProductID].Serialized,
				Quantity:       c.Quantity,
				ListPrice:      c.ListPrice,
				UnitPrice:      c.UnitPrice,
				DiscountAmount: c.DiscountAmount,
				DiscountReason: pricing.ReasonBundle,
				LineTotal:      c.LineTotal,
				PromotionID:    best.PromotionID,
				BundleID:       c.BundleID,
			})
		}
		q.PromotionIDs = append(q.PromotionIDs, best.PromotionID)
		remaining = best.Remainder
		bundles = append(bundles[:bestIdx:bestIdx], bundles[bestIdx+1:]...)
	}

	for _, c := range remaining {
		src := byLine[c.LineID]
		p := products[c.ProductID]
		res, err := pricing.Calculate(pricing.Input{
			Product:        p,
			OperationType:  req.OperationType,
			ListPrice:      c.ListPrice,
			Promotions:     promos,
			Rules:          s.rules,
			ManualDiscount: src.ManualDiscount,
			BranchID:       req.BranchID,
			CartSubtotal:   subtotal,
			Date:           req.Date,
		})
		if err != nil {
			return nil, err
		}
		qty := decimal.NewFromInt(int64(c.Quantity))
		total := res.FinalPrice.Mul(qty)
		q.Lines = append(q.Lines, PricedLine{
			LineID:            c.LineID,
			ProductID:         c.ProductID,
			ProductName:       c.ProductName,
			StockID:           src.StockID,
			Variant:           src.Variant,
			Serialized:        p.Serialized,
			Quantity:          c.Quantity,
			ListPrice:         c.ListPrice,
			UnitPrice:         res.FinalPrice,
			DiscountAmount:    c.ListTotal().Sub(total),
			DiscountReason:    res.DiscountReason,
			LineTotal:         total,
			PromotionID:       res.PromotionID,
			RequiresAdminAuth: res.RequiresAdminAuth,
		})
		if res.PromotionID != "" {
			q.PromotionIDs = appendUnique(q.PromotionIDs, res.PromotionID)
		}
	}

	for _, l := range q.Lines {
		q.ListTotal = q.ListTotal.Add(l.ListPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		q.Total = q.Total.Add(l.LineTotal)
		q.RequiresAdminAuth = q.RequiresAdminAuth || l.RequiresAdminAuth
	}
	q.Discount = q.ListTotal.Sub(q.Total)
	return q, nil
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
