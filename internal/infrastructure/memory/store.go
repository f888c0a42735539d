package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

var _ ports.TxRunner = (*Store)(nil)

// Store persistencia en memoria para desarrollo y pruebas.
// Las unidades de trabajo se serializan y revierten restaurando una copia del estado.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
}

type state struct {
	opSeq        int64
	paySeq       int64
	entrySeq     int64
	operations   map[int64]entity.Operation
	daily        map[string]int
	payments     map[int64][]entity.Payment
	sales        map[string]*entity.Sale
	rentals      map[string]*entity.Rental
	reservations map[string]*entity.Reservation
	items        map[string]entity.InventoryItem
	lots         map[string]entity.StockLot
	guarantees   map[string]entity.Guarantee
	clients      map[string]entity.Client
	credits      []entity.ClientCreditEntry
	loyalty      []entity.LoyaltyEntry
	coupons      map[string]entity.Coupon
	referrals    map[string]entity.Referral
	products     map[string]entity.Product
	promotions   map[string]*entity.Promotion
	bundles      map[string]*entity.BundleDefinition
}

func newState() *state {
	return &state{
		operations:   map[int64]entity.Operation{},
		daily:        map[string]int{},
		payments:     map[int64][]entity.Payment{},
		sales:        map[string]*entity.Sale{},
		rentals:      map[string]*entity.Rental{},
		reservations: map[string]*entity.Reservation{},
		items:        map[string]entity.InventoryItem{},
		lots:         map[string]entity.StockLot{},
		guarantees:   map[string]entity.Guarantee{},
		clients:      map[string]entity.Client{},
		coupons:      map[string]entity.Coupon{},
		referrals:    map[string]entity.Referral{},
		products:     map[string]entity.Product{},
		promotions:   map[string]*entity.Promotion{},
		bundles:      map[string]*entity.BundleDefinition{},
	}
}

// New crea un store vacío.
func New() *Store {
	return &Store{data: newState()}
}

// Repositories repositorios sobre el store (lecturas fuera de una unidad de trabajo).
func (s *Store) Repositories() ports.Repositories {
	return ports.Repositories{
		Operations:   &operationRepo{s},
		Payments:     &paymentRepo{s},
		Sales:        &saleRepo{s},
		Rentals:      &rentalRepo{s},
		Reservations: &reservationRepo{s},
		Inventory:    &inventoryRepo{s},
		Guarantees:   &guaranteeRepo{s},
		Clients:      &clientRepo{s},
		Credits:      &creditRepo{s},
		Loyalty:      &loyaltyRepo{s},
		Coupons:      &couponRepo{s},
		Referrals:    &referralRepo{s},
		Products:     &productRepo{s},
		Promotions:   &promotionRepo{s},
	}
}

// Run ejecuta fn como unidad de trabajo; si fn falla el estado vuelve a la copia previa.
func (s *Store) Run(ctx context.Context, fn func(repos ports.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snap := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s.Repositories()); err != nil {
		s.mu.Lock()
		s.data = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

func (st *state) clone() *state {
	c := newState()
	c.opSeq, c.paySeq, c.entrySeq = st.opSeq, st.paySeq, st.entrySeq
	for k, v := range st.operations {
		c.operations[k] = v
	}
	for k, v := range st.daily {
		c.daily[k] = v
	}
	for k, v := range st.payments {
		c.payments[k] = append([]entity.Payment(nil), v...)
	}
	for k, v := range st.sales {
		c.sales[k] = cloneSale(v)
	}
	for k, v := range st.rentals {
		c.rentals[k] = cloneRental(v)
	}
	for k, v := range st.reservations {
		c.reservations[k] = cloneReservation(v)
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	for k, v := range st.lots {
		c.lots[k] = v
	}
	for k, v := range st.guarantees {
		c.guarantees[k] = v
	}
	for k, v := range st.clients {
		c.clients[k] = v
	}
	c.credits = append(c.credits, st.credits...)
	c.loyalty = append(c.loyalty, st.loyalty...)
	for k, v := range st.coupons {
		c.coupons[k] = v
	}
	for k, v := range st.referrals {
		c.referrals[k] = v
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.promotions {
		c.promotions[k] = clonePromotion(v)
	}
	for k, v := range st.bundles {
		b := *v
		b.Promotion = *clonePromotion(&v.Promotion)
		b.Requirements = append([]entity.BundleRequirement(nil), v.Requirements...)
		c.bundles[k] = &b
	}
	return c
}

func cloneLine(l entity.LineItem) entity.LineItem {
	l.Allocations = append([]entity.StockAllocation(nil), l.Allocations...)
	return l
}

func cloneSale(v *entity.Sale) *entity.Sale {
	if v == nil {
		return nil
	}
	c := *v
	c.Items = make([]*entity.SaleItem, len(v.Items))
	for i, it := range v.Items {
		cp := *it
		cp.LineItem = cloneLine(it.LineItem)
		c.Items[i] = &cp
	}
	return &c
}

func cloneRental(v *entity.Rental) *entity.Rental {
	if v == nil {
		return nil
	}
	c := *v
	c.Items = make([]*entity.RentalItem, len(v.Items))
	for i, it := range v.Items {
		cp := *it
		cp.LineItem = cloneLine(it.LineItem)
		c.Items[i] = &cp
	}
	return &c
}

func cloneReservation(v *entity.Reservation) *entity.Reservation {
	if v == nil {
		return nil
	}
	c := *v
	c.Items = make([]*entity.ReservationItem, len(v.Items))
	for i, it := range v.Items {
		cp := *it
		cp.LineItem = cloneLine(it.LineItem)
		c.Items[i] = &cp
	}
	return &c
}

func clonePromotion(v *entity.Promotion) *entity.Promotion {
	c := *v
	c.ProductIDs = append([]string(nil), v.ProductIDs...)
	c.CategoryIDs = append([]string(nil), v.CategoryIDs...)
	c.BranchIDs = append([]string(nil), v.BranchIDs...)
	return &c
}

// ── Datos de catálogo y clientes ─────────────────────────────────────────────

// AddProduct registra un producto del catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products[p.ID] = p
}

// AddClient registra un cliente.
func (s *Store) AddClient(c entity.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.clients[c.ID] = c
}

// AddPromotion registra una promoción por producto/categoría/global.
func (s *Store) AddPromotion(p entity.Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.promotions[p.ID] = clonePromotion(&p)
}

// AddBundle registra un combo.
func (s *Store) AddBundle(b entity.BundleDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.Scope = entity.PromotionScopePack
	b.Requirements = append([]entity.BundleRequirement(nil), b.Requirements...)
	s.data.bundles[b.ID] = &b
}

// AddCoupon registra un cupón.
func (s *Store) AddCoupon(c entity.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.coupons[couponKey(c.TenantID, c.Code)] = c
}

// AddReferral registra un referido pendiente.
func (s *Store) AddReferral(r entity.Referral) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.referrals[r.ID] = r
}

func couponKey(tenantID, code string) string { return tenantID + "|" + code }
