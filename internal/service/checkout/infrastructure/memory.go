package infrastructure

import (
	"context"
	"sync"
	"time"

	"vigor/internal/service/checkout/domain"
)

// MemoryStore backs every repository port with in-process maps. It is the
// default wiring when no MySQL/Redis/Kafka endpoints are configured, and the
// substrate the service tests run against.
type MemoryStore struct {
	mu sync.RWMutex

	products      map[string]*domain.Product
	promoCodes    map[string]*domain.PromoCode // keyed by canonical code
	totalUses     map[string]int
	customerUses  map[string]map[string]int
	customers     map[string]*domain.Customer // keyed by email
	subscriptions map[string]*domain.Subscription
	vouchers      map[string]*domain.Voucher
	offers        []*domain.SpecialOffer
	orders        map[string]*domain.Order
	referrals     []domain.Referral
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:      make(map[string]*domain.Product),
		promoCodes:    make(map[string]*domain.PromoCode),
		totalUses:     make(map[string]int),
		customerUses:  make(map[string]map[string]int),
		customers:     make(map[string]*domain.Customer),
		subscriptions: make(map[string]*domain.Subscription),
		vouchers:      make(map[string]*domain.Voucher),
		orders:        make(map[string]*domain.Order),
	}
}

// SeedCatalog loads products into the store, replacing same-id entries.
func (m *MemoryStore) SeedCatalog(products ...*domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		m.products[p.ID] = p
	}
}

// SeedOffers loads special offers into the store.
func (m *MemoryStore) SeedOffers(offers ...*domain.SpecialOffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers = append(m.offers, offers...)
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *MemoryStore) FindByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pc, ok := m.promoCodes[domain.CanonicalCode(code)]
	if !ok {
		return nil, domain.ErrPromoNotFound
	}
	return pc, nil
}

func (m *MemoryStore) Create(ctx context.Context, pc *domain.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := domain.CanonicalCode(pc.Code)
	if _, exists := m.promoCodes[key]; exists {
		return domain.ErrDuplicateCode
	}
	m.promoCodes[key] = pc
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, pc *domain.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := domain.CanonicalCode(pc.Code)
	if _, exists := m.promoCodes[key]; !exists {
		return domain.ErrPromoNotFound
	}
	m.promoCodes[key] = pc
	return nil
}

func (m *MemoryStore) IncrementUsage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pc := range m.promoCodes {
		if pc.ID == id {
			pc.UsageCount++
			return nil
		}
	}
	return domain.ErrPromoNotFound
}

func (m *MemoryStore) TotalUses(ctx context.Context, codeID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalUses[codeID], nil
}

func (m *MemoryStore) CustomerUses(ctx context.Context, codeID, customerEmail string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.customerUses[codeID][customerEmail], nil
}

func (m *MemoryStore) RecordUse(ctx context.Context, codeID, customerEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalUses[codeID]++
	if customerEmail != "" {
		if m.customerUses[codeID] == nil {
			m.customerUses[codeID] = make(map[string]int)
		}
		m.customerUses[codeID][customerEmail]++
	}
	return nil
}

func (m *MemoryStore) ActiveForProduct(ctx context.Context, productID string, now time.Time) ([]*domain.SpecialOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.SpecialOffer
	for _, o := range m.offers {
		if o.AppliesTo(productID, now) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[email]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return c, nil
}

func (m *MemoryStore) CreateCustomer(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.customers[c.Email]; ok {
		return existing, nil
	}
	m.customers[c.Email] = c
	return c, nil
}

// CreateSubscription honors the idempotency contract: a repeated key returns
// the id of the record already stored under it.
func (m *MemoryStore) CreateSubscription(ctx context.Context, s *domain.Subscription) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.subscriptions[s.IdempotencyKey]; ok {
		return existing.ID, nil
	}
	m.subscriptions[s.IdempotencyKey] = s
	return s.ID, nil
}

func (m *MemoryStore) CreateVoucher(ctx context.Context, v *domain.Voucher) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.vouchers[v.IdempotencyKey]; ok {
		return existing.ID, nil
	}
	m.vouchers[v.IdempotencyKey] = v
	return v.ID, nil
}

func (m *MemoryStore) Register(ctx context.Context, r domain.Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.referrals = append(m.referrals, r)
	return nil
}

func (m *MemoryStore) Save(ctx context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *MemoryStore) FindOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// Subscriptions returns a snapshot for inspection.
func (m *MemoryStore) Subscriptions() []*domain.Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Subscription, 0, len(m.subscriptions))
	for _, s := range m.subscriptions {
		out = append(out, s)
	}
	return out
}

// Vouchers returns a snapshot for inspection.
func (m *MemoryStore) Vouchers() []*domain.Voucher {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Voucher, 0, len(m.vouchers))
	for _, v := range m.vouchers {
		out = append(out, v)
	}
	return out
}

// Referrals returns a snapshot for inspection.
func (m *MemoryStore) Referrals() []domain.Referral {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Referral, len(m.referrals))
	copy(out, m.referrals)
	return out
}

// memoryCustomerRepo, memorySubscriptionRepo and memoryVoucherRepo adapt the
// store's differently-named methods to the single-method ports.
type memoryCustomerRepo struct{ s *MemoryStore }

func (r memoryCustomerRepo) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.s.FindByEmail(ctx, email)
}

func (r memoryCustomerRepo) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	return r.s.CreateCustomer(ctx, c)
}

type memorySubscriptionRepo struct{ s *MemoryStore }

func (r memorySubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) (string, error) {
	return r.s.CreateSubscription(ctx, s)
}

type memoryVoucherRepo struct{ s *MemoryStore }

func (r memoryVoucherRepo) Create(ctx context.Context, v *domain.Voucher) (string, error) {
	return r.s.CreateVoucher(ctx, v)
}

type memoryOrderRepo struct{ s *MemoryStore }

func (r memoryOrderRepo) Save(ctx context.Context, o *domain.Order) error {
	return r.s.Save(ctx, o)
}

func (r memoryOrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.s.FindOrderByID(ctx, id)
}

// CustomerRepo exposes the store as a domain.CustomerRepository.
func (m *MemoryStore) CustomerRepo() domain.CustomerRepository { return memoryCustomerRepo{m} }

// SubscriptionRepo exposes the store as a domain.SubscriptionRepository.
func (m *MemoryStore) SubscriptionRepo() domain.SubscriptionRepository {
	return memorySubscriptionRepo{m}
}

// VoucherRepo exposes the store as a domain.VoucherRepository.
func (m *MemoryStore) VoucherRepo() domain.VoucherRepository { return memoryVoucherRepo{m} }

// OrderRepo exposes the store as a domain.OrderRepository.
func (m *MemoryStore) OrderRepo() domain.OrderRepository { return memoryOrderRepo{m} }
