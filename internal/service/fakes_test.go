package service

import (
	"context"
	"sync"
	"time"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/events"
	"garment-tracker/internal/model"
	"garment-tracker/internal/repository"
	"garment-tracker/pkg/identity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev events.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func acceptingPublisher() *mockPublisher {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything).Return(nil)
	return p
}

func mockEventOfType(t events.Type) interface{} {
	return mock.MatchedBy(func(ev events.Event) bool { return ev.Type == t })
}

func publishedTypes(p *mockPublisher) []events.Type {
	var out []events.Type
	for _, c := range p.Calls {
		if c.Method == "Publish" {
			out = append(out, c.Arguments.Get(1).(events.Event).Type)
		}
	}
	return out
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*model.Account
	creates  int
	findErr  error
	createFn func(*model.Account) error
}

func newFakeAccountRepo(accounts ...*model.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{byID: map[uuid.UUID]*model.Account{}}
	for _, a := range accounts {
		r.byID[a.ID] = a.Clone()
	}
	return r
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, a := range r.byID {
		if a.Email == email {
			return a.Clone(), nil
		}
	}
	return nil, apperror.ErrAccountNotFound
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, apperror.ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (r *fakeAccountRepo) FindAll(_ context.Context, filter repository.AccountFilter) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Account
	for _, a := range r.byID {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Role != "" && a.Role != filter.Role {
			continue
		}
		out = append(out, *a.Clone())
	}
	return out, nil
}

func (r *fakeAccountRepo) Create(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createFn != nil {
		if err := r.createFn(account); err != nil {
			return err
		}
	}
	for _, a := range r.byID {
		if a.Email == account.Email {
			return apperror.ErrAlreadyExists
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = time.Now()
	r.creates++
	r.byID[account.ID] = account.Clone()
	return nil
}

func (r *fakeAccountRepo) Update(_ context.Context, id uuid.UUID, fn func(*model.Account) error) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, apperror.ErrAccountNotFound
	}
	working := a.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	r.byID[id] = working.Clone()
	return working, nil
}

type fakeProductRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Product
}

func newFakeProductRepo(products ...*model.Product) *fakeProductRepo {
	r := &fakeProductRepo{byID: map[uuid.UUID]*model.Product{}}
	for _, p := range products {
		c := *p
		r.byID[p.ID] = &c
	}
	return r
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	c := *product
	r.byID[product.ID] = &c
	return nil
}

func (r *fakeProductRepo) FindAll(_ context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.byID {
		if filter.ManagerID != nil && p.ManagerID != *filter.ManagerID {
			continue
		}
		if filter.Featured != nil && p.Featured != *filter.Featured {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, apperror.ErrProductNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[product.ID]; !ok {
		return apperror.ErrProductNotFound
	}
	c := *product
	r.byID[product.ID] = &c
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return apperror.ErrProductNotFound
	}
	delete(r.byID, id)
	return nil
}

// fakeOrderRepo serializes Mutate calls the way a row lock would.
type fakeOrderRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{byID: map[uuid.UUID]*model.Order{}}
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Tracking = append([]model.TrackingEntry(nil), o.Tracking...)
	return &c
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	r.byID[order.ID] = cloneOrder(order)
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) FindAll(_ context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for _, o := range r.byID {
		if filter.BuyerID != nil && o.BuyerID != *filter.BuyerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	return out, nil
}

func (r *fakeOrderRepo) Mutate(_ context.Context, id uuid.UUID, fn func(*model.Order) error) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	working := cloneOrder(o)
	if err := fn(working); err != nil {
		return nil, err
	}
	r.byID[id] = cloneOrder(working)
	return working, nil
}

type fakeObserver struct {
	changed []*model.Account
}

func (o *fakeObserver) AccountChanged(a *model.Account) {
	o.changed = append(o.changed, a.Clone())
}

type fakeVerifier struct {
	identities map[string]identity.Identity
}

func (v fakeVerifier) Verify(token string) (*identity.Identity, error) {
	if token == "" {
		return nil, identity.ErrMissingToken
	}
	id, ok := v.identities[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return &id, nil
}

func newAccount(role model.Role, status model.AccountStatus) *model.Account {
	a := &model.Account{
		Email:       string(role) + "-" + uuid.NewString()[:8] + "@example.com",
		DisplayName: string(role),
		Role:        role,
		Status:      status,
	}
	a.ID = uuid.New()
	return a
}

func newProduct(manager *model.Account, price string, quantity, minimum int) *model.Product {
	p := &model.Product{
		Name:           "Denim Jacket",
		Category:       "Jackets",
		Price:          decimal.RequireFromString(price),
		Quantity:       quantity,
		MinimumOrder:   minimum,
		PaymentOptions: "Cash on Delivery",
		ManagerID:      manager.ID,
	}
	p.ID = uuid.New()
	return p
}
