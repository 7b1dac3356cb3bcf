package handler

import (
	"context"

	"garment-tracker/internal/model"
	"garment-tracker/internal/repository"
	"garment-tracker/internal/service"
	"garment-tracker/pkg/identity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, token string, role model.Role) (*model.Account, error) {
	args := m.Called(ctx, token, role)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, sessionID, token string, req *service.LoginRequest) (*service.LoginResponse, error) {
	args := m.Called(ctx, sessionID, token, req)
	r, _ := args.Get(0).(*service.LoginResponse)
	return r, args.Error(1)
}

func (m *mockAuthService) Logout(sessionID string) { m.Called(sessionID) }

func (m *mockAuthService) Me(sessionID string) (*service.LoginResponse, error) {
	args := m.Called(sessionID)
	r, _ := args.Get(0).(*service.LoginResponse)
	return r, args.Error(1)
}

type mockAccountService struct{ mock.Mock }

func (m *mockAccountService) Register(ctx context.Context, id identity.Identity, role model.Role) (*model.Account, error) {
	args := m.Called(ctx, id, role)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

func (m *mockAccountService) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

func (m *mockAccountService) List(ctx context.Context, actor *model.Account, filter repository.AccountFilter) ([]model.AccountResponse, error) {
	args := m.Called(ctx, actor, filter)
	r, _ := args.Get(0).([]model.AccountResponse)
	return r, args.Error(1)
}

func (m *mockAccountService) UpdateStatus(ctx context.Context, actor *model.Account, id uuid.UUID, req *service.UpdateStatusRequest) (*model.Account, error) {
	args := m.Called(ctx, actor, id, req)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

type mockProductService struct{ mock.Mock }

func (m *mockProductService) Create(ctx context.Context, actor *model.Account, req *service.CreateProductRequest) (*model.Product, error) {
	args := m.Called(ctx, actor, req)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *mockProductService) Update(ctx context.Context, actor *model.Account, id uuid.UUID, req *service.UpdateProductRequest) (*model.Product, error) {
	args := m.Called(ctx, actor, id, req)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *mockProductService) SetFeatured(ctx context.Context, actor *model.Account, id uuid.UUID, featured bool) (*model.Product, error) {
	args := m.Called(ctx, actor, id, featured)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *mockProductService) Delete(ctx context.Context, actor *model.Account, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *mockProductService) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).([]model.Product)
	return p, args.Error(1)
}

func (m *mockProductService) Mine(ctx context.Context, actor *model.Account) ([]model.Product, error) {
	args := m.Called(ctx, actor)
	p, _ := args.Get(0).([]model.Product)
	return p, args.Error(1)
}

type mockOrderService struct{ mock.Mock }

func (m *mockOrderService) Create(ctx context.Context, actor *model.Account, req *service.CreateOrderRequest) (*model.Order, error) {
	args := m.Called(ctx, actor, req)
	o, _ := args.Get(0).(*model.Order)
	return o, args.Error(1)
}

func (m *mockOrderService) Transition(ctx context.Context, actor *model.Account, id uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, actor, id, target)
	o, _ := args.Get(0).(*model.Order)
	return o, args.Error(1)
}

func (m *mockOrderService) AddTracking(ctx context.Context, actor *model.Account, id uuid.UUID, req *service.TrackingRequest) (*model.Order, error) {
	args := m.Called(ctx, actor, id, req)
	o, _ := args.Get(0).(*model.Order)
	return o, args.Error(1)
}

func (m *mockOrderService) Get(ctx context.Context, actor *model.Account, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, actor, id)
	o, _ := args.Get(0).(*model.Order)
	return o, args.Error(1)
}

func (m *mockOrderService) List(ctx context.Context, actor *model.Account, status model.OrderStatus) ([]model.Order, error) {
	args := m.Called(ctx, actor, status)
	o, _ := args.Get(0).([]model.Order)
	return o, args.Error(1)
}

// staticSessions serves a fixed sid -> account table.
type staticSessions map[string]*model.Account

func (s staticSessions) CurrentAccount(sid string) (*model.Account, bool) {
	a, ok := s[sid]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}
