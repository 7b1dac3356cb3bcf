package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/lifecycle"
	"garment-tracker/internal/model"
	"garment-tracker/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// PostgresSuite runs the repositories against a real database.
// Set TEST_DATABASE_URL to enable it.
type PostgresSuite struct {
	suite.Suite

	ctx      context.Context
	db       *gorm.DB
	accounts AccountRepository
	products ProductRepository
	orders   OrderRepository

	buyer   *model.Account
	manager *model.Account
	product *model.Product
}

func TestPostgres(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		s.T().Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Connect(dsn, database.Options{MaxOpenConns: 10})
	s.Require().NoError(err)
	s.Require().NoError(AutoMigrate(db))

	s.ctx = context.Background()
	s.db = db
	s.accounts = NewAccountRepo(db)
	s.products = NewProductRepo(db)
	s.orders = NewOrderRepo(db)
}

func (s *PostgresSuite) SetupTest() {
	s.buyer = s.createAccount(model.RoleBuyer, model.AccountApproved)
	s.manager = s.createAccount(model.RoleManager, model.AccountApproved)

	s.product = &model.Product{
		Name:           "Denim Jacket",
		Category:       "outerwear",
		Price:          decimal.RequireFromString("12.50"),
		Quantity:       10,
		MinimumOrder:   5,
		PaymentOptions: "Cash on Delivery",
		ManagerID:      s.manager.ID,
	}
	s.Require().NoError(s.products.Create(s.ctx, s.product))
}

func (s *PostgresSuite) createAccount(role model.Role, status model.AccountStatus) *model.Account {
	a := &model.Account{
		Email:  uuid.NewString() + "@example.com",
		Role:   role,
		Status: status,
	}
	s.Require().NoError(s.accounts.Create(s.ctx, a))
	return a
}

func (s *PostgresSuite) placeOrder() *model.Order {
	o := &model.Order{
		ProductID:   s.product.ID,
		ProductName: s.product.Name,
		UnitPrice:   s.product.Price,
		Quantity:    7,
		TotalPrice:  s.product.Price.Mul(decimal.NewFromInt(7)),
		BuyerID:     s.buyer.ID,
		BuyerEmail:  s.buyer.Email,
		Address:     "House 12, Road 4, Dhaka",
		Status:      model.OrderPending,
	}
	s.Require().NoError(s.orders.Create(s.ctx, o))
	return o
}

func approve(o *model.Order) error {
	return lifecycle.Apply(o, lifecycle.EventApprove, time.Now())
}

func (s *PostgresSuite) TestConcurrentApproveSucceedsOnce() {
	order := s.placeOrder()

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.orders.Mutate(s.ctx, order.ID, approve)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, apperror.ErrInvalidTransition)
	}
	s.Equal(1, succeeded)

	stored, err := s.orders.FindByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(model.OrderApproved, stored.Status)
	s.NotNil(stored.ApprovedAt)
}

func (s *PostgresSuite) TestMutateFailureWritesNothing() {
	order := s.placeOrder()

	_, err := s.orders.Mutate(s.ctx, order.ID, func(o *model.Order) error {
		return lifecycle.Apply(o, lifecycle.EventCancel, time.Now())
	})
	s.Require().NoError(err)

	_, err = s.orders.Mutate(s.ctx, order.ID, approve)
	s.ErrorIs(err, apperror.ErrInvalidTransition)
	s.NotErrorIs(err, apperror.ErrStoreUnavailable)

	stored, err := s.orders.FindByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(model.OrderCancelled, stored.Status)
	s.Nil(stored.ApprovedAt)
}

func (s *PostgresSuite) TestTrackingPersistedInInsertionOrder() {
	order := s.placeOrder()
	_, err := s.orders.Mutate(s.ctx, order.ID, approve)
	s.Require().NoError(err)

	// dates deliberately out of chronological order
	entries := []model.TrackingEntry{
		{Status: "Cutting Completed", Location: "Floor 2", Date: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{Status: "Sewing Started", Location: "Floor 3", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Status: "Shipped", Location: "Warehouse 1", Date: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, e := range entries {
		entry := e
		_, err := s.orders.Mutate(s.ctx, order.ID, func(o *model.Order) error {
			_, err := lifecycle.AppendTracking(o, entry)
			return err
		})
		s.Require().NoError(err)
	}

	// a failed append in the same callback leaves the log untouched
	_, err = s.orders.Mutate(s.ctx, order.ID, func(o *model.Order) error {
		if _, err := lifecycle.AppendTracking(o, entries[0]); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Require().Error(err)

	stored, err := s.orders.FindByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Tracking, len(entries))
	for i, got := range stored.Tracking {
		s.Equal(i+1, got.Seq)
		s.Equal(entries[i].Status, got.Status)
		s.True(entries[i].Date.Equal(got.Date))
	}
	s.Equal(model.OrderApproved, stored.Status)
}

func (s *PostgresSuite) TestTrackingRejectedOnRejectedOrder() {
	order := s.placeOrder()
	_, err := s.orders.Mutate(s.ctx, order.ID, func(o *model.Order) error {
		return lifecycle.Apply(o, lifecycle.EventReject, time.Now())
	})
	s.Require().NoError(err)

	_, err = s.orders.Mutate(s.ctx, order.ID, func(o *model.Order) error {
		_, err := lifecycle.AppendTracking(o, model.TrackingEntry{Status: "Shipped", Location: "Warehouse 1", Date: time.Now()})
		return err
	})
	s.ErrorIs(err, apperror.ErrOrderNotApproved)

	stored, err := s.orders.FindByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Empty(stored.Tracking)
}

func (s *PostgresSuite) TestAccountUpdatePersistsStatusOnly() {
	pending := s.createAccount(model.RoleManager, model.AccountPending)

	updated, err := s.accounts.Update(s.ctx, pending.ID, func(a *model.Account) error {
		a.Status = model.AccountApproved
		a.Role = model.RoleAdmin
		return nil
	})
	s.Require().NoError(err)
	s.Equal(model.AccountApproved, updated.Status)

	stored, err := s.accounts.FindByID(s.ctx, pending.ID)
	s.Require().NoError(err)
	s.Equal(model.AccountApproved, stored.Status)
	s.Equal(model.RoleManager, stored.Role)
}

func (s *PostgresSuite) TestAccountUpdatePassesDomainErrorThrough() {
	_, err := s.accounts.Update(s.ctx, s.manager.ID, func(a *model.Account) error {
		a.Status = model.AccountPending
		return apperror.ErrInvalidAccountTransition
	})
	s.ErrorIs(err, apperror.ErrInvalidAccountTransition)
	s.False(apperror.IsRetryable(err))

	stored, err := s.accounts.FindByID(s.ctx, s.manager.ID)
	s.Require().NoError(err)
	s.Equal(model.AccountApproved, stored.Status)
}

func (s *PostgresSuite) TestDuplicateEmailIsAlreadyExists() {
	dup := &model.Account{Email: s.buyer.Email, Role: model.RoleBuyer, Status: model.AccountPending}
	s.ErrorIs(s.accounts.Create(s.ctx, dup), apperror.ErrAlreadyExists)
}

func (s *PostgresSuite) TestMissingRowsAreNotFound() {
	_, err := s.orders.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, apperror.ErrOrderNotFound)

	_, err = s.orders.Mutate(s.ctx, uuid.New(), approve)
	s.ErrorIs(err, apperror.ErrOrderNotFound)

	_, err = s.accounts.Update(s.ctx, uuid.New(), func(*model.Account) error { return nil })
	s.ErrorIs(err, apperror.ErrAccountNotFound)
}
