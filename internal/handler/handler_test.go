package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"
	"garment-tracker/internal/service"
	"garment-tracker/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	app      *fiber.App
	auth     *mockAuthService
	accounts *mockAccountService
	products *mockProductService
	orders   *mockOrderService
	sessions staticSessions
}

func account(role model.Role, status model.AccountStatus) *model.Account {
	a := &model.Account{Email: string(role) + "@example.com", Role: role, Status: status}
	a.ID = uuid.New()
	return a
}

func newTestApp() *testApp {
	t := &testApp{
		auth:     &mockAuthService{},
		accounts: &mockAccountService{},
		products: &mockProductService{},
		orders:   &mockOrderService{},
		sessions: staticSessions{
			"buyer-sid":     account(model.RoleBuyer, model.AccountApproved),
			"manager-sid":   account(model.RoleManager, model.AccountApproved),
			"suspended-sid": account(model.RoleManager, model.AccountSuspended),
			"admin-sid":     account(model.RoleAdmin, model.AccountApproved),
		},
	}
	t.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger.Nop())})
	Routes(t.app, Handlers{
		Auth:    NewAuthHandler(t.auth, CookieOptions{Name: "sid", MaxAge: time.Hour}),
		User:    NewUserHandler(t.accounts),
		Product: NewProductHandler(t.products),
		Order:   NewOrderHandler(t.orders),
		Dashboard: func(c *fiber.Ctx) error {
			return c.SendString("upgraded")
		},
	}, t.sessions, "sid")
	return t
}

func (t *testApp) do(tb testing.TB, method, path, sid, body string) (*http.Response, map[string]interface{}) {
	tb.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := t.app.Test(req, -1)
	require.NoError(tb, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(tb, err)
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestCreateOrder_RequiresSession(t *testing.T) {
	app := newTestApp()

	resp, body := app.do(t, http.MethodPost, "/api/v1/orders", "", `{"quantity":7}`)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "NoSession", body["code"])
	app.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_QuantityErrorCarriesBound(t *testing.T) {
	app := newTestApp()
	app.orders.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(r *service.CreateOrderRequest) bool {
		return r.Quantity == 3
	})).Return(nil, &apperror.QuantityError{Err: apperror.ErrBelowMinimumOrder, Requested: 3, Bound: 5})

	resp, body := app.do(t, http.MethodPost, "/api/v1/orders", "buyer-sid",
		fmt.Sprintf(`{"productId":"%s","quantity":3}`, uuid.New()))

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "BelowMinimumOrder", body["code"])
	assert.EqualValues(t, 5, body["bound"])
	assert.EqualValues(t, 3, body["requested"])
}

func TestCreateOrder_ManagerDeniedBeforeService(t *testing.T) {
	app := newTestApp()

	resp, body := app.do(t, http.MethodPost, "/api/v1/orders", "manager-sid", `{"quantity":7}`)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "RoleMismatch", body["code"])
}

func TestUpdateOrderStatus_AlreadyProcessed(t *testing.T) {
	app := newTestApp()
	id := uuid.New()
	app.orders.On("Transition", mock.Anything, mock.Anything, id, model.OrderApproved).
		Return(nil, fmt.Errorf("%w: cannot approve a approved order", apperror.ErrInvalidTransition))

	resp, body := app.do(t, http.MethodPatch, "/api/v1/orders/"+id.String(), "manager-sid", `{"status":"approved"}`)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "InvalidTransition", body["code"])
	assert.Contains(t, body["error"], "already processed")
}

func TestUpdateOrderStatus_BadID(t *testing.T) {
	app := newTestApp()

	resp, body := app.do(t, http.MethodPatch, "/api/v1/orders/not-a-uuid", "manager-sid", `{"status":"approved"}`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "InvalidInput", body["code"])
}

func TestAddTracking(t *testing.T) {
	app := newTestApp()
	id := uuid.New()
	order := &model.Order{Status: model.OrderApproved, Tracking: []model.TrackingEntry{{Seq: 1, Status: "Shipped", Location: "Warehouse 1"}}}
	order.ID = id
	app.orders.On("AddTracking", mock.Anything, mock.Anything, id, &service.TrackingRequest{
		Status: "Shipped", Location: "Warehouse 1", Date: "2026-03-05",
	}).Return(order, nil)

	resp, body := app.do(t, http.MethodPatch, "/api/v1/orders/"+id.String()+"/tracking", "manager-sid",
		`{"status":"Shipped","location":"Warehouse 1","date":"2026-03-05"}`)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["tracking"], 1)
	app.orders.AssertExpectations(t)
}

func TestAddTracking_OrderNotApproved(t *testing.T) {
	app := newTestApp()
	app.orders.On("AddTracking", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperror.ErrOrderNotApproved)

	resp, body := app.do(t, http.MethodPatch, "/api/v1/orders/"+uuid.NewString()+"/tracking", "manager-sid",
		`{"status":"Shipped","location":"Warehouse 1","date":"2026-03-05"}`)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "OrderNotApproved", body["code"])
}

func TestCreateProduct_SuspendedManager(t *testing.T) {
	app := newTestApp()

	resp, body := app.do(t, http.MethodPost, "/api/v1/products", "suspended-sid", `{"name":"Tee"}`)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Suspended", body["code"])
	app.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetProducts_FeaturedFilter(t *testing.T) {
	app := newTestApp()
	app.products.On("List", mock.Anything, mock.Anything).
		Return([]model.Product{{Name: "Tee", Featured: true}}, nil)

	resp, _ := app.do(t, http.MethodGet, "/api/v1/products?featured=true", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := app.do(t, http.MethodGet, "/api/v1/products?featured=maybe", "", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "InvalidInput", body["code"])
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	app := newTestApp()
	buyer := app.sessions["buyer-sid"]
	app.auth.On("Login", mock.Anything, mock.AnythingOfType("string"), "identity-token", &service.LoginRequest{Email: buyer.Email}).
		Return(&service.LoginResponse{Account: buyer.ToResponse(), Capabilities: []string{"order:create"}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+buyer.Email+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer identity-token")
	resp, err := app.app.Test(req, -1)
	require.NoError(t, err)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLogin_StoreDownIsRetryable(t *testing.T) {
	app := newTestApp()
	storeDown := fmt.Errorf("%w: %w", apperror.ErrNoSession, apperror.Store("find account by email", errors.New("dial tcp: refused")))
	app.auth.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, storeDown)

	resp, body := app.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"a@example.com"}`)

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "StoreUnavailable", body["code"])
	assert.Equal(t, true, body["retryable"])
}

func TestLogin_Unregistered(t *testing.T) {
	app := newTestApp()
	app.auth.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, apperror.ErrAccountNotFound)

	resp, body := app.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"a@example.com"}`)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NotFound", body["code"])
}

func TestLogout_DropsSession(t *testing.T) {
	app := newTestApp()
	app.auth.On("Logout", "buyer-sid").Return()

	resp, _ := app.do(t, http.MethodPost, "/api/v1/auth/logout", "buyer-sid", "")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	app.auth.AssertCalled(t, "Logout", "buyer-sid")
}

func TestMe(t *testing.T) {
	app := newTestApp()
	buyer := app.sessions["buyer-sid"]
	app.auth.On("Me", "buyer-sid").Return(&service.LoginResponse{Account: buyer.ToResponse()}, nil)

	resp, body := app.do(t, http.MethodGet, "/api/v1/users/me", "buyer-sid", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, buyer.Email, body["account"].(map[string]interface{})["email"])

	resp, _ = app.do(t, http.MethodGet, "/api/v1/users/me", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateUserStatus_AdminOnly(t *testing.T) {
	app := newTestApp()
	id := uuid.New()
	target := account(model.RoleManager, model.AccountSuspended)
	target.ID = id
	target.SuspendReason = "fraud"
	app.accounts.On("UpdateStatus", mock.Anything, mock.Anything, id, &service.UpdateStatusRequest{
		Status: model.AccountSuspended, SuspendReason: "fraud",
	}).Return(target, nil)

	resp, body := app.do(t, http.MethodPatch, "/api/v1/users/"+id.String(), "manager-sid", `{"status":"suspended","suspendReason":"fraud"}`)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "RoleMismatch", body["code"])

	resp, body = app.do(t, http.MethodPatch, "/api/v1/users/"+id.String(), "admin-sid", `{"status":"suspended","suspendReason":"fraud"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "suspended", body["data"].(map[string]interface{})["status"])
}

func TestUnclassifiedErrorIsHidden(t *testing.T) {
	app := newTestApp()
	app.orders.On("List", mock.Anything, mock.Anything, model.OrderStatus("")).Return(nil, errors.New("pq: relation does not exist"))

	resp, body := app.do(t, http.MethodGet, "/api/v1/orders", "admin-sid", "")

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal Server Error", body["error"])
}

func dashboardRequest(tb testing.TB, app *testApp, sid string, upgrade bool) *http.Response {
	tb.Helper()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if upgrade {
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.app.Test(req, -1)
	require.NoError(tb, err)
	return resp
}

func TestDashboardFeed_Gated(t *testing.T) {
	app := newTestApp()
	app.sessions["pending-manager-sid"] = account(model.RoleManager, model.AccountPending)

	tests := []struct {
		name    string
		sid     string
		upgrade bool
		want    int
	}{
		{"anonymous upgrade", "", true, fiber.StatusUnauthorized},
		{"unknown session", "stale-sid", true, fiber.StatusUnauthorized},
		{"buyer", "buyer-sid", true, fiber.StatusForbidden},
		{"suspended manager", "suspended-sid", true, fiber.StatusForbidden},
		{"pending manager", "pending-manager-sid", true, fiber.StatusForbidden},
		{"manager without upgrade", "manager-sid", false, fiber.StatusUpgradeRequired},
		{"approved manager", "manager-sid", true, fiber.StatusOK},
		{"admin", "admin-sid", true, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := dashboardRequest(t, app, tt.sid, tt.upgrade)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{apperror.ErrNoSession, "NoSession", fiber.StatusUnauthorized},
		{fmt.Errorf("delete: %w", apperror.ErrNotOwner), "NotOwner", fiber.StatusForbidden},
		{apperror.ErrSuspended, "Suspended", fiber.StatusForbidden},
		{apperror.ErrNotApproved, "NotApproved", fiber.StatusForbidden},
		{apperror.ErrRoleMismatch, "RoleMismatch", fiber.StatusForbidden},
		{apperror.ErrOrderNotFound, "NotFound", fiber.StatusNotFound},
		{apperror.Store("find order", errors.New("refused")), "StoreUnavailable", fiber.StatusServiceUnavailable},
		{errors.New("boom"), "Internal", fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, status := classify(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
