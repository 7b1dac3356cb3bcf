// Package client calls the garment-tracker API with a session cookie and maps
// failures back onto the apperror taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"

	"github.com/google/uuid"
)

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func New(baseURL string) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		},
	}, nil
}

// APIError is a non-2xx response. It unwraps to the matching apperror
// sentinel: 401 is always ErrNoSession and 403 is always ErrRoleMismatch,
// plus the specific reason the server reported.
type APIError struct {
	Status    int
	Code      string `json:"code"`
	Message   string `json:"error"`
	Bound     int    `json:"bound"`
	Requested int    `json:"requested"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() []error {
	var out []error
	switch e.Status {
	case http.StatusUnauthorized:
		out = append(out, apperror.ErrNoSession)
	case http.StatusForbidden:
		out = append(out, apperror.ErrRoleMismatch)
	}

	sentinel, ok := apperror.FromCode(e.Code)
	switch {
	case ok && (errors.Is(sentinel, apperror.ErrBelowMinimumOrder) || errors.Is(sentinel, apperror.ErrInsufficientStock)):
		out = append(out, &apperror.QuantityError{Err: sentinel, Requested: e.Requested, Bound: e.Bound})
	case ok:
		out = append(out, sentinel)
	case e.Status == http.StatusServiceUnavailable:
		out = append(out, apperror.ErrStoreUnavailable)
	}
	return out
}

type Session struct {
	Account      model.AccountResponse `json:"account"`
	Capabilities []string              `json:"capabilities"`
}

// Register provisions a pending account for the identity behind identityToken.
func (c *Client) Register(ctx context.Context, identityToken string, role model.Role) (*model.AccountResponse, error) {
	var out struct {
		Data model.AccountResponse `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/register", identityToken, map[string]interface{}{"role": role}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Login establishes the server-side session; the cookie is kept by the client.
func (c *Client) Login(ctx context.Context, identityToken, email string, federated bool) (*Session, error) {
	var out Session
	body := map[string]interface{}{"email": email, "federated": federated}
	if err := c.do(ctx, http.MethodPost, "/auth/login", identityToken, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", "", nil, nil)
}

func (c *Client) Me(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodGet, "/users/me", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type OrderRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Contact   string    `json:"contact"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes,omitempty"`
}

type TrackingUpdate struct {
	Status   string `json:"status"`
	Location string `json:"location"`
	Note     string `json:"note,omitempty"`
	Date     string `json:"date"`
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*model.Order, error) {
	return c.orderCall(ctx, http.MethodPost, "/orders", req)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	return c.orderCall(ctx, http.MethodPatch, "/orders/"+id.String(), map[string]interface{}{"status": status})
}

func (c *Client) AddTracking(ctx context.Context, id uuid.UUID, update TrackingUpdate) (*model.Order, error) {
	return c.orderCall(ctx, http.MethodPatch, "/orders/"+id.String()+"/tracking", update)
}

func (c *Client) Orders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	path := "/orders"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var out []model.Order
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateAccountStatus(ctx context.Context, id uuid.UUID, status model.AccountStatus, reason string) (*model.AccountResponse, error) {
	var out struct {
		Data model.AccountResponse `json:"data"`
	}
	body := map[string]interface{}{"status": status, "suspendReason": reason}
	if err := c.do(ctx, http.MethodPatch, "/users/"+id.String(), "", body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) orderCall(ctx context.Context, method, path string, body interface{}) (*model.Order, error) {
	var out struct {
		Data model.Order `json:"data"`
	}
	if err := c.do(ctx, method, path, "", body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+"/api/v1"+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", apperror.ErrNetworkUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", apperror.ErrNetworkUnavailable, err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
