package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
	"github.com/maisonessence/storefront-checkout/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	defaultTimeout            = 30 * time.Second
	errorBodyReadLimit  int64 = 1024
	addressesPath             = "/api/addresses"
	shippingMethodsPath       = "/api/shipping-methods"
	ordersPath                = "/api/orders"
)

// Client talks to the commerce backend's REST API. Address and order writes
// carry the caller's bearer token when one is present; guest checkout sends
// no Authorization header.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default per-call timeout. The timeout applies
// after all options, so it survives a later WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient builds the commerce client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("commerce base url is required")
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.timeout > 0 {
		client.httpClient.Timeout = client.timeout
	}

	return client, nil
}

// ListAddresses returns the caller's saved addresses. Requires auth.
func (c *Client) ListAddresses(ctx context.Context, token string) ([]types.Address, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "saved addresses require authentication")
	}

	var addresses []types.Address
	if err := c.do(ctx, http.MethodGet, addressesPath, token, nil, &addresses, "list addresses"); err != nil {
		return nil, err
	}
	return addresses, nil
}

// CreateAddress persists a draft address and returns the record with its
// server-assigned id.
func (c *Client) CreateAddress(ctx context.Context, token string, draft types.Address) (types.Address, error) {
	if c == nil {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}
	if draft.AddressType != types.AddressTypeShipping && draft.AddressType != types.AddressTypeBilling {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "address type must be shipping or billing")
	}

	var created types.Address
	if err := c.do(ctx, http.MethodPost, addressesPath, token, draft, &created, "create address"); err != nil {
		return types.Address{}, err
	}
	if !created.Persisted() {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "backend did not assign an address id")
	}
	return created, nil
}

// ListShippingMethods returns the active delivery options for the given
// order total. Cost fields arrive as numeric strings and are parsed here.
func (c *Client) ListShippingMethods(ctx context.Context, orderTotal decimal.Decimal) ([]ShippingMethod, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}

	query := url.Values{}
	query.Set("is_active", "true")
	query.Set("order_total", orderTotal.StringFixed(2))

	var payload []shippingMethodPayload
	path := shippingMethodsPath + "?" + query.Encode()
	if err := c.do(ctx, http.MethodGet, path, "", nil, &payload, "list shipping methods"); err != nil {
		return nil, err
	}

	methods := make([]ShippingMethod, 0, len(payload))
	for _, p := range payload {
		method, err := p.parse()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed shipping method payload")
		}
		methods = append(methods, method)
	}
	return methods, nil
}

// CreateOrder submits the assembled order exactly once. Callers own the
// single-flight guarantee; this method performs one POST per invocation.
func (c *Client) CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (Order, error) {
	if c == nil {
		return Order{}, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}
	if req.ShippingAddressID == "" || req.BillingAddressID == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order requires resolved shipping and billing address ids")
	}
	if req.CustomerEmail == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order requires a customer email")
	}

	var created Order
	if err := c.do(ctx, http.MethodPost, ordersPath, token, req, &created, "create order"); err != nil {
		return Order{}, err
	}
	return created, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any, op string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("marshal %s request", op))
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s request", op))
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", op))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(resp, op)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", op))
	}
	return nil
}

func statusError(resp *http.Response, op string) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))

	code := pkgerrors.CodeDependency
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = pkgerrors.CodeUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = pkgerrors.CodeValidation
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusConflict:
		code = pkgerrors.CodeConflict
	}
	return pkgerrors.Wrap(code, cause, fmt.Sprintf("%s request failed", op))
}

type shippingMethodPayload struct {
	ShippingMethodID string  `json:"shipping_method_id"`
	Name             string  `json:"name"`
	Cost             string  `json:"cost"`
	FreeThreshold    *string `json:"free_threshold"`
	EstimatedDaysMin int     `json:"estimated_days_min"`
	EstimatedDaysMax int     `json:"estimated_days_max"`
	IsExpress        bool    `json:"is_express"`
}

func (p shippingMethodPayload) parse() (ShippingMethod, error) {
	cost, err := decimal.NewFromString(strings.TrimSpace(p.Cost))
	if err != nil {
		return ShippingMethod{}, fmt.Errorf("parsing cost %q: %w", p.Cost, err)
	}

	var threshold *decimal.Decimal
	if p.FreeThreshold != nil && strings.TrimSpace(*p.FreeThreshold) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(*p.FreeThreshold))
		if err != nil {
			return ShippingMethod{}, fmt.Errorf("parsing free_threshold %q: %w", *p.FreeThreshold, err)
		}
		threshold = &parsed
	}

	return ShippingMethod{
		ShippingMethodID: p.ShippingMethodID,
		Name:             p.Name,
		Cost:             cost,
		FreeThreshold:    threshold,
		EstimatedDaysMin: p.EstimatedDaysMin,
		EstimatedDaysMax: p.EstimatedDaysMax,
		IsExpress:        p.IsExpress,
	}, nil
}
