// Package mercadopago is a minimal REST client for the Mercado Pago checkout
// and payments APIs, covering only the operations the storefront needs.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
)

const defaultBaseURL = "https://api.mercadopago.com"

// Client talks to the Mercado Pago REST API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient builds a Client. The access token is required; every call fails
// with a dependency error when it is empty.
func NewClient(accessToken string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     defaultBaseURL,
		accessToken: accessToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreatePreference registers a checkout preference and returns the hosted
// checkout URL material.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference requires at least one item")
	}
	for i, item := range req.Items {
		if item.ID == "" || item.Title == "" || item.Quantity <= 0 || !item.UnitPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference item is incomplete").
				WithDetails(map[string]string{"index": fmt.Sprintf("%d", i)})
		}
	}

	var pref Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", req, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

// GetPayment fetches the payment object by its gateway id. A 404 maps to a
// not-found error so callers can distinguish unknown ids from outages.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	var payment Payment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// IsNotFound reports whether err represents an unknown payment id.
func IsNotFound(err error) bool {
	appErr := pkgerrors.As(err)
	return appErr != nil && appErr.Code() == pkgerrors.CodeNotFound
}

func (c *Client) checkCredentials() error {
	if c.accessToken == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, "payment gateway credentials are not configured")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read gateway response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment gateway resource not found").
			WithDetails(map[string]string{"path": path})
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeDependency, "payment gateway rejected credentials").
			WithDetails(map[string]string{"status": fmt.Sprintf("%d", resp.StatusCode)})
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned an error").
			WithDetails(map[string]string{
				"status": fmt.Sprintf("%d", resp.StatusCode),
				"body":   truncate(string(raw), 512),
			})
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
