// Package kroger is a minimal client for the Kroger public API: store
// location lookup, product search and cart management.
package kroger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenProvider supplies a currently valid access token for API calls.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the environment-derived API base (for tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTransport sets a custom base transport; the retry layer wraps it.
func WithTransport(base http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.client.Transport = newRetryTransport(base)
	}
}

// Client calls the Kroger REST API on behalf of a single user. Every
// request carries a bearer token obtained from the TokenProvider.
type Client struct {
	baseURL string
	tokens  TokenProvider
	client  *http.Client
}

// NewClient creates a Client for the given environment.
func NewClient(env Environment, tokens TokenProvider, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: env.BaseURL(),
		tokens:  tokens,
		client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: newRetryTransport(nil),
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FindLocation returns the nearest store of the given chain to a zip code.
func (c *Client) FindLocation(ctx context.Context, zipCode, chain string) (*Location, error) {
	query := url.Values{
		"filter.zipCode.near": {zipCode},
		"filter.chain":        {chain},
		"filter.limit":        {"1"},
	}

	var out locationsResponse
	if err := c.get(ctx, "/locations", query, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("no %s locations found near zip %s", chain, zipCode)
	}

	loc := out.Data[0]
	slog.InfoContext(ctx, "found store location",
		"name", loc.Name, "address", loc.Address.AddressLine1, "city", loc.Address.City)
	return &loc, nil
}

// SearchProducts searches for products at a location by free-text query.
// At most five results are returned; callers typically take the first.
func (c *Client) SearchProducts(ctx context.Context, term, locationID string) ([]Product, error) {
	query := url.Values{
		"filter.term":       {term},
		"filter.locationId": {locationID},
		"filter.limit":      {"5"},
	}

	var out productsResponse
	if err := c.get(ctx, "/products", query, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// AddToCart adds all items to the authenticated user's cart in a single
// batched call. Kroger responds 204 No Content on success.
func (c *Client) AddToCart(ctx context.Context, items []CartItem, modality Modality) error {
	payload, err := json.Marshal(cartAddRequest{
		Items:    items,
		Modality: modality,
	})
	if err != nil {
		return fmt.Errorf("encoding cart request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/cart/add", nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("cart request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		return fmt.Errorf("cart add failed: %s", responseError(resp))
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s failed: %s", path, responseError(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// responseError summarizes a failed response for error messages.
func responseError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Sprintf("%s: %s", resp.Status, msg)
	}
	return resp.Status
}
