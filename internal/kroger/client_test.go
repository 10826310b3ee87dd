package kroger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTokens always returns the same access token.
type staticTokens struct {
	token string
}

func (s staticTokens) AccessToken(context.Context) (string, error) {
	return s.token, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(EnvironmentProd, staticTokens{token: "tok"}, WithBaseURL(server.URL))
}

func TestEnvironmentEndpoints(t *testing.T) {
	assert.Equal(t, "https://api.kroger.com/v1", EnvironmentProd.BaseURL())
	assert.Equal(t, "https://api-ce.kroger.com/v1", EnvironmentCert.BaseURL())
	assert.Equal(t, "https://api.kroger.com/v1/connect/oauth2/token", EnvironmentProd.OAuthEndpoint().TokenURL)
	assert.Equal(t, "https://api-ce.kroger.com/v1/connect/oauth2/authorize", EnvironmentCert.OAuthEndpoint().AuthURL)
}

func TestFindLocation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "84045", r.URL.Query().Get("filter.zipCode.near"))
		assert.Equal(t, "Smiths", r.URL.Query().Get("filter.chain"))
		assert.Equal(t, "1", r.URL.Query().Get("filter.limit"))
		fmt.Fprint(w, `{"data":[{"locationId":"015-00414","name":"Smiths","address":{"addressLine1":"1 Main St","city":"Saratoga Springs"}}]}`)
	})

	loc, err := client.FindLocation(context.Background(), "84045", "Smiths")
	require.NoError(t, err)
	assert.Equal(t, "015-00414", loc.LocationID)
	assert.Equal(t, "Saratoga Springs", loc.Address.City)
}

func TestFindLocation_NoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	_, err := client.FindLocation(context.Background(), "00000", "Smiths")
	assert.ErrorContains(t, err, "no Smiths locations found")
}

func TestSearchProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "milk", r.URL.Query().Get("filter.term"))
		assert.Equal(t, "015-00414", r.URL.Query().Get("filter.locationId"))
		assert.Equal(t, "5", r.URL.Query().Get("filter.limit"))
		fmt.Fprint(w, `{"data":[{"productId":"p1","upc":"0001111041700","description":"Whole Milk"}]}`)
	})

	products, err := client.SearchProducts(context.Background(), "milk", "015-00414")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Whole Milk", products[0].Description)
	assert.Equal(t, "0001111041700", products[0].UPC)
}

func TestAddToCart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/cart/add", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req cartAddRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, ModalityDelivery, req.Modality)
		require.Len(t, req.Items, 2)
		assert.Equal(t, CartItem{UPC: "0001", Quantity: 2}, req.Items[0])

		w.WriteHeader(http.StatusNoContent)
	})

	err := client.AddToCart(context.Background(), []CartItem{
		{UPC: "0001", Quantity: 2},
		{UPC: "0002", Quantity: 1},
	}, ModalityDelivery)
	assert.NoError(t, err)
}

func TestAddToCart_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"insufficient scope"}`)
	})

	err := client.AddToCart(context.Background(), []CartItem{{UPC: "0001", Quantity: 1}}, ModalityPickup)
	assert.ErrorContains(t, err, "cart add failed")
}
