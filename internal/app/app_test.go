package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"krogercart/internal/items"
	"krogercart/internal/kroger"
	"krogercart/internal/tokensource"
	"krogercart/internal/tokenstore"
)

// testApp builds an App against a mock API server with a pre-seeded
// valid token, so no authorization flow runs.
func testApp(t *testing.T, handler http.Handler) *App {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := tokenstore.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), &tokenstore.Record{
		AccessToken: "tok",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	manager := tokensource.New(tokensource.Config{
		ClientID:    "test-client",
		RedirectURL: "http://localhost:3000",
		Endpoint:    oauth2.Endpoint{TokenURL: "http://unused"},
	}, store)

	cfg, err := Default()
	require.NoError(t, err)

	return &App{
		cfg:    cfg,
		tokens: manager,
		client: kroger.NewClient(kroger.EnvironmentProd, manager, kroger.WithBaseURL(server.URL)),
	}
}

// mockAPI answers location, product and cart endpoints. Product searches
// match any term except "unobtainium".
func mockAPI(t *testing.T, cartCalls *atomic.Int32, cartBody *atomic.Pointer[string]) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"locationId":"loc-1","name":"Smiths","address":{"addressLine1":"1 Main St","city":"Lehi"}}]}`)
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("filter.term")
		if term == "unobtainium" {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		fmt.Fprintf(w, `{"data":[{"productId":"p-%s","upc":"upc-%s","description":"Best %s"}]}`, term, term, term)
	})
	mux.HandleFunc("/cart/add", func(w http.ResponseWriter, r *http.Request) {
		cartCalls.Add(1)
		var body json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		s := string(body)
		cartBody.Store(&s)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func TestRun_SearchesAndBatchAdds(t *testing.T) {
	var cartCalls atomic.Int32
	var cartBody atomic.Pointer[string]
	application := testApp(t, mockAPI(t, &cartCalls, &cartBody))

	result, err := application.Run(context.Background(), []items.Item{
		{Query: "milk", Quantity: 2},
		{Query: "unobtainium", Quantity: 1},
		{Query: "eggs", Quantity: 1},
	}, false)
	require.NoError(t, err)

	require.Len(t, result.Added, 2)
	assert.Equal(t, "Best milk", result.Added[0].Name, "results keep input order")
	assert.Equal(t, 2, result.Added[0].Quantity)
	assert.Equal(t, "Best eggs", result.Added[1].Name)
	assert.Equal(t, []string{"unobtainium"}, result.NotFound)
	assert.Equal(t, "loc-1", result.LocationID)

	assert.Equal(t, int32(1), cartCalls.Load(), "one batched cart call")
	require.NotNil(t, cartBody.Load())
	assert.Contains(t, *cartBody.Load(), "upc-milk")
	assert.Contains(t, *cartBody.Load(), "upc-eggs")
}

func TestRun_DryRunSkipsCart(t *testing.T) {
	var cartCalls atomic.Int32
	var cartBody atomic.Pointer[string]
	application := testApp(t, mockAPI(t, &cartCalls, &cartBody))

	result, err := application.Run(context.Background(), []items.Item{{Query: "milk", Quantity: 1}}, true)
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Len(t, result.Added, 1)
	assert.Zero(t, cartCalls.Load(), "dry run must not touch the cart")
}

func TestRun_ExplicitLocationSkipsLookup(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		t.Error("location lookup must be skipped when a location ID is configured")
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "loc-configured", r.URL.Query().Get("filter.locationId"))
		fmt.Fprint(w, `{"data":[]}`)
	})

	application := testApp(t, mux)
	application.cfg.Cart.LocationID = "loc-configured"

	result, err := application.Run(context.Background(), []items.Item{{Query: "milk", Quantity: 1}}, false)
	require.NoError(t, err)
	assert.Equal(t, "loc-configured", result.LocationID)
}

func TestRun_CartFailureDemotesMatches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"locationId":"loc-1","name":"Smiths","address":{}}]}`)
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"productId":"p1","upc":"0001","description":"Milk"}]}`)
	})
	mux.HandleFunc("/cart/add", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	application := testApp(t, mux)

	result, err := application.Run(context.Background(), []items.Item{{Query: "milk", Quantity: 1}}, false)
	require.NoError(t, err, "a failed batch add is reported, not fatal")

	assert.Empty(t, result.Added)
	assert.Equal(t, []string{"milk"}, result.NotFound)
}
