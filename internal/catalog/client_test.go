package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/poskit/billingd/config"
	"github.com/poskit/billingd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.CatalogConfig{BaseURL: baseURL, Timeout: 5})
}

func TestClientFetchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1","name":"Rice 5kg","price":100,"stock":5}]`))
	}))
	defer srv.Close()

	products, err := newTestClient(srv.URL).FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, domain.Product{ID: "p1", Name: "Rice 5kg", Price: 100, Stock: 5}, products[0])
}

func TestClientFetchCustomers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/customers", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"c1","name":"Asha Mehta","phone":"9000000001","email":"asha@example.com","discountPercentage":10}]`))
	}))
	defer srv.Close()

	customers, err := newTestClient(srv.URL).FetchCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, 10.0, customers[0].DiscountPercentage)
	assert.Equal(t, "asha@example.com", customers[0].Email)
}

func TestClientFetchProductsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchProducts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClientUpdateStock(t *testing.T) {
	var got struct {
		Items []domain.StockCommitItem `json:"items"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products/update-stock", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, jsoniter.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	items := []domain.StockCommitItem{{ProductID: "p1", Quantity: 2}}
	require.NoError(t, newTestClient(srv.URL).UpdateStock(context.Background(), items))
	assert.Equal(t, items, got.Items)
}

func TestClientUpdateStockRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"insufficient stock for Rice 5kg"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).UpdateStock(context.Background(), []domain.StockCommitItem{{ProductID: "p1", Quantity: 99}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient stock for Rice 5kg")
}

type stubFetcher struct {
	products  []domain.Product
	customers []domain.Customer
	err       error
}

func (s *stubFetcher) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubFetcher) FetchCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.customers, s.err
}

func TestRefresherSwapsSnapshot(t *testing.T) {
	fetcher := &stubFetcher{
		products:  []domain.Product{{ID: "p1", Name: "Rice 5kg", Stock: 5}},
		customers: []domain.Customer{{ID: "c1", Name: "Asha Mehta"}},
	}
	snap := NewSnapshot()
	r := NewRefresher(fetcher, snap, nil, nil)

	require.NoError(t, r.Refresh(context.Background()))
	_, ok := snap.ProductByID("p1")
	assert.True(t, ok)
	assert.False(t, snap.FetchedAt().IsZero())
}

func TestRefresherKeepsStaleSnapshotOnFailure(t *testing.T) {
	snap := seededSnapshot()
	before := snap.FetchedAt()
	fetcher := &stubFetcher{err: assert.AnError}
	r := NewRefresher(fetcher, snap, nil, nil)

	require.Error(t, r.Refresh(context.Background()))
	_, ok := snap.ProductByID("p1")
	assert.True(t, ok)
	assert.Equal(t, before, snap.FetchedAt())
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenCache(t.TempDir() + "/catalog.db")
	require.NoError(t, err)
	defer cache.Close()

	_, _, _, ok := cache.Load()
	assert.False(t, ok)

	snap := seededSnapshot()
	require.NoError(t, cache.Save(snap.SearchProducts(""), snap.SearchCustomers(""), snap.FetchedAt()))

	products, customers, at, ok := cache.Load()
	require.True(t, ok)
	assert.Len(t, products, 3)
	assert.Len(t, customers, 2)
	assert.False(t, at.IsZero())
}
