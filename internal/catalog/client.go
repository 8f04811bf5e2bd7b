package catalog

import (
	"context"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/poskit/billingd/config"
	"github.com/poskit/billingd/internal/domain"
)

// Client talks to the external catalog gateway. The gateway owns product
// and customer persistence; this service only reads them and commits
// stock decrements on finalize.
type Client struct {
	baseURL string
	timeout time.Duration
}

func NewClient(cfg config.CatalogConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: cfg.BaseURL, timeout: timeout}
}

type errorPayload struct {
	Error string `json:"error"`
}

// FetchProducts reads the full product list.
func (c *Client) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	var code int
	err := gout.GET(c.baseURL + "/api/products").
		WithContext(ctx).
		SetTimeout(c.timeout).
		BindJSON(&products).
		Code(&code).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "catalog: fetch products")
	}
	if code/100 != 2 {
		return nil, errors.Errorf("catalog: fetch products returned status %d", code)
	}
	return products, nil
}

// FetchCustomers reads the full customer list.
func (c *Client) FetchCustomers(ctx context.Context) ([]domain.Customer, error) {
	var customers []domain.Customer
	var code int
	err := gout.GET(c.baseURL + "/api/customers").
		WithContext(ctx).
		SetTimeout(c.timeout).
		BindJSON(&customers).
		Code(&code).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "catalog: fetch customers")
	}
	if code/100 != 2 {
		return nil, errors.Errorf("catalog: fetch customers returned status %d", code)
	}
	return customers, nil
}

// UpdateStock commits the finalized quantities. The gateway applies the
// whole batch or none of it; any non-2xx answer means no stock changed,
// and its {error} payload is surfaced to the operator.
func (c *Client) UpdateStock(ctx context.Context, items []domain.StockCommitItem) error {
	var body []byte
	var code int
	err := gout.POST(c.baseURL + "/api/products/update-stock").
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetJSON(gout.H{"items": items}).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrap(err, "catalog: update stock")
	}
	if code/100 != 2 {
		var payload errorPayload
		if jsoniter.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return errors.Errorf("catalog rejected stock update: %s", payload.Error)
		}
		return errors.Errorf("catalog rejected stock update: status %d", code)
	}
	return nil
}
