package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPITimeout = 3 * time.Second

var (
	ErrProductNotFound    = errors.New("catalog product not found")
	ErrCatalogBadStatus   = errors.New("catalog bad status")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCatalogBadResponse = errors.New("catalog malformed response")
)

// APIClient talks to the stock/catalog service. It is both the StockLookup
// and the ProductCatalog of a Manager.
type APIClient struct {
	BaseURL string
	Client  *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	return &APIClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) FetchStock(ctx context.Context, productID int64) (Stock, error) {
	var s Stock
	if err := c.getJSON(ctx, fmt.Sprintf("/stock/%d", productID), &s); err != nil {
		return Stock{}, err
	}
	if s.ID != productID || s.Amount < 0 {
		return Stock{}, fmt.Errorf("%w: stock %+v for product %d", ErrCatalogBadResponse, s, productID)
	}
	return s, nil
}

func (c *APIClient) FetchProduct(ctx context.Context, productID int64) (ProductInfo, error) {
	var p ProductInfo
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%d", productID), &p); err != nil {
		return ProductInfo{}, err
	}
	return p, nil
}

func (c *APIClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrProductNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrCatalogBadStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogBadResponse, err)
	}
	return nil
}
