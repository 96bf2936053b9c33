// Package salesapi is the client of the sales API's product query.
package salesapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client with a hard timeout. There is no retry.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type salesProductResponse struct {
	SalesIDs []string `json:"salesIds"`
}

// FindSalesByProductID returns the ids of the sales that include productID.
func (c *Client) FindSalesByProductID(ctx context.Context, productID int64) ([]string, error) {
	url := fmt.Sprintf("%s/api/orders/product/%d", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sales api: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out salesProductResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("sales api: decode: %w", err)
	}
	if out.SalesIDs == nil {
		return nil, fmt.Errorf("sales api: no sales found for product %d", productID)
	}
	return out.SalesIDs, nil
}
