package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmehra2102/inventory-service/internal/inventory/application"
	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
	"github.com/dmehra2102/inventory-service/internal/inventory/infrastructure/memory"
	"github.com/dmehra2102/inventory-service/pkg/logging"
)

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.Outcome) {}

type stubSales struct {
	ids []string
	err error
}

func (s stubSales) FindSalesByProductID(context.Context, int64) ([]string, error) {
	return s.ids, s.err
}

func newRouter(sales application.SalesClient) http.Handler {
	ledger := memory.NewLedger()
	ledger.Put(10, 5)
	ledger.Put(11, 2)
	svc := application.NewService(logging.Discard(), ledger, noopPublisher{}, sales)
	return NewHandler(logging.Discard(), svc).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec, out
}

func TestCheckStockHandler(t *testing.T) {
	h := newRouter(stubSales{})
	tests := []struct {
		name        string
		body        string
		wantCode    int
		wantMessage string
		wantProduct float64
	}{
		{"ok", `{"lines":[{"productId":10,"quantity":3}]}`, http.StatusOK, "The stock is ok!", 0},
		{"out of stock", `{"lines":[{"productId":10,"quantity":3},{"productId":11,"quantity":3}]}`, http.StatusBadRequest, "the product 11 is out of stock", 11},
		{"unknown product", `{"lines":[{"productId":12,"quantity":1}]}`, http.StatusBadRequest, "product 12: there is no product for the given id", 12},
		{"empty", `{"lines":[]}`, http.StatusBadRequest, domain.ErrEmptyLineSet.Error(), 0},
		{"incomplete", `{"lines":[{"productId":10}]}`, http.StatusBadRequest, "line 0: " + domain.ErrIncompleteLine.Error(), 0},
		{"bad body", `{`, http.StatusBadRequest, "invalid body", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, h, http.MethodPost, "/api/product/check-stock", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if out["message"] != tt.wantMessage {
				t.Fatalf("message = %v, want %q", out["message"], tt.wantMessage)
			}
			if tt.wantProduct != 0 && out["productId"] != tt.wantProduct {
				t.Fatalf("productId = %v, want %v", out["productId"], tt.wantProduct)
			}
			if tt.wantProduct == 0 {
				if _, ok := out["productId"]; ok {
					t.Fatalf("unexpected productId in %v", out)
				}
			}
		})
	}
}

func TestProductSalesHandler(t *testing.T) {
	rec, out := do(t, newRouter(stubSales{ids: []string{"a", "b"}}), http.MethodGet, "/api/product/10/sales", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if out["productId"] != float64(10) || out["quantityAvailable"] != float64(5) {
		t.Fatalf("body = %v", out)
	}
	if sales, _ := out["sales"].([]any); len(sales) != 2 {
		t.Fatalf("sales = %v", out["sales"])
	}

	rec, _ = do(t, newRouter(stubSales{err: errors.New("timeout")}), http.MethodGet, "/api/product/10/sales", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("lookup failure code = %d", rec.Code)
	}

	rec, _ = do(t, newRouter(stubSales{}), http.MethodGet, "/api/product/abc/sales", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id code = %d", rec.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	rec, out := do(t, newRouter(stubSales{}), http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK || out["status"] != "up" || out["service"] != "Product-API" {
		t.Fatalf("status = %d %v", rec.Code, out)
	}
}
