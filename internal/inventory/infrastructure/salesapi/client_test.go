package salesapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"
)

func TestFindSalesByProductID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/product/10" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"salesIds":["s-1","s-2"]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	ids, err := c.FindSalesByProductID(context.Background(), 10)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !slices.Equal(ids, []string{"s-1", "s-2"}) {
		t.Fatalf("ids = %v", ids)
	}

	if _, err := c.FindSalesByProductID(context.Background(), 11); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestFindSalesByProductIDEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL, time.Second).FindSalesByProductID(context.Background(), 10); err == nil {
		t.Fatal("expected error when the sales api knows no sales")
	}
}

func TestFindSalesByProductIDTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	if _, err := New(srv.URL, 50*time.Millisecond).FindSalesByProductID(context.Background(), 10); err == nil {
		t.Fatal("expected timeout")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout not enforced")
	}
}
