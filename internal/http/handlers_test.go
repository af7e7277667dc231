package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fairyhunter13/order-fulfillment-simulator/internal/catalog"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/config"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/model"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/obs"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/orderlog"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/orders"
	"github.com/google/uuid"
)

func setupApp(t *testing.T) (*App, *orders.Manager, model.Product, http.Handler) {
	t.Helper()
	obs.InitLogger()
	cfg := config.Config{
		OrdersFile:   filepath.Join(t.TempDir(), "orders.txt"),
		ShipDelay:    10 * time.Millisecond,
		DeliverDelay: 10 * time.Millisecond,
	}
	lg, err := orderlog.Open(cfg.OrdersFile)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	t.Cleanup(func() { _ = lg.Close() })
	cat := catalog.New()
	p := model.Product{ProductID: uuid.New(), Name: "Laptop", Price: 1200, StockLevel: 20, ReorderThreshold: 5}
	cat.Add(p)
	mgr := orders.NewManager(cfg, cat, lg)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	mgr.Start(ctx)
	app := NewApp(cfg, cat, mgr)
	return app, mgr, p, NewRouter(app)
}

func postJSON(t *testing.T, mux http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func get(t *testing.T, mux http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestPlaceOrderCreated(t *testing.T) {
	_, _, p, mux := setupApp(t)
	body := fmt.Sprintf(`{"customer_name":"John","product_id":"%s","quantity":2}`, p.ProductID)
	w := postJSON(t, mux, "/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var v model.OrderView
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Status != model.StatusPending || v.Quantity != 2 || v.CustomerName != "John" {
		t.Fatalf("unexpected order: %+v", v)
	}

	wp := get(t, mux, "/products/"+p.ProductID.String())
	if wp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", wp.Code)
	}
	var gp model.Product
	if err := json.Unmarshal(wp.Body.Bytes(), &gp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gp.StockLevel != 18 {
		t.Fatalf("expected stock 18, got %d", gp.StockLevel)
	}
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	_, _, _, mux := setupApp(t)
	body := fmt.Sprintf(`{"customer_name":"John","product_id":"%s","quantity":2}`, uuid.NewString())
	w := postJSON(t, mux, "/orders", body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("product_not_found")) {
		t.Fatalf("expected product_not_found body, got %s", w.Body.String())
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	_, _, p, mux := setupApp(t)
	body := fmt.Sprintf(`{"customer_name":"John","product_id":"%s","quantity":21}`, p.ProductID)
	w := postJSON(t, mux, "/orders", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("insufficient_stock")) {
		t.Fatalf("expected insufficient_stock body, got %s", w.Body.String())
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	_, _, p, mux := setupApp(t)
	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing customer", fmt.Sprintf(`{"product_id":"%s","quantity":1}`, p.ProductID), http.StatusBadRequest},
		{"bad product id", `{"customer_name":"x","product_id":"nope","quantity":1}`, http.StatusBadRequest},
		{"zero quantity", fmt.Sprintf(`{"customer_name":"x","product_id":"%s","quantity":0}`, p.ProductID), http.StatusBadRequest},
		{"negative quantity", fmt.Sprintf(`{"customer_name":"x","product_id":"%s","quantity":-2}`, p.ProductID), http.StatusBadRequest},
	}
	for _, tc := range cases {
		if w := postJSON(t, mux, "/orders", tc.body); w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
	}
}

func TestPlaceOrderRequiresJSONContentType(t *testing.T) {
	_, _, p, mux := setupApp(t)
	body := fmt.Sprintf(`{"customer_name":"John","product_id":"%s","quantity":1}`, p.ProductID)
	r := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
}

func TestListAndGetOrders(t *testing.T) {
	_, _, p, mux := setupApp(t)
	body := fmt.Sprintf(`{"customer_name":"John","product_id":"%s","quantity":1}`, p.ProductID)
	w := postJSON(t, mux, "/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var created model.OrderView
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	wl := get(t, mux, "/orders")
	if wl.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", wl.Code)
	}
	var views []model.OrderView
	if err := json.Unmarshal(wl.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || views[0].OrderID != created.OrderID {
		t.Fatalf("unexpected list: %+v", views)
	}

	wo := get(t, mux, "/orders/"+created.OrderID.String())
	if wo.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", wo.Code)
	}
	if wm := get(t, mux, "/orders/"+uuid.NewString()); wm.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", wm.Code)
	}
}

func TestCreateProductThenOrder(t *testing.T) {
	_, _, _, mux := setupApp(t)
	w := postJSON(t, mux, "/products", `{"name":"Tablet","price":300,"stock_level":4,"reorder_threshold":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var p model.Product
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	body := fmt.Sprintf(`{"customer_name":"Jane","product_id":"%s","quantity":4}`, p.ProductID)
	if wo := postJSON(t, mux, "/orders", body); wo.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", wo.Code)
	}
}

func TestCreateProductValidation(t *testing.T) {
	_, _, _, mux := setupApp(t)
	for _, body := range []string{
		`{"price":10}`,
		`{"name":"x","price":-1}`,
		`{"name":"x","stock_level":-1}`,
	} {
		if w := postJSON(t, mux, "/products", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestForecastHandler(t *testing.T) {
	_, _, p, mux := setupApp(t)
	w := get(t, mux, "/products/"+p.ProductID.String()+"/forecast?daily_sales=10")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var f struct {
		Days     int    `json:"days_until_stock_out"`
		Priority string `json:"restock_priority"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Days != 2 || f.Priority != "urgent" {
		t.Fatalf("unexpected forecast: %+v", f)
	}
	if wb := get(t, mux, "/products/"+p.ProductID.String()+"/forecast"); wb.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without daily_sales, got %d", wb.Code)
	}
	if wm := get(t, mux, "/products/"+uuid.NewString()+"/forecast?daily_sales=1"); wm.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", wm.Code)
	}
}

func TestShuttingDownRejectsOrders(t *testing.T) {
	app, _, p, mux := setupApp(t)
	app.StartShutdown()
	body := fmt.Sprintf(`{"customer_name":"John","product_id":"%s","quantity":1}`, p.ProductID)
	w := postJSON(t, mux, "/orders", body)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestHealthzOK(t *testing.T) {
	_, _, _, mux := setupApp(t)
	if w := get(t, mux, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestMetricsHandler(t *testing.T) {
	_, _, p, mux := setupApp(t)
	body := fmt.Sprintf(`{"customer_name":"John","product_id":"%s","quantity":1}`, p.ProductID)
	if w := postJSON(t, mux, "/orders", body); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	w := get(t, mux, "/debug/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["orders_placed"].(float64) != 1 {
		t.Fatalf("expected orders_placed 1, got %v", m["orders_placed"])
	}
	if m["product_count"].(float64) != 1 {
		t.Fatalf("expected product_count 1, got %v", m["product_count"])
	}
}

func TestOpenAPIServed(t *testing.T) {
	_, _, _, mux := setupApp(t)
	w := get(t, mux, "/openapi.yaml")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("openapi:")) {
		t.Fatalf("expected openapi content")
	}
}

func TestDocsServed(t *testing.T) {
	_, _, _, mux := setupApp(t)
	w := get(t, mux, "/docs")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "swagger-ui") {
		t.Fatalf("expected swagger-ui in docs body")
	}
}

func TestRequestIDHeader(t *testing.T) {
	_, _, _, mux := setupApp(t)
	w := get(t, mux, "/healthz")
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set("X-Request-Id", "abc-123")
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, r)
	if w2.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("expected request id passthrough, got %q", w2.Header().Get("X-Request-Id"))
	}
}
