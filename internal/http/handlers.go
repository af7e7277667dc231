package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/order-fulfillment-simulator/internal/catalog"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/config"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/model"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/obs"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/orders"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/predictor"
	"github.com/google/uuid"

	httpopenapi "github.com/fairyhunter13/order-fulfillment-simulator/internal/http/openapi"
)

type App struct {
	Cfg     config.Config
	Catalog *catalog.Catalog
	Manager *orders.Manager
	started time.Time
}

func NewApp(cfg config.Config, cat *catalog.Catalog, m *orders.Manager) *App {
	return &App{Cfg: cfg, Catalog: cat, Manager: m, started: time.Now()}
}

// StartShutdown closes order intake; in-flight fulfillment keeps running.
func (a *App) StartShutdown() {
	a.Manager.CloseIntake()
}

type placeOrderRequest struct {
	CustomerName string `json:"customer_name"`
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
}

func (a *App) ordersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.placeOrder(w, r)
	case http.MethodGet:
		a.listOrders(w, r)
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

func (a *App) placeOrder(w http.ResponseWriter, r *http.Request) {
	if a.Manager.IsShuttingDown() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return
	}
	var req placeOrderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.CustomerName == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "customer_name is required")
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "product_id must be a uuid")
		return
	}

	o, err := a.Manager.PlaceOrder(req.CustomerName, productID, req.Quantity)
	if err != nil {
		WritePlacementError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(o.View())
	obs.Logger.Info("order_accepted",
		"request_id", RequestIDFromContext(r.Context()),
		"order_id", o.OrderID.String(),
		"product_id", o.ProductID.String(),
		"quantity", o.Quantity,
	)
}

func (a *App) listOrders(w http.ResponseWriter, _ *http.Request) {
	all := a.Manager.Orders()
	views := make([]model.OrderView, 0, len(all))
	for _, o := range all {
		views = append(views, o.View())
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (a *App) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/orders/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "order id must be a uuid")
		return
	}
	o, ok := a.Manager.Get(id)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(o.View())
}

type createProductRequest struct {
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	StockLevel       int     `json:"stock_level"`
	ReorderThreshold int     `json:"reorder_threshold"`
}

func (a *App) productsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createProduct(w, r)
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.Catalog.List())
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

func (a *App) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Name == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "name is required")
		return
	}
	if req.Price < 0 || req.StockLevel < 0 || req.ReorderThreshold < 0 {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "price, stock_level and reorder_threshold must be >= 0")
		return
	}
	p := model.Product{
		ProductID:        uuid.New(),
		Name:             req.Name,
		Price:            req.Price,
		StockLevel:       req.StockLevel,
		ReorderThreshold: req.ReorderThreshold,
	}
	a.Catalog.Add(p)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(p)
}

// productSubHandler serves /products/{id} and /products/{id}/forecast.
func (a *App) productSubHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/products/")
	parts := strings.Split(rest, "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "product id must be a uuid")
		return
	}
	p, ok := a.Catalog.Get(id)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	switch {
	case len(parts) == 1:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	case len(parts) == 2 && parts[1] == "forecast":
		a.forecast(w, r, p)
	default:
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
	}
}

func (a *App) forecast(w http.ResponseWriter, r *http.Request, p model.Product) {
	sales, err := strconv.Atoi(r.URL.Query().Get("daily_sales"))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "daily_sales query parameter must be an integer")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(predictor.ForProduct(p, sales))
}

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, _ *http.Request) {
	placed, rejected, shipped, delivered, cancelled, inflight := a.Manager.Metrics()
	m := map[string]any{
		"orders_placed":    placed,
		"orders_rejected":  rejected,
		"orders_shipped":   shipped,
		"orders_delivered": delivered,
		"tasks_cancelled":  cancelled,
		"tasks_inflight":   inflight,
		"order_count":      a.Manager.Count(),
		"product_count":    a.Catalog.Len(),
		"uptime_sec":       time.Since(a.started).Seconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m)
}

func (a *App) openapiHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
