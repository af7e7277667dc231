// Package orders implements order intake, the in-memory order register, and
// the per-order fulfillment tasks.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/order-fulfillment-simulator/internal/catalog"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/config"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/model"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/obs"
	"github.com/fairyhunter13/order-fulfillment-simulator/internal/orderlog"
	"github.com/google/uuid"
)

var (
	// ErrProductNotFound rejects orders referencing an unknown product.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock rejects orders exceeding the available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity rejects non-positive order quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrShuttingDown rejects orders placed after intake closed.
	ErrShuttingDown = errors.New("order intake closed")
)

// Manager accepts orders, reserves stock, records every order in the durable
// log, and runs one fulfillment task per accepted order. Start must be called
// before PlaceOrder.
type Manager struct {
	cfg config.Config
	cat *catalog.Catalog
	log *orderlog.Log

	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes the validate-reserve-create-persist-register sequence
	// and guards the register. A single lock is deliberate: stock checks and
	// decrements for different orders must never interleave.
	mu       sync.RWMutex
	register []*model.Order
	byID     map[uuid.UUID]*model.Order

	wg       sync.WaitGroup
	closed   atomic.Bool
	stopOnce sync.Once

	placed    atomic.Uint64
	rejected  atomic.Uint64
	shipped   atomic.Uint64
	delivered atomic.Uint64
	cancelled atomic.Uint64
	inflight  atomic.Int64
}

// NewManager constructs a Manager over the given catalog and durable log.
func NewManager(cfg config.Config, cat *catalog.Catalog, log *orderlog.Log) *Manager {
	return &Manager{
		cfg:  cfg,
		cat:  cat,
		log:  log,
		byID: make(map[uuid.UUID]*model.Order),
	}
}

// Start derives the context all fulfillment tasks run under.
func (m *Manager) Start(parent context.Context) {
	m.ctx, m.cancel = context.WithCancel(parent)
}

// Restore replays the durable log into the register and returns the number of
// orders reconstructed. Restored orders keep their persisted identifier and
// status and are not re-scheduled for fulfillment. A failed load leaves the
// register empty; the service still accepts new orders.
func (m *Manager) Restore() int {
	loaded, err := orderlog.LoadAll(m.cfg.OrdersFile)
	if err != nil {
		obs.Logger.Error("order_log_load_failed", "path", m.cfg.OrdersFile, "error", err)
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range loaded {
		m.register = append(m.register, o)
		m.byID[o.OrderID] = o
	}
	return len(loaded)
}

// PlaceOrder validates the request, reserves stock, registers and persists a
// new PENDING order, and hands it to a background fulfillment task. The
// whole sequence is atomic with respect to other PlaceOrder calls, so stock
// can never be driven negative by concurrent placements. The call returns as
// soon as the order is accepted; fulfillment proceeds asynchronously.
func (m *Manager) PlaceOrder(customerName string, productID uuid.UUID, quantity int) (*model.Order, error) {
	if m.closed.Load() {
		m.rejected.Add(1)
		return nil, ErrShuttingDown
	}
	if quantity <= 0 {
		m.rejected.Add(1)
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.cat.Get(productID)
	if !ok {
		m.rejected.Add(1)
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if p.StockLevel < quantity {
		m.rejected.Add(1)
		return nil, fmt.Errorf("%w: %q has %d, want %d", ErrInsufficientStock, p.Name, p.StockLevel, quantity)
	}

	remaining := p.StockLevel - quantity
	m.cat.SetStockLevel(productID, remaining)
	if remaining <= p.ReorderThreshold {
		obs.Logger.Warn("stock_below_reorder_threshold",
			"product_id", productID.String(),
			"product_name", p.Name,
			"stock_level", remaining,
			"reorder_threshold", p.ReorderThreshold,
		)
	}

	o := model.NewOrder(customerName, productID, quantity)
	m.register = append(m.register, o)
	m.byID[o.OrderID] = o
	m.placed.Add(1)

	// A persistence failure does not undo the accepted order.
	if err := m.log.Append(o); err != nil {
		obs.Logger.Error("order_persist_failed", "order_id", o.OrderID.String(), "error", err)
	}

	m.wg.Add(1)
	m.inflight.Add(1)
	go m.fulfill(m.ctx, o)

	obs.Logger.Info("order_placed",
		"order_id", o.OrderID.String(),
		"customer", o.CustomerName,
		"product_id", productID.String(),
		"quantity", quantity,
		"stock_level", remaining,
	)
	return o, nil
}

// fulfill advances one order through SHIPPED and DELIVERED, waiting the
// configured delay before each transition. Cancellation mid-delay leaves the
// order at whatever stage it last reached.
func (m *Manager) fulfill(ctx context.Context, o *model.Order) {
	defer m.wg.Done()
	defer m.inflight.Add(-1)
	for {
		next, ok := o.Status().Next()
		if !ok {
			return
		}
		delay := m.cfg.ShipDelay
		if next == model.StatusDelivered {
			delay = m.cfg.DeliverDelay
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			m.cancelled.Add(1)
			obs.Logger.Info("fulfillment_cancelled",
				"order_id", o.OrderID.String(),
				"status", string(o.Status()),
			)
			return
		case <-t.C:
		}
		o.SetStatus(next)
		switch next {
		case model.StatusShipped:
			m.shipped.Add(1)
		case model.StatusDelivered:
			m.delivered.Add(1)
		}
		obs.Logger.Info("order_status_changed",
			"order_id", o.OrderID.String(),
			"status", string(next),
		)
		if err := m.log.Append(o); err != nil {
			obs.Logger.Error("order_persist_failed", "order_id", o.OrderID.String(), "error", err)
		}
	}
}

// Orders returns a snapshot of all known orders in registration order.
func (m *Manager) Orders() []*model.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Order, len(m.register))
	copy(out, m.register)
	return out
}

// Get looks up an order by its identifier.
func (m *Manager) Get(id uuid.UUID) (*model.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.byID[id]
	return o, ok
}

// Count returns the number of registered orders.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.register)
}

// CloseIntake disallows future placements.
func (m *Manager) CloseIntake() { m.closed.Store(true) }

// IsShuttingDown reports whether new placements are rejected.
func (m *Manager) IsShuttingDown() bool { return m.closed.Load() }

// Shutdown closes intake and cancels all in-flight fulfillment tasks. It is
// idempotent and does not wait for tasks to exit; pair with DrainUntil.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		m.closed.Store(true)
		if m.cancel != nil {
			m.cancel()
		}
	})
}

// DrainUntil blocks until every fulfillment task has exited or ctx is done,
// reporting whether the drain completed.
func (m *Manager) DrainUntil(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return false
	case <-done:
		return true
	}
}

// Metrics returns counters for observability.
func (m *Manager) Metrics() (placed, rejected, shipped, delivered, cancelled uint64, inflight int64) {
	return m.placed.Load(), m.rejected.Load(), m.shipped.Load(),
		m.delivered.Load(), m.cancelled.Load(), m.inflight.Load()
}
