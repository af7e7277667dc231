// Package catalog holds the product inventory shared with the order manager.
package catalog

import (
	"sync"

	"github.com/fairyhunter13/order-fulfillment-simulator/internal/model"
	"github.com/google/uuid"
)

// Catalog is a concurrent-safe map of products keyed by product ID. The order
// manager only reads products and lowers stock levels; products themselves are
// created and owned outside the order core.
type Catalog struct {
	mu sync.RWMutex
	m  map[uuid.UUID]model.Product
}

func New() *Catalog {
	return &Catalog{m: make(map[uuid.UUID]model.Product)}
}

// Add inserts or replaces a product entry.
func (c *Catalog) Add(p model.Product) {
	c.mu.Lock()
	c.m[p.ProductID] = p
	c.mu.Unlock()
}

// Get returns a copy of the product, if present.
func (c *Catalog) Get(id uuid.UUID) (model.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.m[id]
	return p, ok
}

// SetStockLevel overwrites the stock level of an existing product. It reports
// false when the product is unknown. Check-and-decrement atomicity is the
// caller's responsibility; see orders.Manager.PlaceOrder.
func (c *Catalog) SetStockLevel(id uuid.UUID, level int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.m[id]
	if !ok {
		return false
	}
	p.StockLevel = level
	c.m[id] = p
	return true
}

// List returns a snapshot of all products.
func (c *Catalog) List() []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Product, 0, len(c.m))
	for _, p := range c.m {
		out = append(out, p)
	}
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
