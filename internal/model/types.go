// Package model defines domain types used by the service.
package model

import (
	"sync"

	"github.com/google/uuid"
)

// Status is the lifecycle stage of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

// ParseStatus converts a persisted status token back into a Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusShipped, StatusDelivered:
		return Status(s), true
	}
	return "", false
}

// Next returns the stage following s. The lifecycle is strictly linear:
// PENDING -> SHIPPED -> DELIVERED. ok is false once the order is delivered.
func (s Status) Next() (next Status, ok bool) {
	switch s {
	case StatusPending:
		return StatusShipped, true
	case StatusShipped:
		return StatusDelivered, true
	}
	return "", false
}

// Product represents a catalog entry and its current stock state.
type Product struct {
	ProductID        uuid.UUID `json:"product_id"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	StockLevel       int       `json:"stock_level"`
	ReorderThreshold int       `json:"reorder_threshold"`
}

// Order is a customer order. Identity fields are fixed at creation; status is
// mutated by the fulfillment task that owns the order while other goroutines
// read it, so access goes through Status and SetStatus.
type Order struct {
	OrderID      uuid.UUID
	CustomerName string
	ProductID    uuid.UUID
	Quantity     int

	mu     sync.Mutex
	status Status
}

// NewOrder creates a PENDING order with a fresh identifier.
func NewOrder(customerName string, productID uuid.UUID, quantity int) *Order {
	return &Order{
		OrderID:      uuid.New(),
		CustomerName: customerName,
		ProductID:    productID,
		Quantity:     quantity,
		status:       StatusPending,
	}
}

// RestoredOrder rebuilds an order from a persisted record, keeping its
// original identifier and status.
func RestoredOrder(orderID uuid.UUID, customerName string, productID uuid.UUID, quantity int, status Status) *Order {
	return &Order{
		OrderID:      orderID,
		CustomerName: customerName,
		ProductID:    productID,
		Quantity:     quantity,
		status:       status,
	}
}

// Status returns the current lifecycle stage.
func (o *Order) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// SetStatus replaces the lifecycle stage.
func (o *Order) SetStatus(s Status) {
	o.mu.Lock()
	o.status = s
	o.mu.Unlock()
}

// OrderView is the immutable snapshot of an order used on the wire.
type OrderView struct {
	OrderID      uuid.UUID `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int       `json:"quantity"`
	Status       Status    `json:"status"`
}

// View captures the order together with its status at the instant of the call.
func (o *Order) View() OrderView {
	return OrderView{
		OrderID:      o.OrderID,
		CustomerName: o.CustomerName,
		ProductID:    o.ProductID,
		Quantity:     o.Quantity,
		Status:       o.Status(),
	}
}
