// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/order-fulfillment-simulator/internal/orders"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

// WritePlacementError maps an order placement failure to its HTTP status.
func WritePlacementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrProductNotFound):
		WriteJSONError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, orders.ErrInsufficientStock):
		WriteJSONError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, orders.ErrInvalidQuantity):
		WriteJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, orders.ErrShuttingDown):
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
	default:
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
