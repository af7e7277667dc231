// Package predictor estimates stock depletion from average sales velocity.
package predictor

import (
	"fmt"
	"math"

	"github.com/fairyhunter13/order-fulfillment-simulator/internal/model"
	"github.com/google/uuid"
)

// DaysUnlimited is reported when the sales velocity is zero or negative and
// the stock never depletes.
const DaysUnlimited = math.MaxInt

// Priority classifies how urgently a product needs restocking.
type Priority string

const (
	PriorityUrgent   Priority = "urgent"
	PriorityModerate Priority = "moderate"
	PriorityLow      Priority = "low"
)

// Forecast is the stock-out prediction for a single product.
type Forecast struct {
	ProductID         uuid.UUID `json:"product_id"`
	Name              string    `json:"name"`
	AvgDailySales     int       `json:"avg_daily_sales"`
	DaysUntilStockOut int       `json:"days_until_stock_out"`
	Priority          Priority  `json:"restock_priority"`
	Suggestion        string    `json:"suggestion"`
}

// DaysUntilStockOut returns how many days of stock remain at the given
// average daily sales, or DaysUnlimited when sales are not positive.
func DaysUntilStockOut(stockLevel, avgDailySales int) int {
	if avgDailySales <= 0 {
		return DaysUnlimited
	}
	return stockLevel / avgDailySales
}

// RestockPriority maps days of remaining stock to a restock priority:
// under 3 days is urgent, under 7 moderate, anything else low.
func RestockPriority(days int) Priority {
	switch {
	case days < 3:
		return PriorityUrgent
	case days < 7:
		return PriorityModerate
	default:
		return PriorityLow
	}
}

// ForProduct builds the forecast for one product.
func ForProduct(p model.Product, avgDailySales int) Forecast {
	days := DaysUntilStockOut(p.StockLevel, avgDailySales)
	prio := RestockPriority(days)
	var suggestion string
	switch prio {
	case PriorityUrgent:
		suggestion = fmt.Sprintf("Urgent: restock %q immediately.", p.Name)
	case PriorityModerate:
		suggestion = fmt.Sprintf("Moderate: consider restocking %q soon.", p.Name)
	default:
		suggestion = fmt.Sprintf("Low priority: %q has sufficient stock.", p.Name)
	}
	return Forecast{
		ProductID:         p.ProductID,
		Name:              p.Name,
		AvgDailySales:     avgDailySales,
		DaysUntilStockOut: days,
		Priority:          prio,
		Suggestion:        suggestion,
	}
}
