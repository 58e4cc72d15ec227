package orders

import (
	"fmt"
	"time"

	"github.com/aanooo/erp-system/models"
)

// PlaceOrderRequest is the body of POST /api/orders.
type PlaceOrderRequest struct {
	CustomerID uint   `json:"CustomerID"`
	OrderDate  string `json:"OrderDate"`
	// TotalAmount is what the caller computed. It is only compared against
	// the server-side total; the stored total is always recomputed.
	TotalAmount *float64   `json:"TotalAmount"`
	Items       []LineItem `json:"items"`
}

// LineItem is one requested (product, quantity) pair. UnitPrice is accepted
// for compatibility with existing clients but the catalog price wins.
type LineItem struct {
	ProductID uint    `json:"ProductID"`
	Quantity  int     `json:"Quantity"`
	UnitPrice float64 `json:"UnitPrice,omitempty"`
}

// Validate checks the request shape before any store access.
func (r *PlaceOrderRequest) Validate() error {
	if r.CustomerID == 0 {
		return fmt.Errorf("%w: CustomerID is required", models.ErrValidation)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", models.ErrValidation)
	}
	for i, item := range r.Items {
		if item.ProductID == 0 {
			return fmt.Errorf("%w: item %d: ProductID is required", models.ErrValidation, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: Quantity must be positive", models.ErrValidation, i)
		}
	}
	return nil
}

// Summary is an order joined with the name of its customer.
type Summary struct {
	ID           uint      `json:"OrderID"`
	CustomerID   uint      `json:"CustomerID"`
	CustomerName string    `json:"CustomerName"`
	OrderDate    time.Time `json:"OrderDate"`
	TotalAmount  float64   `json:"TotalAmount"`
	Status       string    `json:"Status"`
}

// DetailLine is an order detail joined with the product's name and current
// catalog price. UnitPrice remains the price paid.
type DetailLine struct {
	ID          uint    `json:"OrderDetailID"`
	OrderID     uint    `json:"OrderID"`
	ProductID   uint    `json:"ProductID"`
	Quantity    int     `json:"Quantity"`
	UnitPrice   float64 `json:"UnitPrice"`
	ProductName string  `json:"ProductName"`
	Price       float64 `json:"Price"`
}

var orderDateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// parseOrderDate accepts a calendar date or a timestamp; empty means now.
func parseOrderDate(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now.UTC(), nil
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: OrderDate %q is not a date", models.ErrValidation, raw)
}
