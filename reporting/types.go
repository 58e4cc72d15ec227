package reporting

import "time"

type DashboardStats struct {
	TotalProducts  int64   `json:"totalProducts"`
	TotalCustomers int64   `json:"totalCustomers"`
	TotalOrders    int64   `json:"totalOrders"`
	TotalRevenue   float64 `json:"totalRevenue"`
	LowStockItems  int64   `json:"lowStockItems"`
}

type RecentOrder struct {
	ID           uint      `json:"OrderID"`
	OrderDate    time.Time `json:"OrderDate"`
	TotalAmount  float64   `json:"TotalAmount"`
	CustomerName string    `json:"CustomerName"`
	Status       string    `json:"Status"`
}

type CategorySales struct {
	Category      string  `json:"Category"`
	TotalSales    float64 `json:"TotalSales"`
	TotalQuantity int64   `json:"TotalQuantity"`
}

type ProductSales struct {
	ProductID   uint    `json:"ProductID"`
	ProductName string  `json:"ProductName"`
	Category    string  `json:"Category"`
	TotalSold   int64   `json:"TotalSold"`
	Revenue     float64 `json:"Revenue"`
}

// MonthSales aggregates orders of one calendar month, formatted YYYY-MM.
type MonthSales struct {
	Month      string  `json:"Month"`
	OrderCount int64   `json:"OrderCount"`
	Revenue    float64 `json:"Revenue"`
}

// CustomerStats summarizes a customer's orders. LastOrder is nil for
// customers who never ordered.
type CustomerStats struct {
	CustomerID   uint       `json:"CustomerID"`
	CustomerName string     `json:"CustomerName"`
	TotalOrders  int64      `json:"TotalOrders"`
	TotalSpent   float64    `json:"TotalSpent"`
	LastOrder    *time.Time `json:"LastOrder"`
}
