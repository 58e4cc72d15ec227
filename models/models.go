package models

import "time"

// Order statuses. New orders always start as StatusPending.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
)

// OrderStatuses lists every status an order may hold.
var OrderStatuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

type Supplier struct {
	ID            uint   `gorm:"primaryKey" json:"SupplierID"`
	Name          string `gorm:"not null" json:"SupplierName"`
	ContactPerson string `json:"ContactPerson"`
	Email         string `json:"Email"`
	Phone         string `json:"Phone"`
}

// Product references its supplier softly: SupplierID is not a foreign key and
// may dangle after the supplier is deleted.
type Product struct {
	ID         uint    `gorm:"primaryKey" json:"ProductID"`
	Name       string  `gorm:"not null;index" json:"ProductName"`
	Category   string  `gorm:"index" json:"Category"`
	Price      float64 `gorm:"not null" json:"Price"`
	Quantity   int     `gorm:"not null" json:"Quantity"`
	SupplierID *uint   `json:"SupplierID"`
}

type Customer struct {
	ID      uint   `gorm:"primaryKey" json:"CustomerID"`
	Name    string `gorm:"not null" json:"CustomerName"`
	Email   string `json:"Email"`
	Phone   string `json:"Phone"`
	Address string `json:"Address"`
}

type Order struct {
	ID          uint          `gorm:"primaryKey" json:"OrderID"`
	CustomerID  uint          `gorm:"not null;index" json:"CustomerID"`
	OrderDate   time.Time     `gorm:"not null;index" json:"OrderDate"`
	TotalAmount float64       `gorm:"not null" json:"TotalAmount"`
	Status      string        `gorm:"not null;default:Pending" json:"Status"`
	Details     []OrderDetail `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderDetail is one line item. UnitPrice is the product price captured when
// the order was placed and never follows later catalog changes.
type OrderDetail struct {
	ID        uint    `gorm:"primaryKey" json:"OrderDetailID"`
	OrderID   uint    `gorm:"not null;index" json:"OrderID"`
	ProductID uint    `gorm:"not null;index" json:"ProductID"`
	Quantity  int     `gorm:"not null" json:"Quantity"`
	UnitPrice float64 `gorm:"not null" json:"UnitPrice"`
}

// User is an application account. The password hash never leaves the server.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// All returns every model managed by the store, in migration order.
func All() []any {
	return []any{&Supplier{}, &Product{}, &Customer{}, &Order{}, &OrderDetail{}, &User{}}
}
