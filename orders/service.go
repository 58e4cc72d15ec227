// Package orders places orders and reads them back.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aanooo/erp-system/catalog"
	"github.com/aanooo/erp-system/directory"
	"github.com/aanooo/erp-system/models"
)

var (
	// ErrCustomerNotFound is returned when an order names an unknown customer.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound is returned when a line item names an unknown product.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a line item asks for more units
	// than the product holds.
	ErrInsufficientStock = catalog.ErrInsufficientStock
)

// Service places and reads orders.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a new order service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Place persists an order, one detail row per line item, and the matching
// stock decrements in a single transaction. Either all of it commits or none
// of it does.
func (s *Service) Place(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	orderDate, err := parseOrderDate(req.OrderDate, s.now())
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID: req.CustomerID,
		OrderDate:  orderDate,
		Status:     models.StatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customers := directory.NewCustomerRepository(tx)
		products := catalog.NewProductRepository(tx)

		exists, err := customers.Exists(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %d", ErrCustomerNotFound, req.CustomerID)
		}

		total := decimal.Zero
		details := make([]models.OrderDetail, 0, len(req.Items))
		for _, item := range req.Items {
			product, err := products.Get(ctx, item.ProductID)
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("%w: %d", ErrProductNotFound, item.ProductID)
			}
			if err != nil {
				return err
			}

			if err := products.DecrementStock(ctx, product.ID, item.Quantity); err != nil {
				if errors.Is(err, catalog.ErrInsufficientStock) {
					return fmt.Errorf("%w: %s has %d, requested %d",
						ErrInsufficientStock, product.Name, product.Quantity, item.Quantity)
				}
				return err
			}

			// Lines are priced in whole cents so the stored total is their exact sum.
			unitPrice := decimal.NewFromFloat(product.Price).Round(2)
			total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
			details = append(details, models.OrderDetail{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: unitPrice.InexactFloat64(),
			})
		}

		order.TotalAmount = total.Round(2).InexactFloat64()
		order.Details = details
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.TotalAmount != nil && !decimal.NewFromFloat(*req.TotalAmount).Round(2).Equal(decimal.NewFromFloat(order.TotalAmount)) {
		slog.WarnContext(ctx, "declared order total differs from computed total",
			"order_id", order.ID, "declared", *req.TotalAmount, "computed", order.TotalAmount)
	}
	slog.InfoContext(ctx, "order placed",
		"order_id", order.ID, "customer_id", order.CustomerID, "items", len(order.Details), "total", order.TotalAmount)
	return order, nil
}

// List returns every order with its customer name, newest first. Orders whose
// customer was deleted are kept with an empty name.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	summaries := []Summary{}
	err := s.db.WithContext(ctx).
		Table("orders").
		Select("orders.id, orders.customer_id, COALESCE(customers.name, '') AS customer_name, " +
			"orders.order_date, orders.total_amount, orders.status").
		Joins("LEFT JOIN customers ON customers.id = orders.customer_id").
		Order("orders.order_date DESC, orders.id DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return summaries, nil
}

// Get returns one order with its detail rows.
func (s *Service) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// Details returns the line items of an order joined with product data. An
// unknown order yields an empty list.
func (s *Service) Details(ctx context.Context, orderID uint) ([]DetailLine, error) {
	lines := []DetailLine{}
	err := s.db.WithContext(ctx).
		Table("order_details").
		Select("order_details.id, order_details.order_id, order_details.product_id, " +
			"order_details.quantity, order_details.unit_price, " +
			"COALESCE(products.name, '') AS product_name, COALESCE(products.price, 0) AS price").
		Joins("LEFT JOIN products ON products.id = order_details.product_id").
		Where("order_details.order_id = ?", orderID).
		Order("order_details.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get order details: %w", err)
	}
	return lines, nil
}

// UpdateStatus moves an order to one of models.OrderStatuses.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status string) error {
	if !slices.Contains(models.OrderStatuses, status) {
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	result := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
