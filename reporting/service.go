// Package reporting computes the read-only dashboard and analytics views.
package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/aanooo/erp-system/models"
)

const (
	keyStats           = "stats"
	keyRecentOrders    = "recent-orders"
	keyLowStock        = "low-stock"
	keySalesByCategory = "sales-by-category"
	keyTopProducts     = "top-products"
	keyMonthlySales    = "monthly-sales"
	keyCustomerStats   = "customer-stats"
)

var reportKeys = []string{
	keyStats, keyRecentOrders, keyLowStock, keySalesByCategory,
	keyTopProducts, keyMonthlySales, keyCustomerStats,
}

const (
	recentOrdersLimit = 5
	topProductsLimit  = 5
	monthlySalesSpan  = 6
)

// Service runs report queries, optionally through a Cache.
type Service struct {
	db                *gorm.DB
	lowStockThreshold int
	cache             Cache
	group             singleflight.Group
	// generation advances on every Invalidate. A load only fills the cache
	// when no invalidation happened while it ran.
	generation atomic.Uint64
}

// Option configures a Service.
type Option func(*Service)

// WithCache serves reports through c. Writers must call Invalidate.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// NewService creates a reporting service. Products with a quantity strictly
// below lowStockThreshold count as low stock.
func NewService(db *gorm.DB, lowStockThreshold int, opts ...Option) *Service {
	s := &Service{db: db, lowStockThreshold: lowStockThreshold}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops cached reports after a write. Loads already running are
// detached so later callers query the store again.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.generation.Add(1)
	for _, key := range reportKeys {
		s.group.Forget(key)
	}
	if err := s.cache.Clear(ctx); err != nil {
		slog.WarnContext(ctx, "failed to invalidate report cache", "error", err)
	}
}

// cached serves key from the cache when possible. Concurrent misses on the
// same key share a single load, which outlives the caller that started it.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}

	var out T
	hit, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		slog.WarnContext(ctx, "report cache read failed", "key", key, "error", err)
	} else if hit {
		return out, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		gen := s.generation.Load()
		val, err := load(shared)
		if err != nil {
			return nil, err
		}
		if s.generation.Load() != gen {
			return val, nil
		}
		if err := s.cache.Set(shared, key, val); err != nil {
			slog.WarnContext(ctx, "report cache write failed", "key", key, "error", err)
			return val, nil
		}
		// An invalidation that landed between the check and the write
		// would otherwise leave this result behind.
		if s.generation.Load() != gen {
			if err := s.cache.Clear(shared); err != nil {
				slog.WarnContext(ctx, "failed to invalidate report cache", "error", err)
			}
		}
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Stats returns the dashboard counters.
func (s *Service) Stats(ctx context.Context) (DashboardStats, error) {
	return cached(ctx, s, keyStats, s.loadStats)
}

func (s *Service) loadStats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return stats, fmt.Errorf("failed to count products: %w", err)
	}
	if err := db.Model(&models.Customer{}).Count(&stats.TotalCustomers).Error; err != nil {
		return stats, fmt.Errorf("failed to count customers: %w", err)
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return stats, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := db.Model(&models.Order{}).Select("COALESCE(SUM(total_amount), 0)").Scan(&stats.TotalRevenue).Error; err != nil {
		return stats, fmt.Errorf("failed to sum revenue: %w", err)
	}
	err := db.Model(&models.Product{}).
		Where("quantity < ?", s.lowStockThreshold).
		Count(&stats.LowStockItems).Error
	if err != nil {
		return stats, fmt.Errorf("failed to count low stock products: %w", err)
	}
	return stats, nil
}

// RecentOrders returns the five most recent orders.
func (s *Service) RecentOrders(ctx context.Context) ([]RecentOrder, error) {
	return cached(ctx, s, keyRecentOrders, s.loadRecentOrders)
}

func (s *Service) loadRecentOrders(ctx context.Context) ([]RecentOrder, error) {
	orders := []RecentOrder{}
	err := s.db.WithContext(ctx).
		Table("orders").
		Select("orders.id, orders.order_date, orders.total_amount, " +
			"COALESCE(customers.name, '') AS customer_name, orders.status").
		Joins("LEFT JOIN customers ON customers.id = orders.customer_id").
		Order("orders.order_date DESC, orders.id DESC").
		Limit(recentOrdersLimit).
		Scan(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	return orders, nil
}

// LowStock returns products below the threshold, scarcest first.
func (s *Service) LowStock(ctx context.Context) ([]models.Product, error) {
	return cached(ctx, s, keyLowStock, s.loadLowStock)
}

func (s *Service) loadLowStock(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.WithContext(ctx).
		Where("quantity < ?", s.lowStockThreshold).
		Order("quantity ASC, id ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock products: %w", err)
	}
	return products, nil
}

// SalesByCategory totals line revenue and units per product category.
func (s *Service) SalesByCategory(ctx context.Context) ([]CategorySales, error) {
	return cached(ctx, s, keySalesByCategory, s.loadSalesByCategory)
}

func (s *Service) loadSalesByCategory(ctx context.Context) ([]CategorySales, error) {
	rows := []CategorySales{}
	err := s.db.WithContext(ctx).
		Table("order_details").
		Select("products.category AS category, " +
			"SUM(order_details.quantity * order_details.unit_price) AS total_sales, " +
			"SUM(order_details.quantity) AS total_quantity").
		Joins("JOIN products ON products.id = order_details.product_id").
		Group("products.category").
		Order("total_sales DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sales by category: %w", err)
	}
	return rows, nil
}

// TopProducts returns the five best-selling products by units sold.
func (s *Service) TopProducts(ctx context.Context) ([]ProductSales, error) {
	return cached(ctx, s, keyTopProducts, s.loadTopProducts)
}

func (s *Service) loadTopProducts(ctx context.Context) ([]ProductSales, error) {
	rows := []ProductSales{}
	err := s.db.WithContext(ctx).
		Table("order_details").
		Select("products.id AS product_id, products.name AS product_name, products.category AS category, " +
			"SUM(order_details.quantity) AS total_sold, " +
			"SUM(order_details.quantity * order_details.unit_price) AS revenue").
		Joins("JOIN products ON products.id = order_details.product_id").
		Group("products.id, products.name, products.category").
		Order("total_sold DESC, products.id ASC").
		Limit(topProductsLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}
	return rows, nil
}

// MonthlySales returns order count and revenue for the six most recent
// months that have orders, oldest first.
func (s *Service) MonthlySales(ctx context.Context) ([]MonthSales, error) {
	return cached(ctx, s, keyMonthlySales, s.loadMonthlySales)
}

func (s *Service) loadMonthlySales(ctx context.Context) ([]MonthSales, error) {
	month := "strftime('%Y-%m', order_date)"
	if s.db.Dialector.Name() == "postgres" {
		month = "to_char(order_date, 'YYYY-MM')"
	}

	rows := []MonthSales{}
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(month + " AS month, COUNT(*) AS order_count, SUM(total_amount) AS revenue").
		Group("month").
		Order("month DESC").
		Limit(monthlySalesSpan).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly sales: %w", err)
	}
	slices.Reverse(rows)
	return rows, nil
}

// customerStatsRow mirrors CustomerStats before LastOrder is normalized; the
// drivers disagree on the type of MAX over a timestamp column.
type customerStatsRow struct {
	CustomerID   uint
	CustomerName string
	TotalOrders  int64
	TotalSpent   float64
	LastOrder    sql.NullString
}

// CustomerStats returns order count, spend and latest order per customer,
// biggest spenders first. Customers without orders are included.
func (s *Service) CustomerStats(ctx context.Context) ([]CustomerStats, error) {
	return cached(ctx, s, keyCustomerStats, s.loadCustomerStats)
}

func (s *Service) loadCustomerStats(ctx context.Context) ([]CustomerStats, error) {
	var rows []customerStatsRow
	err := s.db.WithContext(ctx).
		Table("customers").
		Select("customers.id AS customer_id, customers.name AS customer_name, " +
			"COUNT(orders.id) AS total_orders, COALESCE(SUM(orders.total_amount), 0) AS total_spent, " +
			"MAX(orders.order_date) AS last_order").
		Joins("LEFT JOIN orders ON orders.customer_id = customers.id").
		Group("customers.id, customers.name").
		Order("total_spent DESC, customers.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load customer stats: %w", err)
	}

	stats := make([]CustomerStats, 0, len(rows))
	for _, row := range rows {
		cs := CustomerStats{
			CustomerID:   row.CustomerID,
			CustomerName: row.CustomerName,
			TotalOrders:  row.TotalOrders,
			TotalSpent:   row.TotalSpent,
		}
		if row.LastOrder.Valid {
			if t, ok := parseTimestamp(row.LastOrder.String); ok {
				cs.LastOrder = &t
			}
		}
		stats = append(stats, cs)
	}
	return stats, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
