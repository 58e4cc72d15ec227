package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aanooo/erp-system/models"
)

type fixture struct {
	db       *gorm.DB
	service  *Service
	customer models.Customer
	laptop   models.Product
	mouse    models.Product
}

func setupTest(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	f := &fixture{
		db:       db,
		service:  NewService(db),
		customer: models.Customer{Name: "ABC Corporation"},
		laptop:   models.Product{Name: "Laptop", Category: "Electronics", Price: 1299.99, Quantity: 15},
		mouse:    models.Product{Name: "Wireless Mouse", Category: "Accessories", Price: 29.99, Quantity: 50},
	}
	require.NoError(t, db.Create(&f.customer).Error)
	require.NoError(t, db.Create(&f.laptop).Error)
	require.NoError(t, db.Create(&f.mouse).Error)
	return f
}

func (f *fixture) quantity(t *testing.T, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, id).Error)
	return p.Quantity
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func TestService_Place(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	order, err := f.service.Place(ctx, PlaceOrderRequest{
		CustomerID: f.customer.ID,
		OrderDate:  "2024-03-15",
		Items: []LineItem{
			{ProductID: f.laptop.ID, Quantity: 2, UnitPrice: 1299.99},
			{ProductID: f.mouse.ID, Quantity: 1, UnitPrice: 29.99},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)

	assert.Equal(t, int64(1), f.count(t, &models.Order{}))
	var details []models.OrderDetail
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Find(&details).Error)
	assert.Len(t, details, 2)

	assert.Equal(t, 13, f.quantity(t, f.laptop.ID))
	assert.Equal(t, 49, f.quantity(t, f.mouse.ID))

	var stored models.Order
	require.NoError(t, f.db.First(&stored, order.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, 2629.97, stored.TotalAmount)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), stored.OrderDate.UTC())
}

func TestService_Place_TotalIsRecomputed(t *testing.T) {
	f := setupTest(t)
	declared := 1.0

	order, err := f.service.Place(context.Background(), PlaceOrderRequest{
		CustomerID:  f.customer.ID,
		TotalAmount: &declared,
		Items: []LineItem{
			{ProductID: f.mouse.ID, Quantity: 3, UnitPrice: 0.01},
		},
	})
	require.NoError(t, err)

	var details []models.OrderDetail
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Find(&details).Error)
	sum := 0.0
	for _, d := range details {
		sum += float64(d.Quantity) * d.UnitPrice
	}
	assert.InDelta(t, sum, order.TotalAmount, 0.001)
	assert.Equal(t, 89.97, order.TotalAmount)
	assert.Equal(t, 29.99, details[0].UnitPrice, "unit price is the catalog price at placement")
}

func TestService_Place_SubCentPrices(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	halfCent := models.Product{Name: "Washer", Price: 0.005, Quantity: 100}
	third := models.Product{Name: "Screw", Price: 0.333, Quantity: 100}
	require.NoError(t, f.db.Create(&halfCent).Error)
	require.NoError(t, f.db.Create(&third).Error)

	order, err := f.service.Place(ctx, PlaceOrderRequest{
		CustomerID: f.customer.ID,
		Items: []LineItem{
			{ProductID: halfCent.ID, Quantity: 1},
			{ProductID: third.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	var details []models.OrderDetail
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Order("id").Find(&details).Error)
	require.Len(t, details, 2)
	assert.Equal(t, 0.01, details[0].UnitPrice)
	assert.Equal(t, 0.33, details[1].UnitPrice)

	sum := 0.0
	for _, d := range details {
		sum += float64(d.Quantity) * d.UnitPrice
	}
	var stored models.Order
	require.NoError(t, f.db.First(&stored, order.ID).Error)
	assert.InDelta(t, sum, stored.TotalAmount, 1e-9)
	assert.Equal(t, 1.0, stored.TotalAmount)
}

func TestService_Place_UnitPriceIsSnapshot(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	order, err := f.service.Place(ctx, PlaceOrderRequest{
		CustomerID: f.customer.ID,
		Items:      []LineItem{{ProductID: f.mouse.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.mouse.ID).Update("price", 99.0).Error)

	lines, err := f.service.Details(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 29.99, lines[0].UnitPrice)
	assert.Equal(t, 99.0, lines[0].Price)
	assert.Equal(t, "Wireless Mouse", lines[0].ProductName)
}

func TestService_Place_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     func(f *fixture) PlaceOrderRequest
		wantErr error
	}{
		{
			name: "no items",
			req: func(f *fixture) PlaceOrderRequest {
				return PlaceOrderRequest{CustomerID: f.customer.ID}
			},
			wantErr: models.ErrValidation,
		},
		{
			name: "zero quantity",
			req: func(f *fixture) PlaceOrderRequest {
				return PlaceOrderRequest{CustomerID: f.customer.ID, Items: []LineItem{{ProductID: f.mouse.ID}}}
			},
			wantErr: models.ErrValidation,
		},
		{
			name: "bad date",
			req: func(f *fixture) PlaceOrderRequest {
				return PlaceOrderRequest{
					CustomerID: f.customer.ID,
					OrderDate:  "yesterday",
					Items:      []LineItem{{ProductID: f.mouse.ID, Quantity: 1}},
				}
			},
			wantErr: models.ErrValidation,
		},
		{
			name: "unknown customer",
			req: func(f *fixture) PlaceOrderRequest {
				return PlaceOrderRequest{CustomerID: 999, Items: []LineItem{{ProductID: f.mouse.ID, Quantity: 1}}}
			},
			wantErr: ErrCustomerNotFound,
		},
		{
			name: "unknown product after a valid line",
			req: func(f *fixture) PlaceOrderRequest {
				return PlaceOrderRequest{CustomerID: f.customer.ID, Items: []LineItem{
					{ProductID: f.mouse.ID, Quantity: 1},
					{ProductID: 999, Quantity: 1},
				}}
			},
			wantErr: ErrProductNotFound,
		},
		{
			name: "insufficient stock after a valid line",
			req: func(f *fixture) PlaceOrderRequest {
				return PlaceOrderRequest{CustomerID: f.customer.ID, Items: []LineItem{
					{ProductID: f.mouse.ID, Quantity: 5},
					{ProductID: f.laptop.ID, Quantity: 16},
				}}
			},
			wantErr: ErrInsufficientStock,
		},
		{
			name: "repeated lines exceed stock together",
			req: func(f *fixture) PlaceOrderRequest {
				return PlaceOrderRequest{CustomerID: f.customer.ID, Items: []LineItem{
					{ProductID: f.laptop.ID, Quantity: 10},
					{ProductID: f.laptop.ID, Quantity: 10},
				}}
			},
			wantErr: ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTest(t)

			_, err := f.service.Place(context.Background(), tt.req(f))
			assert.ErrorIs(t, err, tt.wantErr)

			// Nothing from a rejected order may persist.
			assert.Equal(t, int64(0), f.count(t, &models.Order{}))
			assert.Equal(t, int64(0), f.count(t, &models.OrderDetail{}))
			assert.Equal(t, 15, f.quantity(t, f.laptop.ID))
			assert.Equal(t, 50, f.quantity(t, f.mouse.ID))
		})
	}
}

func TestService_Place_ConcurrentLastUnit(t *testing.T) {
	f := setupTest(t)
	last := models.Product{Name: "Last One", Price: 10, Quantity: 1}
	require.NoError(t, f.db.Create(&last).Error)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Place(context.Background(), PlaceOrderRequest{
				CustomerID: f.customer.ID,
				Items:      []LineItem{{ProductID: last.ID, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrInsufficientStock):
			rejected++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, f.quantity(t, last.ID))
	assert.Equal(t, int64(1), f.count(t, &models.Order{}))
}

func TestService_Place_StockTakenAfterRead(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	last := models.Product{Name: "Last One", Price: 10, Quantity: 1}
	require.NoError(t, f.db.Create(&last).Error)

	// The last unit goes between the product read and the stock decrement.
	var once sync.Once
	err := f.db.Callback().Query().After("gorm:query").Register("test:take_last_unit", func(tx *gorm.DB) {
		if tx.Statement.Table != "products" {
			return
		}
		once.Do(func() {
			assert.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE products SET quantity = 0 WHERE id = ?", last.ID).Error)
		})
	})
	require.NoError(t, err)

	_, err = f.service.Place(ctx, PlaceOrderRequest{
		CustomerID: f.customer.ID,
		Items:      []LineItem{{ProductID: last.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, int64(0), f.count(t, &models.Order{}))
	assert.Equal(t, int64(0), f.count(t, &models.OrderDetail{}))
}

func TestService_ListAndGet(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	older, err := f.service.Place(ctx, PlaceOrderRequest{
		CustomerID: f.customer.ID, OrderDate: "2024-01-10",
		Items: []LineItem{{ProductID: f.mouse.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	newer, err := f.service.Place(ctx, PlaceOrderRequest{
		CustomerID: f.customer.ID, OrderDate: "2024-02-10",
		Items: []LineItem{{ProductID: f.laptop.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	list, err := f.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.Equal(t, "ABC Corporation", list[0].CustomerName)

	again, err := f.service.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, again)

	got, err := f.service.Get(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, got.Details, 1)
	assert.Equal(t, f.mouse.ID, got.Details[0].ProductID)

	_, err = f.service.Get(ctx, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	lines, err := f.service.Details(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestService_UpdateStatus(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	order, err := f.service.Place(ctx, PlaceOrderRequest{
		CustomerID: f.customer.ID,
		Items:      []LineItem{{ProductID: f.mouse.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.UpdateStatus(ctx, order.ID, models.StatusShipped))
	got, err := f.service.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, got.Status)

	assert.ErrorIs(t, f.service.UpdateStatus(ctx, order.ID, "Lost"), models.ErrValidation)
	assert.ErrorIs(t, f.service.UpdateStatus(ctx, 999, models.StatusCancelled), models.ErrNotFound)
}

func TestParseOrderDate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{raw: "", want: now},
		{raw: "2024-03-15", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{raw: "2024-03-15T10:30:00Z", want: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{raw: "15/03/2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseOrderDate(tt.raw, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}
