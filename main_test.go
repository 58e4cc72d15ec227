package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aanooo/erp-system/config"
	"github.com/aanooo/erp-system/database"
	"github.com/aanooo/erp-system/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Create a seeded in-memory DB for tests
func getTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.Seed(db))
	return db
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

// Helper: run a test inside a transaction and roll it back
func withTestTransaction(t *testing.T, testFunc func(tx *gorm.DB)) {
	db := getTestDB(t)

	tx := db.Begin()
	require.NoError(t, tx.Error)
	defer tx.Rollback()

	testFunc(tx)
}

func newRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ----------------------- TESTS ----------------------- //

func TestHealth(t *testing.T) {
	router, err := SetupRouter(context.Background(), getTestDB(t), testConfig(t))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlaceOrderInTransaction(t *testing.T) {
	withTestTransaction(t, func(db *gorm.DB) {
		router, err := SetupRouter(context.Background(), db, testConfig(t))
		require.NoError(t, err)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(t, http.MethodPost, "/api/orders", map[string]any{
			"CustomerID": 3,
			"items":      []map[string]any{{"ProductID": 4, "Quantity": 3}},
		}))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var product models.Product
		require.NoError(t, db.First(&product, 4).Error)
		assert.Equal(t, 5, product.Quantity)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(t, http.MethodGet, "/api/dashboard/stats", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var stats map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, float64(1), stats["totalOrders"])
		assert.Equal(t, 1199.97, stats["totalRevenue"])
	})
}

func TestLowStockThresholdFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Reporting.LowStockThreshold = 20

	router, err := SetupRouter(context.Background(), getTestDB(t), cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodGet, "/api/dashboard/low-stock", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var products []models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	// Printer 5, monitor 8, laptop 15.
	require.Len(t, products, 3)
	assert.Equal(t, []int{5, 8, 15}, []int{products[0].Quantity, products[1].Quantity, products[2].Quantity})
}

func TestRequireToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.RequireToken = true

	router, err := SetupRouter(context.Background(), getTestDB(t), cfg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodDelete, "/api/customers/1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "admin", "password": "admin123",
	}))
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	req := newRequest(t, http.MethodDelete, "/api/customers/1", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupLogger(t *testing.T) {
	setupLogger(config.LogConfig{Level: "debug", Format: "json"})
	ctx := context.Background()
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelDebug))

	setupLogger(config.LogConfig{Level: "bogus", Format: "text"})
	assert.False(t, slog.Default().Enabled(ctx, slog.LevelDebug))
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelInfo))
}

func TestServeFailureRunsShutdownOps(t *testing.T) {
	db := getTestDB(t)
	router, err := SetupRouter(context.Background(), db, testConfig(t))
	require.NoError(t, err)

	// Hold the port so the server cannot bind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := &http.Server{Addr: ln.Addr().String(), Handler: router, ReadHeaderTimeout: time.Second}
	trigger, stop := context.WithCancel(context.Background())
	defer stop()
	failed := serve(srv, stop)
	wait := gfshutdown.GracefulShutdown(trigger, 5*time.Second, shutdownOps(srv, db, nil))

	select {
	case code := <-wait:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown was not triggered by the listener failure")
	}
	assert.Error(t, <-failed)
	assert.ErrorIs(t, trigger.Err(), context.Canceled)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "database is closed")
}
