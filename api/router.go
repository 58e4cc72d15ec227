// Package api exposes the ERP services over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aanooo/erp-system/auth"
	"github.com/aanooo/erp-system/catalog"
	"github.com/aanooo/erp-system/directory"
	"github.com/aanooo/erp-system/orders"
	"github.com/aanooo/erp-system/reporting"
)

// Options configures NewRouter.
type Options struct {
	AllowedOrigins []string
	// Verifier guards every write route when set. Login and registration are
	// never guarded.
	Verifier auth.Verifier
}

// Handler holds the services behind the routes.
type Handler struct {
	products  *catalog.ProductRepository
	suppliers *catalog.SupplierRepository
	customers *directory.CustomerRepository
	orders    *orders.Service
	reports   *reporting.Service
	auth      *auth.Service
}

func NewHandler(db *gorm.DB, reports *reporting.Service, authService *auth.Service) *Handler {
	return &Handler{
		products:  catalog.NewProductRepository(db),
		suppliers: catalog.NewSupplierRepository(db),
		customers: directory.NewCustomerRepository(db),
		orders:    orders.NewService(db),
		reports:   reports,
		auth:      authService,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(), gin.Recovery(), CORS(opts.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.login)
	authGroup.POST("/register", h.register)

	write := Authorize(opts.Verifier)
	data := api.Group("", h.invalidateReports())

	products := data.Group("/products")
	products.GET("", h.listProducts)
	products.GET("/search/:term", h.searchProducts)
	products.GET("/:id", h.getProduct)
	products.POST("", write, h.createProduct)
	products.PUT("/:id", write, h.updateProduct)
	products.DELETE("/:id", write, h.deleteProduct)

	suppliers := data.Group("/suppliers")
	suppliers.GET("", h.listSuppliers)
	suppliers.GET("/search/:term", h.searchSuppliers)
	suppliers.GET("/:id", h.getSupplier)
	suppliers.POST("", write, h.createSupplier)
	suppliers.PUT("/:id", write, h.updateSupplier)
	suppliers.DELETE("/:id", write, h.deleteSupplier)

	customers := data.Group("/customers")
	customers.GET("", h.listCustomers)
	customers.GET("/search/:term", h.searchCustomers)
	customers.GET("/:id", h.getCustomer)
	customers.POST("", write, h.createCustomer)
	customers.PUT("/:id", write, h.updateCustomer)
	customers.DELETE("/:id", write, h.deleteCustomer)

	ordersGroup := data.Group("/orders")
	ordersGroup.GET("", h.listOrders)
	ordersGroup.GET("/:id", h.getOrder)
	ordersGroup.GET("/:id/details", h.orderDetails)
	ordersGroup.POST("", write, h.placeOrder)
	ordersGroup.PUT("/:id/status", write, h.updateOrderStatus)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/stats", report(h.reports.Stats))
	dashboard.GET("/recent-orders", report(h.reports.RecentOrders))
	dashboard.GET("/low-stock", report(h.reports.LowStock))

	analytics := api.Group("/analytics")
	analytics.GET("/sales-by-category", report(h.reports.SalesByCategory))
	analytics.GET("/top-products", report(h.reports.TopProducts))
	analytics.GET("/monthly-sales", report(h.reports.MonthlySales))
	analytics.GET("/customer-stats", report(h.reports.CustomerStats))

	return r
}
