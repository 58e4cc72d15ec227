package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/aanooo/erp-system/models"
)

// Seed inserts the demo catalog and customer directory when the product
// table is empty. It runs in one transaction so a partial seed never sticks.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		suppliers := []models.Supplier{
			{Name: "Tech Supplies Inc", ContactPerson: "John Smith", Email: "john@techsupplies.com", Phone: "555-0101"},
			{Name: "Office Depot", ContactPerson: "Sarah Johnson", Email: "sarah@officedepot.com", Phone: "555-0102"},
			{Name: "Electronics Hub", ContactPerson: "Mike Chen", Email: "mike@electronichub.com", Phone: "555-0103"},
		}
		if err := tx.Create(&suppliers).Error; err != nil {
			return err
		}
		tech, office, hub := &suppliers[0].ID, &suppliers[1].ID, &suppliers[2].ID

		products := []models.Product{
			{Name: "Laptop Dell XPS 15", Category: "Electronics", Price: 1299.99, Quantity: 15, SupplierID: tech},
			{Name: "Wireless Mouse", Category: "Accessories", Price: 29.99, Quantity: 50, SupplierID: office},
			{Name: "Office Chair", Category: "Furniture", Price: 249.99, Quantity: 20, SupplierID: office},
			{Name: "Monitor 27 inch", Category: "Electronics", Price: 399.99, Quantity: 8, SupplierID: hub},
			{Name: "Keyboard Mechanical", Category: "Accessories", Price: 89.99, Quantity: 30, SupplierID: tech},
			{Name: "USB Cable", Category: "Accessories", Price: 9.99, Quantity: 100, SupplierID: tech},
			{Name: "Desk Lamp", Category: "Furniture", Price: 45.99, Quantity: 25, SupplierID: office},
			{Name: "Printer HP LaserJet", Category: "Electronics", Price: 299.99, Quantity: 5, SupplierID: hub},
		}
		if err := tx.Create(&products).Error; err != nil {
			return err
		}

		customers := []models.Customer{
			{Name: "ABC Corporation", Email: "contact@abc.com", Phone: "555-1001", Address: "123 Business St, New York, NY 10001"},
			{Name: "XYZ Ltd", Email: "info@xyz.com", Phone: "555-1002", Address: "456 Commerce Ave, Los Angeles, CA 90001"},
			{Name: "Tech Startup Inc", Email: "hello@techstartup.com", Phone: "555-1003", Address: "789 Innovation Blvd, San Francisco, CA 94101"},
			{Name: "Global Enterprises", Email: "sales@global.com", Phone: "555-1004", Address: "321 Corporate Dr, Chicago, IL 60601"},
			{Name: "SmartBiz Solutions", Email: "contact@smartbiz.com", Phone: "555-1005", Address: "654 Market St, Boston, MA 02101"},
		}
		return tx.Create(&customers).Error
	})
	if err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	slog.Info("sample data inserted")
	return nil
}
