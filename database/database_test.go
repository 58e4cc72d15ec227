package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanooo/erp-system/config"
	"github.com/aanooo/erp-system/models"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Seed(db))
	require.NoError(t, Seed(db))

	var products, customers, suppliers int64
	db.Model(&models.Product{}).Count(&products)
	db.Model(&models.Customer{}).Count(&customers)
	db.Model(&models.Supplier{}).Count(&suppliers)

	assert.Equal(t, int64(8), products)
	assert.Equal(t, int64(5), customers)
	assert.Equal(t, int64(3), suppliers)

	var printer models.Product
	require.NoError(t, db.Where("name = ?", "Printer HP LaserJet").First(&printer).Error)
	require.NotNil(t, printer.SupplierID)
	assert.Equal(t, 5, printer.Quantity)
}
