// Package catalog manages products and their suppliers.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aanooo/erp-system/models"
)

// ErrInsufficientStock is returned when a product cannot cover a requested
// quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// productColumns are the fields a full-record replace overwrites.
var productColumns = []string{"Name", "Category", "Price", "Quantity", "SupplierID"}

// ProductRepository provides access to the Products table.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns every product ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Get retrieves a product by its id.
func (r *ProductRepository) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// Search returns products whose name or category contains term.
func (r *ProductRepository) Search(ctx context.Context, term string) ([]models.Product, error) {
	pattern := "%" + term + "%"
	products := []models.Product{}
	err := r.db.WithContext(ctx).
		Where("name LIKE ? OR category LIKE ?", pattern, pattern).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Create inserts a new product and fills in its generated id.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := ValidateProduct(product); err != nil {
		return err
	}
	product.ID = 0
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update overwrites every field of the product with the given id.
func (r *ProductRepository) Update(ctx context.Context, id uint, product *models.Product) error {
	if err := ValidateProduct(product); err != nil {
		return err
	}
	product.ID = 0
	result := r.db.WithContext(ctx).
		Model(&models.Product{ID: id}).
		Select(productColumns).
		Updates(product)
	if result.Error != nil {
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	product.ID = id
	return nil
}

// Delete removes the product with the given id. Deleting an id that does not
// exist succeeds, and order details that reference it are left untouched.
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Product{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// ValidateProduct checks the fields the store does not constrain.
func ValidateProduct(p *models.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", models.ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must be non-negative", models.ErrValidation)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be non-negative", models.ErrValidation)
	}
	return nil
}

// DecrementStock removes qty units from the product's stock in a single
// conditional statement, so concurrent callers can never drive the quantity
// below zero. It returns ErrInsufficientStock when the product holds fewer
// than qty units, and models.ErrNotFound when the product does not exist.
func (r *ProductRepository) DecrementStock(ctx context.Context, id uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
	}
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: product %d", ErrInsufficientStock, id)
}
