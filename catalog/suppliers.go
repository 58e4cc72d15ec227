package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aanooo/erp-system/models"
)

var supplierColumns = []string{"Name", "ContactPerson", "Email", "Phone"}

// SupplierRepository provides access to the Suppliers table.
type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) List(ctx context.Context) ([]models.Supplier, error) {
	suppliers := []models.Supplier{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&suppliers).Error; err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

func (r *SupplierRepository) Get(ctx context.Context, id uint) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return &supplier, nil
}

// Search matches term against the supplier and contact person names.
func (r *SupplierRepository) Search(ctx context.Context, term string) ([]models.Supplier, error) {
	pattern := "%" + term + "%"
	suppliers := []models.Supplier{}
	err := r.db.WithContext(ctx).
		Where("name LIKE ? OR contact_person LIKE ?", pattern, pattern).
		Order("id ASC").
		Find(&suppliers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search suppliers: %w", err)
	}
	return suppliers, nil
}

func (r *SupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	if supplier.Name == "" {
		return fmt.Errorf("%w: supplier name is required", models.ErrValidation)
	}
	supplier.ID = 0
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	return nil
}

func (r *SupplierRepository) Update(ctx context.Context, id uint, supplier *models.Supplier) error {
	if supplier.Name == "" {
		return fmt.Errorf("%w: supplier name is required", models.ErrValidation)
	}
	supplier.ID = 0
	result := r.db.WithContext(ctx).
		Model(&models.Supplier{ID: id}).
		Select(supplierColumns).
		Updates(supplier)
	if result.Error != nil {
		return fmt.Errorf("failed to update supplier: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	supplier.ID = id
	return nil
}

// Delete does not cascade: products keep their dangling SupplierID.
func (r *SupplierRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Supplier{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	return nil
}
