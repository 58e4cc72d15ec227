// Package directory manages the customer directory.
package directory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aanooo/erp-system/models"
)

var customerColumns = []string{"Name", "Email", "Phone", "Address"}

// CustomerRepository provides access to the Customers table.
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository.
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// List returns every customer ordered by id.
func (r *CustomerRepository) List(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// Get retrieves a customer by id.
func (r *CustomerRepository) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}

// Exists reports whether a customer with the given id is present.
func (r *CustomerRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check customer: %w", err)
	}
	return count > 0, nil
}

// Search matches term against customer name and email.
func (r *CustomerRepository) Search(ctx context.Context, term string) ([]models.Customer, error) {
	pattern := "%" + term + "%"
	customers := []models.Customer{}
	err := r.db.WithContext(ctx).
		Where("name LIKE ? OR email LIKE ?", pattern, pattern).
		Order("id ASC").
		Find(&customers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	return customers, nil
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.Name == "" {
		return fmt.Errorf("%w: customer name is required", models.ErrValidation)
	}
	customer.ID = 0
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// Update overwrites every field of the customer with the given id.
func (r *CustomerRepository) Update(ctx context.Context, id uint, customer *models.Customer) error {
	if customer.Name == "" {
		return fmt.Errorf("%w: customer name is required", models.ErrValidation)
	}
	customer.ID = 0
	result := r.db.WithContext(ctx).
		Model(&models.Customer{ID: id}).
		Select(customerColumns).
		Updates(customer)
	if result.Error != nil {
		return fmt.Errorf("failed to update customer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	customer.ID = id
	return nil
}

// Delete removes a customer. Orders placed by the customer are kept and keep
// pointing at the removed id.
func (r *CustomerRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Customer{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}
