package database

import (
	"fmt"

	"storekit-relay/internal/models"

	"gorm.io/gorm"
)

// ListActiveTenants returns active tenants in resolution order.
// Position is caller-significant: the resolver tries tenants in exactly
// this order and the first successful verification wins.
func ListActiveTenants() ([]models.Tenant, error) {
	var tenants []models.Tenant
	result := DB.Where("is_active = ?", true).Order("position asc, id asc").Find(&tenants)
	if result.Error != nil {
		return nil, result.Error
	}
	return tenants, nil
}

// GetTenantByID gets tenant by primary key
func GetTenantByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	result := DB.First(&tenant, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("tenant not found")
		}
		return nil, result.Error
	}
	return &tenant, nil
}

// CreateTenant creates a new tenant
func CreateTenant(tenant *models.Tenant) error {
	if tenant.BundleID != "" {
		var existing models.Tenant
		result := DB.Where("bundle_id = ?", tenant.BundleID).First(&existing)
		if result.Error == nil {
			return fmt.Errorf("tenant with bundle_id %s already exists", tenant.BundleID)
		}
	}

	if err := DB.Create(tenant).Error; err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// UpdateTenant updates an existing tenant
func UpdateTenant(id uint, updates map[string]interface{}) error {
	result := DB.Model(&models.Tenant{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update tenant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("tenant not found")
	}
	return nil
}

// DeleteTenant soft deletes a tenant
func DeleteTenant(id uint) error {
	result := DB.Delete(&models.Tenant{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete tenant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("tenant not found")
	}
	return nil
}
