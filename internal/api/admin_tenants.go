package api

import (
	"net/http"
	"strconv"

	"storekit-relay/internal/database"
	"storekit-relay/internal/models"
	"storekit-relay/internal/response"
	"storekit-relay/pkg/logging"

	"github.com/gin-gonic/gin"
)

// Tenant changes take effect for the resolver on the next restart; the
// in-memory tenant list is immutable by design.

// ListTenants gets all active tenants in resolution order
func ListTenants(c *gin.Context) {
	tenants, err := database.ListActiveTenants()
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to list tenants")
		return
	}
	response.SuccessJSON(c, tenants)
}

// CreateTenantRequest represents create tenant request
type CreateTenantRequest struct {
	Name       string `json:"name" binding:"required"`
	BundleID   string `json:"bundle_id"`
	AppAppleID int64  `json:"app_apple_id"`
	Position   int    `json:"position"`
	NtfyURL    string `json:"ntfy_url"`
	NtfyTopic  string `json:"ntfy_topic"`
	NtfyToken  string `json:"ntfy_token"`
	AlertEmail string `json:"alert_email"`
}

// CreateTenant creates a new tenant
func CreateTenant(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	tenant := &models.Tenant{
		Name:       req.Name,
		BundleID:   req.BundleID,
		AppAppleID: req.AppAppleID,
		Position:   req.Position,
		NtfyURL:    req.NtfyURL,
		NtfyTopic:  req.NtfyTopic,
		NtfyToken:  req.NtfyToken,
		AlertEmail: req.AlertEmail,
		IsActive:   true,
	}

	if err := database.CreateTenant(tenant); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Failed to create tenant: "+err.Error())
		return
	}

	logging.Infof("Tenant created - name: %s, bundle_id: %s (restart required to resolve against it)", tenant.Name, tenant.BundleID)
	c.JSON(http.StatusCreated, response.Success(tenant))
}

// UpdateTenantRequest represents update tenant request
type UpdateTenantRequest struct {
	Name       string `json:"name"`
	BundleID   string `json:"bundle_id"`
	AppAppleID *int64 `json:"app_apple_id"`
	Position   *int   `json:"position"`
	IsActive   *bool  `json:"is_active"`
	NtfyURL    string `json:"ntfy_url"`
	NtfyTopic  string `json:"ntfy_topic"`
	NtfyToken  string `json:"ntfy_token"`
	AlertEmail string `json:"alert_email"`
}

// UpdateTenant updates an existing tenant
func UpdateTenant(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid tenant id")
		return
	}

	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	// Build update map
	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.BundleID != "" {
		updates["bundle_id"] = req.BundleID
	}
	if req.AppAppleID != nil {
		updates["app_apple_id"] = *req.AppAppleID
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.NtfyURL != "" {
		updates["ntfy_url"] = req.NtfyURL
	}
	if req.NtfyTopic != "" {
		updates["ntfy_topic"] = req.NtfyTopic
	}
	if req.NtfyToken != "" {
		updates["ntfy_token"] = req.NtfyToken
	}
	if req.AlertEmail != "" {
		updates["alert_email"] = req.AlertEmail
	}

	if err := database.UpdateTenant(uint(id), updates); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Failed to update tenant: "+err.Error())
		return
	}

	response.SuccessJSON(c, gin.H{"message": "Tenant updated successfully"})
}

// DeleteTenant deletes a tenant
func DeleteTenant(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid tenant id")
		return
	}

	if err := database.DeleteTenant(uint(id)); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Failed to delete tenant: "+err.Error())
		return
	}

	response.SuccessJSON(c, gin.H{"message": "Tenant deleted successfully"})
}
