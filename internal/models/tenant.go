package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel provides common fields for all database models
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// Tenant represents one configured storefront application.
// Envelopes are resolved against tenants in Position order; the first
// tenant whose verifier accepts the envelope owns it.
type Tenant struct {
	BaseModel
	Name       string `json:"name" gorm:"not null"`
	BundleID   string `json:"bundle_id" gorm:"index"` // optional; binds envelopes to this tenant when set
	AppAppleID int64  `json:"app_apple_id"`
	Position   int    `json:"position" gorm:"default:0;index"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`

	// Per-tenant push routing overrides; empty fields fall back to the
	// global ntfy configuration.
	NtfyURL    string `json:"ntfy_url" gorm:"type:varchar(500)"`
	NtfyTopic  string `json:"ntfy_topic" gorm:"type:varchar(255)"`
	NtfyToken  string `json:"ntfy_token" gorm:"type:varchar(255)"`
	AlertEmail string `json:"alert_email" gorm:"type:varchar(255)"`
}

// TableName 指定表名
func (Tenant) TableName() string {
	return "tenants"
}

// RoutingOverrides carries a tenant's push routing to the alert channels.
type RoutingOverrides struct {
	URL   string `json:"url,omitempty"`
	Topic string `json:"topic,omitempty"`
	Token string `json:"-"`
	Email string `json:"email,omitempty"`
}

// TenantConfig is the immutable in-memory view of a tenant used by the
// verifier resolver. Built once at startup; never mutated afterwards.
type TenantConfig struct {
	Name       string
	BundleID   string
	AppAppleID int64
	Routing    RoutingOverrides
}

// Config returns the immutable resolver view of the tenant.
func (t *Tenant) Config() TenantConfig {
	return TenantConfig{
		Name:       t.Name,
		BundleID:   t.BundleID,
		AppAppleID: t.AppAppleID,
		Routing: RoutingOverrides{
			URL:   t.NtfyURL,
			Topic: t.NtfyTopic,
			Token: t.NtfyToken,
			Email: t.AlertEmail,
		},
	}
}
