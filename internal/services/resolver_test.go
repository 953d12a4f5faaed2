package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storekit-relay/internal/models"
	"storekit-relay/internal/testutil"
)

func newResolver(authority *testutil.SigningAuthority, tenants []models.TenantConfig) *Resolver {
	return NewResolver(tenants, authority.Anchors(), "anchors", false, NewVerifierCache())
}

func TestResolveProduction(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)
	resolver := newResolver(authority, []models.TenantConfig{
		{Name: "acme", BundleID: "com.example.app"},
	})

	payload := authority.Sign(t, testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.example.app", models.EnvironmentProduction))

	resolution, err := resolver.Resolve(payload)
	require.NoError(t, err)
	assert.Equal(t, "acme", resolution.Tenant.Name)
	assert.Equal(t, models.EnvironmentProduction, resolution.Environment)
	assert.Equal(t, "uuid-1", claimString(resolution.Claims, "notificationUUID"))
}

func TestResolveFallsBackToSandbox(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)
	resolver := newResolver(authority, []models.TenantConfig{
		{Name: "acme", BundleID: "com.example.app"},
	})

	payload := authority.Sign(t, testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.example.app", models.EnvironmentSandbox))

	resolution, err := resolver.Resolve(payload)
	require.NoError(t, err)
	assert.Equal(t, models.EnvironmentSandbox, resolution.Environment)
}

func TestResolveRejectsForeignBundleID(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)
	resolver := newResolver(authority, []models.TenantConfig{
		{Name: "acme", BundleID: "com.example.app"},
	})

	// Signature is valid, but the payload belongs to a bundle no tenant
	// pins.
	payload := authority.Sign(t, testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.other.app", models.EnvironmentProduction))

	_, err := resolver.Resolve(payload)
	require.Error(t, err)
	assert.Equal(t, KindVerification, KindOf(err))
}

func TestResolveFirstMatchWins(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)
	resolver := newResolver(authority, []models.TenantConfig{
		{Name: "first", BundleID: "com.example.app"},
		{Name: "second", BundleID: "com.example.app"},
	})

	payload := authority.Sign(t, testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.example.app", models.EnvironmentProduction))

	resolution, err := resolver.Resolve(payload)
	require.NoError(t, err)
	assert.Equal(t, "first", resolution.Tenant.Name)
}

func TestResolveSkipsToMatchingTenant(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)
	resolver := newResolver(authority, []models.TenantConfig{
		{Name: "other", BundleID: "com.other.app"},
		{Name: "acme", BundleID: "com.example.app"},
	})

	payload := authority.Sign(t, testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.example.app", models.EnvironmentProduction))

	resolution, err := resolver.Resolve(payload)
	require.NoError(t, err)
	assert.Equal(t, "acme", resolution.Tenant.Name)
}

func TestResolveUnpinnedTenantUsesPayloadBundleID(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)
	resolver := newResolver(authority, []models.TenantConfig{
		{Name: "catchall"},
	})

	payload := authority.Sign(t, testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.anything.app", models.EnvironmentProduction))

	resolution, err := resolver.Resolve(payload)
	require.NoError(t, err)
	assert.Equal(t, "catchall", resolution.Tenant.Name)
	assert.Equal(t, "com.anything.app", claimBundleID(resolution.Claims))
}

func TestResolveConfigurationErrors(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)

	noAnchors := NewResolver([]models.TenantConfig{{Name: "acme", BundleID: "com.example.app"}}, nil, "anchors", false, NewVerifierCache())
	_, err := noAnchors.Resolve("whatever")
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))

	noTenants := newResolver(authority, nil)
	_, err = noTenants.Resolve("whatever")
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
}
