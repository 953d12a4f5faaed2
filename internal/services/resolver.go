package services

import (
	"fmt"
	"sync"

	"storekit-relay/internal/models"
)

// VerifierCache memoizes verifier pairs process-wide. Entries are never
// evicted; a changed trust-anchor directory or online-check flag produces
// a new key and fresh construction.
type VerifierCache struct {
	mutex   sync.Mutex
	entries map[string]*verifierPair
}

type verifierPair struct {
	production *SignedDataVerifier
	sandbox    *SignedDataVerifier
}

// NewVerifierCache creates an empty verifier cache
func NewVerifierCache() *VerifierCache {
	return &VerifierCache{entries: make(map[string]*verifierPair)}
}

func (c *VerifierCache) pair(anchors [][]byte, anchorDir, bundleID string, appAppleID int64, onlineChecks bool) (*verifierPair, error) {
	key := fmt.Sprintf("%s|%d|%t|%s", bundleID, appAppleID, onlineChecks, anchorDir)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if pair, exists := c.entries[key]; exists {
		return pair, nil
	}

	production, err := NewSignedDataVerifier(anchors, models.EnvironmentProduction, bundleID, appAppleID, onlineChecks)
	if err != nil {
		return nil, err
	}
	sandbox, err := NewSignedDataVerifier(anchors, models.EnvironmentSandbox, bundleID, appAppleID, onlineChecks)
	if err != nil {
		return nil, err
	}

	pair := &verifierPair{production: production, sandbox: sandbox}
	c.entries[key] = pair
	return pair, nil
}

// Resolver finds the tenant and environment under which an envelope
// verifies. Tenant order is caller-significant: first match wins.
type Resolver struct {
	tenants      []models.TenantConfig
	anchors      [][]byte
	anchorDir    string
	onlineChecks bool
	cache        *VerifierCache
}

// NewResolver creates a resolver over an ordered, immutable tenant list
func NewResolver(tenants []models.TenantConfig, anchors [][]byte, anchorDir string, onlineChecks bool, cache *VerifierCache) *Resolver {
	return &Resolver{
		tenants:      tenants,
		anchors:      anchors,
		anchorDir:    anchorDir,
		onlineChecks: onlineChecks,
		cache:        cache,
	}
}

// Resolution carries everything the decoder needs from a successful
// verification.
type Resolution struct {
	Tenant      models.TenantConfig
	Environment string
	Verifier    *SignedDataVerifier
	Claims      map[string]interface{}
}

// Resolve iterates tenants in configured order, trying production then
// sandbox for each, and returns the first bundle-consistent verification.
func (r *Resolver) Resolve(signedPayload string) (*Resolution, error) {
	if len(r.anchors) == 0 {
		return nil, configurationErrorf("no trust anchors configured")
	}
	if len(r.tenants) == 0 {
		return nil, configurationErrorf("no tenants configured")
	}

	var lastErr error

tenants:
	for _, tenant := range r.tenants {
		bundleID := tenant.BundleID
		if bundleID == "" {
			bundleID = unverifiedBundleID(signedPayload)
			if bundleID == "" {
				lastErr = verificationErrorf("tenant %s: no bundle id configured and none found in payload", tenant.Name)
				continue
			}
		}

		pair, err := r.cache.pair(r.anchors, r.anchorDir, bundleID, tenant.AppAppleID, r.onlineChecks)
		if err != nil {
			// Anchor parse failures are configuration-class; no tenant
			// can succeed with broken anchors.
			return nil, err
		}

		for _, candidate := range []struct {
			environment string
			verifier    *SignedDataVerifier
		}{
			{models.EnvironmentProduction, pair.production},
			{models.EnvironmentSandbox, pair.sandbox},
		} {
			claims, err := candidate.verifier.VerifyAndDecode(signedPayload)
			if err != nil {
				lastErr = err
				continue
			}

			// The decoded payload's own bundle id must match an explicitly
			// pinned tenant even though the signature verified; this blocks
			// cross-tenant payload confusion.
			if tenant.BundleID != "" {
				if decoded := claimBundleID(claims); decoded != tenant.BundleID {
					lastErr = verificationErrorf("bundle id mismatch: payload has %s, tenant %s pins %s", decoded, tenant.Name, tenant.BundleID)
					continue tenants
				}
			}

			return &Resolution{
				Tenant:      tenant,
				Environment: candidate.environment,
				Verifier:    candidate.verifier,
				Claims:      claims,
			}, nil
		}
	}

	return nil, verificationErrorf("verification failed for all configured tenants: %v", lastErr)
}

// unverifiedBundleID peeks at the undecoded payload segment to pick which
// verifier to try. The value is a candidate only and never establishes
// authenticity; the verified claim set is re-read after verification.
func unverifiedBundleID(signedPayload string) string {
	claims, err := peekClaims(signedPayload)
	if err != nil {
		return ""
	}
	return claimBundleID(claims)
}
