package services

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storekit-relay/internal/models"
	"storekit-relay/internal/testutil"
)

func TestVerifyAndDecode(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)
	verifier, err := NewSignedDataVerifier(authority.Anchors(), models.EnvironmentProduction, "com.example.app", 0, false)
	require.NoError(t, err)

	payload := authority.Sign(t, testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.example.app", models.EnvironmentProduction))

	claims, err := verifier.VerifyAndDecode(payload)
	require.NoError(t, err)
	assert.Equal(t, "uuid-1", claimString(claims, "notificationUUID"))
	assert.Equal(t, TypeSubscribed, claimString(claims, "notificationType"))
	assert.Equal(t, "com.example.app", claimBundleID(claims))
}

func TestVerifyAndDecodeRejectsUntrustedChain(t *testing.T) {
	signer := testutil.NewSigningAuthority(t)
	otherRoot := testutil.NewSigningAuthority(t)
	verifier, err := NewSignedDataVerifier(otherRoot.Anchors(), models.EnvironmentProduction, "com.example.app", 0, false)
	require.NoError(t, err)

	payload := signer.Sign(t, testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.example.app", models.EnvironmentProduction))

	_, err = verifier.VerifyAndDecode(payload)
	require.Error(t, err)
	assert.Equal(t, KindVerification, KindOf(err))
}

func TestVerifyAndDecodeRejectsEnvironmentMismatch(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)
	verifier, err := NewSignedDataVerifier(authority.Anchors(), models.EnvironmentProduction, "com.example.app", 0, false)
	require.NoError(t, err)

	payload := authority.Sign(t, testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.example.app", models.EnvironmentSandbox))

	_, err = verifier.VerifyAndDecode(payload)
	require.Error(t, err)
	assert.Equal(t, KindVerification, KindOf(err))
	assert.Contains(t, err.Error(), "environment mismatch")
}

func TestVerifyAndDecodeRejectsAppAppleIDMismatch(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)
	verifier, err := NewSignedDataVerifier(authority.Anchors(), models.EnvironmentProduction, "com.example.app", 111, false)
	require.NoError(t, err)

	claims := testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.example.app", models.EnvironmentProduction)
	claims["data"].(map[string]interface{})["appAppleId"] = float64(999)
	payload := authority.Sign(t, claims)

	_, err = verifier.VerifyAndDecode(payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appAppleId mismatch")
}

func TestVerifyAndDecodeRejectsMissingChain(t *testing.T) {
	authority := testutil.NewSigningAuthority(t)
	verifier, err := NewSignedDataVerifier(authority.Anchors(), models.EnvironmentProduction, "com.example.app", 0, false)
	require.NoError(t, err)

	// Validly signed token, but no x5c header at all.
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims(testutil.NotificationClaims("uuid-1", TypeSubscribed, "com.example.app", models.EnvironmentProduction)))
	payload, err := token.SignedString(key)
	require.NoError(t, err)

	_, err = verifier.VerifyAndDecode(payload)
	require.Error(t, err)
	assert.Equal(t, KindVerification, KindOf(err))
}

func TestNewSignedDataVerifierRequiresAnchors(t *testing.T) {
	_, err := NewSignedDataVerifier(nil, models.EnvironmentProduction, "com.example.app", 0, false)
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
}

func TestNewSignedDataVerifierRejectsGarbageAnchor(t *testing.T) {
	_, err := NewSignedDataVerifier([][]byte{[]byte("not a certificate")}, models.EnvironmentProduction, "com.example.app", 0, false)
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
}
