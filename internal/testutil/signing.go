package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningAuthority is a self-signed root plus a leaf signing key, used to
// mint storefront-style JWS payloads whose x5c chain verifies against the
// root.
type SigningAuthority struct {
	RootDER []byte
	leafDER []byte
	leafKey *ecdsa.PrivateKey
}

// NewSigningAuthority generates a fresh root and leaf pair.
func NewSigningAuthority(t *testing.T) *SigningAuthority {
	t.Helper()

	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate root key: %v", err)
	}
	rootTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Root CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, &rootKey.PublicKey, rootKey)
	if err != nil {
		t.Fatalf("failed to create root certificate: %v", err)
	}
	rootCert, err := x509.ParseCertificate(rootDER)
	if err != nil {
		t.Fatalf("failed to parse root certificate: %v", err)
	}

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate leaf key: %v", err)
	}
	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "Test Signing Leaf"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, rootCert, &leafKey.PublicKey, rootKey)
	if err != nil {
		t.Fatalf("failed to create leaf certificate: %v", err)
	}

	return &SigningAuthority{
		RootDER: rootDER,
		leafDER: leafDER,
		leafKey: leafKey,
	}
}

// Anchors returns the root as a trust-anchor blob set.
func (a *SigningAuthority) Anchors() [][]byte {
	return [][]byte{a.RootDER}
}

// Sign mints an ES256 JWS over the claims with the leaf in the x5c header.
func (a *SigningAuthority) Sign(t *testing.T, claims map[string]interface{}) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims(claims))
	token.Header["x5c"] = []string{base64.StdEncoding.EncodeToString(a.leafDER)}
	signed, err := token.SignedString(a.leafKey)
	if err != nil {
		t.Fatalf("failed to sign claims: %v", err)
	}
	return signed
}

// NotificationClaims builds a minimal valid notification claim set.
func NotificationClaims(uuid, notificationType, bundleID, environment string) map[string]interface{} {
	return map[string]interface{}{
		"notificationUUID": uuid,
		"notificationType": notificationType,
		"signedDate":       float64(time.Now().UnixMilli()),
		"data": map[string]interface{}{
			"bundleId":    bundleID,
			"environment": environment,
		},
	}
}

// TransactionClaims builds a minimal transaction claim set.
func TransactionClaims(originalTransactionID, productID, environment string) map[string]interface{} {
	return map[string]interface{}{
		"transactionId":         originalTransactionID + ".1",
		"originalTransactionId": originalTransactionID,
		"productId":             productID,
		"environment":           environment,
		"signedDate":            float64(time.Now().UnixMilli()),
	}
}

// WithTransaction embeds a signed transaction payload into notification
// claims.
func WithTransaction(claims map[string]interface{}, signedTransaction string) map[string]interface{} {
	data, _ := claims["data"].(map[string]interface{})
	if data == nil {
		data = map[string]interface{}{}
		claims["data"] = data
	}
	data["signedTransactionInfo"] = signedTransaction
	return claims
}
