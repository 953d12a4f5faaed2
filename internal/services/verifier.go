package services

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"storekit-relay/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// SignedDataVerifier 验证 App Store JWS 负载
// One verifier covers a single (bundle id, environment) pair; the chain of
// trust is anchored at the certificates supplied by the caller, never at
// the system roots.
type SignedDataVerifier struct {
	roots        *x509.CertPool
	environment  string
	bundleID     string
	appAppleID   int64
	onlineChecks bool
}

// NewSignedDataVerifier builds a verifier from raw trust anchor blobs
// (PEM or DER). At least one anchor is required.
func NewSignedDataVerifier(anchors [][]byte, environment, bundleID string, appAppleID int64, onlineChecks bool) (*SignedDataVerifier, error) {
	if len(anchors) == 0 {
		return nil, configurationErrorf("no trust anchors supplied")
	}

	roots := x509.NewCertPool()
	for i, blob := range anchors {
		cert, err := parseAnchorCertificate(blob)
		if err != nil {
			return nil, configurationErrorf("failed to parse trust anchor %d: %v", i, err)
		}
		roots.AddCert(cert)
	}

	return &SignedDataVerifier{
		roots:        roots,
		environment:  environment,
		bundleID:     bundleID,
		appAppleID:   appAppleID,
		onlineChecks: onlineChecks,
	}, nil
}

// parseAnchorCertificate accepts PEM or raw DER certificate bytes
func parseAnchorCertificate(blob []byte) (*x509.Certificate, error) {
	if block, _ := pem.Decode(blob); block != nil {
		return x509.ParseCertificate(block.Bytes)
	}
	return x509.ParseCertificate(blob)
}

// VerifyAndDecode verifies the JWS signature and certificate chain and
// returns the decoded claim set. The payload's environment must match the
// verifier's; in production a configured appAppleId must match too.
func (v *SignedDataVerifier) VerifyAndDecode(signedData string) (map[string]interface{}, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"ES256"}))
	if _, err := parser.ParseWithClaims(signedData, claims, v.keyFor); err != nil {
		return nil, verificationErrorf("signature verification failed: %v", err)
	}

	decoded := map[string]interface{}(claims)

	if environment := claimEnvironment(decoded); environment != "" && !strings.EqualFold(environment, v.environment) {
		return nil, verificationErrorf("environment mismatch: payload is %s, verifier is %s", environment, v.environment)
	}

	if v.environment == models.EnvironmentProduction && v.appAppleID != 0 {
		if appAppleID, ok := claimAppAppleID(decoded); ok && appAppleID != v.appAppleID {
			return nil, verificationErrorf("appAppleId mismatch: payload has %d, tenant has %d", appAppleID, v.appAppleID)
		}
	}

	return decoded, nil
}

// keyFor validates the embedded x5c chain against the trust anchors and
// returns the leaf public key for the signature check.
func (v *SignedDataVerifier) keyFor(token *jwt.Token) (interface{}, error) {
	chain, err := certificateChain(token.Header)
	if err != nil {
		return nil, err
	}

	opts := x509.VerifyOptions{
		Roots:     v.roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	if len(chain) > 1 {
		opts.Intermediates = x509.NewCertPool()
		for _, cert := range chain[1:] {
			opts.Intermediates.AddCert(cert)
		}
	}
	if !v.onlineChecks {
		// Anchor the validity window at signing time so historical
		// envelopes stay verifiable after leaf certificates expire.
		if signedAt := signedDate(token.Claims); !signedAt.IsZero() {
			opts.CurrentTime = signedAt
		}
	}

	if _, err := chain[0].Verify(opts); err != nil {
		return nil, fmt.Errorf("certificate chain verification failed: %w", err)
	}

	publicKey, ok := chain[0].PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("leaf certificate does not contain an ECDSA public key")
	}
	return publicKey, nil
}

// certificateChain parses the x5c header into leaf-first certificates
func certificateChain(header map[string]interface{}) ([]*x509.Certificate, error) {
	raw, ok := header["x5c"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("missing x5c certificate chain")
	}

	chain := make([]*x509.Certificate, 0, len(raw))
	for i, entry := range raw {
		encoded, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("x5c entry %d is not a string", i)
		}
		der, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode x5c entry %d: %w", i, err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("failed to parse x5c entry %d: %w", i, err)
		}
		chain = append(chain, cert)
	}
	return chain, nil
}

// signedDate reads the payload's signedDate claim (millisecond epoch)
func signedDate(claims jwt.Claims) time.Time {
	mapClaims, ok := claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}
	}
	ms, ok := coerceNumber(mapClaims["signedDate"])
	if !ok || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}
