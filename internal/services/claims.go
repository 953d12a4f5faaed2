package services

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Helpers for reading decoded JWS claim sets. App Store payloads carry
// some fields both at the top level and nested under "data" depending on
// the notification version, so lookups fall back to the data object.

func claimString(claims map[string]interface{}, key string) string {
	value, _ := claims[key].(string)
	return value
}

func nestedData(claims map[string]interface{}) map[string]interface{} {
	data, _ := claims["data"].(map[string]interface{})
	return data
}

func claimBundleID(claims map[string]interface{}) string {
	if bundleID := claimString(claims, "bundleId"); bundleID != "" {
		return bundleID
	}
	if data := nestedData(claims); data != nil {
		return claimString(data, "bundleId")
	}
	return ""
}

func claimEnvironment(claims map[string]interface{}) string {
	if environment := claimString(claims, "environment"); environment != "" {
		return environment
	}
	if data := nestedData(claims); data != nil {
		return claimString(data, "environment")
	}
	return ""
}

func claimAppAppleID(claims map[string]interface{}) (int64, bool) {
	data := nestedData(claims)
	if data == nil {
		return 0, false
	}
	value, ok := coerceNumber(data["appAppleId"])
	if !ok {
		return 0, false
	}
	return int64(value), true
}

// coerceNumber tolerates the numeric and numeric-string representations
// the storefront mixes freely. Non-finite results count as absent.
func coerceNumber(value interface{}) (float64, bool) {
	var number float64
	switch v := value.(type) {
	case float64:
		number = v
	case int64:
		number = float64(v)
	case int:
		number = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		number = parsed
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		number = parsed
	default:
		return 0, false
	}
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return number, true
}

// peekClaims decodes the payload segment of a JWS without any signature
// check. Callers must treat the result as unverified input.
func peekClaims(signedData string) (map[string]interface{}, error) {
	parts := strings.Split(signedData, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWS format: expected 3 parts, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWS payload: %w", err)
	}

	var claims map[string]interface{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JWS payload: %w", err)
	}
	return claims, nil
}
