package services

import (
	"storekit-relay/internal/models"
)

// DecodeNotification turns a resolved envelope into a normalized
// VerifiedNotification. The nested transaction payload, when present, is
// independently verified with the verifier that accepted the outer
// envelope.
func DecodeNotification(resolution *Resolution) (*models.VerifiedNotification, error) {
	claims := resolution.Claims

	notificationUUID := claimString(claims, "notificationUUID")
	if notificationUUID == "" {
		return nil, inputErrorf("notificationUUID is missing")
	}
	notificationType := claimString(claims, "notificationType")
	if notificationType == "" {
		return nil, inputErrorf("notificationType is missing")
	}
	bundleID := claimBundleID(claims)
	if bundleID == "" {
		return nil, inputErrorf("bundleId is missing")
	}

	environment := claimEnvironment(claims)
	if environment == "" {
		environment = models.EnvironmentUnknown
	}

	notification := &models.VerifiedNotification{
		NotificationUUID: notificationUUID,
		NotificationType: notificationType,
		Subtype:          claimString(claims, "subtype"),
		Environment:      environment,
		BundleID:         bundleID,
		TenantName:       resolution.Tenant.Name,
		Routing:          resolution.Tenant.Routing,
	}

	// Purchase-less notification types carry no transaction payload;
	// absence is not an error.
	if data := nestedData(claims); data != nil {
		if signedTransaction := claimString(data, "signedTransactionInfo"); signedTransaction != "" {
			transactionClaims, err := resolution.Verifier.VerifyAndDecode(signedTransaction)
			if err != nil {
				return nil, err
			}
			notification.Transaction = decodeTransaction(transactionClaims)
		}
	}

	return notification, nil
}

// decodeTransaction extracts transaction fields from verified claims.
// Numeric fields tolerate both number and numeric-string representations.
func decodeTransaction(claims map[string]interface{}) *models.TransactionInfo {
	transaction := &models.TransactionInfo{
		ProductID:             claimString(claims, "productId"),
		TransactionID:         claimString(claims, "transactionId"),
		OriginalTransactionID: claimString(claims, "originalTransactionId"),
		Currency:              claimString(claims, "currency"),
		OfferDiscountType:     claimString(claims, "offerDiscountType"),
		TransactionReason:     claimString(claims, "transactionReason"),
	}

	if price, ok := coerceNumber(claims["price"]); ok {
		transaction.Price = &price
	}
	if purchaseDate, ok := coerceNumber(claims["purchaseDate"]); ok {
		transaction.PurchaseDateMS = int64(purchaseDate)
	}
	if originalPurchaseDate, ok := coerceNumber(claims["originalPurchaseDate"]); ok {
		transaction.OriginalPurchaseDateMS = int64(originalPurchaseDate)
	}

	return transaction
}
