package models

// Environment tags carried by a verified notification.
const (
	EnvironmentProduction = "Production"
	EnvironmentSandbox    = "Sandbox"
	EnvironmentUnknown    = "Unknown"
)

// NotificationEnvelope represents the outer wrapper of App Store Server
// Notification V2. Apple sends notifications as a JWS in the signedPayload
// field; the string is opaque until verification.
type NotificationEnvelope struct {
	SignedPayload string `json:"signedPayload"` // JWS containing the actual notification
}

// VerifiedNotification is the normalized result of a successful
// verification and decode. It is created once per request and read-only
// afterwards; only selected fields are ever persisted.
type VerifiedNotification struct {
	NotificationUUID string
	NotificationType string
	Subtype          string
	Environment      string
	BundleID         string

	// Owning tenant's name and routing, resolved during verification.
	TenantName string
	Routing    RoutingOverrides

	// Transaction is nil for notification types without a signed
	// transaction payload.
	Transaction *TransactionInfo
}

// TransactionInfo represents decoded transaction information from the
// nested signedTransactionInfo payload.
type TransactionInfo struct {
	ProductID             string
	TransactionID         string
	OriginalTransactionID string

	// Price in milliunits of Currency (29990 = 29.99); nil when absent or
	// not a finite number.
	Price    *float64
	Currency string

	// Millisecond timestamps; zero when absent.
	PurchaseDateMS         int64
	OriginalPurchaseDateMS int64

	OfferDiscountType string // e.g. "FREE_TRIAL"
	TransactionReason string // e.g. "PURCHASE", "RENEWAL"
}
