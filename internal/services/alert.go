package services

import (
	"fmt"
	"strings"

	"storekit-relay/internal/models"
)

// BuildAlert renders a verified notification into the push title and body.
func BuildAlert(notification *models.VerifiedNotification, hint LifecycleHint) (title, body string) {
	title = fmt.Sprintf("%s %s", notification.BundleID, notification.NotificationType)
	if notification.Subtype != "" {
		title += " (" + notification.Subtype + ")"
	}

	var lines []string
	if transaction := notification.Transaction; transaction != nil {
		if transaction.ProductID != "" {
			lines = append(lines, "Product: "+transaction.ProductID)
		}
		if amount := FormatAmount(transaction.Price, transaction.Currency); amount != "" {
			lines = append(lines, "Amount: "+amount)
		}
		if transaction.OriginalTransactionID != "" {
			lines = append(lines, "Subscription: "+transaction.OriginalTransactionID)
		}
	}
	if hint != HintNone {
		lines = append(lines, "Lifecycle: "+string(hint))
	}
	lines = append(lines, "Environment: "+notification.Environment)

	return title, strings.Join(lines, "\n")
}

// FormatAmount renders a milliunit price as "29.99 EUR". A nil price
// renders empty so the alert omits the amount line entirely.
func FormatAmount(price *float64, currency string) string {
	if price == nil {
		return ""
	}
	amount := *price / 1000
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}
