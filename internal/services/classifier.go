package services

// Notification types the relay acts on.
const (
	TypeSubscribed    = "SUBSCRIBED"
	TypeDidRenew      = "DID_RENEW"
	TypeOneTimeCharge = "ONE_TIME_CHARGE"
	TypeRefund        = "REFUND"
)

// Action is the fixed classification of a notification type.
type Action string

const (
	ActionIgnore   Action = "IGNORE"
	ActionPurchase Action = "PURCHASE"
	ActionRefund   Action = "REFUND"
)

// Classify maps a raw notification type onto the action taxonomy.
// Total over all strings; unknown types are ignored.
func Classify(notificationType string) Action {
	switch notificationType {
	case TypeRefund:
		return ActionRefund
	case TypeSubscribed, TypeDidRenew, TypeOneTimeCharge:
		return ActionPurchase
	default:
		return ActionIgnore
	}
}
