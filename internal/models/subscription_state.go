package models

// SubscriptionState 订阅的滚动摘要
// One record per originalTransactionId, stored as JSON in Redis with a
// long TTL. It is a bounded summary of the subscription's history, not an
// event log: "first" fields are set once, "last" fields always take the
// newest event, counters only grow.
type SubscriptionState struct {
	SawFreeTrial      bool `json:"sawFreeTrial"`
	DidRenewCount     int  `json:"didRenewCount"`
	NotificationCount int  `json:"notificationCount"`

	FirstNotificationType string `json:"firstNotificationType"`
	LastNotificationType  string `json:"lastNotificationType"`

	// Millisecond timestamps; zero when never observed.
	FirstPurchaseDateMS    int64 `json:"firstPurchaseDate"`
	LastPurchaseDateMS     int64 `json:"lastPurchaseDate"`
	OriginalPurchaseDateMS int64 `json:"originalPurchaseDate"`

	FirstSeenAtMS   int64 `json:"firstSeenAt"`
	LastUpdatedAtMS int64 `json:"lastUpdatedAt"`
}
