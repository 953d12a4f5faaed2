package services

import (
	"context"
	"encoding/json"
	"time"

	"storekit-relay/internal/models"
	"storekit-relay/pkg/logging"
)

const (
	subscriptionKeyPrefix = "subscription:"
	subscriptionStateTTL  = 730 * 24 * time.Hour

	// Window for the date-based trial-to-paid heuristic: a renewal landing
	// 5-14 days after the original purchase usually follows a free trial.
	trialGapMin = 5 * 24 * time.Hour
	trialGapMax = 14 * 24 * time.Hour
)

// LifecycleHint classifies a subscribe/renewal event by lifecycle stage.
type LifecycleHint string

const (
	HintNone                LifecycleHint = ""
	HintTrialStart          LifecycleHint = "TRIAL_START"
	HintFirstPaidAfterTrial LifecycleHint = "FIRST_PAID_AFTER_TRIAL"
	HintRenewal             LifecycleHint = "RENEWAL"
)

// LifecycleStore keeps one rolling summary per subscription and infers a
// lifecycle hint for subscribe/renewal events from the stored history.
//
// Concurrent events for the same subscription are not serialized: the
// read-merge-write below is last-writer-wins and may under-count under
// true concurrency. Accepted tradeoff for a low-traffic per-subscription
// keyspace; the dedup ledger remains the only atomic gate.
type LifecycleStore struct {
	kv  KVStore
	now func() time.Time
}

// NewLifecycleStore creates a store over the shared key-value store
func NewLifecycleStore(kv KVStore) *LifecycleStore {
	return &LifecycleStore{kv: kv, now: time.Now}
}

// Observe merges the event into the subscription's stored summary and
// returns the hint computed from the pre-write snapshot. Events without
// an original transaction id are skipped entirely.
func (s *LifecycleStore) Observe(ctx context.Context, notification *models.VerifiedNotification) (LifecycleHint, error) {
	transaction := notification.Transaction
	if transaction == nil || transaction.OriginalTransactionID == "" {
		return HintNone, nil
	}
	key := subscriptionKeyPrefix + transaction.OriginalTransactionID

	previous, err := s.load(ctx, key)
	if err != nil {
		return HintNone, err
	}

	hint := inferHint(notification.NotificationType, transaction, previous)

	merged := mergeState(previous, notification.NotificationType, transaction, hint, s.now().UnixMilli())
	encoded, err := json.Marshal(merged)
	if err != nil {
		return HintNone, infrastructureErrorf("failed to encode subscription state: %v", err)
	}
	if err := s.kv.Set(ctx, key, string(encoded), subscriptionStateTTL); err != nil {
		return HintNone, infrastructureErrorf("failed to store subscription state for %s: %v", transaction.OriginalTransactionID, err)
	}

	return hint, nil
}

// load returns the stored state, or nil when absent. Malformed stored
// data is treated as absent, never as a partially-decoded record.
func (s *LifecycleStore) load(ctx context.Context, key string) (*models.SubscriptionState, error) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, infrastructureErrorf("failed to load subscription state: %v", err)
	}
	if !found {
		return nil, nil
	}

	var state models.SubscriptionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logging.Errorf("Discarding malformed subscription state at %s: %v", key, err)
		return nil, nil
	}
	return &state, nil
}

// inferHint determines the lifecycle stage from the event and the
// pre-write snapshot. Only subscribe and renewal events produce hints.
func inferHint(notificationType string, transaction *models.TransactionInfo, previous *models.SubscriptionState) LifecycleHint {
	switch notificationType {
	case TypeSubscribed:
		if isFreeTrial(transaction) {
			return HintTrialStart
		}
		return HintNone
	case TypeDidRenew:
		if previous != nil && previous.SawFreeTrial && previous.DidRenewCount == 0 {
			return HintFirstPaidAfterTrial
		}
		if gap, ok := purchaseGap(transaction); ok && gap >= trialGapMin && gap <= trialGapMax {
			return HintFirstPaidAfterTrial
		}
		return HintRenewal
	default:
		return HintNone
	}
}

func isFreeTrial(transaction *models.TransactionInfo) bool {
	return transaction.OfferDiscountType == "FREE_TRIAL"
}

// purchaseGap returns the time between purchase and original purchase
func purchaseGap(transaction *models.TransactionInfo) (time.Duration, bool) {
	if transaction.PurchaseDateMS == 0 || transaction.OriginalPurchaseDateMS == 0 {
		return 0, false
	}
	gap := time.Duration(transaction.PurchaseDateMS-transaction.OriginalPurchaseDateMS) * time.Millisecond
	if gap < 0 {
		return 0, false
	}
	return gap, true
}

// mergeState folds one event into the rolling summary: "first" fields are
// set once and never overwritten, "last" fields always take the current
// event, counters only grow.
func mergeState(previous *models.SubscriptionState, notificationType string, transaction *models.TransactionInfo, hint LifecycleHint, nowMS int64) *models.SubscriptionState {
	state := previous
	if state == nil {
		state = &models.SubscriptionState{}
	}

	if state.FirstSeenAtMS == 0 {
		state.FirstSeenAtMS = nowMS
	}
	if state.FirstNotificationType == "" {
		state.FirstNotificationType = notificationType
	}
	if state.FirstPurchaseDateMS == 0 {
		state.FirstPurchaseDateMS = transaction.PurchaseDateMS
	}

	state.SawFreeTrial = state.SawFreeTrial || isFreeTrial(transaction) || hint == HintFirstPaidAfterTrial
	if notificationType == TypeDidRenew {
		state.DidRenewCount++
	}
	state.NotificationCount++

	state.LastNotificationType = notificationType
	state.LastPurchaseDateMS = transaction.PurchaseDateMS
	if transaction.OriginalPurchaseDateMS != 0 {
		state.OriginalPurchaseDateMS = transaction.OriginalPurchaseDateMS
	}
	state.LastUpdatedAtMS = nowMS

	return state
}
