package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storekit-relay/internal/models"
	"storekit-relay/internal/testutil"
)

const dayMS = int64(24 * time.Hour / time.Millisecond)

func notificationWith(notificationType string, transaction *models.TransactionInfo) *models.VerifiedNotification {
	return &models.VerifiedNotification{
		NotificationUUID: "uuid-1",
		NotificationType: notificationType,
		Environment:      models.EnvironmentProduction,
		BundleID:         "com.example.app",
		Transaction:      transaction,
	}
}

func TestObserveTrialStart(t *testing.T) {
	store := NewLifecycleStore(testutil.NewFakeKV())

	hint, err := store.Observe(context.Background(), notificationWith(TypeSubscribed, &models.TransactionInfo{
		OriginalTransactionID: "orig-1",
		OfferDiscountType:     "FREE_TRIAL",
	}))
	require.NoError(t, err)
	assert.Equal(t, HintTrialStart, hint)
}

func TestObservePaidSubscribeHasNoHint(t *testing.T) {
	store := NewLifecycleStore(testutil.NewFakeKV())

	hint, err := store.Observe(context.Background(), notificationWith(TypeSubscribed, &models.TransactionInfo{
		OriginalTransactionID: "orig-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, HintNone, hint)
}

func TestObserveFirstPaidAfterTrialFromHistory(t *testing.T) {
	kv := testutil.NewFakeKV()
	store := NewLifecycleStore(kv)
	ctx := context.Background()

	_, err := store.Observe(ctx, notificationWith(TypeSubscribed, &models.TransactionInfo{
		OriginalTransactionID: "orig-1",
		OfferDiscountType:     "FREE_TRIAL",
	}))
	require.NoError(t, err)

	hint, err := store.Observe(ctx, notificationWith(TypeDidRenew, &models.TransactionInfo{
		OriginalTransactionID: "orig-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, HintFirstPaidAfterTrial, hint)

	// The second renewal of the same subscription is a plain renewal.
	hint, err = store.Observe(ctx, notificationWith(TypeDidRenew, &models.TransactionInfo{
		OriginalTransactionID: "orig-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, HintRenewal, hint)
}

func TestObserveFirstPaidAfterTrialFromPurchaseGap(t *testing.T) {
	// No stored history: a renewal 7 days after the original purchase
	// falls inside the typical trial window.
	store := NewLifecycleStore(testutil.NewFakeKV())
	base := time.Now().UnixMilli()

	hint, err := store.Observe(context.Background(), notificationWith(TypeDidRenew, &models.TransactionInfo{
		OriginalTransactionID:  "orig-1",
		PurchaseDateMS:         base,
		OriginalPurchaseDateMS: base - 7*dayMS,
	}))
	require.NoError(t, err)
	assert.Equal(t, HintFirstPaidAfterTrial, hint)
}

func TestObserveRenewalOutsideTrialWindow(t *testing.T) {
	store := NewLifecycleStore(testutil.NewFakeKV())
	base := time.Now().UnixMilli()

	hint, err := store.Observe(context.Background(), notificationWith(TypeDidRenew, &models.TransactionInfo{
		OriginalTransactionID:  "orig-1",
		PurchaseDateMS:         base,
		OriginalPurchaseDateMS: base - 365*dayMS,
	}))
	require.NoError(t, err)
	assert.Equal(t, HintRenewal, hint)
}

func TestObserveSkipsWithoutOriginalTransactionID(t *testing.T) {
	kv := testutil.NewFakeKV()
	store := NewLifecycleStore(kv)
	ctx := context.Background()

	hint, err := store.Observe(ctx, notificationWith(TypeSubscribed, nil))
	require.NoError(t, err)
	assert.Equal(t, HintNone, hint)

	hint, err = store.Observe(ctx, notificationWith(TypeSubscribed, &models.TransactionInfo{}))
	require.NoError(t, err)
	assert.Equal(t, HintNone, hint)

	assert.Equal(t, 0, kv.SetCalls, "skipped events must not touch the store")
}

func TestObserveMergesState(t *testing.T) {
	kv := testutil.NewFakeKV()
	store := NewLifecycleStore(kv)
	ctx := context.Background()
	base := time.Now().UnixMilli()

	_, err := store.Observe(ctx, notificationWith(TypeSubscribed, &models.TransactionInfo{
		OriginalTransactionID:  "orig-1",
		OfferDiscountType:      "FREE_TRIAL",
		PurchaseDateMS:         base,
		OriginalPurchaseDateMS: base,
	}))
	require.NoError(t, err)
	_, err = store.Observe(ctx, notificationWith(TypeDidRenew, &models.TransactionInfo{
		OriginalTransactionID:  "orig-1",
		PurchaseDateMS:         base + 7*dayMS,
		OriginalPurchaseDateMS: base,
	}))
	require.NoError(t, err)

	raw, found, err := kv.Get(ctx, "subscription:orig-1")
	require.NoError(t, err)
	require.True(t, found)

	var state models.SubscriptionState
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	assert.True(t, state.SawFreeTrial)
	assert.Equal(t, 1, state.DidRenewCount)
	assert.Equal(t, 2, state.NotificationCount)
	assert.Equal(t, TypeSubscribed, state.FirstNotificationType)
	assert.Equal(t, TypeDidRenew, state.LastNotificationType)
	assert.Equal(t, base, state.FirstPurchaseDateMS)
	assert.Equal(t, base+7*dayMS, state.LastPurchaseDateMS)
	assert.NotZero(t, state.FirstSeenAtMS)
}

func TestObserveDiscardsMalformedState(t *testing.T) {
	kv := testutil.NewFakeKV()
	require.NoError(t, kv.Set(context.Background(), "subscription:orig-1", "{not json", time.Hour))
	store := NewLifecycleStore(kv)

	// Malformed stored state reads as absent, so the gap heuristic still
	// applies and the record is rewritten cleanly.
	hint, err := store.Observe(context.Background(), notificationWith(TypeDidRenew, &models.TransactionInfo{
		OriginalTransactionID: "orig-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, HintRenewal, hint)

	raw, found, err := kv.Get(context.Background(), "subscription:orig-1")
	require.NoError(t, err)
	require.True(t, found)
	var state models.SubscriptionState
	require.NoError(t, json.Unmarshal([]byte(raw), &state))
	assert.Equal(t, 1, state.NotificationCount)
}

func TestObserveStoreError(t *testing.T) {
	kv := testutil.NewFakeKV()
	kv.Err = errors.New("connection refused")
	store := NewLifecycleStore(kv)

	hint, err := store.Observe(context.Background(), notificationWith(TypeSubscribed, &models.TransactionInfo{
		OriginalTransactionID: "orig-1",
	}))
	require.Error(t, err)
	assert.Equal(t, HintNone, hint)
	assert.Equal(t, KindInfrastructure, KindOf(err))
}
