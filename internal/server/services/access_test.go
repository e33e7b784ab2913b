package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccess(t *testing.T) (*AccessService, *testClock) {
	t.Helper()
	clock := newTestClock()
	return NewAccessService(newManager(t), testConfig(), clock.Now, logging.Nop{}), clock
}

func TestAuthorize_FreeQuotaThenDeny(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccess(t)

	for i := 1; i <= 3; i++ {
		d, err := svc.Authorize(ctx, "New@Gmail.com", true)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "calculation %d", i)
		assert.Equal(t, ReasonFreeQuota, d.Reason)
		assert.EqualValues(t, i, d.Entitlement.CalculationsUsed)
	}

	d, err := svc.Authorize(ctx, "new@gmail.com", true)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonQuotaExhausted, d.Reason)
	assert.EqualValues(t, 3, d.Entitlement.CalculationsUsed)
	assert.Equal(t, "https://calc.example.co.ke/api/paystack/subscribe", d.RemediationURL)
}

func TestAuthorize_PageViewsDoNotConsume(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccess(t)

	for i := 0; i < 10; i++ {
		d, err := svc.Authorize(ctx, "viewer@gmail.com", false)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	status, err := svc.GetEntitlement(ctx, "viewer@gmail.com")
	require.NoError(t, err)
	assert.EqualValues(t, 0, status.CalculationsUsed)

	for i := 0; i < 3; i++ {
		_, err := svc.Authorize(ctx, "viewer@gmail.com", true)
		require.NoError(t, err)
	}
	d, err := svc.Authorize(ctx, "viewer@gmail.com", false)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.NotEmpty(t, d.RemediationURL)
}

func TestAuthorize_ConcurrentConsumersGetExactlyTheQuota(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccess(t)

	const workers = 12
	var allowed atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			d, err := svc.Authorize(ctx, "race@gmail.com", true)
			if assert.NoError(t, err) && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 3, allowed.Load())
	status, err := svc.GetEntitlement(ctx, "race@gmail.com")
	require.NoError(t, err)
	assert.EqualValues(t, 3, status.CalculationsUsed)
}

func TestAuthorize_ActiveSubscriptionBypassesQuota(t *testing.T) {
	ctx := context.Background()
	svc, clock := newAccess(t)

	_, err := svc.repomanager.Entitlements().ActivateSubscription(ctx, "pro@gmail.com", clock.Now().Add(time.Hour))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		d, err := svc.Authorize(ctx, "pro@gmail.com", true)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, ReasonSubscription, d.Reason)
	}

	status, err := svc.GetEntitlement(ctx, "pro@gmail.com")
	require.NoError(t, err)
	assert.True(t, status.SubscriptionActive)
	assert.EqualValues(t, 0, status.CalculationsUsed)
}

func TestAuthorize_LapsedSubscriptionFallsBackToQuota(t *testing.T) {
	ctx := context.Background()
	svc, clock := newAccess(t)

	_, err := svc.repomanager.Entitlements().ActivateSubscription(ctx, "lapsed@gmail.com", clock.Now().Add(time.Hour))
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	d, err := svc.Authorize(ctx, "lapsed@gmail.com", true)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonFreeQuota, d.Reason)

	status, err := svc.GetEntitlement(ctx, "lapsed@gmail.com")
	require.NoError(t, err)
	assert.False(t, status.SubscriptionActive)
}

func TestAuthorize_FailsClosed(t *testing.T) {
	svc := NewAccessService(brokenManager{}, testConfig(), newTestClock().Now, logging.Nop{})

	for _, consuming := range []bool{true, false} {
		d, err := svc.Authorize(context.Background(), "a@gmail.com", consuming)
		require.ErrorIs(t, err, common.ErrStorageFailure)
		require.NotNil(t, d)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonUnavailable, d.Reason)
	}
}

func TestGetEntitlement_UnknownEmailIsZeroAndNotCreated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccess(t)

	status, err := svc.GetEntitlement(ctx, "ghost@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, &EntitlementStatus{Email: "ghost@gmail.com", FreeCalculations: 3}, status)

	_, err = svc.repomanager.Entitlements().Get(ctx, "ghost@gmail.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetEntitlement_StorageFailure(t *testing.T) {
	svc := NewAccessService(brokenManager{}, testConfig(), newTestClock().Now, logging.Nop{})
	_, err := svc.GetEntitlement(context.Background(), "a@gmail.com")
	assert.ErrorIs(t, err, common.ErrStorageFailure)
}

func TestResetUsage(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccess(t)

	_, err := svc.ResetUsage(ctx, "nobody@gmail.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	for i := 0; i < 3; i++ {
		_, err := svc.Authorize(ctx, "reset@gmail.com", true)
		require.NoError(t, err)
	}
	e, err := svc.ResetUsage(ctx, "reset@gmail.com")
	require.NoError(t, err)
	assert.EqualValues(t, 0, e.CalculationsUsed)

	d, err := svc.Authorize(ctx, "reset@gmail.com", true)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
