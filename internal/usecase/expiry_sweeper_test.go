package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepSelectsOnlyStalePending(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		{ID: "fresh", Status: domain.OrderStatusPending, Timestamp: now.Add(-time.Hour)},
		{ID: "boundary", Status: domain.OrderStatusPending, Timestamp: now.Add(-domain.PendingTimeout)},
		{ID: "stale", Status: domain.OrderStatusPending, Timestamp: now.Add(-domain.PendingTimeout - time.Millisecond)},
		{ID: "paid", Status: domain.OrderStatusPaid, Timestamp: now.Add(-48 * time.Hour)},
		{ID: "rejected", Status: domain.OrderStatusRejected, Timestamp: now.Add(-48 * time.Hour)},
	}

	expiries := usecase.Sweep(now, orders, domain.PendingTimeout)

	require.Len(t, expiries, 1)
	assert.Equal(t, "stale", expiries[0].OrderID)
	assert.Equal(t, domain.PendingTimeout+time.Millisecond, expiries[0].Age)
}

func TestSweepOnceCancelsAfterTimeout(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 1)

	env.clock.Advance(domain.PendingTimeout)
	n, err := env.sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, domain.OrderStatusPending, env.order(t, orderID).Status)

	env.clock.Advance(time.Millisecond)
	n, err = env.sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.OrderStatusCancelled, env.order(t, orderID).Status)
	assert.Equal(t, int64(10), env.product(t, "p1").Stock)

	n, err = env.sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepOnceRecordsOutboxEvent(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 1)

	env.clock.Advance(domain.PendingTimeout + time.Second)
	_, err := env.sweeper.SweepOnce(context.Background())
	require.NoError(t, err)

	events := env.store.Outbox().Events()
	require.Len(t, events, 1)
	assert.Equal(t, orderID, events[0].OrderID)
}

func TestExpiredOrderCanStillBePaid(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 2)

	env.clock.Advance(7 * time.Hour)
	_, err := env.sweeper.SweepOnce(ctx)
	require.NoError(t, err)

	res, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, int64(8), env.product(t, "p1").Stock)
}

func TestExpireSkipsNonPending(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 1)

	_, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)

	expired, err := env.lifecycle.Expire(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, domain.OrderStatusPaid, env.order(t, orderID).Status)
}

func TestSubscribeOrdersExpiresStaleOrders(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 1)
	env.clock.Advance(domain.PendingTimeout + time.Minute)

	snapshots := make(chan []domain.Order, 16)
	unsubscribe, err := env.orders.SubscribeOrders(ctx, func(orders []domain.Order) {
		snapshots <- orders
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.Eventually(t, func() bool {
		return env.order(t, orderID).Status == domain.OrderStatusCancelled
	}, 2*time.Second, 10*time.Millisecond)
	env.sweeper.Wait()

	require.Eventually(t, func() bool {
		for {
			select {
			case orders := <-snapshots:
				if len(orders) == 1 && orders[0].Status == domain.OrderStatusCancelled {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond)
}
