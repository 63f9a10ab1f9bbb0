package usecase_test

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"sync"
	"testing"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var voucherCode = regexp.MustCompile(`V-[A-Z0-9]{4}-[A-Z0-9]{4}`)

func TestTransitionPaidDeductsStockOnce(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10, TotalSold: 2})
	orderID := env.placeOrder(t, "u1", p, 3)

	res, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.Settled)
	assert.Equal(t, domain.OrderStatusPending, res.From)
	assert.Equal(t, domain.OrderStatusPaid, res.To)

	stored := env.product(t, "p1")
	assert.Equal(t, int64(7), stored.Stock)
	assert.Equal(t, int64(5), stored.TotalSold)

	again, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)
	assert.False(t, again.Applied)

	stored = env.product(t, "p1")
	assert.Equal(t, int64(7), stored.Stock)
	assert.Equal(t, int64(5), stored.TotalSold)
	assert.Equal(t, domain.OrderStatusPaid, env.order(t, orderID).Status)
}

func TestTransitionConservesUnitsAcrossOrders(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 20})

	quantities := []int64{1, 4, 2, 5}
	for _, qty := range quantities {
		id := env.placeOrder(t, "u1", p, qty)
		_, err := env.orders.TransitionOrder(ctx, id, domain.OrderStatusPaid)
		require.NoError(t, err)
	}

	stored := env.product(t, "p1")
	assert.Equal(t, int64(20), stored.Stock+stored.TotalSold)
	assert.Equal(t, int64(8), stored.Stock)
	assert.Equal(t, int64(12), stored.TotalSold)
}

func TestTransitionOversellClampsStockAtZero(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 1})
	orderID := env.placeOrder(t, "u1", p, 3)

	res, err := env.orders.TransitionOrder(context.Background(), orderID, domain.OrderStatusPaid)
	require.NoError(t, err)
	require.True(t, res.Applied)

	stored := env.product(t, "p1")
	assert.Equal(t, int64(0), stored.Stock)
	assert.Equal(t, int64(3), stored.TotalSold)
}

func TestTransitionDigitalProductCompletesImmediately(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, domain.Product{ID: "key", Stock: 5, Category: domain.CategoryDigital})
	orderID := env.placeOrder(t, "u1", p, 1)

	res, err := env.orders.TransitionOrder(context.Background(), orderID, domain.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, domain.OrderStatusCompleted, res.To)
	assert.Equal(t, domain.OrderStatusCompleted, env.order(t, orderID).Status)
	assert.Equal(t, int64(4), env.product(t, "key").Stock)
}

func TestTransitionIssuesVouchersOnce(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{
		ID:          "gift",
		Name:        "Gift Card",
		Stock:       10,
		Category:    domain.CategoryDigital,
		AutoMessage: &domain.AutoMessageRule{Enabled: true, Text: "Redeem at checkout."},
	})
	orderID := env.placeOrder(t, "u1", p, 2)

	_, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)
	_, err = env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)

	messages := env.messagesFor(t, "u1")
	require.Len(t, messages, 1)

	msg := messages[0]
	assert.Equal(t, "Your order: Gift Card", msg.Title)
	assert.True(t, msg.FromAdmin)
	assert.False(t, msg.IsRead)
	assert.Contains(t, msg.Content, "Redeem at checkout.")
	assert.Contains(t, msg.Content, "Quantity: 2")
	assert.Len(t, voucherCode.FindAllString(msg.Content, -1), 2)

	assert.Empty(t, env.messagesFor(t, "u2"))
}

func TestTransitionWithoutAutoMessageSendsNothing(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 1)

	_, err := env.orders.TransitionOrder(context.Background(), orderID, domain.OrderStatusPaid)
	require.NoError(t, err)

	assert.Empty(t, env.messagesFor(t, "u1"))
}

func TestTransitionUsesLiveAutoMessageRule(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 1)

	p.AutoMessage = &domain.AutoMessageRule{Enabled: true, Text: "Added after the order."}
	env.seedProduct(t, p)

	_, err := env.orders.TransitionOrder(context.Background(), orderID, domain.OrderStatusPaid)
	require.NoError(t, err)

	messages := env.messagesFor(t, "u1")
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Content, "Added after the order.")
}

func TestTransitionFromCancelledSettles(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 2)

	res, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	require.True(t, res.Applied)
	assert.False(t, res.Settled)
	assert.Equal(t, int64(10), env.product(t, "p1").Stock)

	res, err = env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.Settled)
	assert.Equal(t, int64(8), env.product(t, "p1").Stock)
}

func TestTransitionPaidToShippedDoesNotDeduct(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 2)

	for _, status := range []domain.OrderStatus{domain.OrderStatusPaid, domain.OrderStatusShipped, domain.OrderStatusCompleted} {
		res, err := env.orders.TransitionOrder(ctx, orderID, status)
		require.NoError(t, err)
		require.True(t, res.Applied, status)
	}

	stored := env.product(t, "p1")
	assert.Equal(t, int64(8), stored.Stock)
	assert.Equal(t, int64(2), stored.TotalSold)
}

func TestTransitionIllegalIsInert(t *testing.T) {
	tests := []struct {
		name   string
		path   []domain.OrderStatus
		target domain.OrderStatus
	}{
		{"pending to shipped", nil, domain.OrderStatusShipped},
		{"pending to pending", nil, domain.OrderStatusPending},
		{"completed to pending", []domain.OrderStatus{domain.OrderStatusCompleted}, domain.OrderStatusPending},
		{"completed to cancelled", []domain.OrderStatus{domain.OrderStatusCompleted}, domain.OrderStatusCancelled},
		{"shipped to paid", []domain.OrderStatus{domain.OrderStatusPaid, domain.OrderStatusShipped}, domain.OrderStatusPaid},
		{"rejected to cancelled", []domain.OrderStatus{domain.OrderStatusRejected}, domain.OrderStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			ctx := context.Background()
			p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
			orderID := env.placeOrder(t, "u1", p, 1)

			for _, step := range tt.path {
				res, err := env.orders.TransitionOrder(ctx, orderID, step)
				require.NoError(t, err)
				require.True(t, res.Applied)
			}
			before := env.order(t, orderID).Status
			stock := env.product(t, "p1").Stock

			res, err := env.orders.TransitionOrder(ctx, orderID, tt.target)
			require.NoError(t, err)
			assert.False(t, res.Applied)
			assert.Equal(t, before, env.order(t, orderID).Status)
			assert.Equal(t, stock, env.product(t, "p1").Stock)
		})
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 1)

	_, err := env.orders.TransitionOrder(context.Background(), orderID, domain.OrderStatus("REFUNDED"))
	require.ErrorIs(t, err, e.ErrUnknownStatus)
	assert.Equal(t, domain.OrderStatusPending, env.order(t, orderID).Status)
}

func TestTransitionMissingOrder(t *testing.T) {
	env := newEnv(t)

	_, err := env.orders.TransitionOrder(context.Background(), "missing", domain.OrderStatusPaid)
	require.ErrorIs(t, err, e.ErrNotFound)
}

func TestTransitionConcurrentPaymentsDeductOnce(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 4)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			res, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
			assert.NoError(t, err)
			if res != nil && res.Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	stored := env.product(t, "p1")
	assert.Equal(t, int64(6), stored.Stock)
	assert.Equal(t, int64(4), stored.TotalSold)
}

func TestTransitionDeletedProductStillApplies(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 1)
	require.NoError(t, env.products.DeleteProduct(ctx, "p1"))

	res, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, domain.OrderStatusPaid, env.order(t, orderID).Status)
	assert.Equal(t, p.Name, env.order(t, orderID).Item.Product.Name)
}

func TestTransitionRecordsOutboxEvent(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 2)

	_, err := env.orders.TransitionOrder(context.Background(), orderID, domain.OrderStatusPaid)
	require.NoError(t, err)

	events := env.store.Outbox().Events()
	require.Len(t, events, 1)
	assert.Equal(t, usecase.OrderStatusChanged, events[0].EventType)
	assert.Equal(t, orderID, events[0].OrderID)
	assert.Equal(t, usecase.Pending, events[0].Status)

	var payload usecase.OrderStatusChangedPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, events[0].EventID, payload.EventID)
	assert.Equal(t, "PENDING", payload.From)
	assert.Equal(t, "PAID", payload.To)
	assert.Equal(t, int64(2), payload.Quantity)
	assert.True(t, payload.Settled)
}

func TestTransitionRollsBackWhenOutboxFails(t *testing.T) {
	env := newEnv(t, withFailingOutbox())
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	orderID := env.placeOrder(t, "u1", p, 2)

	_, err := env.orders.TransitionOrder(context.Background(), orderID, domain.OrderStatusPaid)
	require.Error(t, err)

	assert.Equal(t, domain.OrderStatusPending, env.order(t, orderID).Status)
	stored := env.product(t, "p1")
	assert.Equal(t, int64(10), stored.Stock)
	assert.Equal(t, int64(0), stored.TotalSold)
}

func TestTransitionVoucherFailureKeepsSettlement(t *testing.T) {
	env := newEnv(t, withFailingMessages())
	p := env.seedProduct(t, domain.Product{
		ID:          "gift",
		Stock:       10,
		AutoMessage: &domain.AutoMessageRule{Enabled: true},
	})
	orderID := env.placeOrder(t, "u1", p, 1)

	res, err := env.orders.TransitionOrder(context.Background(), orderID, domain.OrderStatusPaid)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Applied)
	assert.Equal(t, domain.OrderStatusPaid, env.order(t, orderID).Status)
	assert.Equal(t, int64(9), env.product(t, "gift").Stock)
}

func TestTransitionInvalidatesCachedProduct(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})
	require.NoError(t, env.cache.SetProducts(ctx, []domain.Product{p}))
	orderID := env.placeOrder(t, "u1", p, 3)

	_, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)

	cached, err := env.cache.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestTransitionRejectsOversizedVoucherOrder(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, domain.Product{
		ID:          "gift",
		Stock:       5,
		Category:    domain.CategoryDigital,
		AutoMessage: &domain.AutoMessageRule{Enabled: true, Text: "Redeem at checkout."},
	})
	orderID := env.storeOrder(t, p, 1<<60)

	var err error
	require.NotPanics(t, func() {
		_, err = env.orders.TransitionOrder(context.Background(), orderID, domain.OrderStatusPaid)
	})
	require.ErrorIs(t, err, e.ErrQuantityTooLarge)
	assert.Empty(t, env.messagesFor(t, "u1"))

	assert.Equal(t, domain.OrderStatusPending, env.order(t, orderID).Status)
	stored := env.product(t, "gift")
	assert.Equal(t, int64(5), stored.Stock)
	assert.Equal(t, int64(0), stored.TotalSold)
}

func TestTransitionRejectsSoldCounterOverflow(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 5, TotalSold: 10})
	orderID := env.storeOrder(t, p, math.MaxInt64-5)

	_, err := env.orders.TransitionOrder(context.Background(), orderID, domain.OrderStatusPaid)
	require.ErrorIs(t, err, e.ErrQuantityTooLarge)

	assert.Equal(t, domain.OrderStatusPending, env.order(t, orderID).Status)
	stored := env.product(t, "p1")
	assert.Equal(t, int64(5), stored.Stock)
	assert.Equal(t, int64(10), stored.TotalSold)
}
