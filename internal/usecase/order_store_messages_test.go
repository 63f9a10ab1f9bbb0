package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagesForUser(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	direct, err := env.orders.SendMessage(ctx, "u1", "Hello", "Personal note")
	require.NoError(t, err)
	env.clock.Advance(time.Second)
	broadcast, err := env.orders.SendMessage(ctx, "all", "News", "Store update")
	require.NoError(t, err)
	env.clock.Advance(time.Second)
	_, err = env.orders.SendMessage(ctx, "u2", "Other", "Not for u1")
	require.NoError(t, err)

	assert.Equal(t, domain.BroadcastUserID, broadcast.UserID)
	assert.True(t, direct.FromAdmin)

	res, err := env.orders.MessagesForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, broadcast.ID, res.Messages[0].ID)
	assert.Equal(t, direct.ID, res.Messages[1].ID)
	assert.Equal(t, 1, res.Unread)

	require.NoError(t, env.orders.MarkMessageRead(ctx, direct.ID))
	require.NoError(t, env.orders.MarkMessageRead(ctx, direct.ID))
	require.NoError(t, env.orders.MarkMessageRead(ctx, broadcast.ID))

	res, err = env.orders.MessagesForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, res.Unread)

	stored, err := env.store.Messages().Get(ctx, broadcast.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsRead)
}

func TestSendMessageValidation(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	_, err := env.orders.SendMessage(ctx, "", "t", "c")
	require.ErrorIs(t, err, e.ErrMessageRequired)
	_, err = env.orders.SendMessage(ctx, "u1", " ", "c")
	require.ErrorIs(t, err, e.ErrMessageRequired)
	_, err = env.orders.SendMessage(ctx, "u1", "t", "")
	require.ErrorIs(t, err, e.ErrMessageRequired)
}

func TestDeleteMessage(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	msg, err := env.orders.SendMessage(ctx, "u1", "Hello", "Body")
	require.NoError(t, err)

	require.NoError(t, env.orders.DeleteMessage(ctx, msg.ID))
	require.ErrorIs(t, env.orders.DeleteMessage(ctx, msg.ID), e.ErrNotFound)
	require.ErrorIs(t, env.orders.MarkMessageRead(ctx, msg.ID), e.ErrNotFound)
	assert.Empty(t, env.messagesFor(t, "u1"))
}
