package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/google/uuid"
)

// NotificationDispatcher добавляет сообщения в ленту. Получатель видит их при следующем чтении.
type NotificationDispatcher struct {
	messageRepo MessageRepository
	now         func() time.Time
}

func NewNotificationDispatcher(messageRepo MessageRepository, now func() time.Time) *NotificationDispatcher {
	if now == nil {
		now = time.Now
	}

	return &NotificationDispatcher{messageRepo: messageRepo, now: now}
}

// Send сохраняет неизменяемое сообщение для userID или для всех (domain.BroadcastUserID).
func (n *NotificationDispatcher) Send(ctx context.Context, userID, title, content string, fromAdmin bool) (*domain.Message, error) {
	const op = "NotificationDispatcher.Send"

	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, e.Wrap(op, e.ErrMessageRequired)
	}
	if strings.EqualFold(userID, domain.BroadcastUserID) {
		userID = domain.BroadcastUserID
	}

	message := domain.NewMessage(uuid.NewString(), userID, title, content, fromAdmin, n.now().UTC())
	if err := n.messageRepo.Create(ctx, message); err != nil {
		return nil, e.Wrap(op, err)
	}

	return message, nil
}
