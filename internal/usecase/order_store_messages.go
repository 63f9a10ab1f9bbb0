package usecase

import (
	"context"
	"slices"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

// SendMessage отправляет сообщение от администратора пользователю или всем (ALL).
func (s *OrderStore) SendMessage(ctx context.Context, target, title, content string) (*domain.Message, error) {
	return s.dispatcher.Send(ctx, target, title, content, true)
}

// MessagesForUser возвращает личные и широковещательные сообщения пользователя и число непрочитанных.
// Широковещательные сообщения в счётчике не участвуют.
func (s *OrderStore) MessagesForUser(ctx context.Context, userID string) (*UserMessagesRes, error) {
	const op = "OrderStore.MessagesForUser"

	messages, err := s.messageRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	sortMessages(messages)

	res := &UserMessagesRes{Messages: make([]domain.Message, 0)}
	for _, m := range messages {
		if !m.VisibleTo(userID) {
			continue
		}
		res.Messages = append(res.Messages, m)
		if m.CountsAsUnread() {
			res.Unread++
		}
	}

	return res, nil
}

// SubscribeMessages подписывает fn на полную ленту сообщений (новые первыми).
func (s *OrderStore) SubscribeMessages(ctx context.Context, fn func([]domain.Message)) (func(), error) {
	const op = "OrderStore.SubscribeMessages"

	unsubscribe, err := s.messageRepo.Subscribe(ctx, func(messages []domain.Message) {
		sortMessages(messages)
		fn(messages)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return unsubscribe, nil
}

// MarkMessageRead отмечает личное сообщение прочитанным. Для широковещательных ничего не делает.
func (s *OrderStore) MarkMessageRead(ctx context.Context, messageID string) error {
	const op = "OrderStore.MarkMessageRead"

	message, err := s.messageRepo.Get(ctx, messageID)
	if err != nil {
		return e.Wrap(op, err)
	}

	if message.IsBroadcast() || message.IsRead {
		return nil
	}

	if err := s.messageRepo.MarkRead(ctx, messageID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// DeleteMessage удаляет сообщение (действие администратора).
func (s *OrderStore) DeleteMessage(ctx context.Context, messageID string) error {
	const op = "OrderStore.DeleteMessage"

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func sortMessages(messages []domain.Message) {
	slices.SortStableFunc(messages, func(a, b domain.Message) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}
