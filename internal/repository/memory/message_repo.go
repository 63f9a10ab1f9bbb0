package memory

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

type MessageRepo struct {
	s *Store
}

func (r *MessageRepo) Create(_ context.Context, message *domain.Message) error {
	r.s.mu.Lock()
	r.s.messages[message.ID] = *message
	r.s.mu.Unlock()

	r.s.messageFeed.Publish()
	return nil
}

func (r *MessageRepo) Get(_ context.Context, id string) (*domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return nil, e.Wrap("message "+id, e.ErrNotFound)
	}

	return &m, nil
}

func (r *MessageRepo) List(ctx context.Context) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res := make([]domain.Message, 0, len(r.s.messages))
	for _, m := range r.s.messages {
		res = append(res, m)
	}

	return res, nil
}

func (r *MessageRepo) MarkRead(_ context.Context, id string) error {
	r.s.mu.Lock()
	m, ok := r.s.messages[id]
	if !ok {
		r.s.mu.Unlock()
		return e.Wrap("message "+id, e.ErrNotFound)
	}
	m.IsRead = true
	r.s.messages[id] = m
	r.s.mu.Unlock()

	r.s.messageFeed.Publish()
	return nil
}

func (r *MessageRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	if _, ok := r.s.messages[id]; !ok {
		r.s.mu.Unlock()
		return e.Wrap("message "+id, e.ErrNotFound)
	}
	delete(r.s.messages, id)
	r.s.mu.Unlock()

	r.s.messageFeed.Publish()
	return nil
}

func (r *MessageRepo) Subscribe(ctx context.Context, fn func([]domain.Message)) (func(), error) {
	return r.s.subscribe(r.s.messageFeed, "messages", func() error {
		messages, err := r.List(ctx)
		if err != nil {
			return err
		}

		fn(messages)
		return nil
	}), nil
}
