package memory

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
)

type OutboxRepo struct {
	s *Store
}

func (r *OutboxRepo) Create(_ context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.outboxID++
	stored := *event
	stored.ID = r.s.outboxID
	stored.Status = usecase.Pending
	r.s.outbox = append(r.s.outbox, stored)

	return &stored, nil
}

func (r *OutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var res []*usecase.OutboxEvent
	for i := range r.s.outbox {
		if len(res) == limit {
			break
		}
		if r.s.outbox[i].Status != usecase.Pending {
			continue
		}
		r.s.outbox[i].Status = usecase.Processing
		ev := r.s.outbox[i]
		res = append(res, &ev)
	}

	return res, nil
}

func (r *OutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.outbox {
		if r.s.outbox[i].ID == id && r.s.outbox[i].Status == usecase.Processing {
			now := time.Now().UTC()
			r.s.outbox[i].Status = usecase.Processed
			r.s.outbox[i].ProcessedAt = &now
		}
	}

	return nil
}

// Events возвращает копию всех событий outbox.
func (r *OutboxRepo) Events() []usecase.OutboxEvent {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]usecase.OutboxEvent(nil), r.s.outbox...)
}
