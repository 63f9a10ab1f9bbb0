package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/jackc/pgx/v5"
)

type OutboxWorker struct {
	repo         usecase.OutboxRepository
	logger       logger.Logger
	producer     usecase.MessageProducer
	wake         chan struct{}
	wg           sync.WaitGroup
	dbConnStr    string
	batchSize    int
	pollInterval time.Duration
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	dbConnStr string,
	batchSize int,
	pollInterval time.Duration,
) *OutboxWorker {
	return &OutboxWorker{
		repo:         repo,
		logger:       logger,
		producer:     producer,
		wake:         make(chan struct{}, 1),
		dbConnStr:    dbConnStr,
		batchSize:    batchSize,
		pollInterval: pollInterval,
	}
}

// Start запускает обработку outbox до отмены ctx. Пустой dbConnStr отключает LISTEN:
// остаётся только периодический опрос.
func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	if w.dbConnStr == "" {
		return
	}

	// Запускаем слушатель уведомлений
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

// Wait ожидает остановки горутин worker'а после отмены контекста Start.
func (w *OutboxWorker) Wait() {
	w.wg.Wait()
}

// Notify будит worker вне очереди.
func (w *OutboxWorker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *OutboxWorker) run(ctx context.Context) {
	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	for {
		timer := time.NewTimer(jitter.Spread(w.pollInterval, 0.1))
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Infof("Worker stopped by context cancellation")
			return
		case <-w.wake:
			timer.Stop()
		case <-timer.C:
		}

		w.drain(ctx)
	}
}

// drain обрабатывает пачки, пока очередь не опустеет.
func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warnf("Batch processing failed: %v", err)
			}
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	attempt := 0
	for {
		conn, err := w.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			delay := jitter.ExponentialBackoff(2*time.Second, 30*time.Second, attempt, jitter.DefaultJitter)
			w.logger.Warnf("Outbox listener connect failed, retry in %s: %v", delay, err)
			attempt++
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		attempt = 0

		for {
			ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
			notif, err := conn.WaitForNotification(ctxWithTimeout)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					conn.Close(context.Background())
					return
				}
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
				conn.Close(context.Background())
				break
			}

			if notif != nil && notif.Channel == pgdb.OutboxPendingChannel {
				w.logger.Debugf("Received outbox notification, draining outbox events")
				w.Notify()
			}
		}
	}
}

func (w *OutboxWorker) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, w.dbConnStr)
	if err != nil {
		return nil, e.Wrap("failed to connect for LISTEN", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgdb.OutboxPendingChannel); err != nil {
		conn.Close(context.Background())
		return nil, e.Wrap("failed to LISTEN", err)
	}

	w.logger.Infof("Subscribed to '%s' channel", pgdb.OutboxPendingChannel)
	return conn, nil
}

// processBatch публикует одну пачку событий. Возвращает true, если пачка была полной и стоит продолжить.
// Событие, которое не удалось опубликовать, остаётся в processing и будет выдано повторно после таймаута.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.batchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			w.logger.Warnf("outbox event %s not published: %v", event.EventID, err)
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return len(events) == w.batchSize, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	value, err := EncodeEvent(event)
	if err != nil {
		return e.Wrap("Malformed outbox payload", err)
	}

	if err := w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.OrderID, value)); err != nil {
		if isRetryableError(err) {
			return e.Wrap("Temporary Kafka failure, will retry", err)
		}
		return e.Wrap("Permanent Kafka failure", err)
	}

	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
