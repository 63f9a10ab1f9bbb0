package pgdb

import (
	"context"
	"errors"
	"time"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/feed"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// Таблицы, изменения которых публикуются триггерами в канал store_changes.
const (
	TableProducts = "products"
	TableOrders   = "orders"
	TableMessages = "messages"

	storeChangesChannel = "store_changes"
)

// Listener держит выделенное соединение с LISTEN store_changes и будит подписчиков нужной таблицы.
// Уведомления приходят только после фиксации транзакции, поэтому подписчики видят зафиксированное состояние.
type Listener struct {
	dsn    string
	logger logger.Logger
	feeds  map[string]*feed.Feed
}

func NewListener(dsn string, logger logger.Logger) *Listener {
	return &Listener{
		dsn:    dsn,
		logger: logger,
		feeds: map[string]*feed.Feed{
			TableProducts: feed.New(),
			TableOrders:   feed.New(),
			TableMessages: feed.New(),
		},
	}
}

// Subscribe вызывает load сразу и после каждого изменения table. Ошибки load логируются.
func (l *Listener) Subscribe(table string, load func() error) func() {
	f, ok := l.feeds[table]
	if !ok {
		l.logger.Warnf("subscribe to unknown table %q ignored", table)
		return func() {}
	}

	return f.Subscribe(func() {
		if err := load(); err != nil {
			l.logger.Warnf("Failed to load %s snapshot for subscriber: %v", table, err)
		}
	})
}

// Run слушает канал до отмены ctx, переподключаясь с экспоненциальной задержкой.
// После каждого переподключения подписчики получают свежий снимок: уведомления за время разрыва потеряны.
func (l *Listener) Run(ctx context.Context) {
	const (
		baseDelay   = 500 * time.Millisecond
		maxDelay    = 30 * time.Second
		waitTimeout = 30 * time.Second
	)

	attempt := 0
	for {
		conn, err := l.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			delay := jitter.ExponentialBackoff(baseDelay, maxDelay, attempt, jitter.DefaultJitter)
			l.logger.Warnf("Store listener connect failed, retry in %s: %v", delay, err)
			attempt++
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		attempt = 0
		l.publishAll()

		for {
			waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
			notif, err := conn.WaitForNotification(waitCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					conn.Close(context.Background())
					l.logger.Infof("Store listener stopped by context cancellation")
					return
				}
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}

				l.logger.Warnf("Store listener connection lost: %v. Reconnecting...", err)
				conn.Close(context.Background())
				break
			}

			if f, ok := l.feeds[notif.Payload]; ok {
				f.Publish()
			}
		}
	}
}

// Close останавливает все подписки.
func (l *Listener) Close() {
	for _, f := range l.feeds {
		f.Close()
	}
}

func (l *Listener) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return nil, e.Wrap("failed to connect for LISTEN", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+storeChangesChannel); err != nil {
		conn.Close(context.Background())
		return nil, e.Wrap("failed to LISTEN", err)
	}

	l.logger.Infof("Subscribed to '%s' channel", storeChangesChannel)
	return conn, nil
}

func (l *Listener) publishAll() {
	for _, f := range l.feeds {
		f.Publish()
	}
}
