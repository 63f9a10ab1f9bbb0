package pgdb

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const messageColumns = `id, user_id, title, content, is_read, from_admin, created_at`

// MessageRepo реализует ленту сообщений поверх PostgreSQL.
type MessageRepo struct {
	pool     *pgxpool.Pool
	conv     converter.MessageConverter
	listener *Listener
}

func NewMessageRepo(pool *pgxpool.Pool, conv converter.MessageConverter, listener *Listener) *MessageRepo {
	return &MessageRepo{
		pool:     pool,
		conv:     conv,
		listener: listener,
	}
}

func (m *MessageRepo) Create(ctx context.Context, message *domain.Message) error {
	model := m.conv.ToModel(message)
	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tr.FromCtx(ctx, m.pool).Exec(ctx, query,
		model.ID, model.UserID, model.Title, model.Content, model.IsRead, model.FromAdmin, model.CreatedAt,
	)
	if err != nil {
		return e.Unavailable(whereami.WhereAmI(), err)
	}

	return nil
}

func (m *MessageRepo) Get(ctx context.Context, id string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	var model converter.MessageModel
	err := tr.FromCtx(ctx, m.pool).QueryRow(ctx, query, id).Scan(
		&model.ID, &model.UserID, &model.Title, &model.Content, &model.IsRead, &model.FromAdmin, &model.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(whereami.WhereAmI(), "message", id, err)
	}

	return m.conv.ToEntity(&model), nil
}

func (m *MessageRepo) List(ctx context.Context) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages`

	rows, err := tr.FromCtx(ctx, m.pool).Query(ctx, query)
	if err != nil {
		return nil, e.Unavailable(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Message, 0)
	for rows.Next() {
		var model converter.MessageModel
		if err := rows.Scan(
			&model.ID, &model.UserID, &model.Title, &model.Content, &model.IsRead, &model.FromAdmin, &model.CreatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *m.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Unavailable(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (m *MessageRepo) MarkRead(ctx context.Context, id string) error {
	tag, err := tr.FromCtx(ctx, m.pool).Exec(ctx, `UPDATE messages SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return e.Unavailable(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap("message "+id, e.ErrNotFound)
	}

	return nil
}

func (m *MessageRepo) Delete(ctx context.Context, id string) error {
	tag, err := tr.FromCtx(ctx, m.pool).Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return e.Unavailable(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap("message "+id, e.ErrNotFound)
	}

	return nil
}

func (m *MessageRepo) Subscribe(ctx context.Context, fn func([]domain.Message)) (func(), error) {
	return m.listener.Subscribe(TableMessages, func() error {
		messages, err := m.List(ctx)
		if err != nil {
			return err
		}

		fn(messages)
		return nil
	}), nil
}
