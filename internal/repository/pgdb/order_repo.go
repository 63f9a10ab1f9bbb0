package pgdb

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const orderColumns = `
	id, user_id, username, product_id, product_snapshot, quantity, total_price::text,
	status, payment_proof, shipping_details, hidden_for_user, created_at`

// OrderRepo реализует репозиторий заказов поверх PostgreSQL.
type OrderRepo struct {
	pool     *pgxpool.Pool
	conv     converter.OrderConverter
	listener *Listener
}

func NewOrderRepo(pool *pgxpool.Pool, conv converter.OrderConverter, listener *Listener) *OrderRepo {
	return &OrderRepo{
		pool:     pool,
		conv:     conv,
		listener: listener,
	}
}

func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) error {
	model, err := o.conv.ToModel(order)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO orders (
			id, user_id, username, product_id, product_snapshot, quantity, total_price,
			status, payment_proof, shipping_details, hidden_for_user, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11, $12)
	`

	_, err = tr.FromCtx(ctx, o.pool).Exec(ctx, query,
		model.ID, model.UserID, model.Username, model.ProductID, model.ProductSnapshot,
		model.Quantity, model.TotalPrice, model.Status, model.PaymentProof,
		model.ShippingDetails, model.HiddenForUser, model.CreatedAt,
	)
	if err != nil {
		if postgresDuplicate(err) {
			return fmt.Errorf("%s: order with id %s already exists", whereami.WhereAmI(), order.ID)
		}

		return e.Unavailable(whereami.WhereAmI(), err)
	}

	return nil
}

func (o *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	model, err := scanOrder(tr.FromCtx(ctx, o.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapErr(whereami.WhereAmI(), "order", id, err)
	}

	order, err := o.conv.ToEntity(model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return order, nil
}

func (o *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`

	rows, err := tr.FromCtx(ctx, o.pool).Query(ctx, query)
	if err != nil {
		return nil, e.Unavailable(whereami.WhereAmI(), err)
	}

	return o.collect(rows)
}

// CompareAndSwapStatus меняет статус, только если текущий равен from. Возвращает false, если статус уже другой.
func (o *OrderRepo) CompareAndSwapStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	q := tr.FromCtx(ctx, o.pool)

	tag, err := q.Exec(ctx, `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return false, e.Unavailable(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, e.Unavailable(whereami.WhereAmI(), err)
	}
	if !exists {
		return false, e.Wrap("order "+id, e.ErrNotFound)
	}

	return false, nil
}

func (o *OrderRepo) SetPaymentProof(ctx context.Context, id string, key string) error {
	return o.exec(ctx, `UPDATE orders SET payment_proof = $2 WHERE id = $1`, id, key)
}

func (o *OrderRepo) SetHiddenForUser(ctx context.Context, id string) error {
	return o.exec(ctx, `UPDATE orders SET hidden_for_user = TRUE WHERE id = $1`, id)
}

func (o *OrderRepo) Delete(ctx context.Context, id string) error {
	return o.exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
}

// DeleteByUser удаляет все заказы пользователя и возвращает удалённые записи.
func (o *OrderRepo) DeleteByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	query := `DELETE FROM orders WHERE user_id = $1 RETURNING ` + orderColumns

	rows, err := tr.FromCtx(ctx, o.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, e.Unavailable(whereami.WhereAmI(), err)
	}

	return o.collect(rows)
}

func (o *OrderRepo) Subscribe(ctx context.Context, fn func([]domain.Order)) (func(), error) {
	return o.listener.Subscribe(TableOrders, func() error {
		orders, err := o.List(ctx)
		if err != nil {
			return err
		}

		fn(orders)
		return nil
	}), nil
}

func (o *OrderRepo) exec(ctx context.Context, query, id string, args ...any) error {
	tag, err := tr.FromCtx(ctx, o.pool).Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return e.Unavailable(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap("order "+id, e.ErrNotFound)
	}

	return nil
}

func (o *OrderRepo) collect(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()

	result := make([]domain.Order, 0)
	for rows.Next() {
		model, err := scanOrder(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		order, err := o.conv.ToEntity(model)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Unavailable(whereami.WhereAmI(), err)
	}

	return result, nil
}

func scanOrder(row pgx.Row) (*converter.OrderModel, error) {
	var m converter.OrderModel
	err := row.Scan(
		&m.ID, &m.UserID, &m.Username, &m.ProductID, &m.ProductSnapshot, &m.Quantity, &m.TotalPrice,
		&m.Status, &m.PaymentProof, &m.ShippingDetails, &m.HiddenForUser, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
