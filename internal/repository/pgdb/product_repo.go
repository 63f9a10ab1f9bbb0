package pgdb

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = `
	id, name, description, image_url, original_price, discounted_price, discount_percent,
	stock, total_sold, is_sale_closed, is_coming_soon, category, wholesale, auto_message,
	created_at, updated_at`

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	pool     *pgxpool.Pool
	conv     converter.ProductConverter
	listener *Listener
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter, listener *Listener) *ProductRepo {
	return &ProductRepo{
		pool:     pool,
		conv:     conv,
		listener: listener,
	}
}

func (p *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	return p.getOne(ctx, query, id)
}

// GetForUpdate блокирует строку продукта до конца текущей транзакции.
func (p *ProductRepo) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	return p.getOne(ctx, query, id)
}

func (p *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`

	rows, err := tr.FromCtx(ctx, p.pool).Query(ctx, query)
	if err != nil {
		return nil, e.Unavailable(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		model, err := scanProduct(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		product, err := p.conv.ToEntity(model)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Unavailable(whereami.WhereAmI(), err)
	}

	return result, nil
}

// Upsert создаёт продукт или обновляет его карточку по id. created_at и счётчики stock/total_sold при обновлении не трогаются.
func (p *ProductRepo) Upsert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model, err := p.conv.ToModel(product)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (
			id, name, description, image_url, original_price, discounted_price, discount_percent,
			stock, total_sold, is_sale_closed, is_coming_soon, category, wholesale, auto_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			original_price = EXCLUDED.original_price,
			discounted_price = EXCLUDED.discounted_price,
			discount_percent = EXCLUDED.discount_percent,
			is_sale_closed = EXCLUDED.is_sale_closed,
			is_coming_soon = EXCLUDED.is_coming_soon,
			category = EXCLUDED.category,
			wholesale = EXCLUDED.wholesale,
			auto_message = EXCLUDED.auto_message,
			updated_at = NOW()
		RETURNING ` + productColumns

	row := tr.FromCtx(ctx, p.pool).QueryRow(ctx, query,
		model.ID, model.Name, model.Description, model.ImageURL,
		model.OriginalPrice, model.DiscountedPrice, model.DiscountPercent,
		model.Stock, model.TotalSold, model.IsSaleClosed, model.IsComingSoon,
		model.Category, model.Wholesale, model.AutoMessage,
	)

	saved, err := scanProduct(row)
	if err != nil {
		return nil, e.Unavailable(whereami.WhereAmI(), err)
	}

	res, err := p.conv.ToEntity(saved)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return res, nil
}

// UpdateCounters записывает новые значения stock/total_sold. Вызывается только StockLedger.
func (p *ProductRepo) UpdateCounters(ctx context.Context, id string, stock, totalSold int64) error {
	query := `
		UPDATE products
		SET stock = $2, total_sold = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tr.FromCtx(ctx, p.pool).Exec(ctx, query, id, stock, totalSold)
	if err != nil {
		return e.Unavailable(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap("product "+id, e.ErrNotFound)
	}

	return nil
}

func (p *ProductRepo) Delete(ctx context.Context, id string) error {
	tag, err := tr.FromCtx(ctx, p.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return e.Unavailable(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap("product "+id, e.ErrNotFound)
	}

	return nil
}

func (p *ProductRepo) Subscribe(ctx context.Context, fn func([]domain.Product)) (func(), error) {
	return p.listener.Subscribe(TableProducts, func() error {
		products, err := p.List(ctx)
		if err != nil {
			return err
		}

		fn(products)
		return nil
	}), nil
}

func (p *ProductRepo) getOne(ctx context.Context, query, id string) (*domain.Product, error) {
	model, err := scanProduct(tr.FromCtx(ctx, p.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapErr(whereami.WhereAmI(), "product", id, err)
	}

	product, err := p.conv.ToEntity(model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var m converter.ProductModel
	err := row.Scan(
		&m.ID, &m.Name, &m.Description, &m.ImageURL,
		&m.OriginalPrice, &m.DiscountedPrice, &m.DiscountPercent,
		&m.Stock, &m.TotalSold, &m.IsSaleClosed, &m.IsComingSoon,
		&m.Category, &m.Wholesale, &m.AutoMessage,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
