package tr

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier — общий набор методов pgx.Tx и *pgxpool.Pool, который используют репозитории.
type Querier = trmpgx.Tr

// FromCtx возвращает активную транзакцию из контекста (открытую менеджером транзакций),
// либо сам пул, если запрос выполняется вне транзакции.
func FromCtx(ctx context.Context, pool *pgxpool.Pool) Querier {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, pool)
}
