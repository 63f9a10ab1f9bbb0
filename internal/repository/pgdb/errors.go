package pgdb

import (
	"errors"
	"fmt"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// mapErr приводит pgx.ErrNoRows к e.ErrNotFound, остальные ошибки помечает как недоступность хранилища.
func mapErr(where, entity, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return e.Wrap(fmt.Sprintf("%s: %s %s", where, entity, id), e.ErrNotFound)
	}

	return e.Unavailable(where, err)
}
