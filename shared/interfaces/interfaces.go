package interfaces

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound стандартная ошибка, когда запись не найдена в репозитории.
var ErrNotFound = errors.New("not found")

// DBTX абстрагирует pgxpool.Pool и pgx.Tx, чтобы репозитории могли
// работать и с пулом, и внутри транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
