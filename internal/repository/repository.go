// Пакет repository — PostgreSQL-хранилище журнала изменений прав.
// Права пользователей живут во внешнем backend; здесь только история
// полных замен наборов. Запросы — SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound — запись журнала не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — запись с таким id уже есть.
	ErrConflict = errors.New("запись с таким id уже существует")
)

// DBTX — общее подмножество *pgxpool.Pool и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == pgerrcode.UniqueViolation
}
