// Package user implements the user identity repository using PostgreSQL.
package user

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/heartmarshall/fqclock-backend/internal/adapter/postgres"
	"github.com/heartmarshall/fqclock-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides user persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new user repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type userRow struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{ID: r.ID, Username: r.Username, CreatedAt: r.CreatedAt}
}

// Upsert returns the user named username, creating it on first sight.
// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
func (r *Repo) Upsert(ctx context.Context, username string) (*domain.User, error) {
	query, args, err := psql.Insert("users").
		Columns("username").
		Values(username).
		Suffix("ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username RETURNING id::text AS id, username, created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	var row userRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, query, args...); err != nil {
		return nil, postgres.MapError(err, "user", username)
	}

	return row.toDomain(), nil
}
