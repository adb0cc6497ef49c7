package repository

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pashinov/nexus/internal/domain"
)

var _ UserRepository = (*PostgresUserRepo)(nil)

// PostgresUserRepo implements UserRepository over a pgx pool.
type PostgresUserRepo struct {
	db   *pgxpool.Pool
	node *snowflake.Node
}

func NewPostgresUserRepo(pool *pgxpool.Pool, node *snowflake.Node) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool, node: node}
}

const upsertUserSQL = `
INSERT INTO users (id, subject, email, name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (subject) DO UPDATE
    SET email      = EXCLUDED.email,
        name       = EXCLUDED.name,
        updated_at = now()
RETURNING id, subject, email, name, created_at, updated_at`

// Upsert inserts or refreshes a user row keyed by the provider subject.
// The candidate id is only used on insert; on conflict the existing id wins.
func (r *PostgresUserRepo) Upsert(ctx context.Context, subject, email, name string) (domain.User, error) {
	var user domain.User
	row := r.db.QueryRow(ctx, upsertUserSQL, r.node.Generate().Int64(), subject, email, name)
	if err := row.Scan(&user.ID, &user.Subject, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}
