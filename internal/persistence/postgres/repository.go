// Package postgres provides pgx-backed persistence for the petwatch backend.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Row ids of the two config records that matter to the engine.
const (
	defaultConfigID = 1
	activeConfigID  = 2
)

// Repository implements the domain repository interfaces on top of Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}
