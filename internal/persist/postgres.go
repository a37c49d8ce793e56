package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresTimeout = 5 * time.Second

const createDocumentsTable = `CREATE TABLE IF NOT EXISTS documents (
	key        TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertDocument = `INSERT INTO documents (key, content, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`

const selectDocument = `SELECT content FROM documents WHERE key = $1`

// Postgres keeps the snapshot as a row of the documents table.
type Postgres struct {
	pool *pgxpool.Pool
	key  string
}

// OpenPostgres connects to databaseURL and creates the table if needed.
func OpenPostgres(ctx context.Context, databaseURL, key string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, postgresTimeout)
	defer cancel()
	if _, err := pool.Exec(ctx, createDocumentsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	return &Postgres{pool: pool, key: key}, nil
}

func (p *Postgres) Load() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()

	var content string
	err := p.pool.QueryRow(ctx, selectDocument, p.key).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading snapshot %q: %w", p.key, err)
	}
	return content, nil
}

func (p *Postgres) Save(content string) error {
	ctx, cancel := context.WithTimeout(context.Background(), postgresTimeout)
	defer cancel()
	if _, err := p.pool.Exec(ctx, upsertDocument, p.key, content); err != nil {
		return fmt.Errorf("saving snapshot %q: %w", p.key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
