package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/repository"
)

type documentRepository struct {
	db Querier
}

// NewDocumentRepository returns a Postgres-backed DocumentStore over the documents table.
func NewDocumentRepository(db Querier) repository.DocumentStore {
	return &documentRepository{db: db}
}

func (r *documentRepository) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO documents (key, body, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE
	SET body = EXCLUDED.body,
		updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, key, data); err != nil {
		return fmt.Errorf("save document %q: %w", key, err)
	}
	return nil
}

func (r *documentRepository) Load(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT body FROM documents WHERE key = $1`

	var body []byte
	if err := r.db.QueryRow(ctx, query, key).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("load document %q: %w", key, err)
	}
	return body, nil
}

func (r *documentRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
