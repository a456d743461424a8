package redis

import (
	"context"
	"errors"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/repository"
)

type documentRepository struct {
	client *redislib.Client
	prefix string
}

// NewDocumentRepository creates a Redis-backed DocumentStore. Documents never expire.
func NewDocumentRepository(client *redislib.Client, prefix string) repository.DocumentStore {
	if prefix == "" {
		prefix = "doc:"
	}
	return &documentRepository{
		client: client,
		prefix: prefix,
	}
}

func (r *documentRepository) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return domain.ErrInvalidPayload
	}
	if err := r.client.Set(ctx, r.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("save document %q: %w", key, err)
	}
	return nil
}

func (r *documentRepository) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("load document %q: %w", key, err)
	}
	return data, nil
}

func (r *documentRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *documentRepository) key(id string) string {
	return r.prefix + id
}
