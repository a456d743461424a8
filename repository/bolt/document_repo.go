package bolt

import (
	"context"

	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/repository"
)

type documentRepository struct {
	db     *bbolt.DB
	bucket []byte
}

// NewDocumentRepository returns a DocumentStore kept in a local BoltDB bucket.
func NewDocumentRepository(db *bbolt.DB, bucket string) (repository.DocumentStore, error) {
	if db == nil {
		return nil, bbolt.ErrDatabaseNotOpen
	}
	if bucket == "" {
		bucket = "documents"
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		return nil, err
	}
	return &documentRepository{db: db, bucket: []byte(bucket)}, nil
}

func (r *documentRepository) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(r.bucket).Put([]byte(key), data)
	})
}

func (r *documentRepository) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(r.bucket).Get([]byte(key))
		if v == nil {
			return domain.ErrDocumentNotFound
		}
		// v is only valid inside the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (r *documentRepository) Ping(ctx context.Context) error {
	return r.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(r.bucket) == nil {
			return bbolt.ErrBucketNotFound
		}
		return nil
	})
}
