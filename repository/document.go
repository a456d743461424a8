package repository

import "context"

// DocumentStore persists opaque serialized collections under fixed keys.
// Load returns domain.ErrDocumentNotFound when nothing was saved under key.
type DocumentStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Ping(ctx context.Context) error
}
