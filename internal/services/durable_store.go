package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/internal/infrastructure/buffer"
	"github.com/fastygo/tisabrain/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// DurableStore writes through to a remote primary store and parks snapshots in the
// local pending buffer whenever the primary cannot take them.
type DurableStore struct {
	primary repository.DocumentStore
	buffer  *buffer.Store
	monitor ConnectionHealth
	logger  *zap.Logger
	now     func() time.Time

	// mu orders primary writes from Save against flushes of pending snapshots.
	mu sync.Mutex
}

func NewDurableStore(primary repository.DocumentStore, buf *buffer.Store, monitor ConnectionHealth, logger *zap.Logger) *DurableStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DurableStore{
		primary: primary,
		buffer:  buf,
		monitor: monitor,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *DurableStore) online() bool {
	return s.monitor == nil || s.monitor.IsOnline()
}

// Save succeeds when either the primary or the pending buffer took the snapshot.
func (s *DurableStore) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var primaryErr error
	if s.online() {
		if primaryErr = s.primary.Save(ctx, key, data); primaryErr == nil {
			if err := s.buffer.Discard(key); err != nil {
				s.logger.Warn("failed to discard superseded pending snapshot", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	} else {
		primaryErr = errors.New("primary store offline")
	}

	item := buffer.Item{
		Key:       key,
		Data:      append([]byte(nil), data...),
		Timestamp: s.now(),
	}
	if err := s.buffer.Put(item); err != nil {
		s.logger.Error("snapshot lost: primary and buffer both failed",
			zap.String("key", key),
			zap.NamedError("primary_error", primaryErr),
			zap.Error(err),
		)
		return fmt.Errorf("save %s: %w", key, errors.Join(primaryErr, err))
	}
	s.logger.Warn("snapshot buffered", zap.String("key", key), zap.NamedError("reason", primaryErr))
	return nil
}

// Load prefers a pending snapshot, which is always newer than the primary copy.
func (s *DurableStore) Load(ctx context.Context, key string) ([]byte, error) {
	item, ok, err := s.buffer.Get(key)
	if err != nil {
		s.logger.Warn("pending buffer read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return item.Data, nil
	}
	return s.primary.Load(ctx, key)
}

func (s *DurableStore) Ping(ctx context.Context) error {
	return s.primary.Ping(ctx)
}

// Pending returns the number of buffered snapshots.
func (s *DurableStore) Pending() int {
	size, err := s.buffer.Size()
	if err != nil {
		return 0
	}
	return size
}

// flush writes one pending snapshot to the primary and resolves it.
func (s *DurableStore) flush(ctx context.Context, item buffer.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.buffer.Get(item.Key)
	if err != nil {
		return err
	}
	if !ok || !current.Timestamp.Equal(item.Timestamp) {
		// Replaced or already written by Save.
		return nil
	}
	if err := s.primary.Save(ctx, item.Key, item.Data); err != nil {
		return err
	}
	return s.buffer.Resolve(item)
}

var _ repository.DocumentStore = (*DurableStore)(nil)
