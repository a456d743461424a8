// Package history keeps the ledger of generated marketing texts.
package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/internal/metrics"
	"github.com/fastygo/tisabrain/repository"
	"github.com/fastygo/tisabrain/usecase"
)

// DefaultKey is the document key the ledger is persisted under.
const DefaultKey = "tisa-brain-history"

var errStoredNotLoaded = errors.New("stored document could not be read")

// Ledger is the authoritative, most-recent-first collection of records.
// Every save happens while the lock is held, so snapshots reach the store in mutation order.
// Until the stored document has been read, the ledger never saves over it.
type Ledger struct {
	mu      sync.Mutex
	records []domain.Record
	loaded  bool

	store   repository.DocumentStore
	key     string
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

type Option func(*Ledger)

func WithKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New returns an empty ledger. A nil store keeps the ledger in memory only.
func New(store repository.DocumentStore, logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		store:  store,
		key:    DefaultKey,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory collection with the persisted one. On failure the ledger
// starts empty and the returned error is a persistence warning. After a read failure
// the next mutation retries the read and merges before anything is saved.
func (l *Ledger) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = nil
	l.loaded = false
	defer func() { l.metrics.SetItems(metrics.CollectionHistory, len(l.records)) }()

	if l.store == nil {
		return nil
	}

	records, err := l.fetch(ctx)
	if l.loaded {
		l.records = records
		l.logger.Info("history loaded", zap.Int("records", len(l.records)))
	}
	return err
}

// fetch reads and decodes the stored document and sets l.loaded when its state is
// known. A corrupt document counts as known once a copy was kept. Callers hold l.mu.
func (l *Ledger) fetch(ctx context.Context) ([]domain.Record, error) {
	data, err := usecase.LoadSnapshot(ctx, l.store, l.key)
	if err != nil {
		l.metrics.PersistenceFailure(metrics.CollectionHistory, "load")
		l.logger.Warn("history load failed, stored document left untouched", zap.String("key", l.key), zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodePersistence, "history not loaded", err)
	}

	res, err := decodeRecords(data, l.now().UTC(), l.newID)
	if errors.Is(err, usecase.ErrMalformedSnapshot) {
		l.metrics.PersistenceFailure(metrics.CollectionHistory, "load")
		l.logger.Warn("history document is corrupt, starting empty",
			zap.String("key", l.key),
			zap.String("copy", usecase.CorruptKey(l.key)),
			zap.Error(err),
		)
		if saveErr := l.store.Save(ctx, usecase.CorruptKey(l.key), data); saveErr != nil {
			l.logger.Error("failed to keep corrupt history copy", zap.Error(saveErr))
			return nil, domain.WrapError(domain.ErrCodePersistence, "history document corrupt", err)
		}
		l.loaded = true
		return nil, domain.WrapError(domain.ErrCodePersistence, "history document corrupt", err)
	}

	if res.skipped > 0 {
		l.logger.Warn("skipped malformed history records", zap.Int("skipped", res.skipped))
	}
	l.loaded = true
	return res.records, nil
}

// reconcile retries the read after a failed Load. Stored records the session has not
// seen are appended after the in-memory ones, keeping most-recent-first order for
// records added this session. Callers hold l.mu.
func (l *Ledger) reconcile(ctx context.Context) {
	if l.loaded || l.store == nil {
		return
	}
	stored, _ := l.fetch(ctx)
	if !l.loaded {
		return
	}
	known := make(map[string]bool, len(l.records))
	for _, r := range l.records {
		known[r.ID] = true
	}
	for _, r := range stored {
		if !known[r.ID] {
			l.records = append(l.records, r)
		}
	}
	if len(stored) > 0 {
		l.logger.Info("history merged with stored document", zap.Int("stored", len(stored)), zap.Int("records", len(l.records)))
	}
}

// Add prepends a new record built from draft. The draft is expected to be validated;
// the only error returned is a persistence warning.
func (l *Ledger) Add(ctx context.Context, draft domain.Draft) (domain.Record, error) {
	rec := domain.Record{
		Kind:             draft.Kind,
		Content:          draft.Content,
		SourcePillar:     draft.SourcePillar,
		SourceProfile:    draft.SourceProfile,
		PsychologyDriver: draft.PsychologyDriver,
		OriginalInput:    draft.OriginalInput,
		Tags:             append([]string(nil), draft.Tags...),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.reconcile(ctx)

	rec.ID = l.newID()
	rec.CreatedAt = l.now().UTC()
	l.records = append([]domain.Record{rec}, l.records...)

	err := l.applied(ctx, "add")
	return rec.Clone(), err
}

// ToggleStar flips the starred flag. found is false when no record has id.
func (l *Ledger) ToggleStar(ctx context.Context, id string) (domain.Record, bool, error) {
	return l.update(ctx, "toggle_star", id, func(r *domain.Record) {
		r.Starred = !r.Starred
	})
}

func (l *Ledger) AddLike(ctx context.Context, id string) (domain.Record, bool, error) {
	return l.update(ctx, "add_like", id, func(r *domain.Record) {
		r.LikeCount++
	})
}

// RemoveLike decrements the like count, never below zero.
func (l *Ledger) RemoveLike(ctx context.Context, id string) (domain.Record, bool, error) {
	return l.update(ctx, "remove_like", id, func(r *domain.Record) {
		if r.LikeCount > 0 {
			r.LikeCount--
		}
	})
}

func (l *Ledger) Delete(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reconcile(ctx)

	i := l.indexOf(id)
	if i < 0 {
		l.logger.Debug("history delete ignored, record not found", zap.String("id", id))
		return false, nil
	}
	l.records = append(l.records[:i], l.records[i+1:]...)
	return true, l.applied(ctx, "delete")
}

// Get returns a copy of the record with id.
func (l *Ledger) Get(id string) (domain.Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return domain.Record{}, false
	}
	return l.records[i].Clone(), true
}

// List returns copies of the records matching f, in ledger order.
func (l *Ledger) List(f Filter) []domain.Record {
	page, _ := l.Page(f)
	return page
}

// Page is List plus the number of records matching f before pagination.
func (l *Ledger) Page(f Filter) ([]domain.Record, int) {
	m := newMatcher(f)

	l.mu.Lock()
	matched := make([]domain.Record, 0, len(l.records))
	for _, r := range l.records {
		if m.match(r) {
			matched = append(matched, r.Clone())
		}
	}
	l.mu.Unlock()

	return paginate(matched, f.Limit, f.Offset), len(matched)
}

// Snapshot returns a copy of the whole collection.
func (l *Ledger) Snapshot() []domain.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Record, len(l.records))
	for i, r := range l.records {
		out[i] = r.Clone()
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func (l *Ledger) update(ctx context.Context, op, id string, mutate func(*domain.Record)) (domain.Record, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reconcile(ctx)

	i := l.indexOf(id)
	if i < 0 {
		l.logger.Debug("history mutation ignored, record not found", zap.String("operation", op), zap.String("id", id))
		return domain.Record{}, false, nil
	}
	mutate(&l.records[i])
	rec := l.records[i].Clone()
	return rec, true, l.applied(ctx, op)
}

func (l *Ledger) indexOf(id string) int {
	for i := range l.records {
		if l.records[i].ID == id {
			return i
		}
	}
	return -1
}

// applied records a mutation and persists the collection. Callers hold l.mu.
func (l *Ledger) applied(ctx context.Context, op string) error {
	l.metrics.Mutation(metrics.CollectionHistory, op)
	l.metrics.SetItems(metrics.CollectionHistory, len(l.records))

	if l.store == nil {
		return nil
	}
	if !l.loaded {
		l.metrics.PersistenceFailure(metrics.CollectionHistory, "save")
		l.logger.Warn("history not persisted, stored document not loaded yet",
			zap.String("operation", op),
			zap.String("key", l.key),
		)
		return domain.WrapError(domain.ErrCodePersistence, "history not persisted", errStoredNotLoaded)
	}
	items := l.records
	if items == nil {
		items = []domain.Record{}
	}
	if err := usecase.SaveSnapshot(ctx, l.store, l.key, items); err != nil {
		l.metrics.PersistenceFailure(metrics.CollectionHistory, "save")
		l.logger.Warn("history not persisted",
			zap.String("operation", op),
			zap.String("key", l.key),
			zap.Error(err),
		)
		return domain.WrapError(domain.ErrCodePersistence, "history not persisted", err)
	}
	return nil
}
