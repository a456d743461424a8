// Package calendar keeps planned content items on calendar days.
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/internal/metrics"
	"github.com/fastygo/tisabrain/internal/reference"
	"github.com/fastygo/tisabrain/repository"
	"github.com/fastygo/tisabrain/usecase"
)

// DefaultKey is the document key the calendar is persisted under.
const DefaultKey = "tisa-brain-calendar"

var errStoredNotLoaded = errors.New("stored document could not be read")

// Filter narrows List results. From and To are inclusive.
type Filter struct {
	From    *civil.Date
	To      *civil.Date
	Pillar  string
	Status  domain.EventStatus
	Channel string
}

func (f Filter) match(e domain.CalendarEvent) bool {
	switch {
	case f.From != nil && e.Date.Before(*f.From):
		return false
	case f.To != nil && e.Date.After(*f.To):
		return false
	case f.Pillar != "" && e.Pillar != f.Pillar:
		return false
	case f.Status != "" && e.Status != f.Status:
		return false
	case f.Channel != "" && e.Channel != f.Channel:
		return false
	}
	return true
}

// Store holds events in insertion order. Until the stored document has been read,
// the store never saves over it.
type Store struct {
	mu     sync.Mutex
	events []domain.CalendarEvent
	loaded bool

	store   repository.DocumentStore
	catalog *reference.Catalog
	key     string
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New returns an empty store. A nil document store keeps events in memory only;
// a nil catalog means the embedded default.
func New(store repository.DocumentStore, catalog *reference.Catalog, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = reference.Default()
	}
	s := &Store{
		store:   store,
		catalog: catalog,
		key:     DefaultKey,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory events with the persisted ones. On failure the store
// starts empty and the returned error is a persistence warning. After a read failure
// the next mutation retries the read and merges before anything is saved.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
	s.loaded = false
	defer func() { s.metrics.SetItems(metrics.CollectionCalendar, len(s.events)) }()

	if s.store == nil {
		return nil
	}

	events, err := s.fetch(ctx)
	if s.loaded {
		s.events = events
		s.logger.Info("calendar loaded", zap.Int("events", len(s.events)))
	}
	return err
}

// fetch reads and decodes the stored document and sets s.loaded when its state is
// known. A corrupt document counts as known once a copy was kept. Callers hold s.mu.
func (s *Store) fetch(ctx context.Context) ([]domain.CalendarEvent, error) {
	data, err := usecase.LoadSnapshot(ctx, s.store, s.key)
	if err != nil {
		s.metrics.PersistenceFailure(metrics.CollectionCalendar, "load")
		s.logger.Warn("calendar load failed, stored document left untouched", zap.String("key", s.key), zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodePersistence, "calendar not loaded", err)
	}

	raws, err := usecase.DecodeSnapshot(data, "events")
	if errors.Is(err, usecase.ErrMalformedSnapshot) {
		s.metrics.PersistenceFailure(metrics.CollectionCalendar, "load")
		s.logger.Warn("calendar document is corrupt, starting empty",
			zap.String("key", s.key),
			zap.String("copy", usecase.CorruptKey(s.key)),
			zap.Error(err),
		)
		if saveErr := s.store.Save(ctx, usecase.CorruptKey(s.key), data); saveErr != nil {
			s.logger.Error("failed to keep corrupt calendar copy", zap.Error(saveErr))
			return nil, domain.WrapError(domain.ErrCodePersistence, "calendar document corrupt", err)
		}
		s.loaded = true
		return nil, domain.WrapError(domain.ErrCodePersistence, "calendar document corrupt", err)
	}

	loadedAt := s.now().UTC()
	seen := make(map[string]bool, len(raws))
	var (
		events  []domain.CalendarEvent
		skipped int
	)
	for _, raw := range raws {
		var ev domain.CalendarEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			skipped++
			continue
		}
		draft := draftOf(ev)
		draft.Normalize()
		if draft.Validate() != nil {
			skipped++
			continue
		}
		ev.Apply(draft)
		if ev.ID == "" {
			ev.ID = s.newID()
		}
		if seen[ev.ID] {
			skipped++
			continue
		}
		seen[ev.ID] = true
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = loadedAt
		}
		if ev.UpdatedAt.IsZero() {
			ev.UpdatedAt = ev.CreatedAt
		}
		events = append(events, ev)
	}
	if skipped > 0 {
		s.logger.Warn("skipped malformed calendar events", zap.Int("skipped", skipped))
	}
	s.loaded = true
	return events, nil
}

// reconcile retries the read after a failed Load. Stored events go first, then the
// events created this session. Callers hold s.mu.
func (s *Store) reconcile(ctx context.Context) {
	if s.loaded || s.store == nil {
		return
	}
	stored, _ := s.fetch(ctx)
	if !s.loaded {
		return
	}
	merged := make([]domain.CalendarEvent, 0, len(stored)+len(s.events))
	known := make(map[string]bool, len(s.events))
	for _, ev := range s.events {
		known[ev.ID] = true
	}
	for _, ev := range stored {
		if !known[ev.ID] {
			merged = append(merged, ev)
		}
	}
	s.events = append(merged, s.events...)
	if len(stored) > 0 {
		s.logger.Info("calendar merged with stored document", zap.Int("stored", len(stored)), zap.Int("events", len(s.events)))
	}
}

// Create validates draft and appends a new event. A non-nil error with a valid event is
// a persistence warning.
func (s *Store) Create(ctx context.Context, draft domain.EventDraft) (domain.CalendarEvent, error) {
	draft.Normalize()
	if err := s.validate(draft); err != nil {
		return domain.CalendarEvent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcile(ctx)

	at := s.now().UTC()
	ev := domain.CalendarEvent{ID: s.newID(), CreatedAt: at, UpdatedAt: at}
	ev.Apply(draft)
	s.events = append(s.events, ev)
	return ev, s.applied(ctx, "create")
}

// Update replaces every mutable field of the event with id.
func (s *Store) Update(ctx context.Context, id string, draft domain.EventDraft) (domain.CalendarEvent, bool, error) {
	draft.Normalize()
	if err := s.validate(draft); err != nil {
		return domain.CalendarEvent{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcile(ctx)

	i := s.indexOf(id)
	if i < 0 {
		s.logger.Debug("calendar update ignored, event not found", zap.String("id", id))
		return domain.CalendarEvent{}, false, nil
	}
	s.events[i].Apply(draft)
	s.events[i].UpdatedAt = s.now().UTC()
	return s.events[i], true, s.applied(ctx, "update")
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcile(ctx)

	i := s.indexOf(id)
	if i < 0 {
		s.logger.Debug("calendar delete ignored, event not found", zap.String("id", id))
		return false, nil
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	return true, s.applied(ctx, "delete")
}

func (s *Store) Get(id string) (domain.CalendarEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.CalendarEvent{}, false
	}
	return s.events[i], true
}

// List returns matching events ordered by date, then insertion order.
func (s *Store) List(f Filter) []domain.CalendarEvent {
	s.mu.Lock()
	out := make([]domain.CalendarEvent, 0, len(s.events))
	for _, ev := range s.events {
		if f.match(ev) {
			out = append(out, ev)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// EventsOn returns the events planned for date in insertion order.
func (s *Store) EventsOn(date civil.Date) []domain.CalendarEvent {
	return s.List(Filter{From: &date, To: &date})
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *Store) validate(d domain.EventDraft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, ok := s.catalog.Pillar(d.Pillar); !ok {
		return domain.Invalid("unknown pillar %q", d.Pillar)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

// applied records a mutation and persists the events. Callers hold s.mu.
func (s *Store) applied(ctx context.Context, op string) error {
	s.metrics.Mutation(metrics.CollectionCalendar, op)
	s.metrics.SetItems(metrics.CollectionCalendar, len(s.events))

	if s.store == nil {
		return nil
	}
	if !s.loaded {
		s.metrics.PersistenceFailure(metrics.CollectionCalendar, "save")
		s.logger.Warn("calendar not persisted, stored document not loaded yet",
			zap.String("operation", op),
			zap.String("key", s.key),
		)
		return domain.WrapError(domain.ErrCodePersistence, "calendar not persisted", errStoredNotLoaded)
	}
	items := s.events
	if items == nil {
		items = []domain.CalendarEvent{}
	}
	if err := usecase.SaveSnapshot(ctx, s.store, s.key, items); err != nil {
		s.metrics.PersistenceFailure(metrics.CollectionCalendar, "save")
		s.logger.Warn("calendar not persisted",
			zap.String("operation", op),
			zap.String("key", s.key),
			zap.Error(err),
		)
		return domain.WrapError(domain.ErrCodePersistence, "calendar not persisted", err)
	}
	return nil
}

func draftOf(ev domain.CalendarEvent) domain.EventDraft {
	return domain.EventDraft{
		Date:             ev.Date,
		Title:            ev.Title,
		Pillar:           ev.Pillar,
		Profile:          ev.Profile,
		PsychologyDriver: ev.PsychologyDriver,
		Channel:          ev.Channel,
		Notes:            ev.Notes,
		Status:           ev.Status,
	}
}
