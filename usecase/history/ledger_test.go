package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/tisabrain/domain"
)

type memStore struct {
	mu      sync.Mutex
	docs    map[string][]byte
	saves   int
	saveErr error
	loadErr error
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (s *memStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.docs[key] = append([]byte(nil), data...)
	return nil
}

func (s *memStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	data, ok := s.docs[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return data, nil
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	}
}

func draft(kind domain.Kind, content string) domain.Draft {
	return domain.Draft{Kind: kind, Content: content}
}

func TestLedger_AddAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	ledger := New(nil, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		rec, err := ledger.Add(ctx, draft(domain.KindEmail, fmt.Sprintf("text %d", i)))
		require.NoError(t, err)
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
		assert.False(t, rec.Starred)
		assert.Zero(t, rec.LikeCount)
		assert.False(t, rec.CreatedAt.IsZero())
	}

	all := ledger.List(Filter{})
	require.Len(t, all, 50)
	assert.Equal(t, "text 49", all[0].Content)
	assert.Equal(t, "text 0", all[49].Content)
}

func TestLedger_AddPersistsEnvelope(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	ledger := New(store, nil, WithClock(func() time.Time { return at }), WithIDGenerator(sequentialIDs()))

	_, err := ledger.Add(ctx, domain.Draft{
		Kind:             domain.KindSocialPost,
		Content:          "Open day on Saturday",
		SourcePillar:     "category-creation",
		PsychologyDriver: domain.DriverStatus,
		OriginalInput:    "open day",
	})
	require.NoError(t, err)

	var doc struct {
		Version int             `json:"version"`
		Items   []domain.Record `json:"items"`
	}
	require.NoError(t, json.Unmarshal(store.docs[DefaultKey], &doc))
	assert.Equal(t, 1, doc.Version)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "rec-1", doc.Items[0].ID)
	assert.Equal(t, at, doc.Items[0].CreatedAt)
	assert.Equal(t, "open day", doc.Items[0].OriginalInput)
}

func TestLedger_ToggleStarTwiceRestores(t *testing.T) {
	ctx := context.Background()
	ledger := New(nil, nil)
	rec, _ := ledger.Add(ctx, draft(domain.KindEmail, "hello"))

	starred, found, err := ledger.ToggleStar(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, starred.Starred)

	unstarred, found, err := ledger.ToggleStar(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, unstarred.Starred)
}

func TestLedger_LikesNeverNegative(t *testing.T) {
	tests := []struct {
		name string
		ops  string
		want int
	}{
		{name: "only likes", ops: "+++", want: 3},
		{name: "remove on zero", ops: "--", want: 0},
		{name: "mixed", ops: "++-+--", want: 0},
		{name: "floor then climb", ops: "---++", want: 2},
		{name: "net positive", ops: "+++-", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ledger := New(nil, nil)
			rec, _ := ledger.Add(ctx, draft(domain.KindEmail, "hello"))

			var got domain.Record
			for _, op := range tt.ops {
				var err error
				if op == '+' {
					got, _, err = ledger.AddLike(ctx, rec.ID)
				} else {
					got, _, err = ledger.RemoveLike(ctx, rec.ID)
				}
				require.NoError(t, err)
				assert.GreaterOrEqual(t, got.LikeCount, 0)
			}
			assert.Equal(t, tt.want, got.LikeCount)
		})
	}
}

func TestLedger_DeleteIsFinal(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ledger := New(store, nil)
	keep, _ := ledger.Add(ctx, draft(domain.KindEmail, "keep"))
	gone, _ := ledger.Add(ctx, draft(domain.KindEmail, "gone"))

	deleted, err := ledger.Delete(ctx, gone.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	saves := store.saveCount()

	_, found, err := ledger.ToggleStar(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, found)
	_, found, _ = ledger.AddLike(ctx, gone.ID)
	assert.False(t, found)
	deleted, _ = ledger.Delete(ctx, gone.ID)
	assert.False(t, deleted)
	assert.Equal(t, saves, store.saveCount(), "no-op mutations must not write")

	all := ledger.List(Filter{})
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
	_, ok := ledger.Get(gone.ID)
	assert.False(t, ok)
}

func TestLedger_FilterByKindKeepsOrder(t *testing.T) {
	ctx := context.Background()
	ledger := New(nil, nil)
	kinds := []domain.Kind{
		domain.KindEmail, domain.KindSocialPost, domain.KindEmail,
		domain.KindTourScript, domain.KindEmail, domain.KindSocialPost,
	}
	for i, k := range kinds {
		_, _ = ledger.Add(ctx, draft(k, fmt.Sprintf("item %d", i)))
	}

	all := ledger.List(Filter{})
	var want []string
	for _, r := range all {
		if r.Kind == domain.KindEmail {
			want = append(want, r.ID)
		}
	}

	var got []string
	for _, r := range ledger.List(Filter{Kind: domain.KindEmail}) {
		got = append(got, r.ID)
	}
	assert.Equal(t, want, got)
}

func TestLedger_StarredFilter(t *testing.T) {
	ctx := context.Background()
	ledger := New(nil, nil)
	_, _ = ledger.Add(ctx, draft(domain.KindEmail, "first"))
	rec, _ := ledger.Add(ctx, draft(domain.KindEmail, "second"))

	_, _, _ = ledger.ToggleStar(ctx, rec.ID)
	starred := ledger.List(Filter{StarredOnly: true})
	require.Len(t, starred, 1)
	assert.Equal(t, rec.ID, starred[0].ID)

	_, _, _ = ledger.ToggleStar(ctx, rec.ID)
	assert.Empty(t, ledger.List(Filter{StarredOnly: true}))
}

func TestLedger_ListFilters(t *testing.T) {
	ctx := context.Background()
	ledger := New(nil, nil, WithIDGenerator(sequentialIDs()))
	_, _ = ledger.Add(ctx, domain.Draft{Kind: domain.KindSocialPost, Content: "Visit our campus on Hauptstraße", SourcePillar: "local", PsychologyDriver: domain.DriverBelonging})
	_, _ = ledger.Add(ctx, domain.Draft{Kind: domain.KindEmail, Content: "Admissions update", OriginalInput: "STRASSE fest", SourceProfile: "expat"})
	_, _ = ledger.Add(ctx, domain.Draft{Kind: domain.KindEmail, Content: "Scholarship news", SourcePillar: "local", PsychologyDriver: domain.DriverStatus})

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all", filter: Filter{}, want: []string{"rec-3", "rec-2", "rec-1"}},
		{name: "folded query over content and input", filter: Filter{Query: "strasse"}, want: []string{"rec-2", "rec-1"}},
		{name: "query case", filter: Filter{Query: "ADMISSIONS"}, want: []string{"rec-2"}},
		{name: "query keeps leading space", filter: Filter{Query: " update"}, want: []string{"rec-2"}},
		{name: "query keeps trailing space", filter: Filter{Query: "news "}, want: []string{}},
		{name: "pillar", filter: Filter{Pillar: "local"}, want: []string{"rec-3", "rec-1"}},
		{name: "profile", filter: Filter{Profile: "expat"}, want: []string{"rec-2"}},
		{name: "psychology", filter: Filter{Psychology: domain.DriverStatus}, want: []string{"rec-3"}},
		{name: "anded", filter: Filter{Pillar: "local", Kind: domain.KindEmail}, want: []string{"rec-3"}},
		{name: "no match", filter: Filter{Query: "zebra"}, want: []string{}},
		{name: "limit", filter: Filter{Limit: 2}, want: []string{"rec-3", "rec-2"}},
		{name: "offset", filter: Filter{Offset: 1, Limit: 1}, want: []string{"rec-2"}},
		{name: "offset past end", filter: Filter{Offset: 10}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, r := range ledger.List(tt.filter) {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLedger_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	ledger := New(nil, nil)
	rec, _ := ledger.Add(ctx, domain.Draft{Kind: domain.KindEmail, Content: "x", Tags: []string{"a"}})

	rec.Tags[0] = "mutated"
	listed := ledger.List(Filter{})
	listed[0].Starred = true
	listed[0].Tags[0] = "mutated"

	got, ok := ledger.Get(rec.ID)
	require.True(t, ok)
	assert.False(t, got.Starred)
	assert.Equal(t, []string{"a"}, got.Tags)
}

func TestLedger_SaveFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	ledger := New(store, zap.New(core))

	rec, err := ledger.Add(ctx, draft(domain.KindEmail, "kept in memory"))
	require.Error(t, err)
	assert.True(t, domain.IsWarning(err))
	assert.NotEmpty(t, rec.ID)

	_, found, err := ledger.ToggleStar(ctx, rec.ID)
	assert.True(t, found)
	assert.True(t, domain.IsWarning(err))

	all := ledger.List(Filter{})
	require.Len(t, all, 1)
	assert.True(t, all[0].Starred)
	assert.Equal(t, 2, logs.FilterMessage("history not persisted").Len())
}

func TestLedger_LoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	first := New(store, nil)
	a, _ := first.Add(ctx, draft(domain.KindEmail, "a"))
	b, _ := first.Add(ctx, draft(domain.KindTourScript, "b"))
	_, _, _ = first.ToggleStar(ctx, a.ID)
	_, _, _ = first.AddLike(ctx, b.ID)

	second := New(store, nil)
	require.NoError(t, second.Load(ctx))
	assert.Equal(t, first.Snapshot(), second.Snapshot())
}

func TestLedger_LoadMissingDocument(t *testing.T) {
	ledger := New(newMemStore(), nil)
	require.NoError(t, ledger.Load(context.Background()))
	assert.Zero(t, ledger.Len())
}

func TestLedger_LoadLegacyDocument(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.docs[DefaultKey] = []byte(`{
		"state": {"items": [
			{"id": "a", "createdAt": "2025-11-02T10:00:00.000Z", "type": "instagram", "content": "Post", "pillar": "category-creation", "psychology": "status", "input": "topic", "starred": true, "likes": 3, "tags": ["x"]},
			{"id": "b", "createdAt": "garbage", "type": "scenario", "content": "Roleplay", "likes": -4, "psychology": "greed"},
			{"id": "a", "type": "email", "content": "duplicate id"},
			{"type": "email", "content": "no id"},
			{"id": "c", "type": "fax", "content": "unknown kind"},
			{"id": "d", "type": "email", "content": "   "},
			"not an object"
		]},
		"version": 0
	}`)
	loadedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	core, logs := observer.New(zapcore.WarnLevel)
	ledger := New(store, zap.New(core), WithClock(func() time.Time { return loadedAt }), WithIDGenerator(func() string { return "generated" }))

	require.NoError(t, ledger.Load(ctx))
	records := ledger.Snapshot()
	require.Len(t, records, 3)

	assert.Equal(t, domain.Record{
		ID:               "a",
		CreatedAt:        time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC),
		Kind:             domain.KindSocialPost,
		Content:          "Post",
		SourcePillar:     "category-creation",
		PsychologyDriver: domain.DriverStatus,
		OriginalInput:    "topic",
		Starred:          true,
		LikeCount:        3,
		Tags:             []string{"x"},
	}, records[0])

	assert.Equal(t, domain.KindRoleplayScenario, records[1].Kind)
	assert.Equal(t, loadedAt, records[1].CreatedAt)
	assert.Zero(t, records[1].LikeCount)
	assert.Empty(t, records[1].PsychologyDriver)

	assert.Equal(t, "generated", records[2].ID)
	assert.Equal(t, 1, logs.FilterMessage("skipped malformed history records").Len())
}

func TestLedger_LoadCorruptDocument(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.docs[DefaultKey] = []byte("{not json")
	ledger := New(store, nil)

	err := ledger.Load(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsWarning(err))
	assert.Zero(t, ledger.Len())
	assert.Equal(t, []byte("{not json"), store.docs[DefaultKey+".corrupt"])

	_, err = ledger.Add(ctx, draft(domain.KindEmail, "fresh start"))
	require.NoError(t, err)
	require.NoError(t, New(store, nil).Load(ctx))
}

func TestLedger_LoadFailureStartsEmpty(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("connection refused")
	ledger := New(store, nil)

	err := ledger.Load(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsWarning(err))
	assert.Zero(t, ledger.Len())
}

func TestLedger_LoadFailureKeepsStoredDocument(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seed := New(store, nil, WithIDGenerator(sequentialIDs()))
	for i := 0; i < 5; i++ {
		_, err := seed.Add(ctx, draft(domain.KindEmail, fmt.Sprintf("stored %d", i)))
		require.NoError(t, err)
	}
	stored := append([]byte(nil), store.docs[DefaultKey]...)
	saves := store.saveCount()

	core, logs := observer.New(zapcore.WarnLevel)
	ledger := New(store, zap.New(core), WithIDGenerator(func() string { return "fresh" }))
	store.loadErr = errors.New("connection refused")
	require.Error(t, ledger.Load(ctx))

	rec, err := ledger.Add(ctx, draft(domain.KindTourScript, "written while the store is down"))
	require.Error(t, err)
	assert.True(t, domain.IsWarning(err))
	assert.Equal(t, 1, ledger.Len())
	assert.Equal(t, stored, store.docs[DefaultKey])
	assert.Equal(t, saves, store.saveCount())
	assert.Equal(t, 1, logs.FilterMessage("history not persisted, stored document not loaded yet").Len())

	store.loadErr = nil

	_, found, err := ledger.AddLike(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 6, ledger.Len())

	reloaded := New(store, nil)
	require.NoError(t, reloaded.Load(ctx))
	records := reloaded.Snapshot()
	require.Len(t, records, 6)
	assert.Equal(t, "fresh", records[0].ID)
	assert.Equal(t, 1, records[0].LikeCount)
	assert.Equal(t, "rec-5", records[1].ID)
	assert.Equal(t, "rec-1", records[5].ID)
}

func TestLedger_ReconcileFindsStoredRecords(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seed := New(store, nil)
	stored, _ := seed.Add(ctx, draft(domain.KindEmail, "from an earlier session"))

	ledger := New(store, nil)
	store.loadErr = errors.New("timeout")
	require.Error(t, ledger.Load(ctx))
	store.loadErr = nil

	got, found, err := ledger.ToggleStar(ctx, stored.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Starred)
	assert.Equal(t, 1, ledger.Len())
}

func TestLedger_RoundTripKeepsWhitespace(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	at := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	ledger := New(store, nil, WithClock(func() time.Time { return at }))
	rec, err := ledger.Add(ctx, domain.Draft{
		Kind:          domain.KindEmail,
		Content:       "\tHello families\n",
		SourcePillar:  " local ",
		SourceProfile: "expat ",
		OriginalInput: "  Dear parents,\n",
	})
	require.NoError(t, err)

	reloaded := New(store, nil)
	require.NoError(t, reloaded.Load(ctx))
	got, ok := reloaded.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, "\tHello families\n", got.Content)
	assert.Equal(t, " local ", got.SourcePillar)
	assert.Equal(t, "expat ", got.SourceProfile)
	assert.Equal(t, "  Dear parents,\n", got.OriginalInput)
	assert.Equal(t, at, got.CreatedAt)
}

func TestDecodeRecords_LegacyFieldsKeepWhitespace(t *testing.T) {
	data := []byte(`[{"id":"a","type":"email","content":"hi","createdAt":" 2026-01-02T03:04:05Z ","input":"  Dear parents,\n","pillar":" local "}]`)
	res, err := decodeRecords(data, time.Now().UTC(), func() string { return "gen" })
	require.NoError(t, err)
	require.Len(t, res.records, 1)
	got := res.records[0]
	assert.Equal(t, "  Dear parents,\n", got.OriginalInput)
	assert.Equal(t, " local ", got.SourcePillar)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), got.CreatedAt)
}

func TestLedger_PageCountsAllMatches(t *testing.T) {
	ctx := context.Background()
	ledger := New(nil, nil, WithIDGenerator(sequentialIDs()))
	for i := 0; i < 5; i++ {
		_, _ = ledger.Add(ctx, draft(domain.KindEmail, "mail"))
	}
	_, _ = ledger.Add(ctx, draft(domain.KindTourScript, "tour"))

	page, total := ledger.Page(Filter{Kind: domain.KindEmail, Limit: 2, Offset: 1})
	require.Len(t, page, 2)
	assert.Equal(t, "rec-4", page[0].ID)
	assert.Equal(t, 5, total)
}

func TestLedger_ConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ledger := New(store, nil)
	rec, _ := ledger.Add(ctx, draft(domain.KindEmail, "popular"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = ledger.AddLike(ctx, rec.ID)
			_ = ledger.List(Filter{Query: "pop"})
		}()
	}
	wg.Wait()

	got, _ := ledger.Get(rec.ID)
	assert.Equal(t, 20, got.LikeCount)

	reloaded := New(store, nil)
	require.NoError(t, reloaded.Load(ctx))
	again, _ := reloaded.Get(rec.ID)
	assert.Equal(t, 20, again.LikeCount)
}
