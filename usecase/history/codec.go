package history

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/usecase"
)

// storedRecord reads both the current snake_case layout and the camelCase layout
// written by the browser-only version of the app.
type storedRecord struct {
	ID        string   `json:"id"`
	CreatedAt string   `json:"created_at"`
	Kind      string   `json:"kind"`
	Content   string   `json:"content"`
	Pillar    string   `json:"source_pillar"`
	Profile   string   `json:"source_profile"`
	Driver    string   `json:"psychology_driver"`
	Input     string   `json:"original_input"`
	Starred   bool     `json:"starred"`
	LikeCount *int     `json:"like_count"`
	Tags      []string `json:"tags"`

	LegacyCreatedAt string `json:"createdAt"`
	LegacyType      string `json:"type"`
	LegacyPillar    string `json:"pillar"`
	LegacyProfile   string `json:"profile"`
	LegacyDriver    string `json:"psychology"`
	LegacyInput     string `json:"input"`
	LegacyLikes     *int   `json:"likes"`
}

type decodeResult struct {
	records []domain.Record
	skipped int
}

// decodeRecords repairs what it can and drops records that cannot be trusted.
func decodeRecords(data []byte, loadedAt time.Time, newID func() string) (decodeResult, error) {
	raws, err := usecase.DecodeSnapshot(data, "items")
	if err != nil {
		return decodeResult{}, err
	}

	var res decodeResult
	seen := make(map[string]bool, len(raws))
	for _, raw := range raws {
		rec, ok := decodeRecord(raw, loadedAt)
		if !ok {
			res.skipped++
			continue
		}
		if rec.ID == "" {
			rec.ID = newID()
		}
		if seen[rec.ID] {
			res.skipped++
			continue
		}
		seen[rec.ID] = true
		res.records = append(res.records, rec)
	}
	return res, nil
}

func decodeRecord(raw json.RawMessage, loadedAt time.Time) (domain.Record, bool) {
	var s storedRecord
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Record{}, false
	}
	if strings.TrimSpace(s.Content) == "" {
		return domain.Record{}, false
	}
	kind, ok := domain.ParseKind(firstNonEmpty(s.Kind, s.LegacyType))
	if !ok {
		return domain.Record{}, false
	}

	rec := domain.Record{
		ID:            strings.TrimSpace(s.ID),
		CreatedAt:     parseTime(firstNonEmpty(s.CreatedAt, s.LegacyCreatedAt), loadedAt),
		Kind:          kind,
		Content:       s.Content,
		SourcePillar:  firstNonEmpty(s.Pillar, s.LegacyPillar),
		SourceProfile: firstNonEmpty(s.Profile, s.LegacyProfile),
		OriginalInput: firstNonEmpty(s.Input, s.LegacyInput),
		Starred:       s.Starred,
		Tags:          s.Tags,
	}
	if d, ok := domain.ParseDriver(firstNonEmpty(s.Driver, s.LegacyDriver)); ok {
		rec.PsychologyDriver = d
	}
	switch {
	case s.LikeCount != nil:
		rec.LikeCount = *s.LikeCount
	case s.LegacyLikes != nil:
		rec.LikeCount = *s.LegacyLikes
	}
	if rec.LikeCount < 0 {
		rec.LikeCount = 0
	}
	return rec, true
}

func parseTime(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return fallback
	}
	return t.UTC()
}

// firstNonEmpty returns the first value that is not blank, unchanged.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
