package history

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/fastygo/tisabrain/domain"
)

// Filter narrows List results. Zero-valued fields do not constrain the result.
type Filter struct {
	Query       string
	Kind        domain.Kind
	StarredOnly bool
	Pillar      string
	Profile     string
	Psychology  domain.Driver
	// Limit and Offset page through the filtered result. A zero Limit returns everything.
	Limit  int
	Offset int
}

type matcher struct {
	filter Filter
	caser  cases.Caser
	query  string
}

func newMatcher(f Filter) *matcher {
	m := &matcher{filter: f, caser: cases.Fold()}
	if f.Query != "" {
		m.query = m.caser.String(f.Query)
	}
	return m
}

func (m *matcher) match(r domain.Record) bool {
	f := m.filter
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.StarredOnly && !r.Starred {
		return false
	}
	if f.Pillar != "" && r.SourcePillar != f.Pillar {
		return false
	}
	if f.Profile != "" && r.SourceProfile != f.Profile {
		return false
	}
	if f.Psychology != "" && r.PsychologyDriver != f.Psychology {
		return false
	}
	if m.query == "" {
		return true
	}
	return strings.Contains(m.caser.String(r.Content), m.query) ||
		strings.Contains(m.caser.String(r.OriginalInput), m.query)
}

func paginate(records []domain.Record, limit, offset int) []domain.Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []domain.Record{}
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}
