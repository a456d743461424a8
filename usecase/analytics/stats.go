// Package analytics derives distributions and balance warnings from a ledger snapshot.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/internal/reference"
)

// Balance policy.
const (
	// WarningThreshold is the record count that must be exceeded before any warning is raised.
	WarningThreshold = 5
	// DominancePercent is the pillar share above which one pillar dominates.
	DominancePercent = 50
	// ImbalanceSpread is the max-min driver share spread that counts as imbalance.
	ImbalanceSpread = 40
	// RecentWindow bounds the recent activity count.
	RecentWindow = 7 * 24 * time.Hour
)

// Warning codes.
const (
	WarningMissingTopPillars   = "missing_top_pillars"
	WarningPillarDominance     = "pillar_dominance"
	WarningPsychologyImbalance = "psychology_imbalance"
)

// Stats are the raw counts over a collection. Maps carry only keys that occur.
type Stats struct {
	Total             int                   `json:"total"`
	CountByKind       map[domain.Kind]int   `json:"count_by_kind"`
	CountByPillar     map[string]int        `json:"count_by_pillar"`
	CountByProfile    map[string]int        `json:"count_by_profile"`
	CountByPsychology map[domain.Driver]int `json:"count_by_psychology_driver"`
	StarredCount      int                   `json:"starred_count"`
	TotalLikes        int                   `json:"total_likes"`
}

type PillarShare struct {
	ID        string          `json:"id"`
	ShortName string          `json:"short_name"`
	Priority  domain.Priority `json:"priority"`
	Count     int             `json:"count"`
	Percent   int             `json:"percent"`
}

type DriverShare struct {
	Driver  domain.Driver `json:"driver"`
	Count   int           `json:"count"`
	Percent int           `json:"percent"`
}

type KindShare struct {
	Kind    domain.Kind `json:"kind"`
	Count   int         `json:"count"`
	Percent int         `json:"percent"`
}

type ProfileCoverage struct {
	ID        string `json:"id"`
	ShortName string `json:"short_name"`
	Count     int    `json:"count"`
	Used      bool   `json:"used"`
}

type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report is everything the analytics view shows.
type Report struct {
	Stats
	Pillars     []PillarShare     `json:"pillars"`
	Psychology  []DriverShare     `json:"psychology"`
	Kinds       []KindShare       `json:"kinds"`
	Profiles    []ProfileCoverage `json:"profiles"`
	RecentCount int               `json:"recent_count"`
	Warnings    []Warning         `json:"warnings"`
}

// Count tallies records without any derived figures.
func Count(records []domain.Record) Stats {
	s := Stats{
		Total:             len(records),
		CountByKind:       make(map[domain.Kind]int),
		CountByPillar:     make(map[string]int),
		CountByProfile:    make(map[string]int),
		CountByPsychology: make(map[domain.Driver]int),
	}
	for _, r := range records {
		s.CountByKind[r.Kind]++
		if r.SourcePillar != "" {
			s.CountByPillar[r.SourcePillar]++
		}
		if r.SourceProfile != "" {
			s.CountByProfile[r.SourceProfile]++
		}
		if r.PsychologyDriver != "" {
			s.CountByPsychology[r.PsychologyDriver]++
		}
		if r.Starred {
			s.StarredCount++
		}
		s.TotalLikes += r.LikeCount
	}
	return s
}

// ComputeStats builds the full report. It is pure: the same inputs give the same report.
// A nil catalog means the embedded default.
func ComputeStats(records []domain.Record, catalog *reference.Catalog, now time.Time) Report {
	if catalog == nil {
		catalog = reference.Default()
	}
	stats := Count(records)

	r := Report{
		Stats:      stats,
		Pillars:    pillarShares(stats, catalog),
		Psychology: driverShares(stats),
		Kinds:      kindShares(stats),
		Profiles:   profileCoverage(stats, catalog),
		Warnings:   []Warning{},
	}

	cutoff := now.Add(-RecentWindow)
	for _, rec := range records {
		if !rec.CreatedAt.Before(cutoff) {
			r.RecentCount++
		}
	}

	if stats.Total > WarningThreshold {
		r.Warnings = append(r.Warnings, pillarWarnings(stats, catalog, r.Pillars)...)
		if w, ok := psychologyWarning(r.Psychology); ok {
			r.Warnings = append(r.Warnings, w)
		}
	}
	return r
}

// percent rounds 100*count/denominator, treating a zero denominator as one.
func percent(count, denominator int) int {
	if denominator == 0 {
		denominator = 1
	}
	return int(math.Round(float64(count) * 100 / float64(denominator)))
}

func sumValues[K comparable](m map[K]int) int {
	var n int
	for _, v := range m {
		n += v
	}
	return n
}

func pillarShares(stats Stats, catalog *reference.Catalog) []PillarShare {
	tagged := sumValues(stats.CountByPillar)
	pillars := catalog.Pillars()
	out := make([]PillarShare, 0, len(pillars))
	for _, p := range pillars {
		count := stats.CountByPillar[p.ID]
		out = append(out, PillarShare{
			ID:        p.ID,
			ShortName: p.Label(),
			Priority:  p.Priority,
			Count:     count,
			Percent:   percent(count, tagged),
		})
	}
	return out
}

func driverShares(stats Stats) []DriverShare {
	tagged := sumValues(stats.CountByPsychology)
	drivers := domain.Drivers()
	out := make([]DriverShare, 0, len(drivers))
	for _, d := range drivers {
		count := stats.CountByPsychology[d]
		out = append(out, DriverShare{Driver: d, Count: count, Percent: percent(count, tagged)})
	}
	return out
}

func kindShares(stats Stats) []KindShare {
	out := make([]KindShare, 0, len(stats.CountByKind))
	for k, count := range stats.CountByKind {
		out = append(out, KindShare{Kind: k, Count: count, Percent: percent(count, stats.Total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func profileCoverage(stats Stats, catalog *reference.Catalog) []ProfileCoverage {
	profiles := catalog.Profiles()
	out := make([]ProfileCoverage, 0, len(profiles))
	for _, p := range profiles {
		count := stats.CountByProfile[p.ID]
		name := p.ShortName
		if name == "" {
			name = p.Name
		}
		out = append(out, ProfileCoverage{ID: p.ID, ShortName: name, Count: count, Used: count > 0})
	}
	return out
}

func pillarWarnings(stats Stats, catalog *reference.Catalog, shares []PillarShare) []Warning {
	var warnings []Warning

	var missing []string
	for _, p := range catalog.PillarsByPriority(domain.PriorityTop) {
		if stats.CountByPillar[p.ID] == 0 {
			missing = append(missing, p.Label())
		}
	}
	if len(missing) > 0 {
		warnings = append(warnings, Warning{
			Code:    WarningMissingTopPillars,
			Message: "Missing top-priority pillars: " + strings.Join(missing, ", "),
		})
	}

	var top *PillarShare
	for i := range shares {
		if top == nil || shares[i].Percent > top.Percent {
			top = &shares[i]
		}
	}
	if top != nil && top.Percent > DominancePercent {
		warnings = append(warnings, Warning{
			Code:    WarningPillarDominance,
			Message: fmt.Sprintf("Over-reliance on %q (%d%%)", top.ShortName, top.Percent),
		})
	}
	return warnings
}

func psychologyWarning(shares []DriverShare) (Warning, bool) {
	if len(shares) == 0 {
		return Warning{}, false
	}
	hi, lo := shares[0], shares[0]
	for _, s := range shares[1:] {
		if s.Percent > hi.Percent {
			hi = s
		}
		if s.Percent < lo.Percent {
			lo = s
		}
	}
	if hi.Percent-lo.Percent <= ImbalanceSpread {
		return Warning{}, false
	}
	return Warning{
		Code: WarningPsychologyImbalance,
		Message: fmt.Sprintf("Psychology imbalance: %s (%d%%) vs %s (%d%%)",
			hi.Driver, hi.Percent, lo.Driver, lo.Percent),
	}, true
}
