package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/internal/reference"
	"github.com/fastygo/tisabrain/usecase/history"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func rec(kind domain.Kind, pillar string, driver domain.Driver) domain.Record {
	return domain.Record{Kind: kind, Content: "x", SourcePillar: pillar, PsychologyDriver: driver, CreatedAt: now}
}

func repeat(n int, r domain.Record) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func warningCodes(r Report) []string {
	codes := []string{}
	for _, w := range r.Warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

func TestComputeStats_ThreeRecordScenario(t *testing.T) {
	ctx := context.Background()
	ledger := history.New(nil, nil)
	for _, d := range []domain.Draft{
		{Kind: domain.KindSocialPost, Content: "a", PsychologyDriver: domain.DriverStatus},
		{Kind: domain.KindEmail, Content: "b", PsychologyDriver: domain.DriverBelonging},
		{Kind: domain.KindSocialPost, Content: "c", PsychologyDriver: domain.DriverStatus},
	} {
		_, err := ledger.Add(ctx, d)
		require.NoError(t, err)
	}

	report, err := New(ledger, nil, nil).Report(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, map[domain.Kind]int{domain.KindSocialPost: 2, domain.KindEmail: 1}, report.CountByKind)
	assert.Equal(t, map[domain.Driver]int{domain.DriverStatus: 2, domain.DriverBelonging: 1}, report.CountByPsychology)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, 3, report.RecentCount)

	require.Len(t, report.Kinds, 2)
	assert.Equal(t, KindShare{Kind: domain.KindSocialPost, Count: 2, Percent: 67}, report.Kinds[0])
	assert.Equal(t, KindShare{Kind: domain.KindEmail, Count: 1, Percent: 33}, report.Kinds[1])
}

func TestComputeStats_TotalsAgree(t *testing.T) {
	collections := [][]domain.Record{
		nil,
		{rec(domain.KindEmail, "", "")},
		append(repeat(4, rec(domain.KindTourScript, "ai-tech", domain.DriverTransformation)), rec(domain.KindEmail, "", domain.DriverStatus)),
	}
	for _, records := range collections {
		report := ComputeStats(records, nil, now)
		assert.Equal(t, len(records), report.Total)

		var sum int
		for _, n := range report.CountByKind {
			sum += n
		}
		assert.Equal(t, report.Total, sum)
	}
}

func TestComputeStats_EmptyIsZeroPercent(t *testing.T) {
	report := ComputeStats(nil, reference.Default(), now)

	require.Len(t, report.Pillars, 9)
	for _, p := range report.Pillars {
		assert.Zero(t, p.Percent, p.ID)
	}
	require.Len(t, report.Psychology, 3)
	for _, d := range report.Psychology {
		assert.Zero(t, d.Percent)
	}
	assert.Empty(t, report.Warnings)
	assert.NotNil(t, report.Warnings)
	assert.Empty(t, report.Kinds)
}

func TestComputeStats_SinglePillarDominates(t *testing.T) {
	records := repeat(6, rec(domain.KindEmail, "academic-excellence", ""))
	report := ComputeStats(records, nil, now)

	require.Contains(t, warningCodes(report), WarningPillarDominance)
	for _, w := range report.Warnings {
		if w.Code == WarningPillarDominance {
			assert.Equal(t, `Over-reliance on "Academic" (100%)`, w.Message)
		}
	}
	assert.Equal(t, Warning{
		Code:    WarningMissingTopPillars,
		Message: "Missing top-priority pillars: Local International, Kinder MBA, Selective",
	}, report.Warnings[0])
}

func TestComputeStats_ThresholdGatesWarnings(t *testing.T) {
	records := repeat(5, rec(domain.KindEmail, "academic-excellence", domain.DriverStatus))
	report := ComputeStats(records, nil, now)
	assert.Empty(t, report.Warnings)
}

func TestComputeStats_BalancedMix(t *testing.T) {
	var records []domain.Record
	for _, p := range []string{"category-creation", "entrepreneurial-mba", "selective-admissions"} {
		for _, d := range domain.Drivers() {
			records = append(records, rec(domain.KindSocialPost, p, d))
		}
	}
	report := ComputeStats(records, nil, now)
	assert.Empty(t, report.Warnings)
	for _, p := range report.Pillars[:3] {
		assert.Equal(t, 33, p.Percent)
	}
}

func TestComputeStats_PsychologyImbalance(t *testing.T) {
	records := append(
		repeat(5, rec(domain.KindEmail, "category-creation", domain.DriverBelonging)),
		rec(domain.KindEmail, "entrepreneurial-mba", domain.DriverTransformation),
		rec(domain.KindEmail, "selective-admissions", ""),
	)
	report := ComputeStats(records, nil, now)

	assert.Equal(t, []DriverShare{
		{Driver: domain.DriverStatus, Count: 0, Percent: 0},
		{Driver: domain.DriverBelonging, Count: 5, Percent: 83},
		{Driver: domain.DriverTransformation, Count: 1, Percent: 17},
	}, report.Psychology)
	assert.Contains(t, report.Warnings, Warning{
		Code:    WarningPsychologyImbalance,
		Message: "Psychology imbalance: belonging (83%) vs status (0%)",
	})
	assert.Contains(t, report.Warnings, Warning{
		Code:    WarningPillarDominance,
		Message: `Over-reliance on "Local International" (71%)`,
	})
	assert.NotContains(t, warningCodes(report), WarningMissingTopPillars)
}

func TestComputeStats_PercentOfTaggedRecords(t *testing.T) {
	records := []domain.Record{
		rec(domain.KindEmail, "ai-tech", ""),
		rec(domain.KindEmail, "", ""),
		rec(domain.KindEmail, "", ""),
		rec(domain.KindEmail, "unknown-pillar", ""),
	}
	report := ComputeStats(records, nil, now)
	for _, p := range report.Pillars {
		if p.ID == "ai-tech" {
			assert.Equal(t, 50, p.Percent)
		}
	}
}

func TestComputeStats_CountsAndRecent(t *testing.T) {
	old := rec(domain.KindEmail, "", "")
	old.CreatedAt = now.Add(-8 * 24 * time.Hour)
	edge := rec(domain.KindEmail, "", "")
	edge.CreatedAt = now.Add(-RecentWindow)
	starred := rec(domain.KindEmail, "", "")
	starred.Starred = true
	starred.LikeCount = 4
	starred.SourceProfile = "expat"

	report := ComputeStats([]domain.Record{old, edge, starred}, nil, now)
	assert.Equal(t, 2, report.RecentCount)
	assert.Equal(t, 1, report.StarredCount)
	assert.Equal(t, 4, report.TotalLikes)
	assert.Equal(t, map[string]int{"expat": 1}, report.CountByProfile)

	for _, p := range report.Profiles {
		assert.Equal(t, p.ID == "expat", p.Used, p.ID)
	}
}

func TestUseCase_ReportCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(history.New(nil, nil), nil, nil).Report(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
