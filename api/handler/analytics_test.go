package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/usecase/analytics"
	"github.com/fastygo/tisabrain/usecase/history"
)

func TestAnalyticsHandler_Report(t *testing.T) {
	ledger := history.New(nil, nil)
	for i := 0; i < 6; i++ {
		_, err := ledger.Add(context.Background(), domain.Draft{
			Kind:             domain.KindSocialPost,
			Content:          "post",
			SourcePillar:     "academic-excellence",
			PsychologyDriver: domain.DriverStatus,
		})
		require.NoError(t, err)
	}
	h := NewAnalyticsHandler(analytics.New(ledger, nil, nil), testAdapter(), nil)

	ctx := newCtx("GET", "/api/v1/analytics", nil, nil)
	h.Report(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var report analytics.Report
	require.NoError(t, json.Unmarshal(readEnvelope(t, ctx).Data, &report))
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 6, report.RecentCount)

	codes := make([]string, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, analytics.WarningPillarDominance)
	assert.Contains(t, codes, analytics.WarningPsychologyImbalance)
}
