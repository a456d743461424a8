package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/tisabrain/internal/infrastructure/monitor"
)

type fixedStatus monitor.Status

func (s fixedStatus) GetStatus() monitor.Status { return monitor.Status(s) }

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name       string
		remote     bool
		status     monitor.Status
		wantStatus int
	}{
		{name: "local up", status: monitor.Status{Driver: "bolt", Primary: true}, wantStatus: fasthttp.StatusOK},
		{name: "local down", status: monitor.Status{Driver: "bolt"}, wantStatus: fasthttp.StatusServiceUnavailable},
		{name: "remote down with buffer", remote: true, status: monitor.Status{Driver: "redis", Buffer: true, BufferSize: 2}, wantStatus: fasthttp.StatusOK},
		{name: "remote and buffer down", remote: true, status: monitor.Status{Driver: "postgres"}, wantStatus: fasthttp.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(fixedStatus(tt.status), tt.remote, testAdapter(), nil)
			ctx := newCtx("GET", "/health", nil, nil)
			h.Check(ctx)

			assert.Equal(t, tt.wantStatus, ctx.Response.StatusCode())
			if tt.wantStatus != fasthttp.StatusOK {
				assert.Equal(t, "DEGRADED", readEnvelope(t, ctx).Code)
			}
		})
	}
}
