package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/pkg/httpcontext"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   struct {
		Matched *bool  `json:"matched"`
		Warning string `json:"warning"`
		Total   *int   `json:"total"`
	} `json:"meta"`
}

func newCtx(method, uri string, body interface{}, params map[string]string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	switch b := body.(type) {
	case nil:
	case string:
		ctx.Request.SetBodyString(b)
	default:
		raw, _ := json.Marshal(b)
		ctx.Request.SetBody(raw)
	}
	for k, v := range params {
		ctx.SetUserValue(k, v)
	}
	return ctx
}

func readEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	return env
}

func testAdapter() *httpcontext.Adapter {
	return httpcontext.NewAdapter(time.Second)
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, []byte) error { return errors.New("disk full") }
func (failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, domain.ErrDocumentNotFound
}
func (failingStore) Ping(context.Context) error { return nil }
