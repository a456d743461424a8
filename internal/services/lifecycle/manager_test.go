package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New(time.Second, zap.New(core))

	var order []string
	m.Register("store", func(context.Context) error {
		order = append(order, "store")
		return nil
	})
	m.RegisterCloser("bolt", closerFunc(func() error {
		order = append(order, "bolt")
		return nil
	}))
	m.Register("http", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		order = append(order, "http")
		return nil
	})

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "bolt", "store"}, order)
	assert.Equal(t, 3, logs.FilterMessage("component stopped").Len())

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false

	m.Register("a", func(context.Context) error { return errA })
	m.Register("ok", func(context.Context) error {
		ran = true
		return nil
	})
	m.RegisterCloser("b", closerFunc(func() error { return errB }))

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.True(t, ran)
}

func TestRegisterIgnoresNil(t *testing.T) {
	m := New(0, nil)
	m.Register("nil", nil)
	m.RegisterCloser("nil", nil)
	assert.NoError(t, m.Shutdown(context.Background()))
}
