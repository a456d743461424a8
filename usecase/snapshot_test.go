package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{name: "empty", data: "", want: 0},
		{name: "envelope", data: `{"version":1,"items":[{"id":"a"},{"id":"b"}]}`, want: 2},
		{name: "bare array", data: ` [{"id":"a"}]`, want: 1},
		{name: "browser store", data: `{"state":{"items":[{"id":"a"}]},"version":0}`, want: 1},
		{name: "unknown object", data: `{"something":"else"}`, want: 0},
		{name: "not json", data: `<<<`, wantErr: true},
		{name: "broken array", data: `[{"id":`, wantErr: true},
		{name: "state field not a list", data: `{"state":{"items":"nope"}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := DecodeSnapshot([]byte(tt.data), "items")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedSnapshot)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestEncodeSnapshot(t *testing.T) {
	data, err := EncodeSnapshot([]string{"x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":["x"]}`, string(data))

	items, err := DecodeSnapshot(data, "items")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
