package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fastygo/tisabrain/domain"
	"github.com/fastygo/tisabrain/repository"
)

// SnapshotVersion is written into every persisted collection document.
const SnapshotVersion = 1

// ErrMalformedSnapshot means the stored document is not a collection at all.
var ErrMalformedSnapshot = errors.New("malformed snapshot document")

type snapshot struct {
	Version int         `json:"version"`
	Items   interface{} `json:"items"`
}

// EncodeSnapshot wraps items in the versioned envelope.
func EncodeSnapshot(items interface{}) ([]byte, error) {
	return json.Marshal(snapshot{Version: SnapshotVersion, Items: items})
}

// DecodeSnapshot extracts the raw item list from a stored document. It accepts the
// versioned envelope, a bare JSON array, and the browser store layout
// {"state":{"<field>":[...]}} where field is legacyField.
func DecodeSnapshot(data []byte, legacyField string) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
		return items, nil
	}

	var envelope struct {
		Version int                        `json:"version"`
		Items   []json.RawMessage          `json:"items"`
		State   map[string]json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if envelope.Items != nil {
		return envelope.Items, nil
	}
	if raw, ok := envelope.State[legacyField]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: state.%s: %v", ErrMalformedSnapshot, legacyField, err)
		}
		return items, nil
	}
	return nil, nil
}

// SaveSnapshot encodes items and writes them under key.
func SaveSnapshot(ctx context.Context, store repository.DocumentStore, key string, items interface{}) error {
	if store == nil {
		return domain.ErrStoreNotConfigured
	}
	data, err := EncodeSnapshot(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadSnapshot reads the raw document under key. A missing document yields nil data.
func LoadSnapshot(ctx context.Context, store repository.DocumentStore, key string) ([]byte, error) {
	if store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	data, err := store.Load(ctx, key)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return data, nil
}

// CorruptKey is where an undecodable document is copied before it gets overwritten.
func CorruptKey(key string) string {
	return key + ".corrupt"
}
