package buffer

import (
	"errors"
	"time"
)

// Item is a document snapshot waiting to be written to the primary store.
type Item struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	Retries   int       `json:"retries"`
	Timestamp time.Time `json:"timestamp"`
}

func (i *Item) normalize() error {
	if i.Key == "" {
		return errors.New("buffer item without key")
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
	i.Timestamp = i.Timestamp.UTC()
	return nil
}
