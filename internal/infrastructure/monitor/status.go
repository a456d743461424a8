package monitor

import "time"

// Status is the last observed state of the persistence layer.
type Status struct {
	Driver     string    `json:"driver"`
	Primary    bool      `json:"primary"`
	Buffer     bool      `json:"buffer"`
	BufferSize int       `json:"buffer_size"`
	LastCheck  time.Time `json:"last_check"`
}
