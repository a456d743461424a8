package transport

// RecordRequest adds a finished text to the history ledger.
type RecordRequest struct {
	Kind             string   `json:"kind"`
	Content          string   `json:"content"`
	SourcePillar     string   `json:"source_pillar"`
	SourceProfile    string   `json:"source_profile"`
	PsychologyDriver string   `json:"psychology_driver"`
	OriginalInput    string   `json:"original_input"`
	Tags             []string `json:"tags"`
}

// EventRequest creates or replaces a calendar event. Date is YYYY-MM-DD.
type EventRequest struct {
	Date             string `json:"date"`
	Title            string `json:"title"`
	Pillar           string `json:"pillar"`
	Profile          string `json:"profile"`
	PsychologyDriver string `json:"psychology_driver"`
	Channel          string `json:"channel"`
	Notes            string `json:"notes"`
	Status           string `json:"status"`
}

type MessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest carries an assembled prompt and the tags to record the result with.
type GenerateRequest struct {
	Kind             string           `json:"kind"`
	Prompt           string           `json:"prompt"`
	Input            string           `json:"input"`
	Pillar           string           `json:"pillar"`
	Profile          string           `json:"profile"`
	PsychologyDriver string           `json:"psychology_driver"`
	Tags             []string         `json:"tags"`
	History          []MessageRequest `json:"history"`
	System           string           `json:"system"`
	SkipHistory      bool             `json:"skip_history"`
}
