package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// EventStatus tracks a planned content item through production.
type EventStatus string

const (
	StatusPlanned   EventStatus = "planned"
	StatusDrafted   EventStatus = "drafted"
	StatusPublished EventStatus = "published"
)

func (s EventStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusDrafted, StatusPublished:
		return true
	}
	return false
}

// CalendarEvent is a planned content item on a calendar day.
type CalendarEvent struct {
	ID               string      `json:"id"`
	Date             civil.Date  `json:"date"`
	Title            string      `json:"title"`
	Pillar           string      `json:"pillar"`
	Profile          string      `json:"profile,omitempty"`
	PsychologyDriver Driver      `json:"psychology_driver"`
	Channel          string      `json:"channel,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Status           EventStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// EventDraft holds every field of an event the caller may set.
type EventDraft struct {
	Date             civil.Date  `json:"date"`
	Title            string      `json:"title"`
	Pillar           string      `json:"pillar"`
	Profile          string      `json:"profile,omitempty"`
	PsychologyDriver Driver      `json:"psychology_driver"`
	Channel          string      `json:"channel,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Status           EventStatus `json:"status"`
}

// Normalize trims text fields and applies the default status.
func (d *EventDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Pillar = strings.TrimSpace(d.Pillar)
	d.Profile = strings.TrimSpace(d.Profile)
	d.Channel = strings.TrimSpace(d.Channel)
	if d.Status == "" {
		d.Status = StatusPlanned
	}
}

// Validate rejects partial events.
func (d EventDraft) Validate() error {
	switch {
	case !d.Date.IsValid():
		return Invalid("date is required")
	case d.Title == "":
		return Invalid("title is required")
	case d.Pillar == "":
		return Invalid("pillar is required")
	case !d.PsychologyDriver.Valid():
		return Invalid("unknown psychology driver %q", d.PsychologyDriver)
	case !d.Status.Valid():
		return Invalid("unknown status %q", d.Status)
	}
	return nil
}

// Apply copies the draft into e, leaving identity and creation time untouched.
func (e *CalendarEvent) Apply(d EventDraft) {
	e.Date = d.Date
	e.Title = d.Title
	e.Pillar = d.Pillar
	e.Profile = d.Profile
	e.PsychologyDriver = d.PsychologyDriver
	e.Channel = d.Channel
	e.Notes = d.Notes
	e.Status = d.Status
}
