package domain

import (
	"strings"
	"time"
)

// Kind enumerates the content types the generator produces.
type Kind string

const (
	KindSocialPost        Kind = "social-post"
	KindTourScript        Kind = "tour-script"
	KindObjectionResponse Kind = "objection-response"
	KindDocumentRewrite   Kind = "document-rewrite"
	KindEmail             Kind = "email"
	KindABTestVariant     Kind = "ab-test-variant"
	KindRoleplayScenario  Kind = "roleplay-scenario"
)

var kinds = []Kind{
	KindSocialPost,
	KindTourScript,
	KindObjectionResponse,
	KindDocumentRewrite,
	KindEmail,
	KindABTestVariant,
	KindRoleplayScenario,
}

// legacyKinds maps the type names stored by the first browser-only version.
var legacyKinds = map[string]Kind{
	"instagram": KindSocialPost,
	"tour":      KindTourScript,
	"objection": KindObjectionResponse,
	"document":  KindDocumentRewrite,
	"ab-test":   KindABTestVariant,
	"scenario":  KindRoleplayScenario,
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind resolves a kind name, accepting legacy aliases.
func ParseKind(value string) (Kind, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if k := Kind(value); k.Valid() {
		return k, true
	}
	if k, ok := legacyKinds[value]; ok {
		return k, true
	}
	return "", false
}

// Driver is one of the three audience-motivation categories.
type Driver string

const (
	DriverStatus         Driver = "status"
	DriverBelonging      Driver = "belonging"
	DriverTransformation Driver = "transformation"
)

// Drivers returns the psychology drivers in their canonical order.
func Drivers() []Driver {
	return []Driver{DriverStatus, DriverBelonging, DriverTransformation}
}

func (d Driver) Valid() bool {
	switch d {
	case DriverStatus, DriverBelonging, DriverTransformation:
		return true
	}
	return false
}

// ParseDriver resolves a driver name. The empty string is not a driver.
func ParseDriver(value string) (Driver, bool) {
	d := Driver(strings.ToLower(strings.TrimSpace(value)))
	return d, d.Valid()
}

// Record is one piece of generated marketing text tracked in the history ledger.
type Record struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Kind             Kind      `json:"kind"`
	Content          string    `json:"content"`
	SourcePillar     string    `json:"source_pillar,omitempty"`
	SourceProfile    string    `json:"source_profile,omitempty"`
	PsychologyDriver Driver    `json:"psychology_driver,omitempty"`
	OriginalInput    string    `json:"original_input,omitempty"`
	Starred          bool      `json:"starred"`
	LikeCount        int       `json:"like_count"`
	Tags             []string  `json:"tags,omitempty"`
}

// Clone returns a copy that shares no mutable state with r.
func (r Record) Clone() Record {
	if r.Tags != nil {
		r.Tags = append([]string(nil), r.Tags...)
	}
	return r
}

// Draft carries the caller-supplied part of a record.
type Draft struct {
	Kind             Kind     `json:"kind"`
	Content          string   `json:"content"`
	SourcePillar     string   `json:"source_pillar,omitempty"`
	SourceProfile    string   `json:"source_profile,omitempty"`
	PsychologyDriver Driver   `json:"psychology_driver,omitempty"`
	OriginalInput    string   `json:"original_input,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// Validate checks the fields a caller controls.
func (d Draft) Validate() error {
	if !d.Kind.Valid() {
		return Invalid("unknown kind %q", d.Kind)
	}
	if strings.TrimSpace(d.Content) == "" {
		return Invalid("content is required")
	}
	if d.PsychologyDriver != "" && !d.PsychologyDriver.Valid() {
		return Invalid("unknown psychology driver %q", d.PsychologyDriver)
	}
	return nil
}
