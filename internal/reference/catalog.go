// Package reference holds the static marketing taxonomies: pillars, parent profiles,
// channels and psychology drivers. A Catalog is loaded once and never mutated.
package reference

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fastygo/tisabrain/domain"
)

//go:embed default.yaml
var defaultDocument []byte

type document struct {
	Pillars  []domain.Pillar        `yaml:"pillars"`
	Profiles []domain.ParentProfile `yaml:"profiles"`
	Channels []domain.Channel       `yaml:"channels"`
	Drivers  []domain.DriverInfo    `yaml:"drivers"`
}

// Catalog is a read-only view over the reference taxonomies.
type Catalog struct {
	pillars  []domain.Pillar
	profiles []domain.ParentProfile
	channels []domain.Channel
	drivers  []domain.DriverInfo

	pillarIdx  map[string]int
	profileIdx map[string]int
	channelIdx map[string]int
}

// Load reads the catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultDocument
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read reference catalog: %w", err)
		}
		data = raw
	}
	return Parse(data)
}

// Default returns the embedded catalog. It panics only if the embedded file is broken.
func Default() *Catalog {
	c, err := Parse(defaultDocument)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode reference catalog: %w", err)
	}

	c := &Catalog{
		pillars:    doc.Pillars,
		profiles:   doc.Profiles,
		channels:   doc.Channels,
		drivers:    doc.Drivers,
		pillarIdx:  make(map[string]int, len(doc.Pillars)),
		profileIdx: make(map[string]int, len(doc.Profiles)),
		channelIdx: make(map[string]int, len(doc.Channels)),
	}

	for i, p := range c.pillars {
		if p.ID == "" {
			return nil, fmt.Errorf("pillar %d: missing id", i)
		}
		if !p.Priority.Valid() {
			return nil, fmt.Errorf("pillar %q: unknown priority %q", p.ID, p.Priority)
		}
		if _, dup := c.pillarIdx[p.ID]; dup {
			return nil, fmt.Errorf("pillar %q: duplicate id", p.ID)
		}
		c.pillarIdx[p.ID] = i
	}
	for i, p := range c.profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("profile %d: missing id", i)
		}
		if p.PrimaryDriver != "" && !p.PrimaryDriver.Valid() {
			return nil, fmt.Errorf("profile %q: unknown driver %q", p.ID, p.PrimaryDriver)
		}
		if _, dup := c.profileIdx[p.ID]; dup {
			return nil, fmt.Errorf("profile %q: duplicate id", p.ID)
		}
		c.profileIdx[p.ID] = i
	}
	for i, ch := range c.channels {
		if ch.ID == "" {
			return nil, fmt.Errorf("channel %d: missing id", i)
		}
		if _, dup := c.channelIdx[ch.ID]; dup {
			return nil, fmt.Errorf("channel %q: duplicate id", ch.ID)
		}
		c.channelIdx[ch.ID] = i
	}

	seen := make(map[domain.Driver]bool, len(c.drivers))
	for _, d := range c.drivers {
		if !d.ID.Valid() {
			return nil, fmt.Errorf("unknown driver %q", d.ID)
		}
		seen[d.ID] = true
	}
	for _, d := range domain.Drivers() {
		if !seen[d] {
			return nil, fmt.Errorf("driver %q missing from catalog", d)
		}
	}

	return c, nil
}

func (c *Catalog) Pillars() []domain.Pillar {
	return append([]domain.Pillar(nil), c.pillars...)
}

func (c *Catalog) Profiles() []domain.ParentProfile {
	return append([]domain.ParentProfile(nil), c.profiles...)
}

func (c *Catalog) Channels() []domain.Channel {
	return append([]domain.Channel(nil), c.channels...)
}

func (c *Catalog) Drivers() []domain.DriverInfo {
	return append([]domain.DriverInfo(nil), c.drivers...)
}

func (c *Catalog) Pillar(id string) (domain.Pillar, bool) {
	i, ok := c.pillarIdx[id]
	if !ok {
		return domain.Pillar{}, false
	}
	return c.pillars[i], true
}

func (c *Catalog) Profile(id string) (domain.ParentProfile, bool) {
	i, ok := c.profileIdx[id]
	if !ok {
		return domain.ParentProfile{}, false
	}
	return c.profiles[i], true
}

func (c *Catalog) Channel(id string) (domain.Channel, bool) {
	i, ok := c.channelIdx[id]
	if !ok {
		return domain.Channel{}, false
	}
	return c.channels[i], true
}

// PillarsByPriority returns the pillars with priority p in catalog order.
func (c *Catalog) PillarsByPriority(p domain.Priority) []domain.Pillar {
	var out []domain.Pillar
	for _, pillar := range c.pillars {
		if pillar.Priority == p {
			out = append(out, pillar)
		}
	}
	return out
}
