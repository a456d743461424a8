package domain

// Priority ranks a pillar within the messaging strategy.
type Priority string

const (
	PriorityTop        Priority = "top"
	PrioritySecond     Priority = "second"
	PriorityThird      Priority = "third"
	PrioritySupporting Priority = "supporting"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityTop, PrioritySecond, PriorityThird, PrioritySupporting:
		return true
	}
	return false
}

// Pillar is a marketing theme from the reference taxonomy.
type Pillar struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	ShortName   string   `json:"short_name" yaml:"short_name"`
	Priority    Priority `json:"priority" yaml:"priority"`
	Description string   `json:"description,omitempty" yaml:"description"`
}

// Label returns the short name, falling back to the id.
func (p Pillar) Label() string {
	if p.ShortName != "" {
		return p.ShortName
	}
	return p.ID
}

// ParentProfile is an audience segment.
type ParentProfile struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	ShortName     string `json:"short_name" yaml:"short_name"`
	PrimaryDriver Driver `json:"primary_driver" yaml:"primary_driver"`
	Description   string `json:"description,omitempty" yaml:"description"`
}

// Channel is a publication channel.
type Channel struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Purpose   string `json:"purpose,omitempty" yaml:"purpose"`
	Tone      string `json:"tone,omitempty" yaml:"tone"`
	Frequency string `json:"frequency,omitempty" yaml:"frequency"`
}

// DriverInfo describes a psychology driver.
type DriverInfo struct {
	ID          Driver `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	CoreTrigger string `json:"core_trigger,omitempty" yaml:"core_trigger"`
}
