package exploration

import "fmt"

// Type describes the available schedule types
type Type string

const (
	ExponentialDecay Type = "Exponential"
	LinearDecay      Type = "Linear"
)

// Config describes a Schedule so that schedules can be serialized into
// configuration files and created on demand.
type Config struct {
	Type Type

	Start float64
	End   float64

	// Decay is the time constant of exponential schedules and the
	// per-step decrement of linear schedules
	Decay float64
}

// Validate returns an error describing whether or not the
// configuration is valid.
func (c Config) Validate() error {
	switch c.Type {
	case ExponentialDecay, LinearDecay:
	default:
		return fmt.Errorf("validate: unknown schedule type %q", c.Type)
	}
	if c.Start < c.End {
		return fmt.Errorf("validate: start (%v) must be >= end (%v)", c.Start,
			c.End)
	}
	if c.Decay <= 0 {
		return fmt.Errorf("validate: decay must be positive")
	}
	return nil
}

// Create returns the Schedule that the Config describes.
func (c Config) Create() (Schedule, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Type {
	case LinearDecay:
		return NewLinear(c.Start, c.End, c.Decay)
	default:
		return NewExponential(c.Start, c.End, c.Decay)
	}
}
