package esc

import (
	"escgate-go/errcode"
	"escgate-go/x/mathx"
)

// Policy selects how a sample becomes an output command.
type Policy string

const (
	// PolicyRanged maps [0,SampleMax] linearly onto [PulseMin,PulseMax]
	// microseconds. Neutral is PulseMin.
	PolicyRanged Policy = "ranged"
	// PolicyDirect passes the sample through as the output level, clamped
	// to SampleMax. Neutral is 0.
	PolicyDirect Policy = "direct"
)

func (p Policy) Valid() bool { return p == PolicyRanged || p == PolicyDirect }

// Mapper is a pure function from sample to command.
type Mapper struct {
	policy    Policy
	sampleMax uint16
	pulseMin  uint16
	pulseMax  uint16
}

func NewMapper(p Policy, sampleMax, pulseMin, pulseMax uint16) (Mapper, error) {
	const op = "esc.NewMapper"
	switch {
	case !p.Valid():
		return Mapper{}, errcode.Wrap(errcode.InvalidConfig, op, "unknown policy "+string(p))
	case sampleMax == 0:
		return Mapper{}, errcode.Wrap(errcode.InvalidConfig, op, "sample_max is zero")
	case p == PolicyRanged && pulseMin >= pulseMax:
		return Mapper{}, errcode.Wrap(errcode.InvalidConfig, op, "pulse_min >= pulse_max")
	}
	return Mapper{policy: p, sampleMax: sampleMax, pulseMin: pulseMin, pulseMax: pulseMax}, nil
}

func (m Mapper) Policy() Policy { return m.policy }

// SampleMax is the largest sample the mapper distinguishes.
func (m Mapper) SampleMax() uint16 { return m.sampleMax }

// Map converts one sample. The quotient truncates toward zero.
func (m Mapper) Map(sample uint16) uint16 {
	if m.policy == PolicyDirect {
		return mathx.Min(sample, m.sampleMax)
	}
	return mathx.MapU16(sample, m.sampleMax, m.pulseMin, m.pulseMax)
}

func (m Mapper) Neutral() uint16 {
	if m.policy == PolicyDirect {
		return 0
	}
	return m.pulseMin
}

// Top is the largest command Map can return, used as the output's logical
// resolution.
func (m Mapper) Top() uint16 {
	if m.policy == PolicyDirect {
		return m.sampleMax
	}
	return m.pulseMax
}
