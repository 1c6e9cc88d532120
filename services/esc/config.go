package esc

import (
	"time"

	"escgate-go/errcode"
	"escgate-go/types"
	"escgate-go/x/mathx"
	"escgate-go/x/strx"
)

// Defaults applied by Normalise to zero fields.
const (
	DefaultSampleMax       = 1023
	DefaultPulseMin        = 1000
	DefaultPulseMax        = 2000
	DefaultRangedFrameHz   = 50
	DefaultDirectFrameHz   = 1000
	DefaultTickPeriod      = time.Millisecond
	DefaultArmDelay        = 3 * time.Second
	DefaultBlinkPeriod     = 100 * time.Millisecond
	DefaultHeartbeatPeriod = 500 * time.Millisecond
	DefaultSampleTimeout   = 5 * time.Millisecond
	DefaultTelemetryPeriod = 100 * time.Millisecond
)

// Config is the validated runtime configuration.
type Config struct {
	Boot            Mode
	Mapper          Mapper
	FrameHz         uint64
	TickPeriod      time.Duration
	Timing          Timing
	SampleTimeout   time.Duration // 0 waits forever
	TelemetryPeriod time.Duration
	Pins            types.PinPlan
}

// Normalise fills defaults, validates and derives tick thresholds.
func Normalise(in types.ESCConfig) (Config, error) {
	const op = "esc.Normalise"
	var c Config

	switch types.ArmMode(strx.Fold(string(in.BootMode))) {
	case "", types.ModeDisarmed:
		c.Boot = Disarmed
	case types.ModeArmed:
		c.Boot = Armed
	default:
		return Config{}, errcode.Wrap(errcode.InvalidConfig, op, "boot_mode must be disarmed or armed")
	}

	policy := Policy(strx.Coalesce(strx.Fold(in.Policy), string(PolicyRanged)))
	sampleMax := orU16(in.SampleMax, DefaultSampleMax)
	pulseMin := orU16(in.PulseMin, DefaultPulseMin)
	pulseMax := orU16(in.PulseMax, DefaultPulseMax)
	m, err := NewMapper(policy, sampleMax, pulseMin, pulseMax)
	if err != nil {
		return Config{}, err
	}
	c.Mapper = m

	c.FrameHz = in.FrameHz
	if c.FrameHz == 0 {
		c.FrameHz = DefaultRangedFrameHz
		if policy == PolicyDirect {
			c.FrameHz = DefaultDirectFrameHz
		}
	}

	c.TickPeriod = orDur(in.TickPeriod, DefaultTickPeriod)
	armDelay := orDur(in.ArmDelay, DefaultArmDelay)
	blink := orDur(in.BlinkPeriod, DefaultBlinkPeriod)
	heartbeat := orDur(in.HeartbeatPeriod, DefaultHeartbeatPeriod)
	if c.TickPeriod < 0 || armDelay < 0 || blink < 0 || heartbeat < 0 {
		return Config{}, errcode.Wrap(errcode.InvalidConfig, op, "negative period")
	}
	c.Timing = Timing{
		ArmTicks:       toTicks(armDelay, c.TickPeriod),
		BlinkTicks:     toTicks(blink, c.TickPeriod),
		HeartbeatTicks: toTicks(heartbeat, c.TickPeriod),
	}
	if c.Timing.ArmTicks > elapsedMask {
		return Config{}, errcode.Wrap(errcode.InvalidConfig, op, "arm_delay too long for tick_period")
	}

	switch {
	case in.SampleTimeout < 0:
		c.SampleTimeout = 0
	case in.SampleTimeout == 0:
		c.SampleTimeout = DefaultSampleTimeout
	default:
		c.SampleTimeout = in.SampleTimeout
	}
	c.TelemetryPeriod = orDur(in.TelemetryPeriod, DefaultTelemetryPeriod)
	c.Pins = in.Pins
	return c, nil
}

// ArmDelay reports the arming delay actually in force after rounding to
// whole ticks.
func (c Config) ArmDelay() time.Duration { return time.Duration(c.Timing.ArmTicks) * c.TickPeriod }

// toTicks converts d to whole ticks, rounding up, with a minimum of one.
func toTicks(d, tick time.Duration) uint32 {
	n := mathx.CeilDiv(uint64(d), uint64(tick))
	return uint32(mathx.Clamp(n, 1, 1<<32-1))
}

func orU16(v, d uint16) uint16 {
	if v == 0 {
		return d
	}
	return v
}

func orDur(v, d time.Duration) time.Duration {
	if v == 0 {
		return d
	}
	return v
}
