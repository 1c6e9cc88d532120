package esc

import (
	"sync/atomic"

	"escgate-go/services/esc/periph"
	"escgate-go/types"
)

// Mode is the arm/disarm state.
type Mode uint32

const (
	Disarmed Mode = iota
	Arming
	Armed
)

func (m Mode) String() string { return string(m.Public()) }

// Valid reports whether m is one of the three defined modes.
func (m Mode) Valid() bool { return m <= Armed }

// Public returns the bus spelling of the mode.
func (m Mode) Public() types.ArmMode {
	switch m {
	case Disarmed:
		return types.ModeDisarmed
	case Arming:
		return types.ModeArming
	case Armed:
		return types.ModeArmed
	default:
		return "invalid"
	}
}

// The state word holds the mode in the top two bits and the arming tick
// count in the low thirty. Only three encodings are ever stored.
const (
	modeShift   = 30
	elapsedMask = 1<<modeShift - 1
)

func pack(m Mode, elapsed uint32) uint32 { return uint32(m)<<modeShift | elapsed&elapsedMask }
func modeOf(w uint32) Mode               { return Mode(w >> modeShift) }
func elapsedOf(w uint32) uint32          { return w & elapsedMask }

// Timing holds the state machine thresholds in ticks.
type Timing struct {
	ArmTicks       uint32
	BlinkTicks     uint32
	HeartbeatTicks uint32
}

// Snapshot is a point-in-time view of the machine for telemetry.
type Snapshot struct {
	Mode          Mode
	ArmingTicks   uint32
	Transitions   uint32
	DroppedEdges  uint32
	HeartbeatTick uint32
}

// Machine is the arm/disarm state machine. Edge is called from the button
// interrupt and Tick from the periodic timer; everything else only reads.
// Neither handler blocks or allocates.
//
// Mode reads are safe from any goroutine, but Edge and Tick must not run
// concurrently with each other: Tick's indicator writes follow its state
// update and would race a disarm. Callers serialise them behind an
// IRQGate, as Controller does.
type Machine struct {
	word atomic.Uint32
	hb   atomic.Uint32 // tick-owned

	transitions atomic.Uint32
	dropped     atomic.Uint32

	t       Timing
	led     periph.Indicator
	out     periph.PWM
	neutral uint16
}

// NewMachine returns a machine in the boot mode. Arming is not a valid boot
// mode and is treated as Disarmed.
func NewMachine(t Timing, boot Mode, led periph.Indicator, out periph.PWM, neutral uint16) *Machine {
	if t.ArmTicks == 0 {
		t.ArmTicks = 1
	}
	if t.BlinkTicks == 0 {
		t.BlinkTicks = 1
	}
	if t.HeartbeatTicks == 0 {
		t.HeartbeatTicks = 1
	}
	m := &Machine{t: t, led: led, out: out, neutral: neutral}
	if boot == Armed {
		m.word.Store(pack(Armed, 0))
		led.Set(true)
	} else {
		m.word.Store(pack(Disarmed, 0))
		led.Set(false)
	}
	return m
}

// Mode is a single atomic load.
func (m *Machine) Mode() Mode { return modeOf(m.word.Load()) }

func (m *Machine) Snapshot() Snapshot {
	w := m.word.Load()
	return Snapshot{
		Mode:          modeOf(w),
		ArmingTicks:   elapsedOf(w),
		Transitions:   m.transitions.Load(),
		DroppedEdges:  m.dropped.Load(),
		HeartbeatTick: m.hb.Load(),
	}
}

// Neutral is the command written on disarm.
func (m *Machine) Neutral() uint16 { return m.neutral }

// Edge handles one button edge. Disarmed starts arming, Armed disarms and
// drives the output to neutral at once, Arming ignores the edge.
func (m *Machine) Edge() {
	for {
		w := m.word.Load()
		switch modeOf(w) {
		case Disarmed:
			if m.word.CompareAndSwap(w, pack(Arming, 0)) {
				m.led.Set(false)
				m.transitions.Add(1)
				return
			}
		case Armed:
			if m.word.CompareAndSwap(w, pack(Disarmed, 0)) {
				m.out.Set(m.neutral)
				m.led.Set(false)
				m.transitions.Add(1)
				return
			}
		default:
			m.dropped.Add(1)
			return
		}
	}
}

// Tick advances the machine by one timer period.
func (m *Machine) Tick() {
	w := m.word.Load()
	switch modeOf(w) {
	case Arming:
		e := elapsedOf(w) + 1
		if e >= m.t.ArmTicks {
			if m.word.CompareAndSwap(w, pack(Armed, 0)) {
				m.hb.Store(0)
				m.led.Set(true)
				m.transitions.Add(1)
			}
			return
		}
		// Edges never leave Arming, so the swap only races another tick.
		if m.word.CompareAndSwap(w, pack(Arming, e)) && e%m.t.BlinkTicks == 0 {
			m.led.Toggle()
		}
	case Armed:
		if m.hb.Add(1) >= m.t.HeartbeatTicks {
			m.hb.Store(0)
			m.led.Toggle()
		}
	default:
		m.led.Set(false)
	}
}
