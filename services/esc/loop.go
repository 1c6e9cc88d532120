package esc

import (
	"context"
	"sync/atomic"

	"escgate-go/services/esc/periph"
)

// Source yields one throttle sample per call.
type Source interface {
	Read() (uint16, error)
}

// LoopStats is the loop's view for telemetry.
type LoopStats struct {
	Loops  uint32
	Faults uint32
	Pulse  uint16
	Sample uint16
}

// Loop is the free-running control loop. It only reads the machine.
type Loop struct {
	m      *Machine
	mapper Mapper
	src    Source
	out    periph.PWM
	gate   periph.IRQGate
	yield  func()

	loops  atomic.Uint32
	faults atomic.Uint32
	pulse  atomic.Uint32
	sample atomic.Uint32
}

func NewLoop(m *Machine, mapper Mapper, src Source, out periph.PWM, gate periph.IRQGate) *Loop {
	return &Loop{m: m, mapper: mapper, src: src, out: out, gate: gate}
}

// SetYield installs a hook called between iterations, for cooperative
// schedulers. Call before Run.
func (l *Loop) SetYield(f func()) { l.yield = f }

// Step runs one iteration. When armed it samples, maps and commits; any
// other mode, or a failed sample, writes neutral.
func (l *Loop) Step() {
	l.loops.Add(1)
	neutral := l.mapper.Neutral()

	if l.m.Mode() != Armed {
		l.commit(neutral)
		return
	}
	v, err := l.src.Read()
	if err != nil {
		l.faults.Add(1)
		l.commit(neutral)
		return
	}
	l.sample.Store(uint32(v))
	cmd := l.mapper.Map(v)

	// A disarm may have landed while sampling. Re-check with handlers
	// masked so the edge's neutral write is never followed by throttle.
	st := l.gate.Disable()
	if l.m.Mode() != Armed {
		cmd = neutral
	}
	l.out.Set(cmd)
	l.gate.Restore(st)
	l.pulse.Store(uint32(cmd))
}

func (l *Loop) commit(v uint16) {
	l.out.Set(v)
	l.pulse.Store(uint32(v))
}

// Run repeats Step until ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Step()
		if l.yield != nil {
			l.yield()
		}
	}
}

func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Loops:  l.loops.Load(),
		Faults: l.faults.Load(),
		Pulse:  uint16(l.pulse.Load()),
		Sample: uint16(l.sample.Load()),
	}
}
