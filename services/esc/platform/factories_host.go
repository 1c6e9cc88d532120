//go:build !rp2040 && !rp2350

package platform

import (
	"sync"
	"sync/atomic"

	"escgate-go/services/esc/periph"
	"escgate-go/types"
)

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements GPIOPin and IRQPin for host-side tests. Level changes
// that match the configured edge call the handler synchronously.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	pull    periph.Pull
	irqEdge periph.Edge
	irqFunc func()
	toggles int
}

func NewFakePin(n int) *FakePin { return &FakePin{number: n} }

func (p *FakePin) ConfigureInput(pull periph.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.pull = pull
	// A pulled-up input idles high.
	p.level = pull == periph.PullUp
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if want && irq != nil {
		irq()
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Toggle() {
	p.mu.Lock()
	p.toggles++
	p.mu.Unlock()
	p.Set(!p.Get())
}

// Toggles counts Toggle calls, for indicator cadence checks.
func (p *FakePin) Toggles() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.toggles
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge periph.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = periph.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

// Press drives one press-and-release of a button wired to this pin.
func (p *FakePin) Press() {
	p.mu.RLock()
	idle := p.pull == periph.PullUp
	p.mu.RUnlock()
	p.Set(!idle)
	p.Set(idle)
}

func edgeFrom(old, new bool) periph.Edge {
	switch {
	case !old && new:
		return periph.EdgeRising
	case old && !new:
		return periph.EdgeFalling
	default:
		return periph.EdgeNone
	}
}

func irqWanted(cfg, seen periph.Edge) bool {
	switch cfg {
	case periph.EdgeBoth:
		return seen == periph.EdgeRising || seen == periph.EdgeFalling
	default:
		return cfg != periph.EdgeNone && cfg == seen
	}
}

// ----------------------------- PWM (host) ------------------------------------

// FakePWM records every level written.
type FakePWM struct {
	mu     sync.Mutex
	freqHz uint64
	top    uint16
	writes []uint16
}

func (p *FakePWM) Configure(freqHz uint64, top uint16) error {
	p.mu.Lock()
	p.freqHz, p.top = freqHz, top
	p.mu.Unlock()
	return nil
}

func (p *FakePWM) Set(level uint16) {
	p.mu.Lock()
	if p.top != 0 && level > p.top {
		level = p.top
	}
	p.writes = append(p.writes, level)
	p.mu.Unlock()
}

// Writes returns a copy of all levels written so far.
func (p *FakePWM) Writes() []uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint16(nil), p.writes...)
}

// Last returns the most recent level, and false if nothing was written.
func (p *FakePWM) Last() (uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.writes) == 0 {
		return 0, false
	}
	return p.writes[len(p.writes)-1], true
}

func (p *FakePWM) Config() (uint64, uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freqHz, p.top
}

// Reset drops the write history.
func (p *FakePWM) Reset() {
	p.mu.Lock()
	p.writes = nil
	p.mu.Unlock()
}

// ----------------------------- ADC (host) ------------------------------------

// FakeConverter completes a conversion after ReadyAfter polls of Done. A
// stuck converter never completes. OnStart, if set, runs at every Start and
// lets tests inject events mid-sample.
type FakeConverter struct {
	level      atomic.Uint32
	stuck      atomic.Bool
	readyAfter atomic.Int32
	polls      atomic.Int32
	starts     atomic.Uint32

	OnStart func()
}

func (c *FakeConverter) SetLevel(v uint16)     { c.level.Store(uint32(v)) }
func (c *FakeConverter) SetStuck(stuck bool)   { c.stuck.Store(stuck) }
func (c *FakeConverter) SetReadyAfter(n int32) { c.readyAfter.Store(n) }
func (c *FakeConverter) Starts() uint32        { return c.starts.Load() }

func (c *FakeConverter) Start() {
	c.starts.Add(1)
	c.polls.Store(0)
	if c.OnStart != nil {
		c.OnStart()
	}
}

func (c *FakeConverter) Done() bool {
	if c.stuck.Load() {
		return false
	}
	return c.polls.Add(1) > c.readyAfter.Load()
}

func (c *FakeConverter) Result() uint16 { return uint16(c.level.Load()) }

// ----------------------------- Gate (host) -----------------------------------

// HostGate emulates interrupt masking with a mutex. The service takes it
// around every handler call, so handlers never interleave with a masked
// section. It is not reentrant.
type HostGate struct{ mu sync.Mutex }

func (g *HostGate) Disable() uintptr { g.mu.Lock(); return 0 }
func (g *HostGate) Restore(uintptr)  { g.mu.Unlock() }

// ----------------------------- Bundle ----------------------------------------

// Host bundles the fakes behind a periph.Resources.
type Host struct {
	Button *FakePin
	LED    *FakePin
	Out    *FakePWM
	ADC    *FakeConverter
	Gate   *HostGate
}

// NewHost creates fakes numbered by the pin plan.
func NewHost(plan types.PinPlan) *Host {
	return &Host{
		Button: NewFakePin(plan.Button),
		LED:    NewFakePin(plan.LED),
		Out:    &FakePWM{},
		ADC:    &FakeConverter{},
		Gate:   &HostGate{},
	}
}

func (h *Host) Resources() periph.Resources {
	return periph.Resources{Button: h.Button, LED: h.LED, Out: h.Out, ADC: h.ADC, Gate: h.Gate}
}

// Open returns host resources for the plan. Policy, frame rate and sample
// range select the drivers on MCU builds and are ignored here.
func Open(plan types.PinPlan, _ string, _ uint64, _ uint16) (periph.Resources, error) {
	return NewHost(plan).Resources(), nil
}
