// Package periph declares the peripheral contracts the esc service drives.
// Platform packages provide concrete implementations; nothing here owns
// goroutines.
package periph

// ---- GPIO ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Toggle()
	Number() int
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// IRQPin extends GPIOPin with interrupts. The handler runs in interrupt
// context on MCU targets: it must not block or allocate.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// Indicator is the status LED. Any GPIOPin satisfies it.
type Indicator interface {
	Set(on bool)
	Toggle()
}

// ---- Pulse output ----

// PWM drives a single output channel. Levels are logical, 0..top as passed
// to Configure; implementations scale to their hardware resolution.
// Set must be safe to call from interrupt context.
type PWM interface {
	Configure(freqHz uint64, top uint16) error
	Set(level uint16)
}

// ---- Analog input ----

// Converter is a split-phase analog conversion: Start begins a conversion,
// Done reports end-of-conversion and Result reads the data register.
type Converter interface {
	Start()
	Done() bool
	Result() uint16
}

// ---- Interrupt masking ----

// IRQGate masks handler delivery between Disable and the matching Restore.
type IRQGate interface {
	Disable() uintptr
	Restore(state uintptr)
}

// Resources is the set of peripherals one controller instance uses.
type Resources struct {
	Button IRQPin
	LED    GPIOPin
	Out    PWM
	ADC    Converter
	Gate   IRQGate
}
