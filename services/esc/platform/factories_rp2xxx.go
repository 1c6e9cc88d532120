//go:build rp2040 || rp2350

package platform

import (
	"machine"
	"runtime/interrupt"

	"tinygo.org/x/drivers/pcf8591"
	"tinygo.org/x/drivers/servo"

	"escgate-go/errcode"
	"escgate-go/services/esc/periph"
	"escgate-go/types"
	"escgate-go/x/mathx"
	"escgate-go/x/timex"
)

// Open configures the pins of the plan on RP2 hardware. A ranged policy at
// the standard 50 Hz frame uses the servo driver; anything else drives a
// raw PWM channel.
func Open(plan types.PinPlan, policy string, frameHz uint64, sampleMax uint16) (periph.Resources, error) {
	const op = "platform.Open"
	if !validPin(plan.Button) || !validPin(plan.LED) || !validPin(plan.PWM) {
		return periph.Resources{}, errcode.Wrap(errcode.UnknownPin, op, "pin out of range")
	}

	out, err := openOutput(plan.PWM, policy, frameHz)
	if err != nil {
		return periph.Resources{}, err
	}
	adc, err := openConverter(plan, sampleMax)
	if err != nil {
		return periph.Resources{}, err
	}
	return periph.Resources{
		Button: &rp2Pin{p: machine.Pin(plan.Button), n: plan.Button},
		LED:    &rp2Pin{p: machine.Pin(plan.LED), n: plan.LED},
		Out:    out,
		ADC:    adc,
		Gate:   rp2Gate{},
	}, nil
}

// Constrain to RP2's user GPIOs (GP0..GP28).
func validPin(n int) bool { return n >= 0 && n <= 28 }

// ---- GPIO (includes IRQ support) ----

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull periph.Pull) error {
	var mode machine.PinMode
	switch pull {
	case periph.PullUp:
		mode = machine.PinInputPullup
	case periph.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }

func (r *rp2Pin) Toggle() {
	if r.p.Get() {
		r.p.Low()
	} else {
		r.p.High()
	}
}

func (r *rp2Pin) Number() int { return r.n }

// The handler runs in interrupt context.
func (r *rp2Pin) SetIRQ(edge periph.Edge, handler func()) error {
	return r.p.SetInterrupt(toPinChange(edge), func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(e periph.Edge) machine.PinChange {
	switch e {
	case periph.EdgeRising:
		return machine.PinRising
	case periph.EdgeFalling:
		return machine.PinFalling
	case periph.EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

// ---- Pulse output ----

// Local interface to avoid depending on an unexported concrete type in
// machine. It is also servo.PWM.
type pwmCtrl interface {
	Configure(cfg machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// Select controller handle for a given slice number (0..7).
func pwmGroupBySlice(slice uint8) pwmCtrl {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

func openOutput(pin int, policy string, frameHz uint64) (periph.PWM, error) {
	slice, err := machine.PWMPeripheral(machine.Pin(pin))
	if err != nil {
		return nil, errcode.Wrap(errcode.Unsupported, "platform.Open", "pin has no PWM")
	}
	ctrl := pwmGroupBySlice(slice)
	if policy == "ranged" && frameHz == 50 {
		return &servoOut{ctrl: ctrl, pin: machine.Pin(pin)}, nil
	}
	return &rp2PWM{ctrl: ctrl, pin: machine.Pin(pin), micros: policy == "ranged"}, nil
}

// rp2PWM drives one channel. In micros mode a level is a pulse width in
// microseconds within the frame; otherwise it is a fraction of top. Set
// takes no locks so it is safe from interrupt context.
type rp2PWM struct {
	ctrl    pwmCtrl
	pin     machine.Pin
	ch      uint8
	micros  bool
	frameUs uint32
	top     uint16
	hwTop   uint32
}

func (p *rp2PWM) Configure(freqHz uint64, top uint16) error {
	freqHz = mathx.Max(freqHz, 1)
	if err := p.ctrl.Configure(machine.PWMConfig{Period: timex.PeriodFromHz(freqHz)}); err != nil {
		return err
	}
	ch, err := p.ctrl.Channel(p.pin)
	if err != nil {
		return err
	}
	p.ch = ch
	p.top = mathx.Max(top, 1)
	p.frameUs = uint32(timex.FrameMicros(freqHz))
	p.hwTop = p.ctrl.Top()
	return nil
}

func (p *rp2PWM) Set(level uint16) {
	if p.hwTop == 0 {
		return
	}
	level = mathx.Min(level, p.top)
	div := uint64(p.top)
	if p.micros {
		div = uint64(p.frameUs)
	}
	hw := uint64(level) * uint64(p.hwTop) / div
	p.ctrl.Set(p.ch, uint32(mathx.Min(hw, uint64(p.hwTop))))
}

// servoOut wraps the servo driver; levels are microseconds.
type servoOut struct {
	ctrl pwmCtrl
	pin  machine.Pin
	s    servo.Servo
	top  uint16
	ok   bool
}

func (o *servoOut) Configure(freqHz uint64, top uint16) error {
	if freqHz != 50 {
		return errcode.Wrap(errcode.Conflict, "servoOut.Configure", "servo frame is fixed at 50 Hz")
	}
	s, err := servo.New(o.ctrl, o.pin)
	if err != nil {
		return err
	}
	o.s, o.top, o.ok = s, top, true
	return nil
}

func (o *servoOut) Set(level uint16) {
	if !o.ok {
		return
	}
	o.s.SetMicroseconds(int16(mathx.Min(level, o.top)))
}

// ---- Analog input ----

type readFunc func() uint16

// oneShot adapts a blocking read to the split-phase contract: the machine
// ADC read completes inside Start.
type oneShot struct {
	read  readFunc
	shift uint8
	v     uint16
}

func (c *oneShot) Start()         { c.v = c.read() >> c.shift }
func (c *oneShot) Done() bool     { return true }
func (c *oneShot) Result() uint16 { return c.v }

func openConverter(plan types.PinPlan, sampleMax uint16) (periph.Converter, error) {
	shift := SampleShift(sampleMax)
	switch plan.ADCSource {
	case "", "onchip":
		if plan.ADC < 26 || plan.ADC > 29 {
			return nil, errcode.Wrap(errcode.UnknownPin, "platform.Open", "adc pin must be GP26..GP29")
		}
		machine.InitADC()
		a := machine.ADC{Pin: machine.Pin(plan.ADC)}
		a.Configure(machine.ADCConfig{})
		return &oneShot{read: a.Get, shift: shift}, nil

	case "pcf8591":
		if plan.ADC < 0 || plan.ADC > 3 {
			return nil, errcode.Wrap(errcode.InvalidConfig, "platform.Open", "pcf8591 channel must be 0..3")
		}
		bus := machine.I2C0
		if err := bus.Configure(machine.I2CConfig{
			Frequency: 400 * machine.KHz,
			SDA:       machine.I2C0_SDA_PIN,
			SCL:       machine.I2C0_SCL_PIN,
		}); err != nil {
			return nil, err
		}
		dev := pcf8591.New(bus)
		dev.Configure()
		ch := dev.GetADC(plan.ADC)
		return &oneShot{read: ch.Get, shift: shift}, nil

	default:
		return nil, errcode.Wrap(errcode.InvalidConfig, "platform.Open", "unknown adc_source "+plan.ADCSource)
	}
}

// ---- Interrupt masking ----

type rp2Gate struct{}

func (rp2Gate) Disable() uintptr      { return uintptr(interrupt.Disable()) }
func (rp2Gate) Restore(state uintptr) { interrupt.Restore(interrupt.State(state)) }
