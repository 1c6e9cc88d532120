package esc

import (
	"context"
	"time"

	"escgate-go/services/esc/internal/adc"
	"escgate-go/services/esc/periph"
	"escgate-go/types"
	"escgate-go/x/timex"
)

// Controller wires the state machine, sampler and loop to one set of
// peripherals. All handler entry points go through the gate.
type Controller struct {
	cfg  Config
	res  periph.Resources
	edge periph.Edge

	m       *Machine
	sampler *adc.Sampler
	loop    *Loop
}

// NewController configures the peripherals and leaves the output at
// neutral. Handlers are not enabled until Run.
func NewController(res periph.Resources, cfg Config) (*Controller, error) {
	neutral := cfg.Mapper.Neutral()
	if err := res.Out.Configure(cfg.FrameHz, cfg.Mapper.Top()); err != nil {
		return nil, err
	}
	res.Out.Set(neutral)

	if err := res.LED.ConfigureOutput(false); err != nil {
		return nil, err
	}
	pull, edge := periph.PullDown, periph.EdgeRising
	if cfg.Pins.ButtonActLow {
		pull, edge = periph.PullUp, periph.EdgeFalling
	}
	if err := res.Button.ConfigureInput(pull); err != nil {
		return nil, err
	}

	c := &Controller{cfg: cfg, res: res, edge: edge}
	c.m = NewMachine(cfg.Timing, cfg.Boot, res.LED, res.Out, neutral)
	c.sampler = adc.New(res.ADC, cfg.SampleTimeout)
	c.loop = NewLoop(c.m, cfg.Mapper, c.sampler, res.Out, res.Gate)
	if cfg.Boot == Armed {
		println("[esc] Warn: booting armed, output follows throttle from power-on")
	}
	return c, nil
}

// SetYield is passed to the loop; see Loop.SetYield.
func (c *Controller) SetYield(f func()) { c.loop.SetYield(f) }

func (c *Controller) Machine() *Machine { return c.m }

// Edge delivers one button edge with handlers masked.
func (c *Controller) Edge() {
	st := c.res.Gate.Disable()
	c.m.Edge()
	c.res.Gate.Restore(st)
}

// Tick delivers one timer tick with handlers masked.
func (c *Controller) Tick() {
	st := c.res.Gate.Disable()
	c.m.Tick()
	c.res.Gate.Restore(st)
}

// Start enables the button interrupt, then runs the ticker and the loop in
// the background until ctx ends. The channel yields the loop's error once
// the interrupt is cleared and the output is back at neutral.
func (c *Controller) Start(ctx context.Context) (<-chan error, error) {
	if err := c.res.Button.SetIRQ(c.edge, c.Edge); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() { done <- c.run(ctx) }()
	return done, nil
}

// Run is Start followed by waiting for the result.
func (c *Controller) Run(ctx context.Context) error {
	done, err := c.Start(ctx)
	if err != nil {
		return err
	}
	return <-done
}

func (c *Controller) run(ctx context.Context) error {
	defer c.res.Button.ClearIRQ()

	tctx, cancel := context.WithCancel(ctx)
	ticking := make(chan struct{})
	go func() {
		defer close(ticking)
		c.runTicker(tctx)
	}()

	err := c.loop.Run(ctx)
	cancel()
	<-ticking

	st := c.res.Gate.Disable()
	c.res.Out.Set(c.cfg.Mapper.Neutral())
	c.res.Gate.Restore(st)
	return err
}

func (c *Controller) runTicker(ctx context.Context) {
	t := time.NewTicker(c.cfg.TickPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Tick()
		}
	}
}

// State assembles the published view.
func (c *Controller) State() types.ESCState {
	s := c.m.Snapshot()
	ls := c.loop.Stats()
	return types.ESCState{
		Mode:          s.Mode.Public(),
		ArmingElapsed: time.Duration(s.ArmingTicks) * c.cfg.TickPeriod,
		Pulse:         ls.Pulse,
		Sample:        ls.Sample,
		Policy:        string(c.cfg.Mapper.Policy()),
		Transitions:   s.Transitions,
		DroppedEdges:  s.DroppedEdges,
		Faults:        ls.Faults,
		Loops:         ls.Loops,
		TS:            timex.NowNs(),
	}
}
