// Package sim runs a controller against host fakes and a scripted
// scenario of button presses and throttle movement.
package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"escgate-go/bus"
	"escgate-go/internal/logger"
	"escgate-go/internal/simconfig"
	"escgate-go/services/esc"
	"escgate-go/services/esc/platform"
	"escgate-go/types"
	"escgate-go/x/ramp"
)

// Summary is what a scenario observed.
type Summary struct {
	Events   []types.ModeChange
	Final    types.ESCState
	MaxPulse uint16
	States   int
}

var errServiceFailed = errors.New("esc service rejected the scenario")

// startTimeout bounds the wait for the service to accept the configuration.
const startTimeout = 2 * time.Second

// Run plays cfg to completion or until ctx ends.
func Run(ctx context.Context, cfg *simconfig.Config) (Summary, error) {
	var sum Summary
	if err := simconfig.Validate(cfg); err != nil {
		return sum, err
	}
	ctx = logger.WithName(ctx, "escsim")

	escCfg := cfg.ESC
	if escCfg.Pins == (types.PinPlan{}) {
		escCfg.Pins = platform.DefaultPins()
	}
	host := platform.NewHost(escCfg.Pins)
	host.ADC.SetLevel(cfg.Sweep.From)

	b := bus.NewBus(64)
	mon := b.NewConnection("escsim")
	events := mon.Subscribe(esc.TopicEvent)
	states := mon.Subscribe(esc.TopicState)
	svcState := mon.Subscribe(esc.TopicService)
	defer mon.Disconnect()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration+startTimeout)
	defer cancel()
	svcDone := make(chan struct{})
	go func() {
		defer close(svcDone)
		esc.New(b.NewConnection("esc"), host.Resources(), runtime.Gosched).Run(runCtx)
	}()
	defer func() { cancel(); <-svcDone }()

	mon.Publish(mon.NewMessage(esc.TopicConfig, escCfg, true))
	if err := awaitRunning(runCtx, svcState); err != nil {
		return sum, err
	}
	logger.InfoKV(ctx, "controller running", "policy", policyOf(escCfg), "boot", string(escCfg.BootMode))

	start := time.Now()
	end := time.NewTimer(cfg.Duration)
	defer end.Stop()

	for _, at := range cfg.Presses {
		t := time.AfterFunc(at, func() {
			logger.Debugf(ctx, "press at %v", at)
			host.Button.Press()
		})
		defer t.Stop()
	}

	if cfg.Sweep.Over > 0 {
		go runSweep(runCtx, cfg.Sweep, host.ADC)
	}

	var report <-chan time.Time
	if cfg.Report > 0 {
		rt := time.NewTicker(cfg.Report)
		defer rt.Stop()
		report = rt.C
	}

	for {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()

		case <-end.C:
			mon.Publish(mon.NewMessage(esc.CtlTopic("read_now"), nil, false))
			drainStates(states, &sum)
			logger.InfoKV(ctx, "scenario finished",
				"elapsed", time.Since(start).Round(time.Millisecond),
				"mode", string(sum.Final.Mode),
				"transitions", sum.Final.Transitions,
				"dropped_edges", sum.Final.DroppedEdges,
				"faults", sum.Final.Faults)
			return sum, nil

		case m := <-events.Channel():
			if ev, ok := m.Payload.(types.ModeChange); ok {
				sum.Events = append(sum.Events, ev)
				logger.InfoKV(ctx, "mode change", "from", string(ev.From), "to", string(ev.To),
					"at", time.Since(start).Round(time.Millisecond))
			}

		case m := <-states.Channel():
			record(m, &sum)

		case <-report:
			s := sum.Final
			logger.InfoKV(ctx, "state", "mode", string(s.Mode), "sample", s.Sample, "pulse", s.Pulse,
				"arming", s.ArmingElapsed)
		}
	}
}

func awaitRunning(ctx context.Context, sub *bus.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-sub.Channel():
			s, ok := m.Payload.(types.ServiceState)
			if !ok {
				continue
			}
			switch s.Level {
			case "running":
				return nil
			case "error":
				return fmt.Errorf("%w: %s", errServiceFailed, s.Status)
			}
		}
	}
}

func runSweep(ctx context.Context, sw simconfig.Sweep, adc *platform.FakeConverter) {
	if !sleep(ctx, sw.Start) {
		return
	}
	ramp.Linear(sw.From, sw.To, sw.Over, sw.Steps, func(d time.Duration) bool { return sleep(ctx, d) }, adc.SetLevel)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// drainStates waits briefly for the read_now reply and takes whatever is
// queued.
func drainStates(sub *bus.Subscription, sum *Summary) {
	wait := time.NewTimer(50 * time.Millisecond)
	defer wait.Stop()
	for {
		select {
		case m := <-sub.Channel():
			record(m, sum)
		case <-wait.C:
			return
		}
	}
}

func record(m *bus.Message, sum *Summary) {
	s, ok := m.Payload.(types.ESCState)
	if !ok {
		return
	}
	sum.States++
	sum.Final = s
	if s.Mode == types.ModeArmed && s.Pulse > sum.MaxPulse {
		sum.MaxPulse = s.Pulse
	}
}

func policyOf(c types.ESCConfig) string {
	if c.Policy == "" {
		return string(esc.PolicyRanged)
	}
	return c.Policy
}
