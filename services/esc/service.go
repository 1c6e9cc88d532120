package esc

import (
	"context"
	"time"

	"escgate-go/bus"
	"escgate-go/errcode"
	"escgate-go/services/esc/internal/consts"
	"escgate-go/services/esc/internal/util"
	"escgate-go/services/esc/periph"
	"escgate-go/types"
	"escgate-go/x/timex"
)

var (
	TopicConfig  = bus.T(consts.TokConfig, consts.TokESC)
	TopicState   = bus.T(consts.TokESC, consts.TokState)
	TopicEvent   = bus.T(consts.TokESC, consts.TokEvent)
	TopicService = bus.T(consts.TokESC, consts.TokService)
	topicCtl     = bus.T(consts.TokESC, consts.TokCtl, "+")
)

// CtlTopic returns the control topic for a verb.
func CtlTopic(verb string) bus.Topic { return bus.T(consts.TokESC, consts.TokCtl, verb) }

// Mode changes are detected by polling; a change that reverts within one
// interval shows up only in the transition counter.
const eventPoll = 10 * time.Millisecond

// Service runs one controller from a configuration received on config/esc
// and exposes it on the bus. A new configuration replaces the running
// controller; the output is driven to neutral in between.
type Service struct {
	conn  *bus.Connection
	res   periph.Resources
	yield func()

	ctl    *Controller
	cfg    *Config // config of ctl, restored when a replacement fails
	cancel context.CancelFunc
	done   <-chan error

	lastMode        Mode
	lastTransitions uint32
}

// New returns a service for the given peripherals. yield, if non-nil, is
// called between loop iterations.
func New(conn *bus.Connection, res periph.Resources, yield func()) *Service {
	return &Service{conn: conn, res: res, yield: yield}
}

func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(TopicConfig)
	ctlSub := s.conn.Subscribe(topicCtl)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctlSub)

	s.publishService(consts.LevelIdle, "awaiting_config")

	tele := time.NewTicker(DefaultTelemetryPeriod)
	defer tele.Stop()
	watch := time.NewTicker(eventPoll)
	defer watch.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopController()
			s.publishService(consts.LevelStopped, "context_cancelled")
			return

		case msg := <-cfgSub.Channel():
			if msg == nil || msg.Payload == nil {
				continue
			}
			in, err := decodeConfig(msg.Payload)
			if err != nil {
				s.publishService(consts.LevelError, string(errcode.InvalidPayload))
				continue
			}
			cfg, err := Normalise(in)
			if err != nil {
				println("[esc] Warn: config rejected:", err.Error())
				s.publishService(consts.LevelError, string(errcode.Of(err)))
				continue
			}
			prev := s.cfg
			s.stopController()
			if err := s.startController(ctx, cfg); err != nil {
				println("[esc] Warn: controller start failed:", err.Error())
				s.publishService(consts.LevelError, string(errcode.Of(err)))
				s.restore(ctx, prev)
				continue
			}
			tele.Reset(util.TelemetryPeriod(cfg.TelemetryPeriod, DefaultTelemetryPeriod))
			s.publishService(consts.LevelRunning, "configured")
			s.publishState()

		case msg := <-ctlSub.Channel():
			if msg == nil || len(msg.Topic) < 3 || s.ctl == nil {
				continue
			}
			switch msg.Topic[2] {
			case consts.CtrlEdge:
				s.ctl.Edge()
			case consts.CtrlReadNow:
				s.publishState()
			case consts.CtrlSetRate:
				if p, ok := msg.Payload.(types.SetRate); ok && p.Period > 0 {
					tele.Reset(util.TelemetryPeriod(p.Period, DefaultTelemetryPeriod))
				}
			}

		case err := <-s.done:
			s.cancel()
			s.ctl, s.cfg, s.cancel, s.done = nil, nil, nil, nil
			if ctx.Err() != nil {
				continue
			}
			// The loop only returns on cancellation, so this is a fault.
			println("[esc] Warn: controller exited:", errString(err))
			s.publishService(consts.LevelError, "controller_exited")
			s.conn.Publish(s.conn.NewMessage(TopicState, nil, true))

		case <-watch.C:
			s.emitModeChange()

		case <-tele.C:
			s.publishState()
		}
	}
}

func (s *Service) startController(ctx context.Context, cfg Config) error {
	c, err := NewController(s.res, cfg)
	if err != nil {
		return err
	}
	if s.yield != nil {
		c.SetYield(s.yield)
	}
	cctx, cancel := context.WithCancel(ctx)
	done, err := c.Start(cctx)
	if err != nil {
		cancel()
		return err
	}

	s.ctl, s.cfg, s.cancel, s.done = c, &cfg, cancel, done
	snap := c.Machine().Snapshot()
	s.lastMode, s.lastTransitions = snap.Mode, snap.Transitions
	println("[esc] Info: controller running, policy", string(cfg.Mapper.Policy()), "boot", cfg.Boot.String())
	return nil
}

func (s *Service) stopController() {
	if s.ctl == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctl, s.cfg, s.cancel, s.done = nil, nil, nil, nil
}

// restore restarts the previous configuration after a replacement failed
// to start. With nothing to restore the retained state is cleared so it
// does not describe a controller that no longer runs.
func (s *Service) restore(ctx context.Context, prev *Config) {
	if prev != nil {
		if err := s.startController(ctx, *prev); err == nil {
			s.publishService(consts.LevelRunning, "restored_previous")
			s.publishState()
			return
		}
		println("[esc] Warn: previous config failed to restart")
	}
	s.conn.Publish(s.conn.NewMessage(TopicState, nil, true))
}

func (s *Service) emitModeChange() {
	if s.ctl == nil {
		return
	}
	snap := s.ctl.Machine().Snapshot()
	if snap.Transitions == s.lastTransitions {
		return
	}
	ev := types.ModeChange{From: s.lastMode.Public(), To: snap.Mode.Public(), TS: timex.NowNs()}
	s.lastMode, s.lastTransitions = snap.Mode, snap.Transitions
	s.conn.Publish(s.conn.NewMessage(TopicEvent, ev, false))
	// Keep the retained state in step with events.
	s.publishState()
}

func (s *Service) publishState() {
	if s.ctl == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(TopicState, s.ctl.State(), true))
}

func (s *Service) publishService(level, status string) {
	pl := types.ServiceState{Level: level, Status: status, TS: timex.NowNs()}
	s.conn.Publish(s.conn.NewMessage(TopicService, pl, true))
}

func decodeConfig(p any) (types.ESCConfig, error) {
	switch v := p.(type) {
	case types.ESCConfig:
		return v, nil
	case *types.ESCConfig:
		if v != nil {
			return *v, nil
		}
		return types.ESCConfig{}, errcode.InvalidPayload
	}
	var c types.ESCConfig
	err := util.DecodeJSON(p, &c)
	return c, err
}

func errString(err error) string {
	if err == nil {
		return "nil"
	}
	return err.Error()
}
