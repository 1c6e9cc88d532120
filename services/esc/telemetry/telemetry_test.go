package telemetry

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"escgate-go/bus"
	"escgate-go/services/esc"
	"escgate-go/services/esc/internal/consts"
	"escgate-go/types"
)

func TestAppendState(t *testing.T) {
	s := types.ESCState{
		Mode:          types.ModeArming,
		ArmingElapsed: 1500 * time.Millisecond,
		Pulse:         1000,
		Sample:        12,
		DroppedEdges:  2,
		Loops:         99,
	}
	got := string(AppendState(nil, s))
	want := "esc state mode=arming pulse=1000 sample=12 arming_ms=1500 faults=0 dropped=2 loops=99\n"
	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestAppendEvent(t *testing.T) {
	got := string(AppendEvent([]byte("x"), types.ModeChange{From: types.ModeArmed, To: types.ModeDisarmed}))
	if got != "xesc event armed->disarmed\n" {
		t.Fatalf("got %q", got)
	}
}

type syncBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuf) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuf) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// chanRx hands out queued chunks until ctx ends.
type chanRx chan []byte

func (c chanRx) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case b := <-c:
		return copy(p, b), nil
	}
}

func TestRunMirrorsAndAcceptsCommands(t *testing.T) {
	b := bus.NewBus(16)
	pub := b.NewConnection("esc")
	ctl := pub.Subscribe(bus.T("esc", "ctl", "#"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuf{}
	rx := make(chanRx, 1)
	done := make(chan struct{})
	go func() { defer close(done); Run(ctx, b.NewConnection("uart"), out, rx) }()

	// Retained state is replayed to the new subscriber, so ordering with
	// Run's startup does not matter.
	pub.Publish(pub.NewMessage(esc.TopicState, types.ESCState{Mode: types.ModeDisarmed, Pulse: 1000}, true))

	deadline := time.Now().Add(time.Second)
	for !strings.Contains(out.String(), "mode=disarmed") {
		if time.Now().After(deadline) {
			t.Fatalf("no state line; got %q", out.String())
		}
		time.Sleep(time.Millisecond)
	}

	rx <- []byte("xe r")
	var verbs []string
	for len(verbs) < 2 {
		select {
		case m := <-ctl.Channel():
			verbs = append(verbs, m.Topic[2])
		case <-time.After(time.Second):
			t.Fatalf("commands: %v", verbs)
		}
	}
	if verbs[0] != consts.CtrlEdge || verbs[1] != consts.CtrlReadNow {
		t.Fatalf("verbs=%v", verbs)
	}

	cancel()
	<-done
}
