package esc

import (
	"sync"
	"testing"

	"escgate-go/services/esc/platform"
)

var sourceTiming = Timing{ArmTicks: 3000, BlinkTicks: 100, HeartbeatTicks: 500}

func newTestMachine(boot Mode) (*Machine, *platform.FakePin, *platform.FakePWM) {
	led := platform.NewFakePin(25)
	out := &platform.FakePWM{}
	return NewMachine(sourceTiming, boot, led, out, 1000), led, out
}

func ticks(m *Machine, n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

func TestArmingBoundary(t *testing.T) {
	m, led, _ := newTestMachine(Disarmed)
	m.Edge()
	if m.Mode() != Arming {
		t.Fatalf("mode=%v", m.Mode())
	}
	ticks(m, 2999)
	if m.Mode() != Arming {
		t.Fatalf("armed early: mode=%v", m.Mode())
	}
	if got := m.Snapshot().ArmingTicks; got != 2999 {
		t.Fatalf("elapsed=%d", got)
	}
	m.Tick()
	if m.Mode() != Armed {
		t.Fatalf("mode=%v after 3000 ticks", m.Mode())
	}
	if !led.Get() {
		t.Fatal("indicator should be on when armed")
	}
	if got := m.Snapshot().ArmingTicks; got != 0 {
		t.Fatalf("elapsed not reset: %d", got)
	}
}

func TestBlinkCadence(t *testing.T) {
	m, led, _ := newTestMachine(Disarmed)
	m.Edge()
	if led.Get() {
		t.Fatal("indicator should start off when arming")
	}
	ticks(m, 99)
	if led.Toggles() != 0 {
		t.Fatalf("toggles=%d after 99 ticks", led.Toggles())
	}
	m.Tick()
	if led.Toggles() != 1 || !led.Get() {
		t.Fatalf("toggles=%d on=%v after 100 ticks", led.Toggles(), led.Get())
	}
	ticks(m, 2899)
	if led.Toggles() != 29 {
		t.Fatalf("toggles=%d during arming", led.Toggles())
	}
}

func TestHeartbeat(t *testing.T) {
	m, led, _ := newTestMachine(Armed)
	ticks(m, 499)
	if led.Toggles() != 0 || !led.Get() {
		t.Fatalf("toggles=%d on=%v", led.Toggles(), led.Get())
	}
	m.Tick()
	if led.Toggles() != 1 || led.Get() {
		t.Fatalf("toggles=%d on=%v after 500 ticks", led.Toggles(), led.Get())
	}
	ticks(m, 500)
	if led.Toggles() != 2 {
		t.Fatalf("toggles=%d after 1000 ticks", led.Toggles())
	}
}

func TestHeartbeatRestartsOnArm(t *testing.T) {
	m, led, _ := newTestMachine(Armed)
	ticks(m, 300)
	m.Edge() // disarm
	m.Edge() // arm again
	ticks(m, 3000)
	if m.Mode() != Armed {
		t.Fatalf("mode=%v", m.Mode())
	}
	before := led.Toggles()
	ticks(m, 499)
	if led.Toggles() != before {
		t.Fatal("heartbeat carried over from the previous armed period")
	}
	m.Tick()
	if led.Toggles() != before+1 {
		t.Fatal("heartbeat did not toggle at 500 ticks")
	}
}

func TestEdgeIgnoredWhileArming(t *testing.T) {
	m, _, out := newTestMachine(Disarmed)
	m.Edge()
	ticks(m, 10)
	m.Edge()
	m.Edge()
	s := m.Snapshot()
	if s.Mode != Arming || s.ArmingTicks != 10 {
		t.Fatalf("snapshot=%+v", s)
	}
	if s.DroppedEdges != 2 {
		t.Fatalf("dropped=%d", s.DroppedEdges)
	}
	if s.Transitions != 1 {
		t.Fatalf("transitions=%d", s.Transitions)
	}
	if len(out.Writes()) != 0 {
		t.Fatalf("arming must not write the output: %v", out.Writes())
	}
}

func TestTickWhileDisarmedKeepsIndicatorOff(t *testing.T) {
	m, led, _ := newTestMachine(Disarmed)
	led.Set(true)
	m.Tick()
	if m.Mode() != Disarmed || led.Get() {
		t.Fatalf("mode=%v led=%v", m.Mode(), led.Get())
	}
	m.Tick()
	if led.Get() {
		t.Fatal("indicator should stay off")
	}
}

func TestDisarmWritesNeutral(t *testing.T) {
	m, led, out := newTestMachine(Armed)
	out.Set(1700)
	m.Edge()
	if m.Mode() != Disarmed {
		t.Fatalf("mode=%v", m.Mode())
	}
	if v, ok := out.Last(); !ok || v != 1000 {
		t.Fatalf("last output=%d (%v), want neutral", v, ok)
	}
	if led.Get() {
		t.Fatal("indicator should be off after disarm")
	}
}

func TestRearmStartsFromZero(t *testing.T) {
	m, _, _ := newTestMachine(Armed)
	m.Edge()
	m.Edge()
	if s := m.Snapshot(); s.Mode != Arming || s.ArmingTicks != 0 {
		t.Fatalf("snapshot=%+v", s)
	}
}

func TestBootModes(t *testing.T) {
	m, led, _ := newTestMachine(Armed)
	if m.Mode() != Armed || !led.Get() {
		t.Fatalf("armed boot: mode=%v led=%v", m.Mode(), led.Get())
	}
	m, led, _ = newTestMachine(Arming)
	if m.Mode() != Disarmed || led.Get() {
		t.Fatalf("arming boot should fall back to disarmed: mode=%v", m.Mode())
	}
}

func TestConcurrentReaderSeesValidMode(t *testing.T) {
	m, _, _ := newTestMachine(Disarmed)
	m.t = Timing{ArmTicks: 5, BlinkTicks: 2, HeartbeatTicks: 3}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20000; i++ {
			m.Tick()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			m.Edge()
		}
	}()

	seen := map[Mode]bool{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			md := m.Mode()
			if !md.Valid() {
				t.Errorf("invalid mode %d", md)
				return
			}
			seen[md] = true
		}
	}()
	wg.Wait()
	close(stop)
	<-done
	if !m.Mode().Valid() {
		t.Fatal("final mode invalid")
	}
}

func TestModeStrings(t *testing.T) {
	cases := map[Mode]string{Disarmed: "disarmed", Arming: "arming", Armed: "armed", Mode(3): "invalid"}
	for m, want := range cases {
		if m.String() != want {
			t.Fatalf("%d: got %q want %q", m, m.String(), want)
		}
	}
	if Mode(3).Valid() {
		t.Fatal("mode 3 should be invalid")
	}
}
