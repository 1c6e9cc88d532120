package esc

import (
	"testing"
	"time"

	"escgate-go/errcode"
	"escgate-go/types"
)

func TestNormaliseDefaults(t *testing.T) {
	c, err := Normalise(types.ESCConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if c.Boot != Disarmed || c.Mapper.Policy() != PolicyRanged {
		t.Fatalf("boot=%v policy=%v", c.Boot, c.Mapper.Policy())
	}
	if c.FrameHz != 50 || c.TickPeriod != time.Millisecond {
		t.Fatalf("frame=%d tick=%v", c.FrameHz, c.TickPeriod)
	}
	want := Timing{ArmTicks: 3000, BlinkTicks: 100, HeartbeatTicks: 500}
	if c.Timing != want {
		t.Fatalf("timing=%+v", c.Timing)
	}
	if c.SampleTimeout != 5*time.Millisecond || c.TelemetryPeriod != 100*time.Millisecond {
		t.Fatalf("timeout=%v telemetry=%v", c.SampleTimeout, c.TelemetryPeriod)
	}
	if c.Mapper.Map(0) != 1000 || c.Mapper.Map(1023) != 2000 {
		t.Fatal("default mapping changed")
	}
}

func TestNormaliseDirectDefaults(t *testing.T) {
	c, err := Normalise(types.ESCConfig{Policy: "direct"})
	if err != nil {
		t.Fatal(err)
	}
	if c.FrameHz != 1000 || c.Mapper.Neutral() != 0 {
		t.Fatalf("frame=%d neutral=%d", c.FrameHz, c.Mapper.Neutral())
	}
}

func TestNormaliseTickConversion(t *testing.T) {
	c, err := Normalise(types.ESCConfig{TickPeriod: 7 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	// ceil(3000/7)=429, ceil(100/7)=15, ceil(500/7)=72
	want := Timing{ArmTicks: 429, BlinkTicks: 15, HeartbeatTicks: 72}
	if c.Timing != want {
		t.Fatalf("timing=%+v", c.Timing)
	}
	if c.ArmDelay() < 3*time.Second {
		t.Fatalf("arm delay rounded down: %v", c.ArmDelay())
	}

	// Periods shorter than a tick still take one tick.
	c, err = Normalise(types.ESCConfig{TickPeriod: time.Second, BlinkPeriod: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if c.Timing.BlinkTicks != 1 || c.Timing.ArmTicks != 3 {
		t.Fatalf("timing=%+v", c.Timing)
	}
}

func TestNormaliseSampleTimeout(t *testing.T) {
	c, _ := Normalise(types.ESCConfig{SampleTimeout: -1})
	if c.SampleTimeout != 0 {
		t.Fatalf("negative should disable the bound, got %v", c.SampleTimeout)
	}
	c, _ = Normalise(types.ESCConfig{SampleTimeout: 2 * time.Millisecond})
	if c.SampleTimeout != 2*time.Millisecond {
		t.Fatalf("timeout=%v", c.SampleTimeout)
	}
}

func TestNormaliseBootArmed(t *testing.T) {
	c, err := Normalise(types.ESCConfig{BootMode: types.ModeArmed})
	if err != nil || c.Boot != Armed {
		t.Fatalf("boot=%v err=%v", c.Boot, err)
	}
}

func TestNormaliseFoldsCase(t *testing.T) {
	c, err := Normalise(types.ESCConfig{BootMode: " Armed", Policy: "DIRECT"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Boot != Armed || c.Mapper.Policy() != PolicyDirect {
		t.Fatalf("boot=%v policy=%v", c.Boot, c.Mapper.Policy())
	}
}

func TestNormaliseRejects(t *testing.T) {
	cases := map[string]types.ESCConfig{
		"boot arming":    {BootMode: types.ModeArming},
		"boot unknown":   {BootMode: "on"},
		"policy":         {Policy: "expo"},
		"pulse order":    {PulseMin: 2000, PulseMax: 1500},
		"negative tick":  {TickPeriod: -time.Millisecond},
		"negative delay": {ArmDelay: -time.Second},
		"delay overflow": {TickPeriod: time.Nanosecond, ArmDelay: 2 * time.Second},
	}
	for name, in := range cases {
		if _, err := Normalise(in); errcode.Of(err) != errcode.InvalidConfig {
			t.Fatalf("%s: err=%v", name, err)
		}
	}
}
