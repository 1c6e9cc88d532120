package util

import (
	"testing"
	"time"

	"escgate-go/types"
)

func TestDecodeJSON(t *testing.T) {
	for name, in := range map[string]any{
		"bytes":  []byte(`{"policy":"direct","sample_max":4095,"arm_delay":1000000000}`),
		"string": `{"policy":"direct","sample_max":4095,"arm_delay":1000000000}`,
		"map":    map[string]any{"policy": "direct", "sample_max": 4095, "arm_delay": 1_000_000_000},
	} {
		var c types.ESCConfig
		if err := DecodeJSON(in, &c); err != nil {
			t.Fatalf("%s: decode failed: %v", name, err)
		}
		if c.Policy != "direct" || c.SampleMax != 4095 || c.ArmDelay != time.Second {
			t.Fatalf("%s: unexpected result: %+v", name, c)
		}
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var c types.ESCConfig
	if err := DecodeJSON("{", &c); err == nil {
		t.Fatal("expected error")
	}
}

func TestTelemetryPeriod(t *testing.T) {
	def := 100 * time.Millisecond
	cases := []struct{ in, want time.Duration }{
		{0, def},
		{-time.Second, def},
		{time.Millisecond, MinTelemetryPeriod},
		{2 * time.Hour, MaxTelemetryPeriod},
		{time.Second, time.Second},
	}
	for _, c := range cases {
		if got := TelemetryPeriod(c.in, def); got != c.want {
			t.Fatalf("TelemetryPeriod(%v)=%v want %v", c.in, got, c.want)
		}
	}
}
