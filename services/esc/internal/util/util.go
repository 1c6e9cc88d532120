package util

import (
	"encoding/json"
	"time"

	"escgate-go/x/mathx"
)

// Bounds for a requested telemetry period.
const (
	MinTelemetryPeriod = 10 * time.Millisecond
	MaxTelemetryPeriod = time.Hour
)

// DecodeJSON fills dst from raw JSON bytes, a JSON string, or any value
// that round-trips through JSON (e.g. a map from a bridge).
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

// TelemetryPeriod bounds a requested publish period. Non-positive input
// falls back to def.
func TelemetryPeriod(d, def time.Duration) time.Duration {
	if d <= 0 {
		d = def
	}
	return mathx.Clamp(d, MinTelemetryPeriod, MaxTelemetryPeriod)
}
