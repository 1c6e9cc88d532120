package types

import "time"

// ------------------------
// Arming state (bus-facing)
// ------------------------

// ArmMode is the public spelling of the arm/disarm state.
type ArmMode string

const (
	ModeDisarmed ArmMode = "disarmed"
	ModeArming   ArmMode = "arming"
	ModeArmed    ArmMode = "armed"
)

// ESCState is published retained on esc/state.
type ESCState struct {
	Mode          ArmMode       `json:"mode"`
	ArmingElapsed time.Duration `json:"arming_elapsed_ns"`
	Pulse         uint16        `json:"pulse"`  // last command written to the output
	Sample        uint16        `json:"sample"` // last analog sample
	Policy        string        `json:"policy"`
	Transitions   uint32        `json:"transitions"`
	DroppedEdges  uint32        `json:"dropped_edges"` // edges ignored while arming
	Faults        uint32        `json:"faults"`        // analog conversion timeouts
	Loops         uint32        `json:"loops"`
	TS            int64         `json:"ts_ns"`
}

// ModeChange is published (not retained) on esc/event.
type ModeChange struct {
	From ArmMode `json:"from"`
	To   ArmMode `json:"to"`
	TS   int64   `json:"ts_ns"`
}

// ServiceState is published retained on esc/service.
type ServiceState struct {
	Level  string `json:"level"`  // "starting", "running", "stopped", "error"
	Status string `json:"status"` // short code
	TS     int64  `json:"ts_ns"`
}

// SetRate changes the telemetry period (esc/ctl/set_rate).
type SetRate struct {
	Period time.Duration `json:"period"`
}
