package types

import "time"

// ESCConfig is the serialisable controller configuration. Zero fields take
// defaults when normalised by the esc service.
type ESCConfig struct {
	// BootMode is "disarmed" (default) or "armed". Booting armed means the
	// output follows the throttle input from power-on.
	BootMode ArmMode `json:"boot_mode" yaml:"boot_mode"`

	// Policy is "ranged" (ESC pulse in microseconds) or "direct" (sample
	// passed through as a duty level).
	Policy    string `json:"policy" yaml:"policy"`
	SampleMax uint16 `json:"sample_max" yaml:"sample_max"`
	PulseMin  uint16 `json:"pulse_min" yaml:"pulse_min"`
	PulseMax  uint16 `json:"pulse_max" yaml:"pulse_max"`
	FrameHz   uint64 `json:"frame_hz" yaml:"frame_hz"`

	TickPeriod      time.Duration `json:"tick_period" yaml:"tick_period"`
	ArmDelay        time.Duration `json:"arm_delay" yaml:"arm_delay"`
	BlinkPeriod     time.Duration `json:"blink_period" yaml:"blink_period"`
	HeartbeatPeriod time.Duration `json:"heartbeat_period" yaml:"heartbeat_period"`

	// SampleTimeout bounds one analog conversion. Negative disables the
	// bound (wait forever).
	SampleTimeout   time.Duration `json:"sample_timeout" yaml:"sample_timeout"`
	TelemetryPeriod time.Duration `json:"telemetry_period" yaml:"telemetry_period"`

	Pins PinPlan `json:"pins" yaml:"pins"`
}

// PinPlan names the GPIO numbers used by the controller.
type PinPlan struct {
	Button       int  `json:"button" yaml:"button"`
	ButtonActLow bool `json:"button_active_low" yaml:"button_active_low"`
	LED          int  `json:"led" yaml:"led"`
	PWM          int  `json:"pwm" yaml:"pwm"`
	ADC          int  `json:"adc" yaml:"adc"`

	// ADCSource is "onchip" (default) or "pcf8591" for an external
	// converter on i2c0; ADC is then the PCF8591 channel.
	ADCSource string `json:"adc_source" yaml:"adc_source"`
}
