//go:build pico

package platform

import "escgate-go/types"

// Pico wiring: push button to ground on GP14, onboard LED on GP25, ESC
// signal on GP16, throttle potentiometer on GP26 (ADC0).
func DefaultPins() types.PinPlan {
	return types.PinPlan{Button: 14, ButtonActLow: true, LED: 25, PWM: 16, ADC: 26}
}
