//go:build !pico

package platform

import "escgate-go/types"

// DefaultPins mirrors the pico plan so host runs report the same numbers.
func DefaultPins() types.PinPlan {
	return types.PinPlan{Button: 14, ButtonActLow: true, LED: 25, PWM: 16, ADC: 26}
}
