package platform

import "math/bits"

// SampleShift returns the right shift that brings a left-aligned 16-bit
// conversion down to the range [0, sampleMax]. sampleMax is taken as a
// bit width, so 1023 gives 6 and 4095 gives 4.
func SampleShift(sampleMax uint16) uint8 {
	if sampleMax == 0 {
		return 16
	}
	return uint8(16 - bits.Len16(sampleMax))
}
