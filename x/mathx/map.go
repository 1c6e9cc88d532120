package mathx

// MapU16 maps x in [0,inMax] onto [outMin,outMax] using 32-bit intermediates.
// The quotient truncates toward zero; x outside the input range is clamped
// first so the result never leaves [outMin,outMax].
func MapU16(x, inMax, outMin, outMax uint16) uint16 {
	if inMax == 0 || outMax <= outMin {
		return outMin
	}
	x = Clamp(x, 0, inMax)
	span := uint32(outMax - outMin)
	return outMin + uint16(TruncDiv(uint32(x)*span, uint32(inMax)))
}
