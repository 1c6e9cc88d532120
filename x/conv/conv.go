// Package conv appends decimal integers to byte slices without fmt or
// strconv, for MCU builds.
package conv

// AppendUint appends the base-10 form of n to dst.
func AppendUint(dst []byte, n uint64) []byte {
	var buf [20]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, buf[i:]...)
}

// AppendInt appends the base-10 form of n to dst, with a leading '-' when
// negative.
func AppendInt(dst []byte, n int64) []byte {
	if n >= 0 {
		return AppendUint(dst, uint64(n))
	}
	dst = append(dst, '-')
	// Negating as uint64 keeps math.MinInt64 correct.
	return AppendUint(dst, -uint64(n))
}

// AppendField appends " key=" then n. Negative values come from
// signed counters such as elapsed durations.
func AppendField(dst []byte, key string, n int64) []byte {
	dst = append(dst, ' ')
	dst = append(dst, key...)
	dst = append(dst, '=')
	return AppendInt(dst, n)
}
