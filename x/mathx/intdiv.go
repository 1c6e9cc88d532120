package mathx

import "golang.org/x/exp/constraints"

// CeilDiv returns ceil(a/b) for unsigned integers. b == 0 yields 0.
func CeilDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

// TruncDiv returns a/b rounded toward zero. b == 0 yields 0.
func TruncDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return a / b
}
