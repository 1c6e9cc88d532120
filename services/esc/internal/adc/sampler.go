// Package adc reads one analog channel through a split-phase converter with
// a bounded end-of-conversion wait.
package adc

import (
	"sync/atomic"
	"time"

	"escgate-go/errcode"
	"escgate-go/services/esc/periph"

	"tinygo.org/x/drivers"
)

// Sampler owns a converter. It is used from a single goroutine; the
// counters may be read from anywhere.
type Sampler struct {
	conv    periph.Converter
	timeout time.Duration // <= 0 waits forever
	now     func() time.Time

	last     atomic.Uint32
	timeouts atomic.Uint32
}

var _ drivers.Sensor = (*Sampler)(nil)

func New(conv periph.Converter, timeout time.Duration) *Sampler {
	return &Sampler{conv: conv, timeout: timeout, now: time.Now}
}

// Read starts a conversion and polls for completion. If the deadline
// passes first it returns errcode.Timeout and the last good value.
func (s *Sampler) Read() (uint16, error) {
	s.conv.Start()
	if s.timeout > 0 {
		deadline := s.now().Add(s.timeout)
		for !s.conv.Done() {
			if !s.now().Before(deadline) {
				s.timeouts.Add(1)
				return s.Last(), errcode.Timeout
			}
		}
	} else {
		for !s.conv.Done() {
		}
	}
	v := s.conv.Result()
	s.last.Store(uint32(v))
	return v, nil
}

// Update implements drivers.Sensor. Only drivers.Voltage is supported.
func (s *Sampler) Update(which drivers.Measurement) error {
	if which&drivers.Voltage == 0 {
		return errcode.Unsupported
	}
	_, err := s.Read()
	return err
}

// Last is the most recent completed conversion.
func (s *Sampler) Last() uint16 { return uint16(s.last.Load()) }

// Timeouts counts conversions abandoned at the deadline.
func (s *Sampler) Timeouts() uint32 { return s.timeouts.Load() }
