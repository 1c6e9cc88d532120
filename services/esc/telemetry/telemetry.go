// Package telemetry mirrors controller state to a serial port as text
// lines and accepts single-byte commands back. Formatting avoids fmt so it
// fits MCU builds.
package telemetry

import (
	"context"

	"escgate-go/bus"
	"escgate-go/services/esc"
	"escgate-go/services/esc/internal/consts"
	"escgate-go/types"
	"escgate-go/x/conv"
)

// Port is the transmit side of a serial port.
type Port interface {
	Write(p []byte) (int, error)
}

// Receiver is the receive side; nil disables commands.
type Receiver interface {
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// Command bytes accepted on the receive side.
const (
	CmdEdge    = 'e'
	CmdReadNow = 'r'
)

// AppendState formats s as one line.
func AppendState(dst []byte, s types.ESCState) []byte {
	dst = append(dst, "esc state mode="...)
	dst = append(dst, string(s.Mode)...)
	dst = conv.AppendField(dst, "pulse", int64(s.Pulse))
	dst = conv.AppendField(dst, "sample", int64(s.Sample))
	dst = conv.AppendField(dst, "arming_ms", s.ArmingElapsed.Milliseconds())
	dst = conv.AppendField(dst, "faults", int64(s.Faults))
	dst = conv.AppendField(dst, "dropped", int64(s.DroppedEdges))
	dst = conv.AppendField(dst, "loops", int64(s.Loops))
	return append(dst, '\n')
}

// AppendEvent formats e as one line.
func AppendEvent(dst []byte, e types.ModeChange) []byte {
	dst = append(dst, "esc event "...)
	dst = append(dst, string(e.From)...)
	dst = append(dst, "->"...)
	dst = append(dst, string(e.To)...)
	return append(dst, '\n')
}

// Run writes every esc/state and esc/event message to tx until ctx ends.
// If rx is non-nil, command bytes are turned into esc/ctl messages.
func Run(ctx context.Context, conn *bus.Connection, tx Port, rx Receiver) {
	states := conn.Subscribe(esc.TopicState)
	events := conn.Subscribe(esc.TopicEvent)
	defer conn.Unsubscribe(states)
	defer conn.Unsubscribe(events)

	if rx != nil {
		go readCommands(ctx, conn, rx)
	}

	line := make([]byte, 0, 128)
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-states.Channel():
			if s, ok := m.Payload.(types.ESCState); ok {
				line = AppendState(line[:0], s)
				_, _ = tx.Write(line)
			}
		case m := <-events.Channel():
			if e, ok := m.Payload.(types.ModeChange); ok {
				line = AppendEvent(line[:0], e)
				_, _ = tx.Write(line)
			}
		}
	}
}

func readCommands(ctx context.Context, conn *bus.Connection, rx Receiver) {
	var buf [16]byte
	for {
		n, err := rx.RecvSomeContext(ctx, buf[:])
		if err != nil {
			return
		}
		for _, c := range buf[:n] {
			switch c {
			case CmdEdge:
				conn.Publish(conn.NewMessage(esc.CtlTopic(consts.CtrlEdge), nil, false))
			case CmdReadNow:
				conn.Publish(conn.NewMessage(esc.CtlTopic(consts.CtrlReadNow), nil, false))
			}
		}
	}
}
