//go:build rp2040 || rp2350

// Command escgate is the RP2 firmware: button-gated throttle to an ESC.
package main

import (
	"context"
	"machine"
	"runtime"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"escgate-go/bus"
	"escgate-go/services/esc"
	"escgate-go/services/esc/platform"
	"escgate-go/services/esc/telemetry"
	"escgate-go/types"
)

// Telemetry UART (GP4/GP5 on a Pico).
const (
	telemetryBaud = 115200
	telemetryTX   = machine.GP4
	telemetryRX   = machine.GP5
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	ctx := context.Background()

	in := types.ESCConfig{Pins: platform.DefaultPins()}
	cfg, err := esc.Normalise(in)
	if err != nil {
		println("[main] config invalid:", err.Error())
		return
	}

	println("[main] opening peripherals …")
	res, err := platform.Open(cfg.Pins, string(cfg.Mapper.Policy()), cfg.FrameHz, cfg.Mapper.SampleMax())
	if err != nil {
		println("[main] platform:", err.Error())
		return
	}

	b := bus.NewBus(4)
	escConn := b.NewConnection("esc")
	uiConn := b.NewConnection("ui")

	println("[main] starting telemetry on uart1 …")
	u := uartx.UART1
	_ = u.Configure(uartx.UARTConfig{BaudRate: telemetryBaud, TX: telemetryTX, RX: telemetryRX})
	go telemetry.Run(ctx, b.NewConnection("uart"), u, u)

	println("[main] starting esc service …")
	// TinyGo schedules cooperatively; the free-running loop must yield so
	// the ticker and bus goroutines get to run.
	go esc.New(escConn, res, runtime.Gosched).Run(ctx)

	uiConn.Publish(uiConn.NewMessage(esc.TopicConfig, in, true))

	for {
		time.Sleep(10 * time.Second)
		printMem()
	}
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
// Uses builtin println to avoid fmt overhead/allocations.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
