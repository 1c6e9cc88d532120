// Package logger wraps zap for the host-side tools:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing.
//
// Firmware code does not use it; MCU builds log with println.
package logger
