package consts

// Top-level topics
const (
	TokConfig  = "config"
	TokESC     = "esc"
	TokState   = "state"
	TokEvent   = "event"
	TokService = "service"
	TokCtl     = "ctl"
)

// Control verbs
const (
	CtrlEdge    = "edge"
	CtrlReadNow = "read_now"
	CtrlSetRate = "set_rate"
)

// Service levels
const (
	LevelIdle    = "idle"
	LevelRunning = "running"
	LevelStopped = "stopped"
	LevelError   = "error"
)
