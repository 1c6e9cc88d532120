package consts

import "testing"

func TestLevelsDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, l := range []string{LevelIdle, LevelRunning, LevelStopped, LevelError} {
		if l == "" || seen[l] {
			t.Fatalf("level %q empty or repeated", l)
		}
		seen[l] = true
	}
}

func TestCtlVerbsDistinctFromTopics(t *testing.T) {
	topics := map[string]bool{TokConfig: true, TokESC: true, TokState: true, TokEvent: true, TokService: true, TokCtl: true}
	for _, v := range []string{CtrlEdge, CtrlReadNow, CtrlSetRate} {
		if topics[v] {
			t.Fatalf("verb %q collides with a topic token", v)
		}
	}
}
