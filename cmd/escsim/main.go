// Command escsim runs the throttle controller against simulated hardware.
package main

import "escgate-go/cmd/escsim/cmd"

func main() {
	cmd.Execute()
}
