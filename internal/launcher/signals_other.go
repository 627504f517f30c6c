//go:build !unix

package launcher

import "os"

var handledSignals = []os.Signal{os.Interrupt}

func exitCode(state *os.ProcessState) int {
	return state.ExitCode()
}
