//go:build windows

package agent

import "os"

// Windows has no SIGTERM; os.Kill is the closest equivalent and Shutdown
// falls straight through to it.
func terminateSignal() os.Signal { return os.Kill }
