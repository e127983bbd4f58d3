//go:build windows

package cli

import "os"

// notifyUSR1 returns a channel that never receives (SIGUSR1 is not available on Windows).
func notifyUSR1() chan os.Signal {
	return make(chan os.Signal)
}
