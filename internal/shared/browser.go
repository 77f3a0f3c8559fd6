package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserFunc opens a URL for the user. [OpenBrowser] is the default implementation.
type BrowserFunc func(url string) error

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser starts the platform's default browser on url without waiting for it to exit.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch rt := getRuntime(); rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	go cmd.Wait()
	return nil
}
