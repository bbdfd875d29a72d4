package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// openers maps a platform to the command that hands a URL to the default browser.
var openers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"windows": {"cmd", "/c", "start"},
}

// OpenBrowser opens the default system browser to the specified URL, e.g. a backup's public download link.
func OpenBrowser(url string) error {
	rt := getRuntime()
	argv, ok := openers[rt]
	if !ok {
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	cmd := exec.Command(argv[0], append(argv[1:], url)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
