package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// BrowserEnv names the variable that overrides the platform opener, as in "firefox" or
// "open -a Safari %s". A %s is replaced with the URL; without one the URL is appended.
const BrowserEnv = "BROWSER"

// BrowserCommand builds the command that opens url, preferring $BROWSER over the platform opener.
func BrowserCommand(url string) (*exec.Cmd, error) {
	if override := strings.TrimSpace(os.Getenv(BrowserEnv)); override != "" {
		// Only the first entry of a colon-separated list is tried.
		fields := strings.Fields(strings.SplitN(override, ":", 2)[0])
		if len(fields) > 0 {
			substituted := false
			for i, f := range fields {
				if strings.Contains(f, "%s") {
					fields[i] = strings.ReplaceAll(f, "%s", url)
					substituted = true
				}
			}
			if !substituted {
				fields = append(fields, url)
			}
			return exec.Command(fields[0], fields[1:]...), nil
		}
	}

	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// OpenBrowser starts the browser on url and returns the command line it ran, for logging.
func OpenBrowser(url string) (string, error) {
	cmd, err := BrowserCommand(url)
	if err != nil {
		return "", err
	}

	line := strings.Join(cmd.Args, " ")
	if err := cmd.Start(); err != nil {
		return line, fmt.Errorf("failed to open browser: %w", err)
	}
	go cmd.Wait()

	return line, nil
}
