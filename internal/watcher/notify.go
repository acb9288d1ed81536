package watcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Notify shows an alert as a desktop notification: osascript on macOS,
// notify-send on Linux. When neither can be used the alert is written to
// stderr instead.
func Notify(alert Alert) error {
	cmd := notifyCommand(runtime.GOOS, alert)
	if cmd == nil || cmd.Run() != nil {
		return writeAlert(os.Stderr, alert)
	}
	return nil
}

// notifyCommand builds the notification command for goos, or returns nil
// when the platform has no supported notifier installed.
func notifyCommand(goos string, alert Alert) *exec.Cmd {
	switch goos {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title "precivox" subtitle %q`,
			alert.Message, alertTitle(alert))
		if alert.Level == "critical" {
			script += ` sound name "Basso"`
		}
		return exec.Command("osascript", "-e", script)
	case "linux":
		if _, err := exec.LookPath("notify-send"); err != nil {
			return nil
		}
		return exec.Command("notify-send", "-u", urgency(alert.Level), "precivox: "+alertTitle(alert), alert.Message)
	default:
		return nil
	}
}

// urgency maps alert levels to notify-send urgency levels.
func urgency(level string) string {
	switch level {
	case "critical":
		return "critical"
	case "warning":
		return "normal"
	default:
		return "low"
	}
}

func writeAlert(w io.Writer, alert Alert) error {
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", alert.Level, alertTitle(alert), alert.Message)
	return err
}

// alertTitle prefixes the title with the list name when there is one.
func alertTitle(alert Alert) string {
	if alert.List == "" {
		return alert.Title
	}
	return alert.List + ": " + alert.Title
}
