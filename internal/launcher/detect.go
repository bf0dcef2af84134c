package launcher

import (
	"os"
	"os/exec"
	"runtime"
)

// Terminal family names recognized by the launcher.
const (
	AppITerm     = "iterm2"
	AppTerminal  = "terminal" // macOS Terminal.app
	AppKitty     = "kitty"
	AppAlacritty = "alacritty"
	AppGnome     = "gnome-terminal"
	AppKonsole   = "konsole"
	AppXterm     = "xterm"
	// AppHeadless runs the shell on a PTY with no window at all. Never
	// auto-selected; callers opt in explicitly.
	AppHeadless = "headless"
)

// Detector discovers which terminal applications are present on the
// host. Lookup functions are injectable for tests.
type Detector struct {
	goos     string
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
}

// NewDetector creates a detector for the current platform.
func NewDetector() *Detector {
	return &Detector{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		stat:     os.Stat,
	}
}

// preferenceOrder is the static per-platform preference among terminal
// applications, best first.
func (d *Detector) preferenceOrder() []string {
	switch d.goos {
	case "darwin":
		return []string{AppITerm, AppTerminal}
	case "linux":
		return []string{AppKitty, AppAlacritty, AppGnome, AppKonsole, AppXterm}
	default:
		return nil
	}
}

// Detect reports whether the named terminal application is present.
func (d *Detector) Detect(app string) bool {
	switch app {
	case AppHeadless:
		return true
	case AppITerm:
		_, err := d.stat("/Applications/iTerm.app")
		return d.goos == "darwin" && err == nil
	case AppTerminal:
		return d.goos == "darwin"
	case AppKitty, AppAlacritty, AppGnome, AppKonsole, AppXterm:
		_, err := d.lookPath(app)
		return err == nil
	}
	return false
}

// Default returns the first detected terminal application in the
// platform preference order, or "" when none is present.
func (d *Detector) Default() string {
	for _, app := range d.preferenceOrder() {
		if d.Detect(app) {
			return app
		}
	}
	return ""
}
