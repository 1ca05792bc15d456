package browser

import (
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// DefaultFlags are passed to every launch
var DefaultFlags = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-dev-shm-usage",
	"--disable-gpu",
	"--disable-features=HttpsFirstBalancedModeAutoEnable",
}

// splitFlag turns "--name=value" into ("name", "value", true)
func splitFlag(raw string) (flags.Flag, string, bool) {
	name, val, hasVal := strings.Cut(strings.TrimLeft(strings.TrimSpace(raw), "-"), "=")
	return flags.Flag(name), val, hasVal
}

// applyFlags sets raw command line flags on the launcher
func applyFlags(l *launcher.Launcher, raw []string) *launcher.Launcher {
	for _, f := range raw {
		name, val, hasVal := splitFlag(f)
		if name == "" {
			continue
		}
		if hasVal {
			l = l.Set(name, val)
		} else {
			l = l.Set(name)
		}
	}
	return l
}

// newLauncher builds a launcher for opts without starting it
func newLauncher(opts LaunchOptions) *launcher.Launcher {
	l := launcher.New().Headless(opts.Headless)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	l = applyFlags(l, opts.Flags)
	if opts.Proxy != nil && opts.Proxy.Server != "" {
		l = l.Proxy(opts.Proxy.Server)
	}
	return l
}
