package module

import (
	"causelist/internal/platform/config"
)

// Options for the notify module
type Options struct {
	MaxPerWindow int
	WindowHours  int
	BaseURL      string
}

// FromConfig fills options from environment
// CORE_NOTIFY_MAX_PER_WINDOW (default 1) caps digests per user per window
// CORE_NOTIFY_WINDOW_HOURS (default 24) is the sliding window span
// CORE_NOTIFY_BASE_URL is linked from digest footers
func FromConfig(cfg config.Conf) Options {
	n := cfg.Prefix("CORE_NOTIFY_")
	return Options{
		MaxPerWindow: n.MayInt("MAX_PER_WINDOW", 1),
		WindowHours:  n.MayInt("WINDOW_HOURS", 24),
		BaseURL:      n.MayString("BASE_URL", ""),
	}
}
