package module

import (
	"time"

	"causelist/internal/platform/config"
)

// Options for the listings module
type Options struct {
	SummaryURL     string
	Division       string
	UserAgent      string
	RequestTimeout time.Duration
	AllowedHosts   []string

	AppInstance     int
	Interval        time.Duration
	OnStartup       bool
	WindowEnabled   bool
	WindowStartHour int
	WindowEndHour   int

	SMTPHost   string
	SMTPPort   int
	EmailFrom  string
	EmailErrTo []string
}

// FromConfig fills options from environment
// CORE_SCRAPER_SUMMARY_URL is the fixed summary page (required to scrape)
// CORE_SCRAPER_APP_INSTANCE (default 0) gates the scheduler; only 0 leads
// CORE_SCRAPER_INTERVAL_MINUTES (default 60) is the minimum gap between runs
// CORE_SCRAPER_WINDOW_* restricts runs to local hours [start, end)
// CORE_EMAIL_SMTP_HOST empty means the log-only sink
func FromConfig(cfg config.Conf) Options {
	s := cfg.Prefix("CORE_SCRAPER_")
	e := cfg.Prefix("CORE_EMAIL_")
	return Options{
		SummaryURL:     s.MustString("SUMMARY_URL"),
		Division:       s.MayEnum("DIVISION", "Criminal", "Criminal", "Civil"),
		UserAgent:      s.MayString("USER_AGENT", "causelist-archiver/1.0"),
		RequestTimeout: s.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
		AllowedHosts:   s.MayCSV("ALLOWED_HOSTS", nil),

		AppInstance:     s.MayInt("APP_INSTANCE", 0),
		Interval:        time.Duration(s.MayInt("INTERVAL_MINUTES", 60)) * time.Minute,
		OnStartup:       s.MayBool("ON_STARTUP", false),
		WindowEnabled:   s.MayBool("WINDOW_ENABLED", false),
		WindowStartHour: s.MayInt("WINDOW_START_HOUR", 8),
		WindowEndHour:   s.MayInt("WINDOW_END_HOUR", 20),

		SMTPHost:   e.MayString("SMTP_HOST", ""),
		SMTPPort:   e.MayInt("SMTP_PORT", 25),
		EmailFrom:  e.MayString("FROM", "noreply@causelist.local"),
		EmailErrTo: e.MayCSV("ERROR_TO", nil),
	}
}
