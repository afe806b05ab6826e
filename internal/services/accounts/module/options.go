package module

import (
	"causelist/internal/platform/config"
)

// Options for the accounts module
type Options struct {
	SearchMinLen     int
	SearchMaxLen     int
	SearchMaxPerUser int
}

// FromConfig fills options from environment
// CORE_SAVED_SEARCH_MIN_LEN (default 3) and CORE_SAVED_SEARCH_MAX_LEN (default 100)
// bound the search text; CORE_SAVED_SEARCH_MAX_PER_USER (default 10) caps searches per user
func FromConfig(cfg config.Conf) Options {
	ss := cfg.Prefix("CORE_SAVED_SEARCH_")
	return Options{
		SearchMinLen:     ss.MayInt("MIN_LEN", 3),
		SearchMaxLen:     ss.MayInt("MAX_LEN", 100),
		SearchMaxPerUser: ss.MayInt("MAX_PER_USER", 10),
	}
}
