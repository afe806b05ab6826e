package module

import (
	"causelist/internal/platform/config"
)

// Options for the hearings module
type Options struct {
	RecordsPerPage int
}

// FromConfig fills options from environment
// CORE_API_RECORDS_PER_PAGE (default 25) is the page size when the caller omits limit
func FromConfig(cfg config.Conf) Options {
	a := cfg.Prefix("CORE_API_")
	return Options{
		RecordsPerPage: a.MayInt("RECORDS_PER_PAGE", 25),
	}
}
