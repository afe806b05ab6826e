package email

import (
	"context"

	"causelist/internal/platform/logger"
)

// LogSink is the Port used when SMTP is not configured. Events land in the
// structured log instead of a mailbox.
type LogSink struct{}

// NewLogSink constructs a LogSink
func NewLogSink() *LogSink { return &LogSink{} }

// DataError logs the report and succeeds
func (LogSink) DataError(ctx context.Context, r DataErrorReport) error {
	logger.C(ctx).Error().
		Str("kind", r.Kind).
		Str("date", r.Date).
		Str("url", r.URL).
		AnErr("cause", r.Err).
		Msg("data error report (email disabled)")
	return nil
}

// SavedSearchDigest logs the digest and succeeds
func (LogSink) SavedSearchDigest(ctx context.Context, d Digest) error {
	total := 0
	for _, s := range d.Searches {
		total += len(s.Matches)
	}
	logger.C(ctx).Info().
		Str("user", d.UserEmail).
		Int("searches", len(d.Searches)).
		Int("matches", total).
		Msg("saved search digest (email disabled)")
	return nil
}
