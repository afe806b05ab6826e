package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"causelist/internal/platform/logger"
)

// SMTPOptions configures the SMTP sender
type SMTPOptions struct {
	Host    string
	Port    int
	From    string
	ErrorTo []string // operator recipients for DataError reports
}

// SMTPSender delivers mail over plain SMTP. No auth; the relay is expected to
// live next to the service.
type SMTPSender struct {
	opt  SMTPOptions
	send func(addr, from string, to []string, msg []byte) error
}

// NewSMTP constructs an SMTPSender
func NewSMTP(opt SMTPOptions) *SMTPSender {
	return &SMTPSender{
		opt: opt,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// DataError mails an operator report for a scrape failure
func (s *SMTPSender) DataError(ctx context.Context, r DataErrorReport) error {
	if len(s.opt.ErrorTo) == 0 {
		logger.C(ctx).Warn().Str("kind", r.Kind).Msg("no error recipients configured, dropping report")
		return nil
	}
	subject, body := formatDataError(r)
	return s.deliver(ctx, s.opt.ErrorTo, subject, body)
}

// SavedSearchDigest mails a per-user digest of matched hearings
func (s *SMTPSender) SavedSearchDigest(ctx context.Context, d Digest) error {
	subject, body := formatDigest(d)
	return s.deliver(ctx, []string{d.UserEmail}, subject, body)
}

func (s *SMTPSender) deliver(ctx context.Context, to []string, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.opt.Host, s.opt.Port)
	msg := buildMessage(s.opt.From, to, subject, body)
	if err := s.send(addr, s.opt.From, to, msg); err != nil {
		return fmt.Errorf("email: send via %s: %w", addr, err)
	}
	logger.C(ctx).Debug().Str("subject", subject).Int("recipients", len(to)).Msg("email sent")
	return nil
}

// buildMessage assembles a plain-text RFC 5322 message
func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func formatDataError(r DataErrorReport) (subject, body string) {
	subject = fmt.Sprintf("[causelist] %s failure", r.Kind)
	var b strings.Builder
	fmt.Fprintf(&b, "A %s step failed while archiving cause lists.\n\n", r.Kind)
	if r.Err != nil {
		fmt.Fprintf(&b, "Error: %v\n", r.Err)
	}
	if r.Date != "" {
		fmt.Fprintf(&b, "List date: %s\n", r.Date)
	}
	if r.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
	}
	if r.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", r.Context)
	}
	if r.HTMLSample != "" {
		fmt.Fprintf(&b, "\n--- HTML sample (truncated) ---\n%s\n", r.HTMLSample)
	}
	return subject, b.String()
}

func formatDigest(d Digest) (subject, body string) {
	total := 0
	for _, s := range d.Searches {
		total += len(s.Matches)
	}
	subject = fmt.Sprintf("Cause list matches for your saved searches (%d)", total)

	var b strings.Builder
	name := d.UserName
	if name == "" {
		name = d.UserEmail
	}
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "New hearings match %d of your saved searches.\n", len(d.Searches))
	for _, s := range d.Searches {
		fmt.Fprintf(&b, "\nSearch: %q (%d matches)\n", s.Text, len(s.Matches))
		for _, m := range s.Matches {
			fmt.Fprintf(&b, "  - %s %s", m.DateFormatted, m.Time)
			if m.CaseName != "" {
				fmt.Fprintf(&b, " | %s", m.CaseName)
			}
			if m.Venue != "" {
				fmt.Fprintf(&b, " | %s", m.Venue)
			}
			if m.Judge != "" {
				fmt.Fprintf(&b, " | %s", m.Judge)
			}
			if m.HearingType != "" {
				fmt.Fprintf(&b, " | %s", m.HearingType)
			}
			b.WriteString("\n")
		}
	}
	if d.BaseURL != "" {
		fmt.Fprintf(&b, "\nBrowse the full archive: %s\n", d.BaseURL)
	}
	return subject, b.String()
}
