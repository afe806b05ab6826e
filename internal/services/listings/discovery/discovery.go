// Package discovery locates daily cause-list links on the court's summary page
package discovery

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"causelist/internal/platform/logger"
	"causelist/internal/services/listings/domain"
)

// Options configures link discovery
type Options struct {
	Division     string // defaults to Criminal
	BaseURL      string // anchors resolve against this
	AllowedHosts []string
}

type anchor struct {
	href string
	text string
}

// FindLinks scans the summary page body for today's and tomorrow's cause-list
// links. Dates are evaluated in the court's timezone. The result holds 0, 1,
// or 2 links, today first. An empty result is not an error.
func FindLinks(ctx context.Context, body []byte, now time.Time, opt Options) ([]domain.DiscoveredLink, error) {
	division := opt.Division
	if division == "" {
		division = domain.DivisionCriminal
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("discovery: parse summary page: %w", err)
	}

	var anchors []anchor
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		anchors = append(anchors, anchor{
			href: strings.TrimSpace(href),
			text: strings.TrimSpace(s.Text()),
		})
	})

	l := logger.C(ctx).With().Str("component", "discovery").Logger()

	today := domain.DateAt(now)
	targets := []time.Time{today, today.AddDate(0, 0, 1)}

	var out []domain.DiscoveredLink
	for _, target := range targets {
		for _, a := range anchors {
			if a.href == "" || !matches(a.text, division, target) {
				continue
			}
			resolved, err := resolveHref(opt.BaseURL, a.href)
			if err != nil {
				l.Warn().Str("href", a.href).Err(err).Msg("unresolvable cause list href")
				continue
			}
			if host := hostOf(resolved); !hostAllowed(host, opt.AllowedHosts) {
				// logged, not rejected
				l.Warn().Str("host", host).Str("url", resolved).Msg("cause list link outside expected hosts")
			}
			out = append(out, domain.DiscoveredLink{
				URL:        resolved,
				LinkText:   a.text,
				TargetDate: target,
				Division:   division,
			})
			break
		}
	}

	l.Info().Int("links", len(out)).Str("division", division).Msg("cause list discovery complete")
	return out, nil
}

// matches applies the full anchor-text predicate for one target date
func matches(text, division string, target time.Time) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "court of appeal") {
		return false
	}
	if !strings.Contains(lower, strings.ToLower(division)) {
		return false
	}

	words := tokenize(lower)
	day := target.Day()
	if !words[fmt.Sprintf("%d", day)] && !words[fmt.Sprintf("%02d", day)] {
		return false
	}
	month := strings.ToLower(target.Month().String())
	if !words[month] && !words[month[:3]] {
		return false
	}
	return words[target.Format("2006")]
}

// tokenize splits text into whole words delimited by non-letter/non-digit runes
func tokenize(s string) map[string]bool {
	words := map[string]bool{}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	for _, f := range fields {
		words[f] = true
	}
	return words
}

func resolveHref(base, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if base == "" {
		return ref.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func hostAllowed(host string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(host, a) {
			return true
		}
	}
	return false
}
