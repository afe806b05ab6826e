// Package parser turns a cause-list HTML page into validated hearing rows
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"causelist/internal/platform/logger"
	"causelist/internal/services/listings/domain"
)

// Canonical column names. Header cells map onto these by substring match.
const (
	colVenue      = "venue"
	colJudge      = "judge"
	colTime       = "time"
	colCaseNumber = "case number"
	colCaseDetail = "case details"
	colType       = "hearing type"
	colAddInfo    = "additional information"
)

// canonicalColumns in mapping precedence order. "case number" and
// "case details" both start with "case", so the more specific names come
// before shorter substrings would get a chance to claim a header.
var canonicalColumns = []string{
	colCaseNumber, colCaseDetail, colAddInfo, colType, colVenue, colJudge, colTime,
}

// inheritable columns repeat the value above when a cell is empty
var inheritable = map[string]bool{colVenue: true, colJudge: true}

// ErrNoTable means the page had no GOV.UK styled table at all
var ErrNoTable = errors.New("no cause list table found")

// MissingColumnsError is fatal: the table lacks required headers
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("table missing required columns: %s", strings.Join(e.Missing, ", "))
}

// MalformedTableError is fatal: the first body row is empty in an
// inheritable column, so no value can ever be inherited
type MalformedTableError struct {
	Column string
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("first row empty in inheritable column %q", e.Column)
}

// IsFatal reports whether a parse error should abort the whole page
func IsFatal(err error) bool {
	var mc *MissingColumnsError
	var mt *MalformedTableError
	return errors.Is(err, ErrNoTable) || errors.As(err, &mc) || errors.As(err, &mt)
}

var caseNumberRe = regexp.MustCompile(`^\d{9}\s[A-Za-z]\s\d+$`)

// Parse extracts validated hearings from a cause-list page. Rows keep table
// order. Rows failing validation are dropped with a warning; structural
// problems return a fatal error.
func Parse(
	ctx context.Context,
	body []byte,
	listDate time.Time,
	sourceURL, division string,
	scrapedAt time.Time,
) ([]domain.Hearing, error) {
	l := logger.C(ctx).With().
		Str("component", "parser").
		Str("list_date", listDate.Format(domain.DateFormat)).
		Str("url", sourceURL).
		Logger()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse cause list page: %w", err)
	}

	tables := doc.Find(`table[class*="govuk-table"]`)
	if tables.Length() == 0 {
		return nil, ErrNoTable
	}
	if tables.Length() > 1 {
		l.Warn().Int("tables", tables.Length()).Msg("multiple cause list tables, using first")
	}
	table := tables.First()

	cols, headerInBody, err := mapHeaders(table)
	if err != nil {
		return nil, err
	}

	var out []domain.Hearing
	lastSeen := map[string]string{}

	rows := table.Find("tbody tr")
	if headerInBody && rows.Length() > 0 {
		// the header row landed in tbody because the table has no thead
		rows = rows.Slice(1, rows.Length())
	}
	rows.EachWithBreak(func(rowIdx int, tr *goquery.Selection) bool {
		cells := tr.Find("td, th").Map(func(_ int, c *goquery.Selection) string {
			return strings.TrimSpace(c.Text())
		})

		fields := map[string]*string{}
		for name, idx := range cols {
			var raw string
			if idx < len(cells) {
				raw = cells[idx]
			}
			if raw == "" && inheritable[name] {
				if prev, ok := lastSeen[name]; ok {
					fields[name] = &prev
					continue
				}
				if rowIdx == 0 {
					err = &MalformedTableError{Column: name}
					return false
				}
				fields[name] = nil
				continue
			}
			if raw != "" && inheritable[name] {
				lastSeen[name] = raw
			}
			v := raw
			fields[name] = &v
		}

		h, ok := buildHearing(l, fields, listDate, sourceURL, division, scrapedAt)
		if ok {
			out = append(out, h)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	l.Info().Int("rows", rows.Length()).Int("valid", len(out)).Msg("cause list parsed")
	return out, nil
}

// mapHeaders maps header cells to canonical columns and checks required ones.
// headerInBody reports that the header row was the table's first tr rather
// than a thead, so callers must skip it when walking body rows.
func mapHeaders(table *goquery.Selection) (cols map[string]int, headerInBody bool, err error) {
	headers := table.Find("thead th").Map(func(_ int, c *goquery.Selection) string {
		return strings.ToLower(strings.TrimSpace(c.Text()))
	})
	if len(headers) == 0 {
		headerInBody = true
		headers = table.Find("tr").First().Find("th, td").Map(func(_ int, c *goquery.Selection) string {
			return strings.ToLower(strings.TrimSpace(c.Text()))
		})
	}

	cols = map[string]int{}
	for i, h := range headers {
		for _, name := range canonicalColumns {
			if _, taken := cols[name]; taken {
				continue
			}
			if strings.Contains(h, name) {
				cols[name] = i
				break
			}
		}
	}

	var missing []string
	for _, required := range []string{colTime, colCaseNumber} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, headerInBody, &MissingColumnsError{Missing: missing}
	}
	return cols, headerInBody, nil
}

// buildHearing validates one parsed row and attaches metadata
func buildHearing(
	l zerolog.Logger,
	fields map[string]*string,
	listDate time.Time,
	sourceURL, division string,
	scrapedAt time.Time,
) (domain.Hearing, bool) {
	timeStr := str(fields[colTime])
	caseNumber := str(fields[colCaseNumber])

	if caseNumber == "" {
		l.Warn().Str("time", timeStr).Msg("dropping row with empty case number")
		return domain.Hearing{}, false
	}
	hdt, err := domain.CombineDateTime(listDate, timeStr)
	if err != nil {
		l.Warn().Str("case_number", caseNumber).Err(err).Msg("dropping row with invalid time")
		return domain.Hearing{}, false
	}
	if !caseNumberRe.MatchString(caseNumber) {
		l.Warn().Str("case_number", caseNumber).Msg("case number does not match expected pattern")
	}

	return domain.Hearing{
		ListDate:              listDate,
		CaseNumber:            caseNumber,
		Time:                  timeStr,
		HearingDatetime:       hdt,
		Venue:                 fields[colVenue],
		Judge:                 fields[colJudge],
		CaseDetails:           str(fields[colCaseDetail]),
		HearingType:           str(fields[colType]),
		AdditionalInformation: str(fields[colAddInfo]),
		Division:              division,
		SourceURL:             sourceURL,
		ScrapedAt:             scrapedAt,
	}, true
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
