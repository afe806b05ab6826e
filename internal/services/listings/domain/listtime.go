package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Cause lists are published in the court's local timezone. list_date is a
// calendar date there and hearing_datetime is assembled there, so DST around
// 1am/2am resolves the way the court intends.
var london = mustLoadLondon()

func mustLoadLondon() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic("listings: load Europe/London: " + err.Error())
	}
	return loc
}

// London returns the court's timezone
func London() *time.Location { return london }

// DateAt truncates t to its calendar date in London, midnight London
func DateAt(t time.Time) time.Time {
	y, m, d := t.In(london).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, london)
}

var listTimeRe = regexp.MustCompile(`(?i)^(\d{1,2})(:\d{2})?\s*(am|pm)$`)

// ParseListTime validates a published time string like "10:30am" or "2pm"
// and returns the 24-hour clock equivalent. 12am maps to 00 and 12pm to 12.
func ParseListTime(s string) (hour, minute int, err error) {
	m := listTimeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("time %q does not match h[:mm]am/pm", s)
	}
	hour, _ = strconv.Atoi(m[1])
	if hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("time %q has hour out of range", s)
	}
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2][1:])
		if minute > 59 {
			return 0, 0, fmt.Errorf("time %q has minute out of range", s)
		}
	}
	meridiem := strings.ToLower(m[3])
	if meridiem == "am" {
		if hour == 12 {
			hour = 0
		}
	} else if hour != 12 {
		hour += 12
	}
	return hour, minute, nil
}

// CombineDateTime assembles list_date and a published time string into an
// instant in London
func CombineDateTime(listDate time.Time, timeStr string) (time.Time, error) {
	h, min, err := ParseListTime(timeStr)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := listDate.In(london).Date()
	return time.Date(y, m, d, h, min, 0, 0, london), nil
}
