package quoradate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the rendering used for every resolved date, e.g. "Jan 31, 2015".
const Layout = "Jan 2, 2006"

var (
	// ErrUnrecognized is returned when the text matches none of the known forms.
	ErrUnrecognized = errors.New("unrecognized date format")
	// ErrInvalidDate is returned when the text has a known form but no
	// calendar date satisfies it.
	ErrInvalidDate = errors.New("invalid date")
)

var (
	weekdays = map[string]time.Weekday{
		"Mon": time.Monday,
		"Tue": time.Tuesday,
		"Wed": time.Wednesday,
		"Thu": time.Thursday,
		"Fri": time.Friday,
		"Sat": time.Saturday,
		"Sun": time.Sunday,
	}
	months = map[string]time.Month{
		"Jan": time.January, "Feb": time.February, "Mar": time.March,
		"Apr": time.April, "May": time.May, "Jun": time.June,
		"Jul": time.July, "Aug": time.August, "Sep": time.September,
		"Oct": time.October, "Nov": time.November, "Dec": time.December,
	}

	justNowRe  = regexp.MustCompile(`^just now$`)
	clockRe    = regexp.MustCompile(`^\d+[ap]m$`)
	minutesRe  = regexp.MustCompile(`^(\d+)m ago$`)
	hoursRe    = regexp.MustCompile(`^(\d+)h ago$`)
	weekdayRe  = regexp.MustCompile(`^(Mon|Tue|Wed|Thu|Fri|Sat|Sun)$`)
	monthDayRe = regexp.MustCompile(`^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) (\d+)$`)
	absoluteRe = regexp.MustCompile(`^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) (\d+), (\d+)$`)
)

const (
	maxWeekdayWalk  = 7
	maxMonthDayWalk = 366
	day             = 24 * time.Hour
)

// Resolve turns a short relative date as printed by Quora ("3h ago", "Tue",
// "Jan 5", ...) into an absolute calendar date rendered with Layout.
//
// origin is the reference instant; only its UTC calendar fields are read, so
// callers pass an instant already shifted by the viewer's time zone. The time
// of day is never recoverable from these strings and is discarded.
func Resolve(origin time.Time, text string) (string, error) {
	t, err := resolve(origin.UTC(), text)
	if err != nil {
		return "", err
	}
	return t.Format(Layout), nil
}

func resolve(origin time.Time, text string) (time.Time, error) {
	switch {
	case justNowRe.MatchString(text), clockRe.MatchString(text):
		return origin, nil
	case minutesRe.MatchString(text):
		n, err := leadingCount(minutesRe, text)
		if err != nil {
			return time.Time{}, err
		}
		return origin.Add(-time.Duration(n) * time.Minute), nil
	case hoursRe.MatchString(text):
		n, err := leadingCount(hoursRe, text)
		if err != nil {
			return time.Time{}, err
		}
		return origin.Add(-time.Duration(n) * time.Hour), nil
	case weekdayRe.MatchString(text):
		want := weekdays[text]
		for offset := 1; offset <= maxWeekdayWalk; offset++ {
			t := origin.Add(-time.Duration(offset) * day)
			if t.Weekday() == want {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	case monthDayRe.MatchString(text):
		m := monthDayRe.FindStringSubmatch(text)
		month := months[m[1]]
		dom, err := strconv.Atoi(m[2])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
		}
		for offset := 1; offset <= maxMonthDayWalk; offset++ {
			t := origin.Add(-time.Duration(offset) * day)
			if t.Month() == month && t.Day() == dom {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	case absoluteRe.MatchString(text):
		t, err := time.Parse(Layout, text)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, text, err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, strings.TrimSpace(text))
}

func leadingCount(re *regexp.Regexp, text string) (int, error) {
	m := re.FindStringSubmatch(text)
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// digits only, so this is an overflow
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	return n, nil
}
