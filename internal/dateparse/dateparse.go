// Package dateparse turns the "<source> <time phrase>" labels shown next to
// search results into canonical timestamps and publisher names.
package dateparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/textutil"
)

// Relative phrase suffixes, checked in this order.
var relativeUnits = []struct {
	suffix string
	unit   time.Duration
}{
	{"小时前", time.Hour},
	{"天前", 24 * time.Hour},
	{"分钟前", time.Minute},
}

var (
	dateTimePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})(?:\s+(\d{2}:\d{2})(:\d{2})?)?`)
	datePattern     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// Parse converts a label into the canonical "YYYY-MM-DD HH:MM:SS" form, using now
// as the reference for relative phrases. It returns "" when nothing parses.
func Parse(label string, now time.Time) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	t, ok := parse(label, now)
	if !ok {
		return ""
	}
	return t.Format(domain.TimestampLayout)
}

// ParseTime is Parse returning a time, or nil when nothing parses.
func ParseTime(label string, now time.Time) (out *time.Time) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()

	t, ok := parse(label, now)
	if !ok {
		return nil
	}
	return &t
}

func parse(label string, now time.Time) (time.Time, bool) {
	cleaned := textutil.Clean(label)
	if cleaned == "" {
		return time.Time{}, false
	}

	parts := strings.Fields(cleaned)
	phrase := parts[len(parts)-1]

	for _, rel := range relativeUnits {
		if strings.Contains(phrase, rel.suffix) {
			return relative(phrase, rel.unit, now)
		}
	}

	if m := dateTimePattern.FindStringSubmatch(cleaned); m != nil {
		clock := "00:00:00"
		if m[2] != "" {
			clock = m[2] + ":00"
			if m[3] != "" {
				clock = m[2] + m[3]
			}
		}
		if t, err := time.ParseInLocation(domain.TimestampLayout, m[1]+" "+clock, now.Location()); err == nil {
			return t, true
		}
	}

	// The time component may be out of range while the date is fine.
	if d := datePattern.FindString(cleaned); d != "" {
		if t, err := time.ParseInLocation(domain.DateLayout, d, now.Location()); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// relative handles "<N><unit>前"; every digit in the phrase contributes to N.
func relative(phrase string, unit time.Duration, now time.Time) (time.Time, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phrase)
	if digits == "" {
		return time.Time{}, false
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > math.MaxInt64/int64(unit) {
		return time.Time{}, false
	}

	return now.Add(-time.Duration(n) * unit).Truncate(time.Second), true
}

// ExtractSource returns the publisher name at the front of a label, or
// domain.DefaultSource when the label has fewer than two tokens or the first
// token has no usable characters.
func ExtractSource(label string) string {
	parts := strings.Fields(textutil.Clean(label))
	if len(parts) < 2 {
		return domain.DefaultSource
	}

	source := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Han, r) || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, parts[0])
	if source == "" {
		return domain.DefaultSource
	}
	return source
}
