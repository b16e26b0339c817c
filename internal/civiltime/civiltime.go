package civiltime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTimestamp marks input that cannot be parsed by any supported
// rule. Callers must surface it rather than substituting the current time.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// Zone is the fixed civil zone used for display and day boundaries. The site
// zone has no daylight saving, so a fixed offset is exact and keeps the
// package independent of the host's timezone database.
var Zone = time.FixedZone("UTC+8", 8*60*60)

var (
	spaceSeparatorRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\d.*)$`)
	offsetSuffixRe   = regexp.MustCompile(`([+-])(\d{1,2})(:?(\d{2}))?$`)
	naivePrefixRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}`)
)

// ParseInstant converts a timestamp string into an absolute instant.
//
// Accepted forms, in order:
//   - explicit UTC marker ("Z") or zone offset, including the bare Postgres
//     "+00" form, which is expanded to "+00:00";
//   - space-separated date and time with no offset, rewritten with a "T"
//     separator and treated as UTC;
//   - fully naive ISO date-times, treated as UTC.
//
// Anything else fails with ErrMalformedTimestamp.
func ParseInstant(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrMalformedTimestamp)
	}

	if m := spaceSeparatorRe.FindStringSubmatch(s); m != nil {
		s = m[1] + "T" + m[2]
	}

	switch {
	case strings.HasSuffix(s, "Z"), strings.HasSuffix(s, "z"):
		// Already an explicit UTC marker.
	case offsetSuffixRe.MatchString(s):
		s = normalizeOffset(s)
	case naivePrefixRe.MatchString(s):
		// Naive: assume UTC so civil display lands in the right zone.
		s += "Z"
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}

	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
}

// normalizeOffset rewrites a trailing zone offset into the canonical ±HH:MM
// form: "+00" and "-00" become "+00:00", "+8" becomes "+08:00", "+0800"
// becomes "+08:00". A nonzero offset keeps its sign, so "-00:30" stays half
// an hour west of UTC.
func normalizeOffset(s string) string {
	loc := offsetSuffixRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	m := offsetSuffixRe.FindStringSubmatch(s)
	sign, hours, minutes := m[1], m[2], m[4]
	if minutes == "" {
		minutes = "00"
	}
	h, err := strconv.Atoi(hours)
	if err != nil {
		return s
	}
	if h == 0 && minutes == "00" {
		sign = "+"
	}
	return s[:loc[0]] + fmt.Sprintf("%s%02d:%s", sign, h, minutes)
}

// Clock projects an instant into the civil zone and returns the wall-clock
// time (24-hour HH:MM:SS) and a long-form date string.
func Clock(t time.Time) (timeOfDay, date string) {
	local := t.In(Zone)
	return local.Format("15:04:05"), local.Format("Monday, January 2, 2006")
}

// DayBounds returns the instants of [00:00:00.000, 23:59:59.999] of the civil
// day containing now, for use as query bounds against the remote store.
func DayBounds(now time.Time) (start, end time.Time) {
	local := now.In(Zone)
	y, m, d := local.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, Zone)
	end = time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), Zone)
	return start, end
}

// MinutesOfDay returns civil minutes since midnight for the instant, with
// seconds contributing fractionally. Schedule windows compare against this.
func MinutesOfDay(t time.Time) float64 {
	local := t.In(Zone)
	return float64(local.Hour()*60+local.Minute()) + float64(local.Second())/60
}
