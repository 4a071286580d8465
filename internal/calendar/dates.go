package calendar

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	digitsPattern   = regexp.MustCompile(`^-?\d+$`)
	wrappedPattern  = regexp.MustCompile(`^\D*(\d{6,})\D*$`)
	msDatePattern   = regexp.MustCompile(`^/Date\((-?\d+)(?:[+-]\d{4})?\)/$`)
	clock12Pattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp])\.?[Mm]\.?$`)
	clock24Pattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	bareClockPrefix = regexp.MustCompile(`^\d{1,2}:\d{2}`)
)

// ParseDate resolves a loosely typed date value into an instant in loc.
// It accepts time.Time, numeric epochs (seconds when the integer has at
// most 10 digits, milliseconds otherwise), integers of six or more digits
// wrapped in other text such as "/Date(1700000000000)/", and free-text
// dates. ok is false when nothing matched.
func ParseDate(v any, loc *time.Location) (t time.Time, ok bool) {
	if loc == nil {
		loc = time.Local
	}
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.In(loc), true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return x.In(loc), true
	case json.Number:
		return parseDateString(x.String(), loc)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return time.Time{}, false
		}
		return fromEpoch(strconv.FormatInt(int64(x), 10), loc)
	case int:
		return fromEpoch(strconv.Itoa(x), loc)
	case int64:
		return fromEpoch(strconv.FormatInt(x, 10), loc)
	case string:
		return parseDateString(x, loc)
	default:
		return time.Time{}, false
	}
}

func parseDateString(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if digitsPattern.MatchString(s) {
		return fromEpoch(s, loc)
	}
	if m := msDatePattern.FindStringSubmatch(s); m != nil {
		return fromEpoch(m[1], loc)
	}
	if m := wrappedPattern.FindStringSubmatch(s); m != nil {
		return fromEpoch(m[1], loc)
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

func fromEpoch(digits string, loc *time.Location) (time.Time, bool) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	if len(strings.TrimPrefix(digits, "-")) <= 10 {
		return time.Unix(n, 0).In(loc), true
	}
	return time.UnixMilli(n).In(loc), true
}

// resolveStart combines a date field (or its fallback) with an optional
// time-of-day field. ok is false when no base date resolves.
func resolveStart(dateVal, fallbackVal, timeVal any, loc *time.Location) (time.Time, bool) {
	base, ok := ParseDate(dateVal, loc)
	if !ok {
		base, ok = ParseDate(fallbackVal, loc)
	}
	if !ok {
		return time.Time{}, false
	}
	return applyTimeOfDay(base, timeVal, loc), true
}

// applyTimeOfDay sets base's clock from raw. raw is first read as a full
// timestamp, then as "h:mm[:ss] AM/PM", then as "HH:MM[:SS]". When none
// match, base is returned unchanged.
func applyTimeOfDay(base time.Time, raw any, loc *time.Location) time.Time {
	if raw == nil {
		return base
	}
	s, isString := raw.(string)
	if isString {
		s = strings.TrimSpace(s)
		if s == "" {
			return base
		}
	}

	// Bare clock strings go straight to the clock patterns.
	if !isString || !bareClockPrefix.MatchString(s) {
		if ts, ok := ParseDate(raw, loc); ok {
			return withClock(base, ts.Hour(), ts.Minute(), ts.Second(), loc)
		}
	}
	if !isString {
		return base
	}
	if h, m, sec, ok := parseClock(s); ok {
		return withClock(base, h, m, sec, loc)
	}
	return base
}

func parseClock(s string) (hour, minute, second int, ok bool) {
	if m := clock12Pattern.FindStringSubmatch(s); m != nil {
		hour, minute, second = atoi(m[1]), atoi(m[2]), atoi(m[3])
		pm := strings.EqualFold(m[4], "p")
		switch {
		case pm && hour < 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
		return hour, minute, second, validClock(hour, minute, second)
	}
	if m := clock24Pattern.FindStringSubmatch(s); m != nil {
		hour, minute, second = atoi(m[1]), atoi(m[2]), atoi(m[3])
		return hour, minute, second, validClock(hour, minute, second)
	}
	return 0, 0, 0, false
}

func validClock(h, m, s int) bool {
	return h >= 0 && h < 24 && m >= 0 && m < 60 && s >= 0 && s < 60
}

func withClock(base time.Time, h, m, s int, loc *time.Location) time.Time {
	local := base.In(loc)
	y, mo, d := local.Date()
	return time.Date(y, mo, d, h, m, s, 0, loc)
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
