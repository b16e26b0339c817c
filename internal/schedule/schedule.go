// Package schedule decides whether a badge scan counts as an arrival or a
// departure based on the site's configured session windows.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tapline/internal/civiltime"
)

// Action is the attendance event kind a scan resolves to.
type Action string

const (
	ActionArrival   Action = "arrival"
	ActionDeparture Action = "departure"
)

// ParseAction converts a string into a known Action.
func ParseAction(value string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionArrival:
		return ActionArrival, true
	case ActionDeparture:
		return ActionDeparture, true
	}
	return "", false
}

// Window is one session-of-day: an arrival window opens at ArrivalStart and a
// departure window opens at DepartureStart. Both are civil times-of-day in
// minutes since midnight, no date component.
type Window struct {
	ID             int64
	Name           string
	ArrivalStart   float64
	DepartureStart float64
}

// Match is the window and action that apply at a given instant.
type Match struct {
	Window Window
	Action Action
}

const endOfDay = 24 * 60

// Resolve finds the first window whose intervals contain now, in the order
// the windows are given. For window i the arrival interval is
// [ArrivalStart_i, DepartureStart_i) and the departure interval is
// [DepartureStart_i, ArrivalStart_i+1), extending to end of day for the last
// window. Intervals are inclusive-start/exclusive-end: a scan at exactly
// DepartureStart belongs to the departure interval.
//
// Windows are expected to be sorted ascending by ArrivalStart; Sort enforces
// this at the fetch boundary. Resolve itself does not reorder or validate.
func Resolve(windows []Window, now time.Time) (Match, bool) {
	if len(windows) == 0 {
		return Match{}, false
	}
	minutes := civiltime.MinutesOfDay(now)
	for i, w := range windows {
		next := float64(endOfDay)
		if i+1 < len(windows) {
			next = windows[i+1].ArrivalStart
		}
		switch {
		case minutes >= w.ArrivalStart && minutes < w.DepartureStart:
			return Match{Window: w, Action: ActionArrival}, true
		case minutes >= w.DepartureStart && minutes < next:
			return Match{Window: w, Action: ActionDeparture}, true
		}
	}
	return Match{}, false
}

// ResolveAction returns the action for now, or fallback when no window
// applies.
func ResolveAction(windows []Window, fallback Action, now time.Time) Action {
	if m, ok := Resolve(windows, now); ok {
		return m.Action
	}
	return fallback
}

// Sort orders windows ascending by arrival start. Callers fetching schedules
// from the remote store run this before handing windows to Resolve, so that
// unsorted upstream data cannot change first-match results.
func Sort(windows []Window) {
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].ArrivalStart < windows[j].ArrivalStart
	})
}

// ParseTimeOfDay converts a Postgres "time without time zone" value such as
// "07:00:00" or "17:30:00.123456" into minutes since midnight. A date prefix
// is ignored when present.
func ParseTimeOfDay(value string) (float64, error) {
	s := strings.TrimSpace(value)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[i+1:]
		if j := strings.IndexAny(s, "Z+"); j >= 0 {
			s = s[:j]
		}
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}
	var secs float64
	if len(parts) == 3 {
		// Fractional seconds are allowed; trailing garbage is not.
		secs, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid time of day %q", value)
		}
	}
	return float64(hours*60+mins) + secs/60, nil
}
