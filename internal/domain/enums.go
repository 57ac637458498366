package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Mode is the number-selection strategy of a game slot.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeSemiAuto Mode = "semi_auto"
	ModeManual   Mode = "manual"
	ModeAI       Mode = "ai"
	ModeMaxFirst Mode = "max_first"
)

// Modes lists every valid strategy in selector order.
var Modes = []Mode{ModeAuto, ModeSemiAuto, ModeManual, ModeAI, ModeMaxFirst}

// Valid reports whether m is one of the closed set of strategies.
func (m Mode) Valid() bool {
	switch m {
	case ModeAuto, ModeSemiAuto, ModeManual, ModeAI, ModeMaxFirst:
		return true
	}
	return false
}

// UsesNumbers reports whether the slot's numbers field drives this mode.
func (m Mode) UsesNumbers() bool { return m == ModeManual || m == ModeSemiAuto }

// UsesAnalysis reports whether the slot's analysis range drives this mode.
func (m Mode) UsesAnalysis() bool { return m == ModeMaxFirst }

// AnalysisRange is the lookback window, in past draws, used by max_first.
// Zero is not a valid range; AnalysisAll covers every recorded draw.
type AnalysisRange int

const (
	Analysis10  AnalysisRange = 10
	Analysis50  AnalysisRange = 50
	Analysis100 AnalysisRange = 100
	Analysis200 AnalysisRange = 200
	AnalysisAll AnalysisRange = -1
)

// AnalysisRanges lists every valid range in selector order.
var AnalysisRanges = []AnalysisRange{Analysis10, Analysis50, Analysis100, Analysis200, AnalysisAll}

// Valid reports whether r is one of the closed set of ranges.
func (r AnalysisRange) Valid() bool {
	switch r {
	case Analysis10, Analysis50, Analysis100, Analysis200, AnalysisAll:
		return true
	}
	return false
}

func (r AnalysisRange) String() string {
	if r == AnalysisAll {
		return "all"
	}
	return strconv.Itoa(int(r))
}

// ParseAnalysisRange accepts "10", "50", "100", "200" or "all".
func ParseAnalysisRange(s string) (AnalysisRange, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return AnalysisAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !AnalysisRange(n).Valid() || n < 0 {
		return 0, fmt.Errorf("analysis range %q is not one of 10, 50, 100, 200, all", s)
	}
	return AnalysisRange(n), nil
}

// MarshalJSON writes numeric ranges as numbers and AnalysisAll as "all".
func (r AnalysisRange) MarshalJSON() ([]byte, error) {
	if r == AnalysisAll {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.Itoa(int(r))), nil
}

// UnmarshalJSON accepts both numbers and numeric strings, since the
// dashboard selector submits option values as text.
func (r *AnalysisRange) UnmarshalJSON(b []byte) error {
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	v, err := ParseAnalysisRange(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Weekday is an English day name as stored in the schedule section.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

var weekdayIndex = map[Weekday]int{
	Sunday: 0, Monday: 1, Tuesday: 2, Wednesday: 3, Thursday: 4, Friday: 5, Saturday: 6,
}

// Valid reports whether d is a full English day name.
func (d Weekday) Valid() bool {
	_, ok := weekdayIndex[d]
	return ok
}

// CronDOW returns the cron day-of-week field (0 = Sunday).
func (d Weekday) CronDOW() int { return weekdayIndex[d] }
