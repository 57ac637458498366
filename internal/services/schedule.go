package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tbourn/lotto-console/internal/domain"
)

// EarliestBuyHour is the first hour of the day tickets may be bought.
const EarliestBuyHour = 6

// ParseClock reads a 24-hour "HH:MM" value. "24:00" is accepted as end of
// day; any other hour above 23, or minute above 59, is malformed.
func ParseClock(hhmm string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%q is not HH:MM", hhmm)
	}
	if !isDigits(h) || len(h) > 2 {
		return 0, 0, fmt.Errorf("%q has a bad hour", hhmm)
	}
	if !isDigits(m) || len(m) != 2 {
		return 0, 0, fmt.Errorf("%q has a bad minute", hhmm)
	}
	hour, _ = strconv.Atoi(h)
	minute, _ = strconv.Atoi(m)
	if minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, 0, fmt.Errorf("%q is out of range", hhmm)
	}
	return hour, minute, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateBuyTime gates a schedule save: the purchase time must fall
// between 06:00 and 24:00.
func ValidateBuyTime(hhmm string) error {
	hour, _, err := ParseClock(hhmm)
	if err != nil {
		return &domain.ValidationError{Field: "schedule.buy_time", Reason: err.Error()}
	}
	if hour < EarliestBuyHour {
		return &domain.ValidationError{
			Field:  "schedule.buy_time",
			Reason: fmt.Sprintf("purchase time must be between %02d:00 and 24:00, got %s", EarliestBuyHour, hhmm),
		}
	}
	return nil
}

// CronSpec converts a weekday/time pair to a standard five-field cron
// expression. "24:00" rolls over to midnight of the following day.
func CronSpec(day domain.Weekday, hhmm string) (string, error) {
	if !day.Valid() {
		return "", fmt.Errorf("unknown weekday %q", day)
	}
	hour, minute, err := ParseClock(hhmm)
	if err != nil {
		return "", err
	}
	dow := day.CronDOW()
	if hour == 24 {
		hour = 0
		dow = (dow + 1) % 7
	}
	return fmt.Sprintf("%d %d * * %d", minute, hour, dow), nil
}

// NextRuns returns the next deposit, buy and check times after now, with
// the schedule read as wall-clock time in loc. Entries whose day or time
// cannot be scheduled are left out.
func NextRuns(s domain.Schedule, now time.Time, loc *time.Location) map[string]time.Time {
	if loc == nil {
		loc = time.Local
	}
	jobs := []struct {
		name string
		day  domain.Weekday
		at   string
	}{
		{"deposit", s.DepositDay, s.DepositTime},
		{"buy", s.BuyDay, s.BuyTime},
		{"check", s.CheckDay, s.CheckTime},
	}
	out := make(map[string]time.Time, len(jobs))
	for _, j := range jobs {
		spec, err := CronSpec(j.day, j.at)
		if err != nil {
			continue
		}
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			continue
		}
		out[j.name] = sched.Next(now.In(loc))
	}
	return out
}
