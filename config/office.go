package config

import (
	"fmt"
	"strings"
	"time"
)

// DefaultExtension is the operator line used whenever no usable destination is configured.
const DefaultExtension = "**611"

// ClockTime is a wall-clock time of day in the office timezone.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" value.
func ParseClock(raw string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q: %w", raw, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the minutes elapsed since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On returns the instant at this time of day on the calendar date of day, in loc.
func (c ClockTime) On(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// OfficeSettings is the typed view of the office business rules.
type OfficeSettings struct {
	Name         string
	Location     *time.Location
	Open         ClockTime
	Close        ClockTime
	BusinessDays map[time.Weekday]bool

	AppointmentDuration time.Duration
	LeadBusinessDays    int
	SearchHorizonDays   int
}

// IsBusinessDay reports whether the office opens on t's weekday.
func (o OfficeSettings) IsBusinessDay(t time.Time) bool {
	return o.BusinessDays[t.In(o.Location).Weekday()]
}

var weekdayCodes = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

// ParseBusinessDays parses a list such as "MON,TUE,WED".
func ParseBusinessDays(raw string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool)
	for _, code := range SplitList(raw) {
		wd, ok := weekdayCodes[strings.ToUpper(code)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", code)
		}
		days[wd] = true
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no business days configured")
	}
	return days, nil
}

// Office builds OfficeSettings from the raw configuration. Each invalid value is
// reported in the returned error and replaced by its default, so the result is
// always usable.
func (c Config) Office() (OfficeSettings, error) {
	var problems []string
	def := Defaults()

	loc, err := time.LoadLocation(c.OfficeTimezone)
	if err != nil {
		problems = append(problems, err.Error())
		loc, err = time.LoadLocation(def.OfficeTimezone)
		if err != nil {
			loc = time.UTC
		}
	}

	open, err := ParseClock(c.OfficeOpenTime)
	if err != nil {
		problems = append(problems, err.Error())
		open, _ = ParseClock(def.OfficeOpenTime)
	}
	closing, err := ParseClock(c.OfficeCloseTime)
	if err != nil {
		problems = append(problems, err.Error())
		closing, _ = ParseClock(def.OfficeCloseTime)
	}
	if closing.Minutes() <= open.Minutes() {
		problems = append(problems, fmt.Sprintf("close time %s is not after open time %s", closing, open))
		open, _ = ParseClock(def.OfficeOpenTime)
		closing, _ = ParseClock(def.OfficeCloseTime)
	}

	days, err := ParseBusinessDays(c.OfficeOpenDays)
	if err != nil {
		problems = append(problems, err.Error())
		days, _ = ParseBusinessDays(def.OfficeOpenDays)
	}

	duration := c.AppointmentDurationMinutes
	if duration <= 0 {
		problems = append(problems, fmt.Sprintf("invalid appointment duration %d", duration))
		duration = def.AppointmentDurationMinutes
	}
	lead := c.AppointmentMinDaysAhead
	if lead < 0 {
		problems = append(problems, fmt.Sprintf("invalid lead time %d", lead))
		lead = def.AppointmentMinDaysAhead
	}
	horizon := c.SearchHorizonDays
	if horizon <= 0 {
		problems = append(problems, fmt.Sprintf("invalid search horizon %d", horizon))
		horizon = def.SearchHorizonDays
	}

	settings := OfficeSettings{
		Name:                c.OfficeName,
		Location:            loc,
		Open:                open,
		Close:               closing,
		BusinessDays:        days,
		AppointmentDuration: time.Duration(duration) * time.Minute,
		LeadBusinessDays:    lead,
		SearchHorizonDays:   horizon,
	}
	if len(problems) > 0 {
		return settings, fmt.Errorf("office configuration: %s", strings.Join(problems, "; "))
	}
	return settings, nil
}
