package hours

import (
	"fmt"
	"time"

	"centromedico/config"
	"centromedico/models"
)

var italianWeekdays = map[time.Weekday]string{
	time.Monday:    "Lunedì",
	time.Tuesday:   "Martedì",
	time.Wednesday: "Mercoledì",
	time.Thursday:  "Giovedì",
	time.Friday:    "Venerdì",
	time.Saturday:  "Sabato",
	time.Sunday:    "Domenica",
}

// Policy evaluates office opening hours. It holds no mutable state.
type Policy struct {
	office config.OfficeSettings
}

// NewPolicy returns a Policy for the given office settings.
func NewPolicy(office config.OfficeSettings) *Policy {
	return &Policy{office: office}
}

// Office returns the settings the policy was built with.
func (p *Policy) Office() config.OfficeSettings {
	return p.office
}

// Evaluate reports whether the office is open at now. Opening hours are the
// half-open interval [open, close): a call at exactly the close time is after hours.
func (p *Policy) Evaluate(now time.Time) models.HoursResult {
	loc := p.office.Location
	local := now.In(loc)

	if p.office.IsBusinessDay(local) {
		minute := local.Hour()*60 + local.Minute()
		switch {
		case minute >= p.office.Open.Minutes() && minute < p.office.Close.Minutes():
			return models.HoursResult{IsOpen: true}
		case minute < p.office.Open.Minutes():
			return p.closed(p.office.Open.On(local, loc), fmt.Sprintf("oggi alle %s", p.office.Open))
		}
	}

	next := p.nextBusinessDay(local)
	opening := p.office.Open.On(next, loc)
	if p.office.IsBusinessDay(local) && sameDate(next, local.AddDate(0, 0, 1)) {
		return p.closed(opening, fmt.Sprintf("domani alle %s", p.office.Open))
	}
	return p.closed(opening, fmt.Sprintf("%s alle %s", italianWeekdays[next.Weekday()], p.office.Open))
}

// IsOpen is shorthand for Evaluate(now).IsOpen.
func (p *Policy) IsOpen(now time.Time) bool {
	return p.Evaluate(now).IsOpen
}

func (p *Policy) closed(at time.Time, description string) models.HoursResult {
	return models.HoursResult{
		IsOpen:                 false,
		NextOpening:            at,
		NextOpeningDescription: description,
		ShouldOfferTransfer:    true,
	}
}

// nextBusinessDay returns the first business day strictly after local.
func (p *Policy) nextBusinessDay(local time.Time) time.Time {
	d := local.AddDate(0, 0, 1)
	for i := 0; i < 7 && !p.office.IsBusinessDay(d); i++ {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// EarliestBookableDate returns the first date an appointment may be booked on.
// Business days are counted starting with today when today is one, so the
// lead-th business day is the earliest date.
func (p *Policy) EarliestBookableDate(now time.Time) time.Time {
	loc := p.office.Location
	local := now.In(loc)
	d := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	lead := p.office.LeadBusinessDays
	if lead < 1 {
		lead = 1
	}
	counted := 0
	for guard := 0; guard < lead*7+7; guard++ {
		if p.office.IsBusinessDay(d) {
			counted++
			if counted == lead {
				return d
			}
		}
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
