package schedule

import (
	"time"

	"github.com/medimeet/platform/internal/availability"
)

// Defaults for the booking horizon and slot length.
const (
	DefaultHorizonDays = 4
	DefaultSlotMinutes = 20
)

// Slot is a candidate bookable interval of fixed duration.
type Slot struct {
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	FormattedLabel string    `json:"formatted"`
}

// DaySlots groups the bookable slots of one calendar day. Days with no
// slots are still present with an empty list.
type DaySlots struct {
	Date         string `json:"date"`
	DisplayLabel string `json:"display"`
	Slots        []Slot `json:"slots"`
}

// Interval is a booked [Start, End) range that blocks candidate slots.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Generate derives bookable slots from the doctor's recurring window and
// the already-booked intervals. For each day of the horizon the window's
// time-of-day is projected onto that date and walked in slotMinutes steps;
// a candidate is emitted only when a full slot fits before the projected
// end. Candidates starting before now are dropped, as are candidates that
// strictly straddle a booked interval — touching a boundary exactly does
// not block.
//
// Pure function: no I/O, no clock reads; now is the caller's clock.
func Generate(window *availability.Window, booked []Interval, now time.Time, horizonDays, slotMinutes int) ([]DaySlots, error) {
	if window == nil {
		return nil, availability.ErrWindowNotFound
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}

	step := time.Duration(slotMinutes) * time.Minute
	loc := now.Location()
	days := make([]DaySlots, 0, horizonDays)

	for d := 0; d < horizonDays; d++ {
		day := now.AddDate(0, 0, d)
		dayStart := projectTimeOfDay(window.StartTime, day, loc)
		dayEnd := projectTimeOfDay(window.EndTime, day, loc)

		slots := []Slot{}
		for current := dayStart; !current.Add(step).After(dayEnd); current = current.Add(step) {
			slotEnd := current.Add(step)
			if current.Before(now) {
				continue
			}
			if overlapsAny(current, slotEnd, booked) {
				continue
			}
			slots = append(slots, Slot{
				StartTime:      current,
				EndTime:        slotEnd,
				FormattedLabel: current.Format("3:04 PM") + " - " + slotEnd.Format("3:04 PM"),
			})
		}

		days = append(days, DaySlots{
			Date:         day.Format("2006-01-02"),
			DisplayLabel: day.Format("Monday, January 2"),
			Slots:        slots,
		})
	}
	return days, nil
}

// projectTimeOfDay keeps only the hour and minute of t and re-anchors them
// on the given day.
func projectTimeOfDay(t time.Time, day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

func overlapsAny(start, end time.Time, booked []Interval) bool {
	for _, b := range booked {
		if start.Before(b.End) && end.After(b.Start) {
			return true
		}
	}
	return false
}
