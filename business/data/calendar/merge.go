package calendar

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// AllClosedOf returns the calendar that is closed on a date only when every input is closed.
// Its business days are the union of the inputs' business days over the intersection of their
// valid periods. A single input is returned unchanged.
func AllClosedOf(cals ...*Calendar) (*Calendar, error) {
	start, end, err := commonPeriod(cals)
	if err != nil {
		return nil, err
	}
	if len(cals) == 1 {
		return cals[0], nil
	}

	holidayWeekdays := allWeekdays
	for _, c := range cals {
		holidayWeekdays &= c.holidayWeekdays
	}
	inPeriod := periodFilter(start, end)

	// a date on a shared holiday weekday opens when any input opens it
	var extraBusinessDays []civil.Date
	for _, c := range cals {
		for _, d := range c.extraBusinessDays {
			if inPeriod(d) && holidayWeekdays.has(d.Weekday()) {
				extraBusinessDays = append(extraBusinessDays, d)
			}
		}
	}
	// any other date closes only when every input closes it
	var extraHolidays []civil.Date
	for _, c := range cals {
		for _, d := range c.extraHolidays {
			if inPeriod(d) && !holidayWeekdays.has(d.Weekday()) && closedInAll(cals, d) {
				extraHolidays = append(extraHolidays, d)
			}
		}
	}
	return mustMerge(start, end, holidayWeekdays, extraHolidays, extraBusinessDays), nil
}

// AnyClosedOf returns the calendar that is closed on a date when at least one input is closed.
// Its business days are the intersection of the inputs' business days over the intersection
// of their valid periods. A single input is returned unchanged.
func AnyClosedOf(cals ...*Calendar) (*Calendar, error) {
	start, end, err := commonPeriod(cals)
	if err != nil {
		return nil, err
	}
	if len(cals) == 1 {
		return cals[0], nil
	}

	var holidayWeekdays weekdaySet
	for _, c := range cals {
		holidayWeekdays |= c.holidayWeekdays
	}
	inPeriod := periodFilter(start, end)

	// a date off the holiday weekdays closes when any input closes it
	var extraHolidays []civil.Date
	for _, c := range cals {
		for _, d := range c.extraHolidays {
			if inPeriod(d) && !holidayWeekdays.has(d.Weekday()) {
				extraHolidays = append(extraHolidays, d)
			}
		}
	}
	// a date on a holiday weekday opens only when every input opens it
	var extraBusinessDays []civil.Date
	for _, c := range cals {
		for _, d := range c.extraBusinessDays {
			if inPeriod(d) && holidayWeekdays.has(d.Weekday()) && openInAll(cals, d) {
				extraBusinessDays = append(extraBusinessDays, d)
			}
		}
	}
	return mustMerge(start, end, holidayWeekdays, extraHolidays, extraBusinessDays), nil
}

// commonPeriod intersects the valid periods of cals
func commonPeriod(cals []*Calendar) (civil.Date, civil.Date, error) {
	if len(cals) == 0 {
		return civil.Date{}, civil.Date{}, fmt.Errorf("%w: no calendars to merge", ErrMerge)
	}
	var start, end civil.Date
	for i, c := range cals {
		if c == nil {
			return civil.Date{}, civil.Date{}, fmt.Errorf("%w: calendar %d is nil", ErrMerge, i)
		}
		if i == 0 || c.start.After(start) {
			start = c.start
		}
		if i == 0 || c.end.Before(end) {
			end = c.end
		}
	}
	if end.Before(start) {
		return civil.Date{}, civil.Date{}, fmt.Errorf("%w: valid periods do not overlap", ErrMerge)
	}
	return start, end, nil
}

func periodFilter(start, end civil.Date) func(civil.Date) bool {
	return func(d civil.Date) bool {
		return !d.Before(start) && !d.After(end)
	}
}

// closedInAll expects d inside every calendar's valid period
func closedInAll(cals []*Calendar, d civil.Date) bool {
	for _, c := range cals {
		if c.isBusinessDay(d) {
			return false
		}
	}
	return true
}

// openInAll expects d inside every calendar's valid period
func openInAll(cals []*Calendar, d civil.Date) bool {
	for _, c := range cals {
		if !c.isBusinessDay(d) {
			return false
		}
	}
	return true
}

// mustMerge builds from sets that are valid by construction, a failure is a bug in the merge
func mustMerge(start, end civil.Date, holidayWeekdays weekdaySet, extraHolidays, extraBusinessDays []civil.Date) *Calendar {
	c, err := newCalendar(start, end, holidayWeekdays, extraHolidays, extraBusinessDays)
	if err != nil {
		panic(fmt.Sprintf("merged calendar is inconsistent: %v", err))
	}
	return c
}
