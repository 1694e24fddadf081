// Package calendar provides immutable business-day calendars.
//
// A Calendar knows which dates inside its valid period are business days. Calendars are
// combined with AllClosedOf and AnyClosedOf, resolved from calexpr expressions with Resolve,
// and used to roll dates with a HolidayAdj rule.
package calendar

import (
	"fmt"
	"iter"
	"math/bits"
	"slices"
	"time"

	"cloud.google.com/go/civil"
)

var (
	// MinDate is the first date a calendar can cover
	MinDate = civil.Date{Year: 1, Month: time.January, Day: 1}
	// MaxDate is the last date a calendar can cover
	MaxDate = civil.Date{Year: 9999, Month: time.December, Day: 31}
)

// weekdaySet holds one bit per time.Weekday
type weekdaySet uint8

const allWeekdays weekdaySet = 1<<7 - 1

func (s weekdaySet) has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

func (s weekdaySet) with(d time.Weekday) weekdaySet {
	return s | 1<<uint(d)
}

func (s weekdaySet) len() int {
	return bits.OnesCount8(uint8(s))
}

func (s weekdaySet) weekdays() []time.Weekday {
	days := make([]time.Weekday, 0, s.len())
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.has(d) {
			days = append(days, d)
		}
	}
	return days
}

// Calendar is an immutable set of business days over an inclusive valid period.
//
// A date is a business day unless its weekday is a holiday weekday or it is an extra holiday.
// Extra business days reopen dates that fall on holiday weekdays. Share a Calendar by pointer.
type Calendar struct {
	start civil.Date
	end   civil.Date

	holidayWeekdays weekdaySet

	// sorted, unique, inside [start, end] and never on a holiday weekday
	extraHolidays []civil.Date

	// sorted, unique, inside [start, end] and always on a holiday weekday
	extraBusinessDays []civil.Date
}

// newCalendar validates and normalises the calendar definition
func newCalendar(start, end civil.Date,
	holidayWeekdays weekdaySet,
	extraHolidays []civil.Date,
	extraBusinessDays []civil.Date) (*Calendar, error) {

	if !start.IsValid() || !end.IsValid() {
		return nil, fmt.Errorf("%w: invalid valid period [%s, %s]", ErrConstruction, start, end)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: valid period ends %s before it starts %s", ErrConstruction, end, start)
	}
	holidays := make(map[civil.Date]bool, len(extraHolidays))
	for _, d := range extraHolidays {
		if !d.IsValid() {
			return nil, fmt.Errorf("%w: invalid extra holiday %s", ErrConstruction, d)
		}
		holidays[d] = true
	}
	for _, d := range extraBusinessDays {
		if !d.IsValid() {
			return nil, fmt.Errorf("%w: invalid extra business day %s", ErrConstruction, d)
		}
		if holidays[d] {
			return nil, fmt.Errorf("%w: %s is both an extra holiday and an extra business day", ErrConstruction, d)
		}
	}

	inPeriod := func(d civil.Date) bool {
		return !d.Before(start) && !d.After(end)
	}
	return &Calendar{
		start:           start,
		end:             end,
		holidayWeekdays: holidayWeekdays,
		extraHolidays: normaliseDates(extraHolidays, func(d civil.Date) bool {
			return inPeriod(d) && !holidayWeekdays.has(d.Weekday())
		}),
		extraBusinessDays: normaliseDates(extraBusinessDays, func(d civil.Date) bool {
			return inPeriod(d) && holidayWeekdays.has(d.Weekday())
		}),
	}, nil
}

// normaliseDates returns the sorted, de-duplicated dates for which keep is true
func normaliseDates(dates []civil.Date, keep func(civil.Date) bool) []civil.Date {
	result := make([]civil.Date, 0, len(dates))
	for _, d := range dates {
		if keep(d) {
			result = append(result, d)
		}
	}
	slices.SortFunc(result, civil.Date.Compare)
	return slices.Compact(result)
}

// Blank returns a calendar covering MinDate to MaxDate on which every date is a business day
// when allBusiness is true, or every date is a holiday otherwise.
func Blank(allBusiness bool) *Calendar {
	holidayWeekdays := allWeekdays
	if allBusiness {
		holidayWeekdays = 0
	}
	return &Calendar{
		start:           MinDate,
		end:             MaxDate,
		holidayWeekdays: holidayWeekdays,
	}
}

// ValidPeriod returns the first and last date covered by the calendar
func (c *Calendar) ValidPeriod() (start civil.Date, end civil.Date) {
	return c.start, c.end
}

// Covers reports whether d is inside the valid period
func (c *Calendar) Covers(d civil.Date) bool {
	return !d.Before(c.start) && !d.After(c.end)
}

// HolidayWeekdays returns the weekdays that are holidays every week, Sunday first
func (c *Calendar) HolidayWeekdays() []time.Weekday {
	return c.holidayWeekdays.weekdays()
}

// ExtraHolidays returns the holidays that do not fall on a holiday weekday
func (c *Calendar) ExtraHolidays() []civil.Date {
	return slices.Clone(c.extraHolidays)
}

// ExtraBusinessDays returns the business days that fall on a holiday weekday
func (c *Calendar) ExtraBusinessDays() []civil.Date {
	return slices.Clone(c.extraBusinessDays)
}

// Equal reports whether c and other describe the same business days over the same period
func (c *Calendar) Equal(other *Calendar) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.start == other.start &&
		c.end == other.end &&
		c.holidayWeekdays == other.holidayWeekdays &&
		slices.Equal(c.extraHolidays, other.extraHolidays) &&
		slices.Equal(c.extraBusinessDays, other.extraBusinessDays)
}

func (c *Calendar) String() string {
	return fmt.Sprintf("Calendar[%s, %s] holidayWeekdays:%v extraHolidays:%d extraBusinessDays:%d",
		c.start, c.end, c.HolidayWeekdays(), len(c.extraHolidays), len(c.extraBusinessDays))
}

func (c *Calendar) checkCovers(d civil.Date) error {
	if !c.Covers(d) {
		return &OutOfRangeError{Date: d, Start: c.start, End: c.end}
	}
	return nil
}

// IsBusinessDay reports whether d is a business day. It fails with an *OutOfRangeError when d
// is outside the valid period.
func (c *Calendar) IsBusinessDay(d civil.Date) (bool, error) {
	if err := c.checkCovers(d); err != nil {
		return false, err
	}
	return c.isBusinessDay(d), nil
}

// IsHoliday is the negation of IsBusinessDay
func (c *Calendar) IsHoliday(d civil.Date) (bool, error) {
	ok, err := c.IsBusinessDay(d)
	return !ok, err
}

// isBusinessDay expects d inside the valid period
func (c *Calendar) isBusinessDay(d civil.Date) bool {
	if c.holidayWeekdays.has(d.Weekday()) {
		return containsDate(c.extraBusinessDays, d)
	}
	return !containsDate(c.extraHolidays, d)
}

func containsDate(sorted []civil.Date, d civil.Date) bool {
	_, found := slices.BinarySearchFunc(sorted, d, civil.Date.Compare)
	return found
}

// countBefore returns how many of the sorted dates are before d
func countBefore(sorted []civil.Date, d civil.Date) int {
	i, _ := slices.BinarySearchFunc(sorted, d, civil.Date.Compare)
	return i
}

// NextBusinessDays yields the business days on or after from, in increasing order, until the
// end of the valid period. The sequence is empty when from is outside the valid period.
func (c *Calendar) NextBusinessDays(from civil.Date) iter.Seq[civil.Date] {
	return func(yield func(civil.Date) bool) {
		if !c.Covers(from) {
			return
		}
		if c.holidayWeekdays == allWeekdays {
			for _, d := range c.extraBusinessDays[countBefore(c.extraBusinessDays, from):] {
				if !yield(d) {
					return
				}
			}
			return
		}
		for d := from; !d.After(c.end); d = d.AddDays(1) {
			if c.isBusinessDay(d) && !yield(d) {
				return
			}
		}
	}
}

// PreviousBusinessDays yields the business days on or before from, in decreasing order, until
// the start of the valid period. The sequence is empty when from is outside the valid period.
func (c *Calendar) PreviousBusinessDays(from civil.Date) iter.Seq[civil.Date] {
	return func(yield func(civil.Date) bool) {
		if !c.Covers(from) {
			return
		}
		if c.holidayWeekdays == allWeekdays {
			for i := countBefore(c.extraBusinessDays, from.AddDays(1)) - 1; i >= 0; i-- {
				if !yield(c.extraBusinessDays[i]) {
					return
				}
			}
			return
		}
		for d := from; !d.Before(c.start); d = d.AddDays(-1) {
			if c.isBusinessDay(d) && !yield(d) {
				return
			}
		}
	}
}

// following returns the first business day on or after d
func (c *Calendar) following(d civil.Date) (civil.Date, error) {
	for next := range c.NextBusinessDays(d) {
		return next, nil
	}
	return civil.Date{}, &OutOfRangeError{Date: d, Start: c.start, End: c.end, Op: "following business day"}
}

// preceding returns the last business day on or before d
func (c *Calendar) preceding(d civil.Date) (civil.Date, error) {
	for prev := range c.PreviousBusinessDays(d) {
		return prev, nil
	}
	return civil.Date{}, &OutOfRangeError{Date: d, Start: c.start, End: c.end, Op: "preceding business day"}
}

// BusinessDayCount counts the business days in [from, to). When to is before from the result
// is -BusinessDayCount(to, from).
func (c *Calendar) BusinessDayCount(from, to civil.Date) (int, error) {
	if to.Before(from) {
		n, err := c.BusinessDayCount(to, from)
		return -n, err
	}
	if from == to {
		return 0, nil
	}
	if err := c.checkCovers(from); err != nil {
		return 0, err
	}
	if err := c.checkCovers(to.AddDays(-1)); err != nil {
		return 0, err
	}
	return c.countBusinessDays(from, to), nil
}

// countBusinessDays counts [from, to) by whole weeks plus the remaining weekdays, then
// corrects for the extra holidays and extra business days in range
func (c *Calendar) countBusinessDays(from, to civil.Date) int {
	days := to.DaysSince(from)
	openPerWeek := 7 - c.holidayWeekdays.len()
	count := days / 7 * openPerWeek
	weekday := from.Weekday()
	for i := 0; i < days%7; i++ {
		if !c.holidayWeekdays.has(weekday) {
			count++
		}
		weekday = (weekday + 1) % 7
	}
	count -= countBefore(c.extraHolidays, to) - countBefore(c.extraHolidays, from)
	count += countBefore(c.extraBusinessDays, to) - countBefore(c.extraBusinessDays, from)
	return count
}

// Holidays lists the non-business days in [from, to)
func (c *Calendar) Holidays(from, to civil.Date) ([]civil.Date, error) {
	if !from.Before(to) {
		return nil, nil
	}
	if err := c.checkCovers(from); err != nil {
		return nil, err
	}
	if err := c.checkCovers(to.AddDays(-1)); err != nil {
		return nil, err
	}
	var holidays []civil.Date
	for d := from; d.Before(to); d = d.AddDays(1) {
		if !c.isBusinessDay(d) {
			holidays = append(holidays, d)
		}
	}
	return holidays, nil
}

// AddBusinessDays returns the n-th business day after d, or before d when n is negative.
// With n == 0 it returns d rolled forward to a business day.
func (c *Calendar) AddBusinessDays(d civil.Date, n int) (civil.Date, error) {
	if err := c.checkCovers(d); err != nil {
		return civil.Date{}, err
	}
	if n == 0 {
		return c.following(d)
	}
	seq, step, op := c.NextBusinessDays(d.AddDays(1)), n, "adding business days"
	if n < 0 {
		seq, step, op = c.PreviousBusinessDays(d.AddDays(-1)), -n, "subtracting business days"
	}
	for bd := range seq {
		step--
		if step == 0 {
			return bd, nil
		}
	}
	return civil.Date{}, &OutOfRangeError{Date: d, Start: c.start, End: c.end, Op: op}
}
