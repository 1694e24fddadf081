package calendar

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Builder collects the parts of a Calendar. The zero value is not usable, call NewBuilder.
type Builder struct {
	start             civil.Date
	end               civil.Date
	periodSet         bool
	holidayWeekdays   weekdaySet
	extraHolidays     []civil.Date
	extraBusinessDays []civil.Date
	badWeekdays       []time.Weekday
}

// NewBuilder returns an empty Builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithValidPeriod sets the inclusive valid period, it is required
func (b *Builder) WithValidPeriod(start, end civil.Date) *Builder {
	b.start = start
	b.end = end
	b.periodSet = true
	return b
}

// WithHolidayWeekdays adds weekdays that are holidays every week
func (b *Builder) WithHolidayWeekdays(days ...time.Weekday) *Builder {
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			b.badWeekdays = append(b.badWeekdays, d)
			continue
		}
		b.holidayWeekdays = b.holidayWeekdays.with(d)
	}
	return b
}

// WithWeekends marks Saturday and Sunday as holiday weekdays
func (b *Builder) WithWeekends() *Builder {
	return b.WithHolidayWeekdays(time.Saturday, time.Sunday)
}

// WithExtraHolidays adds dates that are never business days
func (b *Builder) WithExtraHolidays(dates ...civil.Date) *Builder {
	b.extraHolidays = append(b.extraHolidays, dates...)
	return b
}

// WithExtraBusinessDays adds dates that are business days even on a holiday weekday
func (b *Builder) WithExtraBusinessDays(dates ...civil.Date) *Builder {
	b.extraBusinessDays = append(b.extraBusinessDays, dates...)
	return b
}

// Build validates the collected parts and returns the Calendar.
// It fails with ErrConstruction when the valid period is missing or inverted, or when a date
// is both an extra holiday and an extra business day.
func (b *Builder) Build() (*Calendar, error) {
	if !b.periodSet {
		return nil, fmt.Errorf("%w: valid period is required", ErrConstruction)
	}
	if len(b.badWeekdays) > 0 {
		return nil, fmt.Errorf("%w: unknown weekdays %v", ErrConstruction, b.badWeekdays)
	}
	return newCalendar(b.start, b.end, b.holidayWeekdays, b.extraHolidays, b.extraBusinessDays)
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Calendar {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
