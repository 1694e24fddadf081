package marketcal

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/OpenTransitTools/bizcal/business/data/calendar"
)

// BuildCalendar converts a stored calendar and its exception dates to a calendar.Calendar.
// A weekday column of 0 makes that weekday a holiday weekday. Dates belonging to other calendar
// names are ignored.
func BuildCalendar(row *MarketCalendar, dates []MarketCalendarDate) (*calendar.Calendar, error) {
	builder := calendar.NewBuilder().
		WithValidPeriod(civil.DateOf(row.StartDate), civil.DateOf(row.EndDate))

	weekdayColumns := []struct {
		value   int
		weekday time.Weekday
	}{
		{row.Sunday, time.Sunday},
		{row.Monday, time.Monday},
		{row.Tuesday, time.Tuesday},
		{row.Wednesday, time.Wednesday},
		{row.Thursday, time.Thursday},
		{row.Friday, time.Friday},
		{row.Saturday, time.Saturday},
	}
	for _, column := range weekdayColumns {
		switch column.value {
		case 0:
			builder.WithHolidayWeekdays(column.weekday)
		case 1:
		default:
			return nil, fmt.Errorf("%w: calendar %s has value %d for %s, expected 0 or 1",
				calendar.ErrConstruction, row.CalendarName, column.value, column.weekday)
		}
	}

	for _, d := range dates {
		if d.CalendarName != row.CalendarName {
			continue
		}
		switch d.ExceptionType {
		case ExceptionBusinessDay:
			builder.WithExtraBusinessDays(civil.DateOf(d.Date))
		case ExceptionHoliday:
			builder.WithExtraHolidays(civil.DateOf(d.Date))
		default:
			return nil, fmt.Errorf("%w: calendar %s has unknown exception_type %d on %s",
				calendar.ErrConstruction, row.CalendarName, d.ExceptionType, civil.DateOf(d.Date))
		}
	}

	cal, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("calendar %s: %w", row.CalendarName, err)
	}
	return cal, nil
}
