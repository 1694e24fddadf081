package calmanager

import (
	"errors"

	"github.com/OpenTransitTools/bizcal/business/data/marketcal"
)

// validateCalendars builds every calendar read so a data set that cannot be served is never saved.
// returns the calendar names in file order
func validateCalendars(calendars *marketCalendarRowReader, dates *marketCalendarDateRowReader) ([]string, error) {
	var errs []error
	for _, name := range calendars.names {
		_, err := marketcal.BuildCalendar(calendars.calendars[name], dates.byName[name])
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return calendars.names, nil
}
