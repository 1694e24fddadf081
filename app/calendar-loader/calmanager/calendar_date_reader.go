package calmanager

import (
	"fmt"

	"github.com/OpenTransitTools/bizcal/business/data/marketcal"
)

// calendarDateBatchSize is the number of dates recorded per insert statement
const calendarDateBatchSize = 500

// marketCalendarDateRowReader implements calendarRowReader interface for marketcal.MarketCalendarDate
type marketCalendarDateRowReader struct {
	calendars *marketCalendarRowReader
	pending   []marketcal.MarketCalendarDate
	byName    map[string][]marketcal.MarketCalendarDate
}

func newMarketCalendarDateRowReader(calendars *marketCalendarRowReader) *marketCalendarDateRowReader {
	return &marketCalendarDateRowReader{
		calendars: calendars,
		byName:    make(map[string][]marketcal.MarketCalendarDate),
	}
}

func (r *marketCalendarDateRowReader) addRow(parser *fileParser, recorder calendarRecorder) error {
	calendarDate, err := buildMarketCalendarDate(parser)
	if err != nil {
		return err
	}
	if !r.calendars.contains(calendarDate.CalendarName) {
		return fmt.Errorf("date %s refers to calendar %s which is not in calendar.txt",
			calendarDate.Date.Format("20060102"), calendarDate.CalendarName)
	}
	r.byName[calendarDate.CalendarName] = append(r.byName[calendarDate.CalendarName], *calendarDate)
	r.pending = append(r.pending, *calendarDate)
	if len(r.pending) >= calendarDateBatchSize {
		return r.flush(recorder)
	}
	return nil
}

func (r *marketCalendarDateRowReader) flush(recorder calendarRecorder) error {
	if len(r.pending) == 0 {
		return nil
	}
	err := recorder.recordCalendarDates(r.pending)
	r.pending = nil
	return err
}

func buildMarketCalendarDate(parser *fileParser) (*marketcal.MarketCalendarDate, error) {
	calendarDate := marketcal.MarketCalendarDate{
		CalendarName:  parser.getString("calendar_name", false),
		Date:          parser.getDate("date", false),
		ExceptionType: parser.getInt("exception_type", false),
	}

	return &calendarDate, parser.getError()
}
