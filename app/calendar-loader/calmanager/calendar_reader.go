package calmanager

import (
	"fmt"

	"github.com/OpenTransitTools/bizcal/business/data/marketcal"
)

// marketCalendarRowReader implements calendarRowReader interface for marketcal.MarketCalendar,
// keeping every calendar read for validation
type marketCalendarRowReader struct {
	calendars map[string]*marketcal.MarketCalendar
	names     []string
}

func newMarketCalendarRowReader() *marketCalendarRowReader {
	return &marketCalendarRowReader{
		calendars: make(map[string]*marketcal.MarketCalendar),
	}
}

func (r *marketCalendarRowReader) addRow(parser *fileParser, recorder calendarRecorder) error {
	calendar, err := buildMarketCalendar(parser)
	if err != nil {
		return err
	}
	if _, present := r.calendars[calendar.CalendarName]; present {
		return fmt.Errorf("calendar %s is defined more than once", calendar.CalendarName)
	}
	r.calendars[calendar.CalendarName] = calendar
	r.names = append(r.names, calendar.CalendarName)
	return recorder.recordCalendar(calendar)
}

func (r *marketCalendarRowReader) flush(_ calendarRecorder) error {
	return nil
}

func (r *marketCalendarRowReader) contains(calendarName string) bool {
	_, present := r.calendars[calendarName]
	return present
}

func buildMarketCalendar(parser *fileParser) (*marketcal.MarketCalendar, error) {
	calendar := marketcal.MarketCalendar{
		CalendarName: parser.getString("calendar_name", false),
		Monday:       parser.getInt("monday", false),
		Tuesday:      parser.getInt("tuesday", false),
		Wednesday:    parser.getInt("wednesday", false),
		Thursday:     parser.getInt("thursday", false),
		Friday:       parser.getInt("friday", false),
		Saturday:     parser.getInt("saturday", false),
		Sunday:       parser.getInt("sunday", false),
		StartDate:    parser.getDate("start_date", false),
		EndDate:      parser.getDate("end_date", false),
	}

	return &calendar, parser.getError()
}
