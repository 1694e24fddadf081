package calmanager

import (
	"github.com/OpenTransitTools/bizcal/business/data/marketcal"
)

// calendarRecorder receives the records read from a calendar zip file
type calendarRecorder interface {
	recordCalendar(calendar *marketcal.MarketCalendar) error
	recordCalendarDates(dates []marketcal.MarketCalendarDate) error
}

// dataSetRecorder records calendars under the DataSet of a marketcal.DataSetTransaction
type dataSetRecorder struct {
	dsTx *marketcal.DataSetTransaction
}

func (r *dataSetRecorder) recordCalendar(calendar *marketcal.MarketCalendar) error {
	return marketcal.RecordMarketCalendar(calendar, r.dsTx)
}

func (r *dataSetRecorder) recordCalendarDates(dates []marketcal.MarketCalendarDate) error {
	return marketcal.RecordMarketCalendarDates(dates, r.dsTx)
}
