package marketcal

import (
	"time"

	"github.com/OpenTransitTools/bizcal/foundation/database"
	"github.com/jmoiron/sqlx"
)

// exception types used in market_calendar_date, the same values gtfs calendar_dates.txt uses
const (
	ExceptionBusinessDay = 1
	ExceptionHoliday     = 2
)

// MarketCalendar contains data from a record in a calendar.txt file.
// A weekday column is 1 when that weekday is a business day.
type MarketCalendar struct {
	DataSetId    int64  `db:"data_set_id"`
	CalendarName string `db:"calendar_name"`
	Monday       int
	Tuesday      int
	Wednesday    int
	Thursday     int
	Friday       int
	Saturday     int
	Sunday       int
	StartDate    time.Time `db:"start_date"`
	EndDate      time.Time `db:"end_date"`
}

// MarketCalendarDate contains data from a record in a calendar_dates.txt file
type MarketCalendarDate struct {
	DataSetId     int64  `db:"data_set_id"`
	CalendarName  string `db:"calendar_name"`
	Date          time.Time
	ExceptionType int `db:"exception_type"`
}

func RecordMarketCalendar(calendar *MarketCalendar, dsTx *DataSetTransaction) error {
	calendar.DataSetId = dsTx.DS.Id
	statementString := "insert into market_calendar ( " +
		"data_set_id, " +
		"calendar_name, " +
		"monday, " +
		"tuesday, " +
		"wednesday, " +
		"thursday, " +
		"friday, " +
		"saturday, " +
		"sunday, " +
		"start_date, " +
		"end_date) " +
		"values (" +
		":data_set_id, " +
		":calendar_name, " +
		":monday, " +
		":tuesday, " +
		":wednesday, " +
		":thursday, " +
		":friday, " +
		":saturday, " +
		":sunday, " +
		":start_date, " +
		":end_date)"
	statementString = dsTx.Tx.Rebind(statementString)
	_, err := dsTx.Tx.NamedExec(statementString, calendar)
	return err
}

// RecordMarketCalendarDates records a batch of dates in one statement
func RecordMarketCalendarDates(calendarDates []MarketCalendarDate, dsTx *DataSetTransaction) error {
	if len(calendarDates) == 0 {
		return nil
	}
	for i := range calendarDates {
		calendarDates[i].DataSetId = dsTx.DS.Id
	}
	statementString := "insert into market_calendar_date ( " +
		"data_set_id, " +
		"calendar_name, " +
		"date, " +
		"exception_type) " +
		"values (" +
		":data_set_id, " +
		":calendar_name, " +
		":date, " +
		":exception_type)"
	_, err := dsTx.Tx.NamedExec(statementString, calendarDates)
	return err
}

// GetCalendarNames retrieves the names of every calendar in the DataSet
func GetCalendarNames(db *sqlx.DB, dataSetId int64) ([]string, error) {
	query := "select calendar_name from market_calendar where data_set_id = $1 order by calendar_name"
	var names []string
	err := db.Select(&names, query, dataSetId)
	return names, err
}

// GetMarketCalendar retrieves the calendar named calendarName in the DataSet.
// Returns sql.ErrNoRows when not present
func GetMarketCalendar(db *sqlx.DB, dataSetId int64, calendarName string) (*MarketCalendar, error) {
	query := "select * from market_calendar where data_set_id = $1 and calendar_name = $2"
	calendar := MarketCalendar{}
	err := db.Get(&calendar, query, dataSetId, calendarName)
	return &calendar, err
}

// GetMarketCalendarDates retrieves the exception dates of the named calendars in the DataSet, ordered by date
func GetMarketCalendarDates(db *sqlx.DB, dataSetId int64, calendarNames []string) ([]MarketCalendarDate, error) {
	if len(calendarNames) == 0 {
		return nil, nil
	}
	statementString := "select * from market_calendar_date " +
		"where data_set_id = :data_set_id " +
		"and calendar_name in (:calendar_names) " +
		"order by calendar_name, date"
	rows, err := database.PrepareNamedQueryRowsFromMap(statementString, db, map[string]interface{}{
		"data_set_id":    dataSetId,
		"calendar_names": calendarNames,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	var results []MarketCalendarDate
	for rows.Next() {
		calendarDate := MarketCalendarDate{}
		if err = rows.StructScan(&calendarDate); err != nil {
			return nil, err
		}
		results = append(results, calendarDate)
	}
	return results, rows.Err()
}
