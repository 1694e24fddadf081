package marketcal

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/OpenTransitTools/bizcal/business/data/calendar"
	"github.com/OpenTransitTools/bizcal/business/data/calexpr"
	"github.com/jmoiron/sqlx"
)

// DBSource is a calendar.AtomSource reading the latest saved DataSet
type DBSource struct {
	db *sqlx.DB
}

// NewDBSource creates a DBSource over db
func NewDBSource(db *sqlx.DB) *DBSource {
	return &DBSource{db: db}
}

// FetchAtom loads the calendar named name. Unknown names, or a database without a saved
// DataSet, are reported with calendar.ErrNotFound
func (s *DBSource) FetchAtom(name calexpr.Atom) (*calendar.Calendar, error) {
	ds, err := GetLatestSavedDataSet(s.db)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no saved data set", calendar.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to retrieve latest data set: %w", err)
	}

	row, err := GetMarketCalendar(s.db, ds.Id, string(name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s in data set %d", calendar.ErrNotFound, name, ds.Id)
		}
		return nil, fmt.Errorf("unable to retrieve calendar %s: %w", name, err)
	}

	dates, err := GetMarketCalendarDates(s.db, ds.Id, []string{string(name)})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve dates of calendar %s: %w", name, err)
	}
	return BuildCalendar(row, dates)
}

// Names lists the calendars of the latest saved DataSet
func (s *DBSource) Names() ([]string, error) {
	ds, err := GetLatestSavedDataSet(s.db)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return GetCalendarNames(s.db, ds.Id)
}
