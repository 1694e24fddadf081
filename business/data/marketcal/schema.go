package marketcal

import (
	_ "embed"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

// CreateSchema creates the data_set, market_calendar and market_calendar_date tables if missing
func CreateSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}
