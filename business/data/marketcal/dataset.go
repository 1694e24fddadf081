// Package marketcal provides CRUD functionality for market calendars stored in postgres, and an
// atom source that builds calendars from the latest saved data set
package marketcal

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// DataSetTransaction contains required data for recording new calendar records owned by a DataSet
type DataSetTransaction struct {
	DS DataSet
	Tx *sqlx.Tx
}

// DataSet encompasses a calendar file available from a source at a point in time.
// The same source will be loaded over time.
// Each market calendar record shares the DataSet.Id value as part of the primary key.
type DataSet struct {
	Id  int64
	URL string
	// ETag is the ETag header if available from the source web site for the calendar file. Is empty if not available
	ETag string `db:"e_tag"`
	// LastModifiedTimestamp is the unix epoch seconds the source web site provided for the last time the file was modified
	// is 0 if not available
	LastModifiedTimestamp int64      `db:"last_modified_timestamp"`
	DownloadedAt          time.Time  `db:"downloaded_at"`
	SavedAt               *time.Time `db:"saved_at"`
	// ReplacedAt is set when a newer DataSet has been saved
	ReplacedAt *time.Time `db:"replaced_at"`
}

func (d DataSet) String() string {
	lastModified := ""
	if d.LastModifiedTimestamp != 0 {
		lastModTime := time.Unix(d.LastModifiedTimestamp, 0).UTC()
		lastModified = formatTime(&lastModTime)
	}
	return fmt.Sprintf("DataSet Id:%d, url:%s, ETag:%s, lastModified:%s downloaded:%s savedAt:%s replacedAt:%s",
		d.Id, d.URL, d.ETag, lastModified, formatTime(&d.DownloadedAt), formatTime(d.SavedAt), formatTime(d.ReplacedAt))
}

func formatTime(time *time.Time) string {
	if time == nil {
		return ""
	}
	return time.Format("2006-01-02T15:04:05")
}

/*
SaveDataSet saves new or updates existing DataSets. Existing records are determined by a non-zero DataSet.ID
*/
func SaveDataSet(tx *sqlx.Tx, ds *DataSet) error {
	statementString := "insert into data_set ( " +
		"url, " +
		"e_tag, " +
		"last_modified_timestamp, " +
		"downloaded_at, " +
		"saved_at, " +
		"replaced_at) " +
		"values (" +
		":url, " +
		":e_tag, " +
		":last_modified_timestamp, " +
		":downloaded_at, " +
		":saved_at, " +
		":replaced_at) " +
		"returning id"
	if ds.Id != 0 {
		statementString = "update data_set set " +
			"url = :url, " +
			"e_tag = :e_tag, " +
			"last_modified_timestamp = :last_modified_timestamp, " +
			"downloaded_at = :downloaded_at, " +
			"saved_at = :saved_at, " +
			"replaced_at = :replaced_at " +
			"where id = :id"
		_, err := tx.NamedExec(tx.Rebind(statementString), ds)
		return err
	}

	rows, err := tx.NamedQuery(statementString, ds)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()
	if !rows.Next() {
		return fmt.Errorf("no id returned after inserting data_set")
	}
	return rows.Scan(&ds.Id)
}

// SaveAndReplaceDataSet marks ds as saved at "at" and every other current DataSet as replaced
func SaveAndReplaceDataSet(tx *sqlx.Tx, ds *DataSet, at time.Time) error {
	ds.SavedAt = &at
	if err := SaveDataSet(tx, ds); err != nil {
		return err
	}
	query := tx.Rebind("update data_set set replaced_at = ? " +
		"where id <> ? and saved_at is not null and replaced_at is null")
	_, err := tx.Exec(query, at, ds.Id)
	return err
}

// GetDataSet retrieves DataSet with dataSetId
func GetDataSet(db *sqlx.DB, dataSetId int64) (*DataSet, error) {
	query := "select * from data_set where id = $1"
	ds := DataSet{}
	err := db.Get(&ds, db.Rebind(query), dataSetId)
	return &ds, err
}

// GetLatestSavedDataSet retrieves the latest DataSet with a saved_at date
func GetLatestSavedDataSet(db *sqlx.DB) (*DataSet, error) {
	query := "select * from data_set where saved_at is not null order by saved_at desc, downloaded_at desc limit 1"
	ds := DataSet{}
	err := db.Get(&ds, query)
	return &ds, err
}

// GetAllDataSets retrieves all DataSets currently loaded
func GetAllDataSets(db *sqlx.DB) ([]DataSet, error) {
	query := "select * from data_set order by id"
	var results []DataSet
	err := db.Select(&results, query)
	return results, err
}

// DeleteDataSet removes the DataSet with dataSetId and every record it owns.
// Returns the number of rows removed per table
func DeleteDataSet(tx *sqlx.Tx, dataSetId int64) (map[string]int64, error) {
	deleteStatements := []struct {
		query string
		name  string
	}{
		{
			name:  "market_calendar_date",
			query: "delete from market_calendar_date where data_set_id = ?",
		},
		{
			name:  "market_calendar",
			query: "delete from market_calendar where data_set_id = ?",
		},
		{
			name:  "data_set",
			query: "delete from data_set where id = ?",
		},
	}
	deleted := make(map[string]int64, len(deleteStatements))
	for _, deleteStatement := range deleteStatements {
		result, err := tx.Exec(tx.Rebind(deleteStatement.query), dataSetId)
		if err != nil {
			return deleted, fmt.Errorf("error running '%s' error:%w", deleteStatement.query, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return deleted, fmt.Errorf("error retrieving rows affected after '%s' error:%w", deleteStatement.query, err)
		}
		deleted[deleteStatement.name] = rows
	}
	return deleted, nil
}
