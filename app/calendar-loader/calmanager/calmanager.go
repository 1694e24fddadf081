// Package calmanager provides support for retrieving, reading, validating, deleting and saving market calendar
// data sets to a database
package calmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenTransitTools/bizcal/business/data/marketcal"
	"github.com/OpenTransitTools/bizcal/foundation/database"
	"github.com/OpenTransitTools/bizcal/foundation/httpclient"
	"github.com/jmoiron/sqlx"
)

// DeleteCalendars deletes all calendar records associated with marketcal.DataSet with dataSetId
func DeleteCalendars(log *log.Logger,
	db *sqlx.DB,
	dataSetId int64) error {

	dataSet, err := marketcal.GetDataSet(db, dataSetId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no DataSet found with id %d", dataSetId)
		}
		return err
	}
	err = database.Transact(log, db, func(tx *sqlx.Tx) error {
		log.Printf("Removing dataSet %v", dataSet)
		deleted, err := marketcal.DeleteDataSet(tx, dataSet.Id)
		for table, rows := range deleted {
			log.Printf("Deleted %d lines from %s\n", rows, table)
		}
		return err
	})
	if err != nil {
		return err
	}
	log.Printf("Deleted DataSet %v", dataSet)
	return nil
}

// UpdateCalendars checks for an updated calendar file on the remote server.
// If a new version is detected the zip file is downloaded from url to localDownloadDirectory, validated and saved
// as a new DataSet, after which publisher announces it. forceDownload bypasses the remote check.
// Returns nil DataSet when no update was needed
func UpdateCalendars(ctx context.Context,
	log *log.Logger,
	db *sqlx.DB,
	client *httpclient.Client,
	publisher ReloadPublisher,
	localDownloadDirectory string,
	url string,
	forceDownload bool) (*marketcal.DataSet, error) {
	if forceDownload {
		log.Printf("Not checking remote calendar file for new information, forcing load of calendar file")
	} else if !shouldUpdateCalendars(ctx, log, db, client, url) {
		return nil, nil
	}

	err := makeDirectoryIfNotPresent(localDownloadDirectory)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	localZipFile := filepath.Join(localDownloadDirectory, "calendars.zip")
	log.Printf("Downloading file from %s to %s\n", url, localZipFile)
	downloadedFile, err := client.DownloadRemoteFile(ctx, localZipFile, url)

	//remove downloaded file after we are done
	defer func() {
		if _, err := os.Stat(localZipFile); err == nil {
			err = os.Remove(localZipFile)
			if err != nil {
				log.Printf("Unable to remove downloaded file. error:%v", err)
			}
		}
	}()
	if err != nil {
		return nil, err
	}

	log.Printf("Downloaded %v bytes in %v\n", downloadedFile.Size, downloadedFile.DownloadedAt.Sub(start))

	ds, err := loadCalendarsFromFile(log, db, *downloadedFile)
	if err != nil {
		return nil, err
	}
	if err = publisher.PublishReload(ds); err != nil {
		// the data set is saved, services pick it up once their cache expires
		log.Printf("Unable to publish reload notice for %v, error: %v", ds, err)
	}
	return ds, nil
}

// shouldUpdateCalendars checks the latest saved marketcal.DataSet and compares it to what's available on the remote
// server. If it sees a difference returns true.
// On error logs and returns false.
func shouldUpdateCalendars(ctx context.Context, log *log.Logger, db *sqlx.DB, client *httpclient.Client, url string) bool {
	remoteFileInfo, err := client.GetRemoteFileInfo(ctx, url)
	if err != nil {
		log.Printf("Unable to retrieve remote file information from '%s' error: %v", url, err)
		return false
	}

	existingDataSet, err := marketcal.GetLatestSavedDataSet(db)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("No DataSet loaded, should perform initial load")
			return true
		}
		log.Printf("Received error checking DataSet from database. error: %v", err)
		return false
	}
	if len(remoteFileInfo.ETag) == 0 && remoteFileInfo.LastModifiedTimestamp == 0 {
		log.Printf("Unable to determine remote file timestamp or eTag, can not determine if data set should be reloaded")
		return false
	}
	if remoteFileInfo.IsDifferent(existingDataSet.ETag, existingDataSet.LastModifiedTimestamp) {
		log.Printf("Remote file indicates new file available")
		return true
	}
	log.Printf("Remote file indicates the loaded DataSet is current: %v", *existingDataSet)
	return false
}

// ListCalendars displays a list of all DataSets and the calendars of the latest one
func ListCalendars(db *sqlx.DB) error {
	fmt.Println("Loaded DataSets:")
	dataSets, err := marketcal.GetAllDataSets(db)
	if err != nil {
		return err
	}
	for _, ds := range dataSets {
		fmt.Println(ds)
	}
	names, err := marketcal.NewDBSource(db).Names()
	if err != nil {
		return err
	}
	fmt.Printf("Current calendars: %v\n", names)
	return nil
}

// loadCalendarsFromFile loads the calendar zip described in httpclient.DownloadedFile and saves it to a new DataSet
// wrapped inside single transaction
func loadCalendarsFromFile(log *log.Logger,
	db *sqlx.DB,
	downloadedFile httpclient.DownloadedFile) (*marketcal.DataSet, error) {
	ds := marketcal.DataSet{
		URL:                   downloadedFile.RemoteFileInfo.Path,
		ETag:                  downloadedFile.RemoteFileInfo.ETag,
		LastModifiedTimestamp: downloadedFile.RemoteFileInfo.LastModifiedTimestamp,
		DownloadedAt:          downloadedFile.DownloadedAt,
	}
	err := database.Transact(log, db, func(tx *sqlx.Tx) error {
		err := marketcal.SaveDataSet(tx, &ds)
		if err != nil {
			return err
		}

		recorder := dataSetRecorder{
			dsTx: &marketcal.DataSetTransaction{
				DS: ds,
				Tx: tx,
			},
		}
		names, err := loadCalendarZipFile(log, &recorder, downloadedFile.LocalFilePath)
		if err != nil {
			return err
		}
		log.Printf("Validated calendars %v", names)
		return marketcal.SaveAndReplaceDataSet(tx, &ds, time.Now())
	})

	return &ds, err
}

func makeDirectoryIfNotPresent(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err = os.Mkdir(directory, os.ModePerm)
		if err != nil {
			return err
		}
	}
	return nil
}
