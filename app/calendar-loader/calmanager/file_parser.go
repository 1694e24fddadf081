package calmanager

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"
)

// calendarRowReader interface defines methods used to read rows from a calendar csv file and record them
type calendarRowReader interface {

	// addRow should read the current line from fileParser and record the resulting record with recorder
	// or store the record to be recorded in a batch later via flush
	addRow(parser *fileParser, recorder calendarRecorder) error

	// flush should record any pending records with recorder, if any
	flush(recorder calendarRecorder) error
}

// fileParser holds information about a csv file. Methods to read columns for records. Errors while extracting data
// types are stored in errors array which record the line number the error happened.
type fileParser struct {
	Filename       string
	line           int
	csvReader      *csv.Reader
	headers        []string
	currentRecords []string
	errors         []error
}

// makeFileParser creates new fileParser from io.Reader
func makeFileParser(r io.Reader, filename string) (*fileParser, error) {
	csvReader := csv.NewReader(r)

	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to load header in %s file: %v", filename, err)
	}
	removeBOMIfPresent(headers)
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	return &fileParser{
		Filename:       filename,
		line:           1,
		csvReader:      csvReader,
		headers:        headers,
		currentRecords: headers,
	}, nil
}

func removeBOMIfPresent(headers []string) {
	if len(headers) < 1 {
		return
	}
	runes := []rune(headers[0])
	if len(runes) > 0 && runes[0] == '\uFEFF' {
		headers[0] = string(runes[1:])
	}
}

// getString retrieves string
// returns empty string if missing
func (p *fileParser) getString(name string, optional bool) string {
	result, err := findValue(name, p.currentRecords, p.headers, optional)
	if err != nil {
		p.errors = append(p.errors, err)
	}
	if result == nil {
		return ""
	}
	return *result
}

// getInt retrieves int
// returns 0 if missing.
func (p *fileParser) getInt(name string, optional bool) int {
	result, err := getInt(name, p.currentRecords, p.headers, optional)
	if err != nil {
		p.errors = append(p.errors, err)
	}
	if result == nil {
		return 0
	}
	return *result
}

// getDate retrieves a YYYYMMDD date
// returns default time.Time if missing
func (p *fileParser) getDate(name string, optional bool) time.Time {
	stringValue, err := findValue(name, p.currentRecords, p.headers, optional)
	if err != nil {
		p.errors = append(p.errors, err)
		return time.Time{}
	}
	if stringValue == nil {
		return time.Time{}
	}
	str := strings.TrimSpace(*stringValue)
	if len(str) == 0 {
		if !optional {
			p.errors = append(p.errors, fmt.Errorf("missing required value in column %v", name))
		}
		return time.Time{}
	}
	result, err := timeFromYYYYMMDD(str)
	if err != nil {
		p.errors = append(p.errors, csvError(name, err))
		return time.Time{}
	}
	return result
}

// getError retrieve errors encountered on the current line
func (p *fileParser) getError() error {
	if len(p.errors) > 0 {
		return fmt.Errorf("in file %v, line %v: %v", p.Filename, p.line, p.errors)
	}
	return nil
}

// addParseError appends error to list of parsing errors encountered in csv file
func (p *fileParser) addParseError(err error) {
	p.errors = append(p.errors, err)
}

// nextLine moves csvReader one line forward
func (p *fileParser) nextLine() error {
	var err error
	p.currentRecords, err = p.csvReader.Read()
	p.line += 1
	return err
}

// find index of elements that matches name string. returns -1 if not found
func indexOf(name string, elements []string) int {
	for i, value := range elements {
		if name == value {
			return i
		}
	}
	return -1
}

// findValue retrieves string value from csv records
// returns nil if record isn't present and optional is true
func findValue(name string, records []string, headers []string, optional bool) (*string, error) {
	index := indexOf(name, headers)
	if index < 0 {
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to find header: %s", name)
	}
	if len(records) <= index {
		return nil, fmt.Errorf("records are too short to find header at %v named %s", index, name)
	}
	value := records[index]
	if len(value) == 0 && !optional {
		return nil, fmt.Errorf("missing required value in column %v", name)
	}
	return &value, nil
}

// getInt retrieves int from csv records
// returns nil if record isn't present and optional is true
func getInt(name string, records []string, headers []string, optional bool) (*int, error) {
	value, err := findValue(name, records, headers, optional)
	if err != nil || value == nil {
		return nil, err
	}
	str := strings.TrimSpace(*value)
	if len(str) == 0 {
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("missing required value in column %v", name)
	}
	result, err := strconv.Atoi(str)
	if err != nil {
		return nil, csvError(name, err)
	}
	return &result, nil
}

// csvError convenience method for formatting an error in a csv column
func csvError(name string, err error) error {
	return fmt.Errorf("unable to parse column %s, error: %v", name, err)
}

// timeFromYYYYMMDD retrieves a date from a string in YYYYMMDD format, 20230913 for September 13th, 2023.
func timeFromYYYYMMDD(dateString string) (time.Time, error) {
	const layout = "20060102"
	return time.Parse(layout, dateString)
}

// loadRows iterates over all rows in fileParser and feeds them into rowReader.
// reading halts if an error occurs and the error is returned
func loadRows(parser *fileParser, rowReader calendarRowReader, recorder calendarRecorder) error {
	for {
		err := parser.nextLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		err = rowReader.addRow(parser, recorder)
		if err != nil {
			parser.addParseError(err)
			return parser.getError()
		}
	}
	//flush the remaining items out of the row reader
	return rowReader.flush(recorder)
}

// calendarFiles holds the files of a calendar zip that we know how to load
type calendarFiles struct {
	calendarFile     *zip.File
	calendarDateFile *zip.File
}

// newCalendarFiles finds the calendar files in zipReader
// returns error if calendar.txt is missing
func newCalendarFiles(zipReader *zip.Reader) (*calendarFiles, error) {
	files := calendarFiles{}
	for _, f := range zipReader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch f.Name {
		case "calendar.txt":
			files.calendarFile = f
		case "calendar_dates.txt":
			files.calendarDateFile = f
		}
	}
	//ok to be missing calendar_dates.txt
	if files.calendarFile == nil {
		return nil, fmt.Errorf("calendar zip file is missing calendar.txt")
	}
	return &files, nil
}

// loadCalendarZipFile reads local zip file at localFilePath, reads calendar.txt and calendar_dates.txt if present,
// records them with recorder and validates every calendar they describe.
// reading halts if an error occurs and the error is returned.
// returns the names of the calendars loaded
func loadCalendarZipFile(log *log.Logger, recorder calendarRecorder, localFilePath string) ([]string, error) {
	r, err := zip.OpenReader(localFilePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		err := r.Close()
		if err != nil {
			log.Printf("unable to close zip file %s, error: %v", localFilePath, err)
		}
	}()
	return loadCalendarZip(log, recorder, &r.Reader)
}

// loadCalendarZip loads calendar files from zipReader in the order required by the row readers
func loadCalendarZip(log *log.Logger, recorder calendarRecorder, zipReader *zip.Reader) ([]string, error) {
	files, err := newCalendarFiles(zipReader)
	if err != nil {
		return nil, err
	}
	calendarRR := newMarketCalendarRowReader()
	if err = loadFile(log, recorder, calendarRR, files.calendarFile); err != nil {
		return nil, err
	}
	dateRR := newMarketCalendarDateRowReader(calendarRR)
	if files.calendarDateFile != nil {
		if err = loadFile(log, recorder, dateRR, files.calendarDateFile); err != nil {
			return nil, err
		}
	}
	return validateCalendars(calendarRR, dateRR)
}

// loadFile loads a zipped file and reads it with rowReader
func loadFile(log *log.Logger, recorder calendarRecorder, rowReader calendarRowReader, f *zip.File) error {
	start := time.Now()
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()
	parser, err := makeFileParser(rc, f.Name)
	if err != nil {
		return err
	}
	log.Printf("Loading %s\n", parser.Filename)
	err = loadRows(parser, rowReader, recorder)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d rows in file %s in %v\n", parser.line-2, parser.Filename, time.Since(start))
	return nil
}
