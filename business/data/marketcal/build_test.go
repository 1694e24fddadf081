package marketcal

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/OpenTransitTools/bizcal/business/data/calendar"
	"github.com/matryer/is"
)

func getTestDate(str string) time.Time {
	result, err := time.Parse("20060102", str)
	if err != nil {
		panic(err)
	}
	return result
}

func civilDate(str string) civil.Date {
	return civil.DateOf(getTestDate(str))
}

func weekdayCalendar(name string) *MarketCalendar {
	return &MarketCalendar{
		CalendarName: name,
		Monday:       1,
		Tuesday:      1,
		Wednesday:    1,
		Thursday:     1,
		Friday:       1,
		Saturday:     0,
		Sunday:       0,
		StartDate:    getTestDate("20230101"),
		EndDate:      getTestDate("20231231"),
	}
}

func TestBuildCalendar(t *testing.T) {
	is := is.New(t)
	dates := []MarketCalendarDate{
		{CalendarName: "NYK", Date: getTestDate("20230704"), ExceptionType: ExceptionHoliday},
		{CalendarName: "NYK", Date: getTestDate("20230311"), ExceptionType: ExceptionBusinessDay},
		{CalendarName: "LDN", Date: getTestDate("20230508"), ExceptionType: ExceptionHoliday},
	}

	got, err := BuildCalendar(weekdayCalendar("NYK"), dates)
	is.NoErr(err)

	want := calendar.NewBuilder().
		WithValidPeriod(civilDate("20230101"), civilDate("20231231")).
		WithWeekends().
		WithExtraHolidays(civilDate("20230704")).
		WithExtraBusinessDays(civilDate("20230311")).
		MustBuild()
	is.True(got.Equal(want))

	// the LDN date is ignored
	open, err := got.IsBusinessDay(civilDate("20230508"))
	is.NoErr(err)
	is.True(open)
}

func TestBuildCalendar_errors(t *testing.T) {
	tests := []struct {
		name  string
		row   *MarketCalendar
		dates []MarketCalendarDate
	}{
		{
			name: "weekday flag out of range",
			row: func() *MarketCalendar {
				row := weekdayCalendar("NYK")
				row.Wednesday = 2
				return row
			}(),
		},
		{
			name: "inverted period",
			row: func() *MarketCalendar {
				row := weekdayCalendar("NYK")
				row.StartDate, row.EndDate = row.EndDate, row.StartDate
				return row
			}(),
		},
		{
			name: "unknown exception type",
			row:  weekdayCalendar("NYK"),
			dates: []MarketCalendarDate{
				{CalendarName: "NYK", Date: getTestDate("20230704"), ExceptionType: 3},
			},
		},
		{
			name: "holiday and business day on one date",
			row:  weekdayCalendar("NYK"),
			dates: []MarketCalendarDate{
				{CalendarName: "NYK", Date: getTestDate("20230704"), ExceptionType: ExceptionHoliday},
				{CalendarName: "NYK", Date: getTestDate("20230704"), ExceptionType: ExceptionBusinessDay},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildCalendar(tt.row, tt.dates)
			if !errors.Is(err, calendar.ErrConstruction) {
				t.Errorf("BuildCalendar() error = %v, want ErrConstruction", err)
			}
			if got != nil {
				t.Errorf("BuildCalendar() got = %v, want nil", got)
			}
		})
	}
}

func TestDataSet_String(t *testing.T) {
	saved := time.Date(2023, 5, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		ds   DataSet
		want string
	}{
		{
			name: "new",
			ds: DataSet{
				URL:          "http://localhost/calendars.zip",
				DownloadedAt: time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC),
			},
			want: "DataSet Id:0, url:http://localhost/calendars.zip, ETag:, lastModified: " +
				"downloaded:2023-05-01T12:00:00 savedAt: replacedAt:",
		},
		{
			name: "saved",
			ds: DataSet{
				Id:                    4,
				URL:                   "http://localhost/calendars.zip",
				ETag:                  "abc",
				LastModifiedTimestamp: 1682899200,
				DownloadedAt:          time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC),
				SavedAt:               &saved,
			},
			want: "DataSet Id:4, url:http://localhost/calendars.zip, ETag:abc, lastModified:2023-05-01T00:00:00 " +
				"downloaded:2023-05-01T12:00:00 savedAt:2023-05-01T12:30:00 replacedAt:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ds.String(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("String() got = %v, want %v", got, tt.want)
			}
		})
	}
}
