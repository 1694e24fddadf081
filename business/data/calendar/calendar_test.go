package calendar

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/matryer/is"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dates(s ...string) []civil.Date {
	result := make([]civil.Date, len(s))
	for i, v := range s {
		result[i] = date(v)
	}
	return result
}

// calendar2023 covers 2023 with weekends, two extra holidays and one working Saturday
func calendar2023() *Calendar {
	return NewBuilder().
		WithValidPeriod(date("2023-01-01"), date("2023-12-31")).
		WithWeekends().
		WithExtraHolidays(date("2023-07-04"), date("2023-01-02")).
		WithExtraBusinessDays(date("2023-03-04")).
		MustBuild()
}

// collect takes at most n dates from seq
func collect(seq func(func(civil.Date) bool), n int) []civil.Date {
	var result []civil.Date
	for d := range seq {
		if len(result) == n {
			break
		}
		result = append(result, d)
	}
	return result
}

func TestCalendar_IsBusinessDay(t *testing.T) {
	cal := calendar2023()
	tests := []struct {
		name    string
		date    string
		want    bool
		wantErr bool
	}{
		{name: "extra holiday on a monday", date: "2023-01-02", want: false},
		{name: "plain tuesday", date: "2023-01-03", want: true},
		{name: "saturday", date: "2023-01-07", want: false},
		{name: "working saturday", date: "2023-03-04", want: true},
		{name: "sunday after working saturday", date: "2023-03-05", want: false},
		{name: "independence day", date: "2023-07-04", want: false},
		{name: "first day of period", date: "2023-01-01", want: false},
		{name: "last friday of period", date: "2023-12-29", want: true},
		{name: "before period", date: "2022-12-31", wantErr: true},
		{name: "after period", date: "2024-01-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cal.IsBusinessDay(date(tt.date))
			if tt.wantErr {
				if !errors.Is(err, ErrOutOfRange) {
					t.Errorf("IsBusinessDay(%s) error = %v, want ErrOutOfRange", tt.date, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("IsBusinessDay(%s) unexpected error = %v", tt.date, err)
			}
			if got != tt.want {
				t.Errorf("IsBusinessDay(%s) got = %v, want %v", tt.date, got, tt.want)
			}
			holiday, err := cal.IsHoliday(date(tt.date))
			if err != nil || holiday == got {
				t.Errorf("IsHoliday(%s) got = %v, %v", tt.date, holiday, err)
			}
		})
	}
}

func TestCalendar_OutOfRangeError(t *testing.T) {
	is := is.New(t)
	_, err := calendar2023().IsBusinessDay(date("2024-02-01"))
	var rangeErr *OutOfRangeError
	is.True(errors.As(err, &rangeErr))
	is.Equal(rangeErr.Date, date("2024-02-01"))
	is.Equal(rangeErr.Start, date("2023-01-01"))
	is.Equal(rangeErr.End, date("2023-12-31"))
	is.Equal(err.Error(), "date 2024-02-01 is outside the valid period [2023-01-01, 2023-12-31]")
}

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
	}{
		{
			name:    "missing valid period",
			builder: NewBuilder().WithWeekends(),
		},
		{
			name:    "inverted valid period",
			builder: NewBuilder().WithValidPeriod(date("2023-12-31"), date("2023-01-01")),
		},
		{
			name: "holiday and business day overlap",
			builder: NewBuilder().
				WithValidPeriod(date("2023-01-01"), date("2023-12-31")).
				WithExtraHolidays(date("2023-05-06")).
				WithExtraBusinessDays(date("2023-05-06")),
		},
		{
			name: "unknown weekday",
			builder: NewBuilder().
				WithValidPeriod(date("2023-01-01"), date("2023-12-31")).
				WithHolidayWeekdays(time.Weekday(9)),
		},
		{
			name:    "invalid date",
			builder: NewBuilder().WithValidPeriod(civil.Date{Year: 2023, Month: 2, Day: 30}, date("2023-12-31")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.builder.Build()
			if !errors.Is(err, ErrConstruction) {
				t.Errorf("Build() error = %v, want ErrConstruction", err)
			}
			if got != nil {
				t.Errorf("Build() got = %v, want nil", got)
			}
		})
	}
}

func TestBuilder_normalises(t *testing.T) {
	is := is.New(t)
	cal := NewBuilder().
		WithValidPeriod(date("2023-01-01"), date("2023-01-31")).
		WithHolidayWeekdays(time.Sunday, time.Saturday, time.Sunday).
		WithExtraHolidays(
			date("2023-01-17"),
			date("2023-01-07"), // already a saturday
			date("2023-01-02"),
			date("2023-01-17"),
			date("2023-02-01"), // outside the period
		).
		WithExtraBusinessDays(
			date("2023-01-14"),
			date("2023-01-05"), // already a thursday
		).
		MustBuild()

	is.Equal(cal.HolidayWeekdays(), []time.Weekday{time.Sunday, time.Saturday})
	is.Equal(cal.ExtraHolidays(), dates("2023-01-02", "2023-01-17"))
	is.Equal(cal.ExtraBusinessDays(), dates("2023-01-14"))

	start, end := cal.ValidPeriod()
	is.Equal(start, date("2023-01-01"))
	is.Equal(end, date("2023-01-31"))

	// accessors hand out copies
	holidays := cal.ExtraHolidays()
	holidays[0] = date("2023-01-03")
	is.Equal(cal.ExtraHolidays(), dates("2023-01-02", "2023-01-17"))
}

func TestCalendar_NextBusinessDays(t *testing.T) {
	cal := calendar2023()
	tests := []struct {
		name string
		from string
		n    int
		want []civil.Date
	}{
		{name: "starts on business day", from: "2023-01-03", n: 2, want: dates("2023-01-03", "2023-01-04")},
		{name: "skips weekend", from: "2023-01-07", n: 3, want: dates("2023-01-09", "2023-01-10", "2023-01-11")},
		{name: "skips extra holiday", from: "2023-01-01", n: 1, want: dates("2023-01-03")},
		{name: "includes working saturday", from: "2023-03-03", n: 3, want: dates("2023-03-03", "2023-03-04", "2023-03-06")},
		{name: "ends with valid period", from: "2023-12-28", n: 5, want: dates("2023-12-28", "2023-12-29")},
		{name: "exhausted", from: "2023-12-30", n: 5, want: nil},
		{name: "outside period", from: "2024-01-02", n: 5, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(cal.NextBusinessDays(date(tt.from)), tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NextBusinessDays(%s) got = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestCalendar_PreviousBusinessDays(t *testing.T) {
	cal := calendar2023()
	tests := []struct {
		name string
		from string
		n    int
		want []civil.Date
	}{
		{name: "starts on business day", from: "2023-01-04", n: 2, want: dates("2023-01-04", "2023-01-03")},
		{name: "skips weekend", from: "2023-01-08", n: 2, want: dates("2023-01-06", "2023-01-05")},
		{name: "skips extra holiday", from: "2023-07-04", n: 1, want: dates("2023-07-03")},
		{name: "ends with valid period", from: "2023-01-04", n: 5, want: dates("2023-01-04", "2023-01-03")},
		{name: "exhausted", from: "2023-01-02", n: 5, want: nil},
		{name: "outside period", from: "2022-12-30", n: 5, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(cal.PreviousBusinessDays(date(tt.from)), tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PreviousBusinessDays(%s) got = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

// TestCalendar_sequencesAgreeWithPredicate walks every day of the period
func TestCalendar_sequencesAgreeWithPredicate(t *testing.T) {
	cal := calendar2023()
	for d := date("2023-01-01"); !d.After(date("2023-12-31")); d = d.AddDays(1) {
		isBusiness, err := cal.IsBusinessDay(d)
		if err != nil {
			t.Fatalf("IsBusinessDay(%s) unexpected error = %v", d, err)
		}
		for next := range cal.NextBusinessDays(d) {
			if (next == d) != isBusiness {
				t.Errorf("NextBusinessDays(%s) first = %s, IsBusinessDay = %v", d, next, isBusiness)
			}
			for skipped := d; skipped.Before(next); skipped = skipped.AddDays(1) {
				if ok, _ := cal.IsBusinessDay(skipped); ok {
					t.Errorf("NextBusinessDays(%s) skipped business day %s", d, skipped)
				}
			}
			break
		}
		for prev := range cal.PreviousBusinessDays(d) {
			if (prev == d) != isBusiness {
				t.Errorf("PreviousBusinessDays(%s) first = %s, IsBusinessDay = %v", d, prev, isBusiness)
			}
			break
		}
	}
}

func TestCalendar_sequencesWithAllWeekdaysClosed(t *testing.T) {
	is := is.New(t)
	cal := NewBuilder().
		WithValidPeriod(date("2023-05-01"), date("2023-05-31")).
		WithHolidayWeekdays(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday).
		WithExtraBusinessDays(date("2023-05-20"), date("2023-05-10")).
		MustBuild()

	is.Equal(collect(cal.NextBusinessDays(date("2023-05-11")), 5), dates("2023-05-20"))
	is.Equal(collect(cal.NextBusinessDays(date("2023-05-10")), 5), dates("2023-05-10", "2023-05-20"))
	is.Equal(collect(cal.PreviousBusinessDays(date("2023-05-19")), 5), dates("2023-05-10"))
	is.Equal(collect(cal.PreviousBusinessDays(date("2023-05-20")), 5), dates("2023-05-20", "2023-05-10"))
	is.Equal(len(collect(cal.NextBusinessDays(date("2023-05-21")), 5)), 0)
}

func TestCalendar_BusinessDayCount(t *testing.T) {
	cal := calendar2023()
	tests := []struct {
		name    string
		from    string
		to      string
		want    int
		wantErr bool
	}{
		{name: "january", from: "2023-01-01", to: "2023-02-01", want: 21},
		{name: "empty range", from: "2023-01-03", to: "2023-01-03", want: 0},
		{name: "one business day", from: "2023-01-03", to: "2023-01-04", want: 1},
		{name: "weekend only", from: "2023-01-07", to: "2023-01-09", want: 0},
		{name: "with working saturday", from: "2023-03-01", to: "2023-03-08", want: 6},
		{name: "reversed", from: "2023-02-01", to: "2023-01-01", want: -21},
		{name: "to is exclusive at the end of period", from: "2023-12-25", to: "2024-01-01", want: 5},
		{name: "to past the period", from: "2023-12-25", to: "2024-01-02", wantErr: true},
		{name: "from before the period", from: "2022-12-31", to: "2023-01-05", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cal.BusinessDayCount(date(tt.from), date(tt.to))
			if tt.wantErr {
				if !errors.Is(err, ErrOutOfRange) {
					t.Errorf("BusinessDayCount() error = %v, want ErrOutOfRange", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BusinessDayCount() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("BusinessDayCount(%s, %s) got = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCalendar_BusinessDayCountMatchesWalk(t *testing.T) {
	cal := calendar2023()
	walk := func(from, to civil.Date) int {
		count := 0
		for d := from; d.Before(to); d = d.AddDays(1) {
			if ok, _ := cal.IsBusinessDay(d); ok {
				count++
			}
		}
		return count
	}
	starts := dates("2023-01-01", "2023-01-02", "2023-02-28", "2023-03-04", "2023-06-30", "2023-07-04")
	lengths := []int{0, 1, 2, 6, 7, 8, 13, 45, 180}
	for _, from := range starts {
		for _, n := range lengths {
			to := from.AddDays(n)
			got, err := cal.BusinessDayCount(from, to)
			if err != nil {
				t.Fatalf("BusinessDayCount(%s, %s) unexpected error = %v", from, to, err)
			}
			if want := walk(from, to); got != want {
				t.Errorf("BusinessDayCount(%s, %s) got = %v, want %v", from, to, got, want)
			}
			reversed, _ := cal.BusinessDayCount(to, from)
			if reversed != -got {
				t.Errorf("BusinessDayCount(%s, %s) got = %v, want %v", to, from, reversed, -got)
			}
		}
	}
}

func TestCalendar_Holidays(t *testing.T) {
	is := is.New(t)
	cal := calendar2023()

	got, err := cal.Holidays(date("2023-01-01"), date("2023-01-10"))
	is.NoErr(err)
	is.Equal(got, dates("2023-01-01", "2023-01-02", "2023-01-07", "2023-01-08"))

	got, err = cal.Holidays(date("2023-01-10"), date("2023-01-10"))
	is.NoErr(err)
	is.Equal(len(got), 0)

	_, err = cal.Holidays(date("2023-12-30"), date("2024-01-05"))
	is.True(errors.Is(err, ErrOutOfRange))
}

func TestCalendar_AddBusinessDays(t *testing.T) {
	cal := calendar2023()
	tests := []struct {
		name    string
		date    string
		n       int
		want    string
		wantErr bool
	}{
		{name: "friday plus one", date: "2023-01-06", n: 1, want: "2023-01-09"},
		{name: "through working saturday", date: "2023-03-03", n: 5, want: "2023-03-09"},
		{name: "zero on a business day", date: "2023-01-03", n: 0, want: "2023-01-03"},
		{name: "zero on a holiday rolls forward", date: "2023-01-07", n: 0, want: "2023-01-09"},
		{name: "back over extra holiday", date: "2023-07-05", n: -2, want: "2023-06-30"},
		{name: "back past the period", date: "2023-01-03", n: -1, wantErr: true},
		{name: "forward past the period", date: "2023-12-28", n: 2, wantErr: true},
		{name: "outside the period", date: "2024-01-03", n: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cal.AddBusinessDays(date(tt.date), tt.n)
			if tt.wantErr {
				if !errors.Is(err, ErrOutOfRange) {
					t.Errorf("AddBusinessDays() error = %v, want ErrOutOfRange", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddBusinessDays() unexpected error = %v", err)
			}
			if got != date(tt.want) {
				t.Errorf("AddBusinessDays(%s, %d) got = %v, want %v", tt.date, tt.n, got, tt.want)
			}
		})
	}
}

func TestBlank(t *testing.T) {
	is := is.New(t)

	open := Blank(true)
	start, end := open.ValidPeriod()
	is.Equal(start, MinDate)
	is.Equal(end, MaxDate)
	for _, d := range dates("0001-01-01", "2023-12-31", "9999-12-31") {
		ok, err := open.IsBusinessDay(d)
		is.NoErr(err)
		is.True(ok)
	}
	count, err := open.BusinessDayCount(date("2000-01-01"), date("2000-01-08"))
	is.NoErr(err)
	is.Equal(count, 7)

	closed := Blank(false)
	ok, err := closed.IsBusinessDay(date("2023-06-15"))
	is.NoErr(err)
	is.True(!ok)
	is.Equal(len(collect(closed.NextBusinessDays(date("2023-06-15")), 1)), 0)
	count, err = closed.BusinessDayCount(date("2000-01-01"), date("2001-01-01"))
	is.NoErr(err)
	is.Equal(count, 0)
}

func TestCalendar_Equal(t *testing.T) {
	is := is.New(t)
	is.True(calendar2023().Equal(calendar2023()))
	is.True(!calendar2023().Equal(Blank(true)))
	is.True(!calendar2023().Equal(nil))

	same := NewBuilder().
		WithValidPeriod(date("2023-01-01"), date("2023-12-31")).
		WithHolidayWeekdays(time.Saturday, time.Sunday).
		WithExtraHolidays(date("2023-01-02"), date("2023-07-04"), date("2023-01-08")).
		WithExtraBusinessDays(date("2023-03-04")).
		MustBuild()
	is.True(calendar2023().Equal(same)) // the redundant sunday holiday is dropped
}
