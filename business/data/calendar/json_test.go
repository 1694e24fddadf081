package calendar

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestCalendar_MarshalJSON(t *testing.T) {
	is := is.New(t)
	cal := NewBuilder().
		WithValidPeriod(date("2023-01-01"), date("2023-01-31")).
		WithWeekends().
		WithExtraHolidays(date("2023-01-02")).
		MustBuild()

	b, err := json.Marshal(cal)
	is.NoErr(err)
	is.Equal(string(b), `{"valid_from":"2023-01-01","valid_to":"2023-01-31",`+
		`"holiday_weekdays":["Sunday","Saturday"],"extra_holidays":["2023-01-02"],"extra_business_days":[]}`)

	var decoded Calendar
	is.NoErr(json.Unmarshal(b, &decoded))
	is.True(decoded.Equal(cal))
}

func TestCalendar_jsonRoundTrip(t *testing.T) {
	for name, cal := range map[string]*Calendar{
		"calendar2023":   calendar2023(),
		"friday weekend": fridaySaturdayCalendar(),
		"blank":          Blank(false),
	} {
		t.Run(name, func(t *testing.T) {
			b, err := json.Marshal(cal)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			decoded := &Calendar{}
			if err = json.Unmarshal(b, decoded); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", b, err)
			}
			if !decoded.Equal(cal) {
				t.Errorf("round trip got = %v, want %v", decoded, cal)
			}
		})
	}
}

func TestCalendar_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "inverted period",
			input:   `{"valid_from":"2023-02-01","valid_to":"2023-01-01"}`,
			wantErr: ErrConstruction,
		},
		{
			name:    "overlapping dates",
			input:   `{"valid_from":"2023-01-01","valid_to":"2023-12-31","extra_holidays":["2023-05-06"],"extra_business_days":["2023-05-06"]}`,
			wantErr: ErrConstruction,
		},
		{
			name:    "unknown weekday",
			input:   `{"valid_from":"2023-01-01","valid_to":"2023-12-31","holiday_weekdays":["Funday"]}`,
			wantErr: ErrConstruction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cal Calendar
			err := json.Unmarshal([]byte(tt.input), &cal)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Unmarshal() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseWeekday(t *testing.T) {
	is := is.New(t)
	for input, want := range map[string]time.Weekday{
		"Saturday": time.Saturday,
		"sat":      time.Saturday,
		"SUNDAY":   time.Sunday,
		"Mon":      time.Monday,
	} {
		got, err := ParseWeekday(input)
		is.NoErr(err)
		is.Equal(got, want)
	}
	_, err := ParseWeekday("Satur")
	is.True(err != nil)
}
