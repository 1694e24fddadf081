package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// calendarJSON is the wire form of Calendar
type calendarJSON struct {
	ValidFrom         civil.Date   `json:"valid_from"`
	ValidTo           civil.Date   `json:"valid_to"`
	HolidayWeekdays   []string     `json:"holiday_weekdays"`
	ExtraHolidays     []civil.Date `json:"extra_holidays"`
	ExtraBusinessDays []civil.Date `json:"extra_business_days"`
}

func (c *Calendar) MarshalJSON() ([]byte, error) {
	weekdays := c.HolidayWeekdays()
	names := make([]string, len(weekdays))
	for i, d := range weekdays {
		names[i] = d.String()
	}
	return json.Marshal(calendarJSON{
		ValidFrom:         c.start,
		ValidTo:           c.end,
		HolidayWeekdays:   names,
		ExtraHolidays:     nonNil(c.extraHolidays),
		ExtraBusinessDays: nonNil(c.extraBusinessDays),
	})
}

// UnmarshalJSON decodes through the Builder, so a decoded Calendar satisfies the same
// invariants as a built one
func (c *Calendar) UnmarshalJSON(data []byte) error {
	var raw calendarJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b := NewBuilder().
		WithValidPeriod(raw.ValidFrom, raw.ValidTo).
		WithExtraHolidays(raw.ExtraHolidays...).
		WithExtraBusinessDays(raw.ExtraBusinessDays...)
	for _, name := range raw.HolidayWeekdays {
		d, err := ParseWeekday(name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConstruction, err)
		}
		b.WithHolidayWeekdays(d)
	}
	built, err := b.Build()
	if err != nil {
		return err
	}
	*c = *built
	return nil
}

// ParseWeekday reads an English weekday name, full or three letter, in any case
func ParseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

func nonNil(dates []civil.Date) []civil.Date {
	if dates == nil {
		return []civil.Date{}
	}
	return dates
}
