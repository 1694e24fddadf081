package calendar

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// HolidayAdj is a rule for moving a date that is not a business day onto one
type HolidayAdj int

const (
	Unadjusted HolidayAdj = iota
	Following
	ModifiedFollowing
	Preceding
	ModifiedPreceding
)

var holidayAdjNames = map[HolidayAdj]string{
	Unadjusted:        "unadjusted",
	Following:         "following",
	ModifiedFollowing: "modified_following",
	Preceding:         "preceding",
	ModifiedPreceding: "modified_preceding",
}

// HolidayAdjs lists every rule
func HolidayAdjs() []HolidayAdj {
	return []HolidayAdj{Unadjusted, Following, ModifiedFollowing, Preceding, ModifiedPreceding}
}

func (a HolidayAdj) String() string {
	if name, ok := holidayAdjNames[a]; ok {
		return name
	}
	return fmt.Sprintf("HolidayAdj(%d)", int(a))
}

// ParseHolidayAdj reads the rule from its snake_case name
func ParseHolidayAdj(s string) (HolidayAdj, error) {
	for adj, name := range holidayAdjNames {
		if name == s {
			return adj, nil
		}
	}
	return Unadjusted, fmt.Errorf("unknown holiday adjustment %q", s)
}

func (a HolidayAdj) MarshalText() ([]byte, error) {
	if _, ok := holidayAdjNames[a]; !ok {
		return nil, fmt.Errorf("unknown holiday adjustment %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *HolidayAdj) UnmarshalText(text []byte) error {
	adj, err := ParseHolidayAdj(string(text))
	if err != nil {
		return err
	}
	*a = adj
	return nil
}

// Adjust moves d according to the rule. A business day is returned unchanged by every rule.
// Unadjusted returns any date inside the valid period unchanged. The modified rules fall back
// to the opposite direction when the first result leaves the month of d.
func (a HolidayAdj) Adjust(d civil.Date, cal *Calendar) (civil.Date, error) {
	ok, err := cal.IsBusinessDay(d)
	if err != nil {
		return civil.Date{}, err
	}
	if ok {
		return d, nil
	}

	switch a {
	case Unadjusted:
		return d, nil
	case Following:
		return cal.following(d)
	case Preceding:
		return cal.preceding(d)
	case ModifiedFollowing:
		next, err := cal.following(d)
		if err != nil {
			return civil.Date{}, err
		}
		if sameMonth(next, d) {
			return next, nil
		}
		return cal.preceding(d)
	case ModifiedPreceding:
		prev, err := cal.preceding(d)
		if err != nil {
			return civil.Date{}, err
		}
		if sameMonth(prev, d) {
			return prev, nil
		}
		return cal.following(d)
	}
	return civil.Date{}, fmt.Errorf("unknown holiday adjustment %d", int(a))
}

func sameMonth(a, b civil.Date) bool {
	return a.Year == b.Year && a.Month == b.Month
}
