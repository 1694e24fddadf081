// Package holidays provides market calendars built from published holiday rules, for use when no
// calendar data set has been loaded
package holidays

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/OpenTransitTools/bizcal/business/data/calendar"
	"github.com/OpenTransitTools/bizcal/business/data/calexpr"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/us"
)

// nyseHolidays are the holidays of the New York market that rickar/cal publishes
var nyseHolidays = []*cal.Holiday{
	us.NewYear,
	us.MlkDay,
	us.PresidentsDay,
	us.MemorialDay,
	us.Juneteenth,
	us.IndependenceDay,
	us.LaborDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

var usFederalHolidays = append([]*cal.Holiday{us.ColumbusDay, us.VeteransDay}, nyseHolidays...)

var londonHolidays = []*cal.Holiday{
	gb.NewYear,
	gb.GoodFriday,
	gb.EasterMonday,
	gb.EarlyMay,
	gb.SpringHoliday,
	gb.SummerHoliday,
	gb.ChristmasDay,
	gb.BoxingDay,
}

// markets maps atom names to holiday rules
var markets = map[calexpr.Atom][]*cal.Holiday{
	"NYK":   nyseHolidays,
	"USFED": usFederalHolidays,
	"LDN":   londonHolidays,
}

// Source is a calendar.AtomSource materialising holiday rules over whole years.
// Saturday and Sunday are holiday weekdays on every market.
type Source struct {
	start civil.Date
	end   civil.Date
}

// NewSource creates a Source covering January 1st of fromYear to December 31st of toYear
func NewSource(fromYear, toYear int) (*Source, error) {
	if toYear < fromYear {
		return nil, fmt.Errorf("%w: year range %d-%d is inverted", calendar.ErrConstruction, fromYear, toYear)
	}
	return &Source{
		start: civil.Date{Year: fromYear, Month: time.January, Day: 1},
		end:   civil.Date{Year: toYear, Month: time.December, Day: 31},
	}, nil
}

// Names lists the markets the Source knows
func (s *Source) Names() []string {
	names := make([]string, 0, len(markets))
	for name := range markets {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// FetchAtom builds the calendar of the named market, unknown names wrap calendar.ErrNotFound
func (s *Source) FetchAtom(name calexpr.Atom) (*calendar.Calendar, error) {
	rules, ok := markets[name]
	if !ok {
		return nil, fmt.Errorf("%w: no holiday rules for %s", calendar.ErrNotFound, name)
	}
	bc := cal.NewBusinessCalendar()
	bc.AddHoliday(rules...)

	return calendar.NewBuilder().
		WithValidPeriod(s.start, s.end).
		WithWeekends().
		WithExtraHolidays(observedHolidays(bc, s.start, s.end)...).
		Build()
}

// observedHolidays lists the weekdays in [start, end] on which bc observes a holiday
func observedHolidays(bc *cal.BusinessCalendar, start, end civil.Date) []civil.Date {
	var result []civil.Date
	for d := start; !d.After(end); d = d.AddDays(1) {
		weekday := d.Weekday()
		if weekday == time.Saturday || weekday == time.Sunday {
			continue
		}
		_, observed, _ := bc.IsHoliday(d.In(time.UTC))
		if observed {
			result = append(result, d)
		}
	}
	return result
}
