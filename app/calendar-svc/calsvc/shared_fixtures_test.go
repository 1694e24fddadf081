package calsvc

import (
	"fmt"
	logger "log"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/OpenTransitTools/bizcal/business/data/calendar"
	"github.com/OpenTransitTools/bizcal/business/data/calexpr"
)

type testLogWriter struct {
	mu       sync.Mutex
	logLines []string
	log      *logger.Logger
}

func makeTestLogWriter() *testLogWriter {
	logWriter := testLogWriter{
		logLines: make([]string, 0),
	}
	log := logger.New(&logWriter, "TEST_CALENDAR_SVC : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	logWriter.log = log
	return &logWriter
}

func (t *testLogWriter) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logLines = append(t.logLines, string(p))
	return len(p), nil
}

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// testSource serves NYK and TKY for 2023, counting fetches.
// NYK closes on independence day, TKY on its new year holidays
type testSource struct {
	mu      sync.Mutex
	fetches map[calexpr.Atom]int
	fail    error
}

func newTestSource() *testSource {
	return &testSource{fetches: make(map[calexpr.Atom]int)}
}

func (s *testSource) FetchAtom(name calexpr.Atom) (*calendar.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches[name]++
	if s.fail != nil {
		return nil, s.fail
	}
	builder := calendar.NewBuilder().
		WithValidPeriod(date("2023-01-01"), date("2023-12-31")).
		WithWeekends()
	switch name {
	case "NYK":
		builder.WithExtraHolidays(date("2023-01-02"), date("2023-07-04"))
	case "TKY":
		builder.WithExtraHolidays(date("2023-01-02"), date("2023-01-03"))
	case "DEC":
		// valid for december 2023 only
		return calendar.NewBuilder().
			WithValidPeriod(date("2023-12-01"), date("2023-12-31")).
			WithWeekends().
			Build()
	case "JAN24":
		return calendar.NewBuilder().
			WithValidPeriod(date("2024-01-01"), date("2024-01-31")).
			WithWeekends().
			Build()
	default:
		return nil, fmt.Errorf("%w: %s", calendar.ErrNotFound, name)
	}
	return builder.Build()
}

func (s *testSource) fetchCount(name calexpr.Atom) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[name]
}
