package calendar

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
)

var (
	// ErrOutOfRange is matched by every *OutOfRangeError
	ErrOutOfRange = errors.New("date out of calendar range")

	// ErrConstruction is returned by Builder.Build when the calendar would be inconsistent
	ErrConstruction = errors.New("invalid calendar definition")

	// ErrMerge is returned when calendars can not be combined
	ErrMerge = errors.New("unable to merge calendars")

	// ErrProvider wraps failures of an AtomSource during resolution
	ErrProvider = errors.New("calendar source failed")

	// ErrNotFound should be wrapped by AtomSource implementations that do not know a calendar name
	ErrNotFound = errors.New("calendar not found")
)

// OutOfRangeError reports a date, or a step from a date, that left a calendar's valid period
type OutOfRangeError struct {
	Date  civil.Date
	Start civil.Date
	End   civil.Date
	// Op names the stepping operation, empty when Date itself was queried
	Op string
}

func (e *OutOfRangeError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s from %s runs outside the valid period [%s, %s]", e.Op, e.Date, e.Start, e.End)
	}
	return fmt.Sprintf("date %s is outside the valid period [%s, %s]", e.Date, e.Start, e.End)
}

// Is makes errors.Is(err, ErrOutOfRange) true
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
