package features

import (
	"time"

	"github.com/pkg/errors"

	"rainfall-api/internal/models"
)

// TimestampLayout is the only accepted timestamp format: no seconds, no zone.
const TimestampLayout = "2006-01-02 15:04"

// Temporal holds calendar features derived from a timestamp.
type Temporal struct {
	Hour      int
	DayOfWeek int // Monday=0 .. Sunday=6
	Month     int
	Day       int
}

// ExtractTemporal parses ts and derives its calendar features.
func ExtractTemporal(ts string) (Temporal, error) {
	t, err := time.Parse(TimestampLayout, ts)
	if err != nil {
		return Temporal{}, errors.Wrapf(models.ErrInvalidTimestamp, "got %q", ts)
	}

	return Temporal{
		Hour:      t.Hour(),
		DayOfWeek: MondayFirst(t.Weekday()),
		Month:     int(t.Month()),
		Day:       t.Day(),
	}, nil
}

// MondayFirst converts a Sunday-first weekday to Monday=0 .. Sunday=6.
func MondayFirst(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay() == 366 {
		return 366
	}
	return 365
}
