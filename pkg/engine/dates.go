package engine

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the layout of the calendar days accepted by DayRange.
const DateLayout = "2006-01-02"

// DayRange converts calendar days into SetDateFilter arguments: inclusive epoch millisecond
// bounds covering the whole of both days in loc. remove is true when both are empty. An
// empty since is open towards the past, an empty to towards the future.
func DayRange(since, to string, loc *time.Location) (sinceMillis, toMillis int64, remove bool, err error) {
	if since == "" && to == "" {
		return 0, 0, true, nil
	}

	sinceMillis = math.MinInt64
	toMillis = math.MaxInt64

	if since != "" {
		day, err := time.ParseInLocation(DateLayout, since, loc)
		if err != nil {
			return 0, 0, false, fmt.Errorf("error parsing since date: %w", err)
		}

		sinceMillis = day.UnixMilli()
	}

	if to != "" {
		day, err := time.ParseInLocation(DateLayout, to, loc)
		if err != nil {
			return 0, 0, false, fmt.Errorf("error parsing to date: %w", err)
		}

		toMillis = day.AddDate(0, 0, 1).UnixMilli() - 1
	}

	return sinceMillis, toMillis, false, nil
}
