package core

import "fmt"

// MaxRangeDays bounds bulk scheduling: ranges where the end date is more than
// this many days after the start are rejected before any iteration.
const MaxRangeDays = 90

// ExpandRange turns an inclusive [start, end] range into an ordered list of
// YYYY-MM-DD strings, keeping only dates whose weekday passes the filters.
//
// skipWeekends and daysOfWeek (0=Sunday .. 6=Saturday) are independent
// filters; when both are given a date must satisfy both. Contradictory
// combinations, such as skipWeekends with daysOfWeek=[0], yield an empty
// result rather than an error.
func ExpandRange(start, end Date, daysOfWeek []int, skipWeekends bool) ([]string, error) {
	if start.After(end.Time) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}

	days := int(end.Sub(start.Time).Hours() / 24)
	if days > MaxRangeDays {
		return nil, fmt.Errorf("%w: %d days, maximum is %d", ErrRangeTooLarge, days, MaxRangeDays)
	}

	var allowed map[int]bool
	if len(daysOfWeek) > 0 {
		allowed = make(map[int]bool, len(daysOfWeek))
		for _, d := range daysOfWeek {
			if d < 0 || d > 6 {
				return nil, fmt.Errorf("%w: got %d", ErrInvalidWeekday, d)
			}
			allowed[d] = true
		}
	}

	var dates []string
	for cur := start; !cur.After(end.Time); cur = cur.AddDays(1) {
		wd := cur.Weekday()
		if skipWeekends && (wd == 0 || wd == 6) {
			continue
		}
		if allowed != nil && !allowed[wd] {
			continue
		}
		dates = append(dates, cur.String())
	}
	return dates, nil
}
