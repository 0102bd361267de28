package core

// Aggregations over meal records already fetched for one user and window.
// Every function here is a pure reduction: only ACTIVE records may be passed
// in, sums are computed in paise, and totals always use the stored
// PriceAtTime, never a live price setting.

type (
	// Totals is the flat dashboard summary.
	Totals struct {
		TotalMeals   int                `json:"totalMeals"`
		ByType       map[MealType]int   `json:"byType"`
		TotalAmount  Money              `json:"totalAmount"`
		AmountByType map[MealType]Money `json:"amountByType"`
	}

	// CalendarEntry is one meal as shown in a calendar day cell.
	CalendarEntry struct {
		ID          int64    `json:"id"`
		MealType    MealType `json:"mealType"`
		Count       int      `json:"count"`
		Note        string   `json:"note,omitempty"`
		PriceAtTime Money    `json:"priceAtTime"`
		Amount      Money    `json:"amount"`
	}

	// PeriodTotals is a meal/amount pair for one bucket of a grouping.
	PeriodTotals struct {
		Meals  int   `json:"meals"`
		Amount Money `json:"amount"`
	}

	MonthlyDashboard struct {
		Month string `json:"month"` // YYYY-MM
		Totals
		DaysWithMeals int                  `json:"daysWithMeals"`
		ByWeek        map[int]PeriodTotals `json:"byWeek"`
	}

	WeeklyDashboard struct {
		Week string `json:"week"` // YYYY-Www
		Totals
		ByDay map[string]PeriodTotals `json:"byDay"`
	}
)

// Aggregate computes the flat totals over a set of active records.
func Aggregate(meals []MealRecord) Totals {
	t := Totals{
		ByType:       make(map[MealType]int),
		AmountByType: make(map[MealType]Money),
	}
	for _, m := range meals {
		amount := m.Amount()
		t.TotalMeals += m.Count
		t.ByType[m.MealType] += m.Count
		t.TotalAmount = t.TotalAmount.Add(amount)
		t.AmountByType[m.MealType] = t.AmountByType[m.MealType].Add(amount)
	}
	return t
}

// GroupByDate buckets records into calendar entries keyed by date string.
func GroupByDate(meals []MealRecord) map[string][]CalendarEntry {
	cal := make(map[string][]CalendarEntry)
	for _, m := range meals {
		key := m.Date.String()
		cal[key] = append(cal[key], CalendarEntry{
			ID:          m.ID,
			MealType:    m.MealType,
			Count:       m.Count,
			Note:        m.Note,
			PriceAtTime: m.PriceAtTime,
			Amount:      m.Amount(),
		})
	}
	return cal
}

// DaysWithMeals counts distinct dates carrying at least one record.
func DaysWithMeals(meals []MealRecord) int {
	seen := make(map[string]bool, len(meals))
	for _, m := range meals {
		seen[m.Date.String()] = true
	}
	return len(seen)
}

// BucketByWeekOfMonth groups records into weeks 1-5 of their month, where the
// week index is ceil(dayOfMonth/7). These are positional weeks within the
// month, not calendar ISO weeks.
func BucketByWeekOfMonth(meals []MealRecord) map[int]PeriodTotals {
	byWeek := make(map[int]PeriodTotals)
	for _, m := range meals {
		week := (m.Date.Day()-1)/7 + 1
		b := byWeek[week]
		b.Meals += m.Count
		b.Amount = b.Amount.Add(m.Amount())
		byWeek[week] = b
	}
	return byWeek
}

// BucketByDay groups records by exact date string with per-day sums.
func BucketByDay(meals []MealRecord) map[string]PeriodTotals {
	byDay := make(map[string]PeriodTotals)
	for _, m := range meals {
		key := m.Date.String()
		b := byDay[key]
		b.Meals += m.Count
		b.Amount = b.Amount.Add(m.Amount())
		byDay[key] = b
	}
	return byDay
}

// MonthWindow returns the first and last day of the given month, with the end
// capped at today so totals never include forward-looking dates.
func MonthWindow(year, month int, today Date) (Date, Date) {
	start := NewDate(year, month, 1)
	end := NewDate(year, month+1, 1).AddDays(-1)
	if end.After(today.Time) {
		end = today
	}
	return start, end
}

// WeekWindow returns the 7-day span for the given week number, computed as a
// (week-1)*7 day offset from January 1 of the year. This is the product's
// historical week encoding, deliberately not ISO-8601; the end is capped at
// today like MonthWindow.
func WeekWindow(year, week int, today Date) (Date, Date) {
	start := NewDate(year, 1, 1).AddDays((week - 1) * 7)
	end := start.AddDays(6)
	if end.After(today.Time) {
		end = today
	}
	return start, end
}
