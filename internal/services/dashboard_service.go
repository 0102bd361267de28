package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tiffin/internal/core"
	"tiffin/internal/storage"
)

// DashboardService computes read-only summaries over a user's ACTIVE meals.
// Amounts always come from each record's captured price.
type DashboardService struct {
	storage *storage.SQLiteRepository

	// now is injectable so tests can pin "today".
	now func() time.Time
}

func NewDashboardService(storage *storage.SQLiteRepository) *DashboardService {
	return &DashboardService{storage: storage, now: time.Now}
}

func (s *DashboardService) today() core.Date {
	t := s.now().UTC()
	return core.NewDate(t.Year(), int(t.Month()), t.Day())
}

func (s *DashboardService) mealsBetween(ctx context.Context, userID int64, start, end core.Date) ([]core.MealRecord, error) {
	return s.storage.ListMeals(ctx, storage.MealFilter{
		UserID:    userID,
		StartDate: start.String(),
		EndDate:   end.String(),
		Ascending: true,
	})
}

// Overview returns flat totals over an inclusive range. Either bound may be
// omitted; with neither, every ACTIVE meal the user ever scheduled counts.
func (s *DashboardService) Overview(ctx context.Context, userID int64, startDate, endDate string) (core.Totals, error) {
	f := storage.MealFilter{UserID: userID, Ascending: true}
	if startDate != "" {
		if _, err := core.ParseDate(startDate); err != nil {
			return core.Totals{}, err
		}
		f.StartDate = startDate
	}
	if endDate != "" {
		if _, err := core.ParseDate(endDate); err != nil {
			return core.Totals{}, err
		}
		f.EndDate = endDate
	}
	if f.StartDate != "" && f.EndDate != "" && f.StartDate > f.EndDate {
		return core.Totals{}, fmt.Errorf("%w: %s > %s", core.ErrInvalidRange, startDate, endDate)
	}

	meals, err := s.storage.ListMeals(ctx, f)
	if err != nil {
		return core.Totals{}, err
	}
	return core.Aggregate(meals), nil
}

// Calendar returns meals grouped by date for the calendar grid. The window is
// a month ("YYYY-MM") or a week ("YYYY-Www"); with neither, the current month.
// Unlike the dashboards the span is not capped at today, the grid shows
// upcoming meals too.
func (s *DashboardService) Calendar(ctx context.Context, userID int64, month, week string) (map[string][]core.CalendarEntry, error) {
	var start, end core.Date
	if week != "" {
		year, w, err := parseWeek(week)
		if err != nil {
			return nil, err
		}
		start = core.NewDate(year, 1, 1).AddDays((w - 1) * 7)
		end = start.AddDays(6)
	} else {
		if month == "" {
			month = s.currentMonth()
		}
		year, m, err := parseMonth(month)
		if err != nil {
			return nil, err
		}
		start = core.NewDate(year, m, 1)
		end = core.NewDate(year, m+1, 1).AddDays(-1)
	}

	meals, err := s.mealsBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return core.GroupByDate(meals), nil
}

// Monthly summarizes one calendar month, defaulting to the current one, with
// the window capped at today.
func (s *DashboardService) Monthly(ctx context.Context, userID int64, month string) (core.MonthlyDashboard, error) {
	if month == "" {
		month = s.currentMonth()
	}
	year, m, err := parseMonth(month)
	if err != nil {
		return core.MonthlyDashboard{}, err
	}

	start, end := core.MonthWindow(year, m, s.today())
	meals, err := s.mealsBetween(ctx, userID, start, end)
	if err != nil {
		return core.MonthlyDashboard{}, err
	}

	return core.MonthlyDashboard{
		Month:         fmt.Sprintf("%04d-%02d", year, m),
		Totals:        core.Aggregate(meals),
		DaysWithMeals: core.DaysWithMeals(meals),
		ByWeek:        core.BucketByWeekOfMonth(meals),
	}, nil
}

// Weekly summarizes one week, defaulting to the current one. Week N spans
// the 7 days starting at January 1 plus (N-1)*7 days, matching how the
// product has always counted weeks; the window is capped at today.
func (s *DashboardService) Weekly(ctx context.Context, userID int64, week string) (core.WeeklyDashboard, error) {
	if week == "" {
		week = s.currentWeek()
	}
	year, w, err := parseWeek(week)
	if err != nil {
		return core.WeeklyDashboard{}, err
	}

	start, end := core.WeekWindow(year, w, s.today())
	meals, err := s.mealsBetween(ctx, userID, start, end)
	if err != nil {
		return core.WeeklyDashboard{}, err
	}

	return core.WeeklyDashboard{
		Week:   fmt.Sprintf("%04d-W%02d", year, w),
		Totals: core.Aggregate(meals),
		ByDay:  core.BucketByDay(meals),
	}, nil
}

// currentMonth formats today as "YYYY-MM".
func (s *DashboardService) currentMonth() string {
	t := s.today()
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// currentWeek formats today's week number using the same January 1 day-offset
// encoding parseWeek reads back.
func (s *DashboardService) currentWeek() string {
	today := s.today()
	jan1 := core.NewDate(today.Year(), 1, 1)
	days := int(today.Sub(jan1.Time).Hours() / 24)
	return fmt.Sprintf("%04d-W%02d", today.Year(), days/7+1)
}

// parseMonth parses "YYYY-MM".
func parseMonth(s string) (year, month int, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected YYYY-MM, got %q", core.ErrInvalidDate, s)
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("%w: bad year in %q", core.ErrInvalidDate, s)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: bad month in %q", core.ErrInvalidDate, s)
	}
	return year, month, nil
}

// parseWeek parses "YYYY-Www", e.g. "2024-W03".
func parseWeek(s string) (year, week int, err error) {
	parts := strings.SplitN(s, "-W", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected YYYY-Www, got %q", core.ErrInvalidDate, s)
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("%w: bad year in %q", core.ErrInvalidDate, s)
	}
	week, err = strconv.Atoi(parts[1])
	if err != nil || week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("%w: bad week in %q", core.ErrInvalidDate, s)
	}
	return year, week, nil
}
