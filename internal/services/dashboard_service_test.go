package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tiffin/internal/core"
)

func newDashboardFixture(t *testing.T) (*DashboardService, *MealService, core.User) {
	t.Helper()
	repo := newTestRepo(t)
	u := seedUser(t, repo, "a@example.com")
	setLunchPrice(t, repo, u.ID, 8000)

	dash := NewDashboardService(repo)
	dash.now = func() time.Time {
		return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	}
	return dash, NewMealService(repo, NewPriceService(repo), nil), u
}

func TestOverviewTotals(t *testing.T) {
	dash, meals, u := newDashboardFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2024-01-10", "2024-01-12"} {
		if _, err := meals.CreateOrUpdate(ctx, u.ID, CreateMealInput{
			Date: d, MealType: "LUNCH", Count: 1,
		}); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}
	extra, err := meals.CreateOrUpdate(ctx, u.ID, CreateMealInput{
		Date: "2024-01-12", MealType: "DINNER", Count: 2,
	})
	if err != nil {
		t.Fatalf("seed dinner: %v", err)
	}
	if _, err := meals.Cancel(ctx, principal(u), extra.ID); err != nil {
		t.Fatalf("cancel dinner: %v", err)
	}

	totals, err := dash.Overview(ctx, u.ID, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if totals.TotalMeals != 2 {
		t.Fatalf("totalMeals = %d, want 2 (cancelled meals excluded)", totals.TotalMeals)
	}
	if totals.TotalAmount.Paise != 16000 {
		t.Fatalf("totalAmount = %d paise, want 16000", totals.TotalAmount.Paise)
	}
	if totals.ByType[core.Lunch] != 2 {
		t.Fatalf("byType = %+v", totals.ByType)
	}
}

func TestOverviewRejectsReversedRange(t *testing.T) {
	dash, _, u := newDashboardFixture(t)
	_, err := dash.Overview(context.Background(), u.ID, "2024-01-31", "2024-01-01")
	if !errors.Is(err, core.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestOverviewWithoutRangeCountsEverything(t *testing.T) {
	dash, meals, u := newDashboardFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2023-11-05", "2024-01-10"} {
		if _, err := meals.CreateOrUpdate(ctx, u.ID, CreateMealInput{
			Date: d, MealType: "LUNCH", Count: 1,
		}); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	totals, err := dash.Overview(ctx, u.ID, "", "")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if totals.TotalMeals != 2 {
		t.Fatalf("totalMeals = %d, want 2 across all time", totals.TotalMeals)
	}

	// a single bound narrows one side only
	totals, err = dash.Overview(ctx, u.ID, "2024-01-01", "")
	if err != nil {
		t.Fatalf("overview from: %v", err)
	}
	if totals.TotalMeals != 1 {
		t.Fatalf("totalMeals = %d, want 1 from 2024 on", totals.TotalMeals)
	}
}

func TestCalendarGroupsByDate(t *testing.T) {
	dash, meals, u := newDashboardFixture(t)
	ctx := context.Background()

	for _, in := range []CreateMealInput{
		{Date: "2024-01-12", MealType: "LUNCH", Count: 1},
		{Date: "2024-01-12", MealType: "DINNER", Count: 1},
		{Date: "2024-01-20", MealType: "LUNCH", Count: 1},
	} {
		if _, err := meals.CreateOrUpdate(ctx, u.ID, in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	cal, err := dash.Calendar(ctx, u.ID, "2024-01", "")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if len(cal) != 2 {
		t.Fatalf("calendar has %d days, want 2", len(cal))
	}
	if len(cal["2024-01-12"]) != 2 {
		t.Fatalf("2024-01-12 entries = %+v", cal["2024-01-12"])
	}
}

func TestCalendarWeekView(t *testing.T) {
	dash, meals, u := newDashboardFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2024-01-15", "2024-01-22"} {
		if _, err := meals.CreateOrUpdate(ctx, u.ID, CreateMealInput{
			Date: d, MealType: "LUNCH", Count: 1,
		}); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	// week 3 spans Jan 15 through Jan 21, so only the first meal shows
	cal, err := dash.Calendar(ctx, u.ID, "", "2024-W03")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if len(cal) != 1 || len(cal["2024-01-15"]) != 1 {
		t.Fatalf("week calendar = %+v", cal)
	}
}

func TestCalendarDefaultsToCurrentMonth(t *testing.T) {
	dash, meals, u := newDashboardFixture(t)
	ctx := context.Background()

	// "today" is pinned to 2024-02-01; a future February meal still shows
	for _, d := range []string{"2024-01-10", "2024-02-15"} {
		if _, err := meals.CreateOrUpdate(ctx, u.ID, CreateMealInput{
			Date: d, MealType: "LUNCH", Count: 1,
		}); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	cal, err := dash.Calendar(ctx, u.ID, "", "")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if len(cal) != 1 || len(cal["2024-02-15"]) != 1 {
		t.Fatalf("default calendar = %+v", cal)
	}
}

func TestMonthlyDashboardBuckets(t *testing.T) {
	dash, meals, u := newDashboardFixture(t)
	ctx := context.Background()

	// day 3 is week 1, day 10 is week 2 under ceil(day/7) bucketing
	for _, d := range []string{"2024-01-03", "2024-01-10", "2024-01-11"} {
		if _, err := meals.CreateOrUpdate(ctx, u.ID, CreateMealInput{
			Date: d, MealType: "LUNCH", Count: 1,
		}); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	m, err := dash.Monthly(ctx, u.ID, "2024-01")
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if m.Month != "2024-01" || m.TotalMeals != 3 || m.DaysWithMeals != 3 {
		t.Fatalf("monthly = %+v", m)
	}
	if m.ByWeek[1].Meals != 1 || m.ByWeek[2].Meals != 2 {
		t.Fatalf("byWeek = %+v", m.ByWeek)
	}
	if m.ByWeek[2].Amount.Paise != 16000 {
		t.Fatalf("week 2 amount = %d", m.ByWeek[2].Amount.Paise)
	}
}

func TestMonthlyWindowCappedAtToday(t *testing.T) {
	dash, meals, u := newDashboardFixture(t)
	ctx := context.Background()

	// "today" is pinned to 2024-02-01, so only Feb 1 falls inside the window
	for _, d := range []string{"2024-02-01", "2024-02-15"} {
		if _, err := meals.CreateOrUpdate(ctx, u.ID, CreateMealInput{
			Date: d, MealType: "LUNCH", Count: 1,
		}); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	m, err := dash.Monthly(ctx, u.ID, "2024-02")
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if m.TotalMeals != 1 {
		t.Fatalf("totalMeals = %d, future meals must be excluded", m.TotalMeals)
	}
}

func TestWeeklyDashboard(t *testing.T) {
	dash, meals, u := newDashboardFixture(t)
	ctx := context.Background()

	// week 3 of 2024 spans Jan 15 through Jan 21 under the Jan-1 offset scheme
	for _, d := range []string{"2024-01-15", "2024-01-16", "2024-01-22"} {
		if _, err := meals.CreateOrUpdate(ctx, u.ID, CreateMealInput{
			Date: d, MealType: "LUNCH", Count: 1,
		}); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	w, err := dash.Weekly(ctx, u.ID, "2024-W03")
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if w.Week != "2024-W03" || w.TotalMeals != 2 {
		t.Fatalf("weekly = %+v", w)
	}
	if w.ByDay["2024-01-15"].Meals != 1 || w.ByDay["2024-01-16"].Meals != 1 {
		t.Fatalf("byDay = %+v", w.ByDay)
	}
}

func TestDashboardsDefaultToCurrentPeriod(t *testing.T) {
	dash, meals, u := newDashboardFixture(t)
	ctx := context.Background()

	if _, err := meals.CreateOrUpdate(ctx, u.ID, CreateMealInput{
		Date: "2024-02-01", MealType: "LUNCH", Count: 1,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m, err := dash.Monthly(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if m.Month != "2024-02" || m.TotalMeals != 1 {
		t.Fatalf("default monthly = %+v", m)
	}

	// Feb 1 is day 31 of the year, which lands in week 5 (Jan 29 - Feb 4)
	w, err := dash.Weekly(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if w.Week != "2024-W05" || w.TotalMeals != 1 {
		t.Fatalf("default weekly = %+v", w)
	}
}

func TestPeriodParsing(t *testing.T) {
	dash, _, u := newDashboardFixture(t)
	ctx := context.Background()

	for _, bad := range []string{"2024", "2024-13", "abcd-01"} {
		if _, err := dash.Monthly(ctx, u.ID, bad); err == nil {
			t.Fatalf("month %q accepted", bad)
		}
	}
	for _, bad := range []string{"2024-W00", "2024-W54", "2024-03"} {
		if _, err := dash.Weekly(ctx, u.ID, bad); err == nil {
			t.Fatalf("week %q accepted", bad)
		}
	}
}
