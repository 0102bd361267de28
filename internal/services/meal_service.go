package services

import (
	"context"
	"fmt"
	"log/slog"

	"tiffin/internal/amqp"
	"tiffin/internal/auth"
	"tiffin/internal/core"
	"tiffin/internal/storage"
)

// MealService orchestrates meal scheduling across SQLite and AMQP. Writes go
// to SQLite first; event publishing is best-effort and never fails a request.
type MealService struct {
	storage    *storage.SQLiteRepository
	prices     *PriceService
	amqpClient *amqp.Client
}

func NewMealService(storage *storage.SQLiteRepository, prices *PriceService, amqpClient *amqp.Client) *MealService {
	return &MealService{storage: storage, prices: prices, amqpClient: amqpClient}
}

type CreateMealInput struct {
	Date     string
	MealType string
	Count    int
	Note     string
}

// CreateOrUpdate schedules one meal. Writing to an existing (date, mealType)
// overwrites it and brings a cancelled record back to ACTIVE. The unit price
// is captured now and frozen on the record.
func (s *MealService) CreateOrUpdate(ctx context.Context, userID int64, in CreateMealInput) (core.MealRecord, error) {
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.MealRecord{}, err
	}
	mealType, err := core.ParseMealType(in.MealType)
	if err != nil {
		return core.MealRecord{}, err
	}
	if err := core.ValidateCount(in.Count); err != nil {
		return core.MealRecord{}, err
	}

	price, err := s.prices.ResolvePrice(ctx, userID, mealType)
	if err != nil {
		return core.MealRecord{}, fmt.Errorf("resolve price: %w", err)
	}

	meal, err := s.storage.UpsertMeal(ctx, storage.UpsertMealParams{
		UserID:      userID,
		Date:        date,
		MealType:    mealType,
		Count:       in.Count,
		Note:        in.Note,
		PriceAtTime: price,
	})
	if err != nil {
		return core.MealRecord{}, err
	}

	s.publishEvent(ctx, meal.ID, userID, amqp.ActionScheduled)
	return meal, nil
}

// BulkSpec describes the days of a bulk schedule: either an explicit date
// list or an inclusive range with optional weekday filters.
type BulkSpec struct {
	Dates        []string
	StartDate    string
	EndDate      string
	DaysOfWeek   []int
	SkipWeekends bool
	MealType     string
	Count        int
	Note         string
}

type BulkResult struct {
	Created int               `json:"created"`
	Meals   []core.MealRecord `json:"meals"`
}

func (spec BulkSpec) expand() ([]string, error) {
	if len(spec.Dates) > 0 {
		seen := make(map[string]bool, len(spec.Dates))
		var dates []string
		for _, d := range spec.Dates {
			if _, err := core.ParseDate(d); err != nil {
				return nil, err
			}
			if seen[d] {
				continue
			}
			seen[d] = true
			dates = append(dates, d)
		}
		return dates, nil
	}

	if spec.StartDate == "" || spec.EndDate == "" {
		return nil, core.ErrInvalidDateSpec
	}
	start, err := core.ParseDate(spec.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := core.ParseDate(spec.EndDate)
	if err != nil {
		return nil, err
	}
	return core.ExpandRange(start, end, spec.DaysOfWeek, spec.SkipWeekends)
}

// CreateBulk schedules one meal per expanded date. Each date is an
// independent upsert: a failed date is logged and skipped, the rest still
// land, and the response reports how many were written. An empty expansion
// (contradictory filters) succeeds with zero created.
func (s *MealService) CreateBulk(ctx context.Context, userID int64, spec BulkSpec) (BulkResult, error) {
	mealType, err := core.ParseMealType(spec.MealType)
	if err != nil {
		return BulkResult{}, err
	}
	if err := core.ValidateCount(spec.Count); err != nil {
		return BulkResult{}, err
	}
	dates, err := spec.expand()
	if err != nil {
		return BulkResult{}, err
	}

	price, err := s.prices.ResolvePrice(ctx, userID, mealType)
	if err != nil {
		return BulkResult{}, fmt.Errorf("resolve price: %w", err)
	}

	result := BulkResult{Meals: make([]core.MealRecord, 0, len(dates))}
	for _, d := range dates {
		date, err := core.ParseDate(d)
		if err != nil {
			return BulkResult{}, err
		}
		meal, err := s.storage.UpsertMeal(ctx, storage.UpsertMealParams{
			UserID:          userID,
			Date:            date,
			MealType:        mealType,
			Count:           spec.Count,
			Note:            spec.Note,
			PriceAtTime:     price,
			IsBulkScheduled: true,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Bulk schedule skipped a date",
				"userId", userID, "date", d, "error", err)
			continue
		}
		result.Created++
		result.Meals = append(result.Meals, meal)
		s.publishEvent(ctx, meal.ID, userID, amqp.ActionScheduled)
	}
	return result, nil
}

type ListMealsInput struct {
	Date      string
	MealType  string
	StartDate string
	EndDate   string
	Ascending bool
}

// List returns the caller's ACTIVE meals matching the filter.
func (s *MealService) List(ctx context.Context, userID int64, in ListMealsInput) ([]core.MealRecord, error) {
	f := storage.MealFilter{UserID: userID, Ascending: in.Ascending}

	for _, d := range []struct {
		value  string
		target *string
	}{
		{in.Date, &f.Date},
		{in.StartDate, &f.StartDate},
		{in.EndDate, &f.EndDate},
	} {
		if d.value == "" {
			continue
		}
		if _, err := core.ParseDate(d.value); err != nil {
			return nil, err
		}
		*d.target = d.value
	}
	if in.MealType != "" {
		mealType, err := core.ParseMealType(in.MealType)
		if err != nil {
			return nil, err
		}
		f.MealType = mealType
	}
	return s.storage.ListMeals(ctx, f)
}

// loadOwned fetches a record and checks the caller owns it. Absence is
// reported before ownership so the two cases stay distinguishable. Mutation
// is strictly per-user: admins read cross-user stats but never edit records
// they do not own.
func (s *MealService) loadOwned(ctx context.Context, p auth.Principal, id int64) (core.MealRecord, error) {
	meal, err := s.storage.GetMeal(ctx, id)
	if err != nil {
		return core.MealRecord{}, err
	}
	if meal.UserID != p.UserID {
		return core.MealRecord{}, core.ErrForbidden
	}
	return meal, nil
}

// Update changes count and/or note on one record. The captured price never
// changes on this path; rewriting the meal via CreateOrUpdate is the only way
// to pick up a new price.
func (s *MealService) Update(ctx context.Context, p auth.Principal, id int64, count *int, note *string) (core.MealRecord, error) {
	if count != nil {
		if err := core.ValidateCount(*count); err != nil {
			return core.MealRecord{}, err
		}
	}
	meal, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return core.MealRecord{}, err
	}

	updated, err := s.storage.UpdateMealFields(ctx, meal.ID, count, note)
	if err != nil {
		return core.MealRecord{}, err
	}
	s.publishEvent(ctx, updated.ID, updated.UserID, amqp.ActionScheduled)
	return updated, nil
}

// Cancel soft-deletes one record. Cancelling an already cancelled record
// succeeds and leaves it cancelled.
func (s *MealService) Cancel(ctx context.Context, p auth.Principal, id int64) (core.MealRecord, error) {
	meal, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return core.MealRecord{}, err
	}

	cancelled, err := s.storage.SetMealStatus(ctx, meal.ID, core.StatusCancelled)
	if err != nil {
		return core.MealRecord{}, err
	}
	s.publishEvent(ctx, cancelled.ID, cancelled.UserID, amqp.ActionCancelled)
	return cancelled, nil
}

type BulkEditInput struct {
	StartDate string
	EndDate   string
	MealType  string
	Count     *int
	Note      *string
}

func (s *MealService) bulkFilter(userID int64, startDate, endDate, mealType string) (storage.BulkFilter, error) {
	if startDate == "" || endDate == "" {
		return storage.BulkFilter{}, core.ErrInvalidDateSpec
	}
	start, err := core.ParseDate(startDate)
	if err != nil {
		return storage.BulkFilter{}, err
	}
	end, err := core.ParseDate(endDate)
	if err != nil {
		return storage.BulkFilter{}, err
	}
	if start.After(end.Time) {
		return storage.BulkFilter{}, fmt.Errorf("%w: %s > %s", core.ErrInvalidRange, start, end)
	}

	f := storage.BulkFilter{UserID: userID, StartDate: startDate, EndDate: endDate}
	if mealType != "" {
		mt, err := core.ParseMealType(mealType)
		if err != nil {
			return storage.BulkFilter{}, err
		}
		f.MealType = mt
	}
	return f, nil
}

// BulkUpdate edits every ACTIVE record in a range. Matching zero records is
// an error: unlike bulk create, the caller named records that must exist.
func (s *MealService) BulkUpdate(ctx context.Context, userID int64, in BulkEditInput) (int64, error) {
	if in.Count != nil {
		if err := core.ValidateCount(*in.Count); err != nil {
			return 0, err
		}
	}
	f, err := s.bulkFilter(userID, in.StartDate, in.EndDate, in.MealType)
	if err != nil {
		return 0, err
	}

	n, err := s.storage.BulkUpdateMeals(ctx, f, in.Count, in.Note)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, core.ErrNoMatchingRecords
	}
	return n, nil
}

// BulkCancel soft-deletes every ACTIVE record in a range.
func (s *MealService) BulkCancel(ctx context.Context, userID int64, startDate, endDate, mealType string) (int64, error) {
	f, err := s.bulkFilter(userID, startDate, endDate, mealType)
	if err != nil {
		return 0, err
	}

	n, err := s.storage.BulkCancelMeals(ctx, f)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, core.ErrNoMatchingRecords
	}
	return n, nil
}

func (s *MealService) publishEvent(ctx context.Context, mealID, userID int64, action string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishMealEvent(ctx, mealID, userID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish meal event",
			"mealId", mealID, "action", action, "error", err)
	}
}
