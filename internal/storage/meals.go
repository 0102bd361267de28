package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tiffin/internal/core"
)

const mealColumns = "id, user_id, date, meal_type, count, price_at_time_paise, status, is_bulk_scheduled, note, created_at, updated_at"

type UpsertMealParams struct {
	UserID          int64
	Date            core.Date
	MealType        core.MealType
	Count           int
	Note            string
	PriceAtTime     core.Money
	IsBulkScheduled bool
}

// MealFilter narrows a listing. Zero-valued fields are ignored; listings are
// always restricted to ACTIVE records.
type MealFilter struct {
	UserID    int64
	Date      string
	MealType  core.MealType
	StartDate string
	EndDate   string
	Ascending bool
}

// BulkFilter selects the ACTIVE records of a user in an inclusive date range,
// optionally narrowed to one meal type.
type BulkFilter struct {
	UserID    int64
	StartDate string
	EndDate   string
	MealType  core.MealType
}

func scanMeal(row interface{ Scan(...any) error }) (core.MealRecord, error) {
	var m core.MealRecord
	var date, mealType, status string
	err := row.Scan(&m.ID, &m.UserID, &date, &mealType, &m.Count, &m.PriceAtTime.Paise,
		&status, &m.IsBulkScheduled, &m.Note, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return core.MealRecord{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.MealRecord{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	m.Date = d
	m.MealType = core.MealType(mealType)
	m.Status = core.MealStatus(status)
	return m, nil
}

// UpsertMeal writes a record keyed on (user, date, mealType). A conflict
// overwrites count, note and priceAtTime, forces the record back to ACTIVE
// and adopts the caller's bulk-scheduled flag.
func (r *SQLiteRepository) UpsertMeal(ctx context.Context, p UpsertMealParams) (core.MealRecord, error) {
	now := time.Now().UTC()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO meal_records (user_id, date, meal_type, count, note, price_at_time_paise, status, is_bulk_scheduled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 'ACTIVE', ?, ?, ?)
		ON CONFLICT (user_id, date, meal_type) DO UPDATE SET
			count = excluded.count,
			note = excluded.note,
			price_at_time_paise = excluded.price_at_time_paise,
			status = 'ACTIVE',
			is_bulk_scheduled = excluded.is_bulk_scheduled,
			updated_at = excluded.updated_at
		RETURNING `+mealColumns,
		p.UserID, p.Date.String(), string(p.MealType), p.Count, p.Note, p.PriceAtTime.Paise,
		p.IsBulkScheduled, now, now)
	m, err := scanMeal(row)
	if err != nil {
		return core.MealRecord{}, fmt.Errorf("upsert meal: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) GetMeal(ctx context.Context, id int64) (core.MealRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+mealColumns+` FROM meal_records WHERE id = ?`, id)
	m, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MealRecord{}, core.ErrNotFound
	}
	if err != nil {
		return core.MealRecord{}, fmt.Errorf("get meal: %w", err)
	}
	return m, nil
}

// ListMeals returns a user's ACTIVE records matching the filter, date
// descending by default and ascending when the caller asks (calendar and
// dashboard reads depend on ascending order).
func (r *SQLiteRepository) ListMeals(ctx context.Context, f MealFilter) ([]core.MealRecord, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + mealColumns + ` FROM meal_records WHERE user_id = ? AND status = 'ACTIVE'`)
	args := []any{f.UserID}

	if f.Date != "" {
		sb.WriteString(" AND date = ?")
		args = append(args, f.Date)
	}
	if f.MealType != "" {
		sb.WriteString(" AND meal_type = ?")
		args = append(args, string(f.MealType))
	}
	if f.StartDate != "" {
		sb.WriteString(" AND date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		sb.WriteString(" AND date <= ?")
		args = append(args, f.EndDate)
	}
	if f.Ascending {
		sb.WriteString(" ORDER BY date ASC, id ASC")
	} else {
		sb.WriteString(" ORDER BY date DESC, id DESC")
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	var meals []core.MealRecord
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// UpdateMealFields applies a partial update: only non-nil fields change.
func (r *SQLiteRepository) UpdateMealFields(ctx context.Context, id int64, count *int, note *string) (core.MealRecord, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if count != nil {
		sets = append(sets, "count = ?")
		args = append(args, *count)
	}
	if note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *note)
	}
	args = append(args, id)

	row := r.db.QueryRowContext(ctx,
		`UPDATE meal_records SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+mealColumns, args...)
	m, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MealRecord{}, core.ErrNotFound
	}
	if err != nil {
		return core.MealRecord{}, fmt.Errorf("update meal: %w", err)
	}
	return m, nil
}

// SetMealStatus flips a record's lifecycle status. Setting CANCELLED on an
// already cancelled record is the same transition and succeeds.
func (r *SQLiteRepository) SetMealStatus(ctx context.Context, id int64, status core.MealStatus) (core.MealRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE meal_records SET status = ?, updated_at = ? WHERE id = ?
		RETURNING `+mealColumns, string(status), time.Now().UTC(), id)
	m, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MealRecord{}, core.ErrNotFound
	}
	if err != nil {
		return core.MealRecord{}, fmt.Errorf("set meal status: %w", err)
	}
	return m, nil
}

func (f BulkFilter) where() (string, []any) {
	cond := ` WHERE user_id = ? AND status = 'ACTIVE' AND date >= ? AND date <= ?`
	args := []any{f.UserID, f.StartDate, f.EndDate}
	if f.MealType != "" {
		cond += " AND meal_type = ?"
		args = append(args, string(f.MealType))
	}
	return cond, args
}

// BulkUpdateMeals updates only the supplied fields on every matching record
// and reports how many rows changed.
func (r *SQLiteRepository) BulkUpdateMeals(ctx context.Context, f BulkFilter, count *int, note *string) (int64, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if count != nil {
		sets = append(sets, "count = ?")
		args = append(args, *count)
	}
	if note != nil {
		sets = append(sets, "note = ?")
		args = append(args, *note)
	}
	cond, condArgs := f.where()
	res, err := r.db.ExecContext(ctx,
		`UPDATE meal_records SET `+strings.Join(sets, ", ")+cond, append(args, condArgs...)...)
	if err != nil {
		return 0, fmt.Errorf("bulk update meals: %w", err)
	}
	return res.RowsAffected()
}

// BulkCancelMeals soft-deletes every matching record.
func (r *SQLiteRepository) BulkCancelMeals(ctx context.Context, f BulkFilter) (int64, error) {
	cond, condArgs := f.where()
	res, err := r.db.ExecContext(ctx,
		`UPDATE meal_records SET status = 'CANCELLED', updated_at = ?`+cond,
		append([]any{time.Now().UTC()}, condArgs...)...)
	if err != nil {
		return 0, fmt.Errorf("bulk cancel meals: %w", err)
	}
	return res.RowsAffected()
}
