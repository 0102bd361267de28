// Package worker consumes meal events and exports them to the ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tiffin/internal/amqp"
	"tiffin/internal/ledger"
	"tiffin/internal/storage"
)

// LedgerWorker turns meal events into ledger entries. The event carries only
// IDs; the worker reads the current record and user from storage so the
// exported line reflects the state at export time.
type LedgerWorker struct {
	storage  *storage.SQLiteRepository
	appender ledger.Appender
}

func NewLedgerWorker(storage *storage.SQLiteRepository, appender ledger.Appender) *LedgerWorker {
	return &LedgerWorker{storage: storage, appender: appender}
}

// HandleMealEvent processes a single meal event from AMQP. Returning an error
// requeues the delivery.
func (w *LedgerWorker) HandleMealEvent(ctx context.Context, msg *amqp.MealEventMessage) error {
	slog.InfoContext(ctx, "Processing meal event",
		"mealId", msg.MealID,
		"action", msg.Action)

	meal, err := w.storage.GetMeal(ctx, msg.MealID)
	if err != nil {
		return fmt.Errorf("get meal from storage: %w", err)
	}
	user, err := w.storage.GetUserByID(ctx, meal.UserID)
	if err != nil {
		return fmt.Errorf("get user from storage: %w", err)
	}

	entry := ledger.Entry{
		Date:       meal.Date.String(),
		UserEmail:  user.Email,
		MealType:   meal.MealType,
		Count:      meal.Count,
		Amount:     meal.Amount(),
		Action:     msg.Action,
		RecordedAt: time.Now().UTC(),
	}
	if err := w.appender.Append(ctx, entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	slog.InfoContext(ctx, "Exported meal event to ledger",
		"mealId", msg.MealID,
		"user", user.Email,
		"amountPaise", entry.Amount.Paise)
	return nil
}
