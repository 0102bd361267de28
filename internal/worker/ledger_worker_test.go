package worker

import (
	"context"
	"path/filepath"
	"testing"

	"tiffin/internal/amqp"
	"tiffin/internal/core"
	"tiffin/internal/ledger/memory"
	"tiffin/internal/storage"
)

func newFixture(t *testing.T) (*LedgerWorker, *memory.Store, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "tiffin.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	store := memory.New()
	return NewLedgerWorker(repo, store), store, repo
}

func TestHandleMealEvent(t *testing.T) {
	w, store, repo := newFixture(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "a@example.com", "Asha", "hash", core.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	date, _ := core.ParseDate("2024-01-15")
	meal, err := repo.UpsertMeal(ctx, storage.UpsertMealParams{
		UserID: u.ID, Date: date, MealType: core.Lunch, Count: 2,
		PriceAtTime: core.Money{Paise: 8000},
	})
	if err != nil {
		t.Fatalf("upsert meal: %v", err)
	}

	msg := amqp.NewMealEventMessage(meal.ID, u.ID, amqp.ActionScheduled)
	if err := w.HandleMealEvent(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	entries := store.Entries()
	if len(entries) != 1 {
		t.Fatalf("%d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Date != "2024-01-15" || e.UserEmail != "a@example.com" || e.MealType != core.Lunch {
		t.Fatalf("entry = %+v", e)
	}
	if e.Amount.Paise != 16000 {
		t.Fatalf("amount = %d paise, want count*price = 16000", e.Amount.Paise)
	}
	if e.Action != amqp.ActionScheduled {
		t.Fatalf("action = %q", e.Action)
	}
}

func TestHandleMealEventMissingRecord(t *testing.T) {
	w, store, _ := newFixture(t)

	msg := amqp.NewMealEventMessage(9999, 1, amqp.ActionScheduled)
	if err := w.HandleMealEvent(context.Background(), msg); err == nil {
		t.Fatal("expected error for missing meal")
	}
	if len(store.Entries()) != 0 {
		t.Fatal("nothing should be exported on failure")
	}
}
