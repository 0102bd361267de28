// Package ledger defines the outbound port for the meal ledger, an append-only
// export of meal events kept outside the primary database.
package ledger

import (
	"context"
	"time"

	"tiffin/internal/core"
)

// Entry is one exported ledger line.
type Entry struct {
	Date       string
	UserEmail  string
	MealType   core.MealType
	Count      int
	Amount     core.Money
	Action     string
	RecordedAt time.Time
}

// Appender writes entries to a ledger backend.
type Appender interface {
	Append(ctx context.Context, e Entry) error
}
