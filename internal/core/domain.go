package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Breakfast MealType = "BREAKFAST"
	Lunch     MealType = "LUNCH"
	Dinner    MealType = "DINNER"
	Custom    MealType = "CUSTOM"

	StatusActive    MealStatus = "ACTIVE"
	StatusCancelled MealStatus = "CANCELLED"

	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type (
	MealType   string
	MealStatus string
	Role       string

	// Date is a calendar day without a time component. All dates are UTC.
	Date struct {
		time.Time
	}

	User struct {
		ID        int64     `json:"id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Mobile    string    `json:"mobile,omitempty"`
		Role      Role      `json:"role"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// MealRecord is one scheduled meal for a user on a date. Identity is the
	// (UserID, Date, MealType) triple; writes against an existing triple are
	// upserts. PriceAtTime is captured when the record is written and is the
	// only price dashboards may use.
	MealRecord struct {
		ID              int64      `json:"id"`
		UserID          int64      `json:"userId"`
		Date            Date       `json:"date"`
		MealType        MealType   `json:"mealType"`
		Count           int        `json:"count"`
		PriceAtTime     Money      `json:"priceAtTime"`
		Status          MealStatus `json:"status"`
		IsBulkScheduled bool       `json:"isBulkScheduled"`
		Note            string     `json:"note,omitempty"`
		CreatedAt       time.Time  `json:"createdAt"`
		UpdatedAt       time.Time  `json:"updatedAt"`
	}

	// PriceSetting holds a user's unit price per meal type. Created lazily
	// with zero prices on first access; a zero price is valid.
	PriceSetting struct {
		UserID    int64     `json:"userId"`
		Breakfast Money     `json:"breakfast"`
		Lunch     Money     `json:"lunch"`
		Dinner    Money     `json:"dinner"`
		Custom    Money     `json:"custom"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

var (
	ErrInvalidRange       = errors.New("start date must be before or equal to end date")
	ErrRangeTooLarge      = errors.New("date range too large")
	ErrInvalidWeekday     = errors.New("days of week must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidDateSpec    = errors.New("provide either explicit dates or a start and end date")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidMealType    = errors.New("invalid meal type")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCount       = errors.New("count must be a positive integer")
	ErrForbidden          = errors.New("record belongs to another user")
	ErrNotFound           = errors.New("not found")
	ErrNoMatchingRecords  = errors.New("no matching active records")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// Weekday returns the day of week with 0=Sunday through 6=Saturday.
func (d Date) Weekday() int {
	return int(d.Time.Weekday())
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseMealType validates and normalizes a meal type string.
func ParseMealType(s string) (MealType, error) {
	switch MealType(strings.ToUpper(strings.TrimSpace(s))) {
	case Breakfast:
		return Breakfast, nil
	case Lunch:
		return Lunch, nil
	case Dinner:
		return Dinner, nil
	case Custom:
		return Custom, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMealType, s)
}

// ParseRole validates a role string; empty defaults to USER.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// For returns the unit price for the given meal type.
func (p PriceSetting) For(t MealType) Money {
	switch t {
	case Breakfast:
		return p.Breakfast
	case Lunch:
		return p.Lunch
	case Dinner:
		return p.Dinner
	default:
		return p.Custom
	}
}

// Amount is the record's monetary value: unit price times count.
func (m MealRecord) Amount() Money {
	return Money{Paise: m.PriceAtTime.Paise * int64(m.Count)}
}

// ValidateCount rejects non-positive meal counts.
func ValidateCount(count int) error {
	if count < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	return nil
}
