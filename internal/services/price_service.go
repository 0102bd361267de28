package services

import (
	"context"
	"errors"

	"tiffin/internal/core"
	"tiffin/internal/storage"
)

// PriceService manages per-user meal prices and resolves the unit price
// captured on each meal record.
type PriceService struct {
	storage *storage.SQLiteRepository
}

func NewPriceService(storage *storage.SQLiteRepository) *PriceService {
	return &PriceService{storage: storage}
}

// Get returns the user's price setting, creating the zero-priced row on
// first access.
func (s *PriceService) Get(ctx context.Context, userID int64) (core.PriceSetting, error) {
	return s.storage.EnsurePriceSetting(ctx, userID)
}

// PriceUpdate carries the fields of a partial price update; nil fields keep
// their stored value. A zero price is a valid value, distinct from absent.
type PriceUpdate struct {
	Breakfast *core.Money
	Lunch     *core.Money
	Dinner    *core.Money
	Custom    *core.Money
}

// Update merges the non-nil fields into the stored setting.
func (s *PriceService) Update(ctx context.Context, userID int64, u PriceUpdate) (core.PriceSetting, error) {
	current, err := s.storage.EnsurePriceSetting(ctx, userID)
	if err != nil {
		return core.PriceSetting{}, err
	}

	if u.Breakfast != nil {
		current.Breakfast = *u.Breakfast
	}
	if u.Lunch != nil {
		current.Lunch = *u.Lunch
	}
	if u.Dinner != nil {
		current.Dinner = *u.Dinner
	}
	if u.Custom != nil {
		current.Custom = *u.Custom
	}
	current.UserID = userID
	return s.storage.SavePriceSetting(ctx, current)
}

// ResolvePrice returns the unit price for a meal type at this moment. A user
// without a settings row resolves to zero for every type.
func (s *PriceService) ResolvePrice(ctx context.Context, userID int64, t core.MealType) (core.Money, error) {
	setting, err := s.storage.GetPriceSetting(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, err
	}
	return setting.For(t), nil
}
