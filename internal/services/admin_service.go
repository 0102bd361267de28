package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tiffin/internal/core"
	"tiffin/internal/storage"
)

// AdminService serves cross-user views for admins.
type AdminService struct {
	storage *storage.SQLiteRepository
}

func NewAdminService(storage *storage.SQLiteRepository) *AdminService {
	return &AdminService{storage: storage}
}

// UserSummary is one user's totals for an admin date range report.
type UserSummary struct {
	User   core.User   `json:"user"`
	Totals core.Totals `json:"totals"`
}

// UserSummary returns one user's detail with their all-time ACTIVE totals.
func (s *AdminService) UserSummary(ctx context.Context, userID int64) (UserSummary, error) {
	u, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return UserSummary{}, err
	}
	meals, err := s.storage.ListMeals(ctx, storage.MealFilter{UserID: userID})
	if err != nil {
		return UserSummary{}, err
	}
	return UserSummary{User: u, Totals: core.Aggregate(meals)}, nil
}

// ListUserStats computes per-user totals, fanning the per-user queries out
// concurrently. The slice keeps user order. Either date bound may be empty;
// with both empty the totals are all-time.
func (s *AdminService) ListUserStats(ctx context.Context, startDate, endDate string) ([]UserSummary, error) {
	if startDate != "" {
		if _, err := core.ParseDate(startDate); err != nil {
			return nil, err
		}
	}
	if endDate != "" {
		if _, err := core.ParseDate(endDate); err != nil {
			return nil, err
		}
	}

	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]UserSummary, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, u := range users {
		g.Go(func() error {
			meals, err := s.storage.ListMeals(gctx, storage.MealFilter{
				UserID:    u.ID,
				StartDate: startDate,
				EndDate:   endDate,
			})
			if err != nil {
				return err
			}
			summaries[i] = UserSummary{User: u, Totals: core.Aggregate(meals)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}
