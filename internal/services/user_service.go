package services

import (
	"context"
	"strings"

	"tiffin/internal/core"
	"tiffin/internal/storage"
)

// UserService reads and updates user profiles.
type UserService struct {
	storage *storage.SQLiteRepository
}

func NewUserService(storage *storage.SQLiteRepository) *UserService {
	return &UserService{storage: storage}
}

func (s *UserService) Profile(ctx context.Context, userID int64) (core.User, error) {
	return s.storage.GetUserByID(ctx, userID)
}

// UpdateProfile applies a partial update: nil fields keep their value.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, name, mobile *string) (core.User, error) {
	current, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return core.User{}, err
	}

	newName := current.Name
	if name != nil {
		newName = strings.TrimSpace(*name)
	}
	newMobile := current.Mobile
	if mobile != nil {
		newMobile = strings.TrimSpace(*mobile)
	}
	return s.storage.UpdateUserProfile(ctx, userID, newName, newMobile)
}

func (s *UserService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.storage.ListUsers(ctx)
}
