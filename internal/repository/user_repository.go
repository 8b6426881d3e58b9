package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"contest-tracker/internal/model"
)

var userUniqueKeys = []uniqueKey{
	{names: []string{"idx_users_email", "users.email"}, field: "email"},
	{names: []string{"idx_users_codeforces_handle", "users.codeforces_handle"}, field: "codeforces_handle"},
	{names: []string{"idx_users_omegaup_handle", "users.omegaup_handle"}, field: "omegaup_handle"},
	{names: []string{"idx_users_kattis_handle", "users.kattis_handle"}, field: "kattis_handle"},
}

var handleColumns = map[string]bool{
	"codeforces_handle": true,
	"omegaup_handle":    true,
	"kattis_handle":     true,
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", classifyWriteError(err, userUniqueKeys))
	}
	return nil
}

func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("save user failed: %w", classifyWriteError(err, userUniqueKeys))
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

// HandleTaken reports whether a user other than exceptID already owns the handle.
// field is the handle column, e.g. "kattis_handle".
func (r *UserRepository) HandleTaken(ctx context.Context, field, handle string, exceptID uint) (bool, error) {
	if !handleColumns[field] {
		return false, fmt.Errorf("unknown handle field %q", field)
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where(field+" = ? AND id <> ?", handle, exceptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("query user by %s failed: %w", field, err)
	}
	return count > 0, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}
