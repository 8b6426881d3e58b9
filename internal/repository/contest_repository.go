package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"contest-tracker/internal/model"
)

type ContestRepository struct {
	db *gorm.DB
}

func NewContestRepository(db *gorm.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

func (r *ContestRepository) Create(ctx context.Context, contest *model.Contest) error {
	if err := r.db.WithContext(ctx).Create(contest).Error; err != nil {
		return fmt.Errorf("create contest failed: %w", err)
	}
	return nil
}

// Save writes every column of an existing contest; BeforeSave refreshes LastUpdated.
func (r *ContestRepository) Save(ctx context.Context, contest *model.Contest) error {
	if err := r.db.WithContext(ctx).Save(contest).Error; err != nil {
		return fmt.Errorf("save contest failed: %w", err)
	}
	return nil
}

func (r *ContestRepository) GetByID(ctx context.Context, id uint) (*model.Contest, error) {
	var contest model.Contest
	if err := r.db.WithContext(ctx).First(&contest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query contest by id failed: %w", err)
	}
	return &contest, nil
}

func (r *ContestRepository) List(ctx context.Context) ([]model.Contest, error) {
	var contests []model.Contest
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&contests).Error; err != nil {
		return nil, fmt.Errorf("list contests failed: %w", err)
	}
	return contests, nil
}

func (r *ContestRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Contest{}, id).Error; err != nil {
		return fmt.Errorf("delete contest failed: %w", err)
	}
	return nil
}
