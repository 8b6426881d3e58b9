package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"contest-tracker/internal/model"
)

var auditUniqueKeys = []uniqueKey{
	{names: []string{"idx_contest_audit_event", "contest_audit_entries.event_id"}, field: "event_id"},
}

type ContestAuditRepository struct {
	db *gorm.DB
}

func NewContestAuditRepository(db *gorm.DB) *ContestAuditRepository {
	return &ContestAuditRepository{db: db}
}

// Create stores an entry once per event id; redelivered events are ignored.
func (r *ContestAuditRepository) Create(ctx context.Context, entry *model.ContestAuditEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if err == nil {
		return nil
	}
	err = classifyWriteError(err, auditUniqueKeys)
	if errors.Is(err, ErrDuplicateKey) {
		return nil
	}
	return fmt.Errorf("create contest audit entry failed: %w", err)
}

func (r *ContestAuditRepository) ListByContestID(ctx context.Context, contestID uint) ([]model.ContestAuditEntry, error) {
	var entries []model.ContestAuditEntry
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list contest audit entries failed: %w", err)
	}
	return entries, nil
}
