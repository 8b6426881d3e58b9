package model

import "time"

type ContestAction string

const (
	ContestCreated ContestAction = "created"
	ContestUpdated ContestAction = "updated"
	ContestDeleted ContestAction = "deleted"
)

// ContestEvent is the payload published to the audit queue after a contest mutation.
type ContestEvent struct {
	EventID     string        `json:"event_id"`
	ContestID   uint          `json:"contest_id"`
	ContestName string        `json:"contest_name"`
	Action      ContestAction `json:"action"`
	ActorID     uint          `json:"actor_id"`
	ActorEmail  string        `json:"actor_email"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

type ContestAuditEntry struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	EventID     string        `gorm:"size:36;not null;uniqueIndex:idx_contest_audit_event" json:"event_id"`
	ContestID   uint          `gorm:"not null;index" json:"contest_id"`
	ContestName string        `gorm:"size:255;not null" json:"contest_name"`
	Action      ContestAction `gorm:"size:16;not null" json:"action"`
	ActorID     uint          `gorm:"not null" json:"actor_id"`
	ActorEmail  string        `gorm:"size:255;not null" json:"actor_email"`
	OccurredAt  time.Time     `gorm:"not null;precision:6" json:"occurred_at"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (ContestAuditEntry) TableName() string {
	return "contest_audit_entries"
}

func (e ContestEvent) AuditEntry() ContestAuditEntry {
	return ContestAuditEntry{
		EventID:     e.EventID,
		ContestID:   e.ContestID,
		ContestName: e.ContestName,
		Action:      e.Action,
		ActorID:     e.ActorID,
		ActorEmail:  e.ActorEmail,
		OccurredAt:  e.OccurredAt,
	}
}
