package model

import (
	"time"

	"gorm.io/gorm"
)

// Platform is the single-character code of the judge hosting a contest.
type Platform string

const (
	PlatformCodeforces Platform = "C"
	PlatformOmegaUp    Platform = "O"
	PlatformKattis     Platform = "K"
	PlatformVjudge     Platform = "V"
)

var platformLabels = map[Platform]string{
	PlatformCodeforces: "Codeforces",
	PlatformOmegaUp:    "OmegaUp",
	PlatformKattis:     "Kattis",
	PlatformVjudge:     "Vjudge",
}

// Platforms lists the supported platforms in display order.
func Platforms() []Platform {
	return []Platform{PlatformCodeforces, PlatformOmegaUp, PlatformKattis, PlatformVjudge}
}

func (p Platform) Valid() bool {
	_, ok := platformLabels[p]
	return ok
}

func (p Platform) Label() string {
	return platformLabels[p]
}

type Contest struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	URL         string     `gorm:"column:url;size:200;not null" json:"url"`
	Platform    Platform   `gorm:"size:1;not null" json:"platform"`
	PlatformID  string     `gorm:"column:platform_id;size:10;not null" json:"platform_id"`
	StartTime   *time.Time `gorm:"precision:6" json:"start_time"`
	EndTime     *time.Time `gorm:"precision:6" json:"end_time"`
	LastUpdated time.Time  `gorm:"not null;precision:6" json:"last_updated"`
}

func (Contest) TableName() string {
	return "contests"
}

// BeforeSave stamps LastUpdated. The new value is always strictly after the
// previous one, even when two writes land within the same clock tick.
func (c *Contest) BeforeSave(tx *gorm.DB) error {
	c.LastUpdated = nextStamp(c.LastUpdated, time.Now())
	return nil
}

func nextStamp(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		return prev.UTC().Add(time.Microsecond)
	}
	return now
}
