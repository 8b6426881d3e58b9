package handler

import (
	"time"

	"contest-tracker/internal/model"
)

// UserProfile never carries the password hash; handles appear only when set.
type UserProfile struct {
	Email            string  `json:"email"`
	Name             string  `json:"name"`
	CodeforcesHandle *string `json:"codeforces_handle,omitempty"`
	OmegaUpHandle    *string `json:"omegaup_handle,omitempty"`
	KattisHandle     *string `json:"kattis_handle,omitempty"`
}

func newUserProfile(u *model.User) UserProfile {
	return UserProfile{
		Email:            u.Email,
		Name:             u.Name,
		CodeforcesHandle: u.CodeforcesHandle,
		OmegaUpHandle:    u.OmegaUpHandle,
		KattisHandle:     u.KattisHandle,
	}
}

// ContestSummary is the reduced field set used by the list endpoint.
type ContestSummary struct {
	ID         uint           `json:"id"`
	Name       string         `json:"name"`
	URL        string         `json:"url"`
	Platform   model.Platform `json:"platform"`
	PlatformID string         `json:"platform_id"`
}

type ContestDetail struct {
	ContestSummary
	Description string     `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	LastUpdated time.Time  `json:"last_updated"`
}

func newContestSummary(c *model.Contest) ContestSummary {
	return ContestSummary{
		ID:         c.ID,
		Name:       c.Name,
		URL:        c.URL,
		Platform:   c.Platform,
		PlatformID: c.PlatformID,
	}
}

func newContestDetail(c *model.Contest) ContestDetail {
	return ContestDetail{
		ContestSummary: newContestSummary(c),
		Description:    c.Description,
		StartTime:      c.StartTime,
		EndTime:        c.EndTime,
		LastUpdated:    c.LastUpdated,
	}
}
