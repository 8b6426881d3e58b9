package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"contest-tracker/internal/model"
	"contest-tracker/internal/repository"
)

// ContestEventPublisher delivers contest events to the audit pipeline.
type ContestEventPublisher interface {
	Publish(ctx context.Context, event model.ContestEvent) error
}

type ContestService struct {
	contestRepo *repository.ContestRepository
	auditRepo   *repository.ContestAuditRepository
	publisher   ContestEventPublisher
	now         func() time.Time
}

// ContestInput is the full set of writable contest fields.
type ContestInput struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Description string     `json:"description"`
	URL         string     `json:"url" validate:"required,max=200,weburl"`
	Platform    string     `json:"platform" validate:"required,platform"`
	PlatformID  string     `json:"platform_id" validate:"required,max=10"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

func NewContestService(
	contestRepo *repository.ContestRepository,
	auditRepo *repository.ContestAuditRepository,
	publisher ContestEventPublisher,
) *ContestService {
	return &ContestService{
		contestRepo: contestRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (s *ContestService) List(ctx context.Context) ([]model.Contest, error) {
	return s.contestRepo.List(ctx)
}

func (s *ContestService) Get(ctx context.Context, id uint) (*model.Contest, error) {
	contest, err := s.contestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contest == nil {
		return nil, ErrContestNotFound
	}
	return contest, nil
}

func (s *ContestService) Create(ctx context.Context, actor *model.User, input ContestInput) (*model.Contest, error) {
	input = input.normalized()
	if verr := validateContest(input); verr.HasErrors() {
		return nil, verr
	}
	if !actor.IsStaff {
		return nil, &PermissionError{Message: "You do not have permission to create contests."}
	}

	contest := &model.Contest{}
	input.applyTo(contest)
	if err := s.contestRepo.Create(ctx, contest); err != nil {
		return nil, err
	}

	s.publish(ctx, actor, contest, model.ContestCreated)
	return contest, nil
}

// Update replaces every writable field of the contest.
func (s *ContestService) Update(ctx context.Context, actor *model.User, id uint, input ContestInput) (*model.Contest, error) {
	contest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, actor, contest, input)
}

// PartialUpdate merges the patch over the stored contest and validates the result.
func (s *ContestService) PartialUpdate(ctx context.Context, actor *model.User, id uint, patch ContestPatch) (*model.Contest, error) {
	contest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	input, verr := patch.mergeInto(contest)
	if verr.HasErrors() {
		return nil, verr
	}
	return s.update(ctx, actor, contest, input)
}

func (s *ContestService) Delete(ctx context.Context, actor *model.User, id uint) error {
	contest, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsStaff {
		return &PermissionError{Message: "You do not have permission to delete contests."}
	}
	if err := s.contestRepo.Delete(ctx, contest.ID); err != nil {
		return err
	}

	s.publish(ctx, actor, contest, model.ContestDeleted)
	return nil
}

// ListAudit returns the audit trail of a contest id, which may belong to a
// contest that has since been deleted.
func (s *ContestService) ListAudit(ctx context.Context, actor *model.User, id uint) ([]model.ContestAuditEntry, error) {
	if !actor.IsStaff {
		return nil, &PermissionError{Message: "You do not have permission to view contest audit entries."}
	}
	return s.auditRepo.ListByContestID(ctx, id)
}

func (s *ContestService) update(ctx context.Context, actor *model.User, contest *model.Contest, input ContestInput) (*model.Contest, error) {
	input = input.normalized()
	if verr := validateContest(input); verr.HasErrors() {
		return nil, verr
	}
	if !actor.IsStaff {
		return nil, &PermissionError{Message: "You do not have permission to update contests."}
	}

	input.applyTo(contest)
	if err := s.contestRepo.Save(ctx, contest); err != nil {
		return nil, err
	}

	s.publish(ctx, actor, contest, model.ContestUpdated)
	return contest, nil
}

// publish is best effort: the mutation is already committed.
func (s *ContestService) publish(ctx context.Context, actor *model.User, contest *model.Contest, action model.ContestAction) {
	if s.publisher == nil {
		return
	}
	event := model.ContestEvent{
		EventID:     uuid.NewString(),
		ContestID:   contest.ID,
		ContestName: contest.Name,
		Action:      action,
		ActorID:     actor.ID,
		ActorEmail:  actor.Email,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"event_id":   event.EventID,
			"contest_id": event.ContestID,
			"action":     event.Action,
		}).Warnf("publish contest event failed: %v", err)
	}
}

func validateContest(input ContestInput) *ValidationError {
	verr := validateInput(input)
	if input.StartTime != nil && input.EndTime != nil && input.EndTime.Before(*input.StartTime) {
		verr.Add("end_time", "end_time must not precede start_time")
	}
	return verr
}

func (in ContestInput) normalized() ContestInput {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	in.Platform = strings.TrimSpace(in.Platform)
	in.PlatformID = strings.TrimSpace(in.PlatformID)
	in.StartTime = normalizeTime(in.StartTime)
	in.EndTime = normalizeTime(in.EndTime)
	return in
}

func (in ContestInput) applyTo(c *model.Contest) {
	c.Name = in.Name
	c.Description = in.Description
	c.URL = in.URL
	c.Platform = model.Platform(in.Platform)
	c.PlatformID = in.PlatformID
	c.StartTime = in.StartTime
	c.EndTime = in.EndTime
}

// normalizeTime stores timestamps in UTC at the microsecond precision of the
// database columns.
func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}
