package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"contest-tracker/internal/model"
	"contest-tracker/internal/repository"
	"contest-tracker/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ContestEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event model.ContestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func newTestContestService(t *testing.T, publisher ContestEventPublisher) (*ContestService, *repository.ContestAuditRepository) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	auditRepo := repository.NewContestAuditRepository(db)
	return NewContestService(repository.NewContestRepository(db), auditRepo, publisher), auditRepo
}

var (
	staffUser = &model.User{ID: 1, Email: "superuser@example.com", IsActive: true, IsStaff: true}
	basicUser = &model.User{ID: 2, Email: "contestuser@example.com", IsActive: true}
)

func sampleContestInput(platformID string) ContestInput {
	return ContestInput{
		Name:        "Test Contest",
		Description: "Test Description",
		URL:         "https://example.com/contest/1",
		Platform:    "C",
		PlatformID:  platformID,
	}
}

func assertPermissionError(t *testing.T, err error, message string) {
	t.Helper()
	var perr *PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *PermissionError", err)
	}
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("permission error should unwrap to ErrPermissionDenied")
	}
	if perr.Message != message {
		t.Errorf("message = %q, want %q", perr.Message, message)
	}
}

func TestContestCreate(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestContestService(t, pub)

	input := sampleContestInput("1000")
	input.StartTime = testutil.Ptr(testutil.Time("2024-05-01T10:00:00+02:00"))
	input.EndTime = testutil.Ptr(testutil.Time("2024-05-01T13:00:00+02:00"))

	contest, err := svc.Create(context.Background(), staffUser, input)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if contest.ID == 0 || contest.LastUpdated.IsZero() {
		t.Errorf("id=%d last_updated=%v, want both set", contest.ID, contest.LastUpdated)
	}
	if !contest.StartTime.Equal(testutil.Time("2024-05-01T08:00:00Z")) {
		t.Errorf("start_time = %v, caller value must be kept", contest.StartTime)
	}
	if contest.StartTime.Location() != time.UTC {
		t.Errorf("start_time should be stored in UTC")
	}

	if len(pub.events) != 1 || pub.events[0].Action != model.ContestCreated || pub.events[0].ContestID != contest.ID {
		t.Errorf("events = %+v, want one created event", pub.events)
	}
	if pub.events[0].EventID == "" || pub.events[0].ActorEmail != staffUser.Email {
		t.Errorf("event missing id or actor: %+v", pub.events[0])
	}
}

func TestContestCreateAsBasicUserFails(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestContestService(t, pub)
	ctx := context.Background()

	_, err := svc.Create(ctx, basicUser, sampleContestInput("1"))
	assertPermissionError(t, err, "You do not have permission to create contests.")

	contests, _ := svc.List(ctx)
	if len(contests) != 0 {
		t.Errorf("contest persisted for non-staff user")
	}
	if len(pub.events) != 0 {
		t.Errorf("no event expected for a denied mutation")
	}
}

func TestContestValidationPrecedesPermission(t *testing.T) {
	svc, _ := newTestContestService(t, nil)

	input := sampleContestInput("12345678901")
	input.Platform = "X"
	input.URL = "not a url"

	_, err := svc.Create(context.Background(), basicUser, input)
	assertFieldError(t, err, "platform")
	assertFieldError(t, err, "platform_id")
	assertFieldError(t, err, "url")
}

func TestContestRejectsEndBeforeStart(t *testing.T) {
	svc, _ := newTestContestService(t, nil)

	input := sampleContestInput("1")
	input.StartTime = testutil.Ptr(testutil.Time("2024-05-01T10:00:00Z"))
	input.EndTime = testutil.Ptr(testutil.Time("2024-05-01T09:00:00Z"))

	_, err := svc.Create(context.Background(), staffUser, input)
	assertFieldError(t, err, "end_time")
}

func TestContestListOrderedByID(t *testing.T) {
	svc, _ := newTestContestService(t, nil)
	ctx := context.Background()

	for _, pid := range []string{"1", "2", "3"} {
		if _, err := svc.Create(ctx, staffUser, sampleContestInput(pid)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	contests, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(contests) != 3 {
		t.Fatalf("len = %d, want 3", len(contests))
	}
	for i := 1; i < len(contests); i++ {
		if contests[i-1].ID >= contests[i].ID {
			t.Errorf("contests not ordered by id: %d before %d", contests[i-1].ID, contests[i].ID)
		}
	}
}

func TestContestPartialUpdate(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestContestService(t, pub)
	ctx := context.Background()

	created, err := svc.Create(ctx, staffUser, sampleContestInput("1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	before := created.LastUpdated

	updated, err := svc.PartialUpdate(ctx, staffUser, created.ID, ContestPatch{
		Name:     Some("Updated Name"),
		Platform: Some("O"),
	})
	if err != nil {
		t.Fatalf("PartialUpdate failed: %v", err)
	}
	if updated.Name != "Updated Name" || updated.Platform != model.PlatformOmegaUp {
		t.Errorf("patched fields not applied: %+v", updated)
	}
	if updated.Description != "Test Description" || updated.PlatformID != "1" {
		t.Errorf("absent fields should keep stored values: %+v", updated)
	}
	if !updated.LastUpdated.After(before) {
		t.Errorf("last_updated %v did not advance past %v", updated.LastUpdated, before)
	}
	if got := pub.events[len(pub.events)-1].Action; got != model.ContestUpdated {
		t.Errorf("last action = %q, want updated", got)
	}
}

func TestContestPartialUpdateClearsTime(t *testing.T) {
	svc, _ := newTestContestService(t, nil)
	ctx := context.Background()

	input := sampleContestInput("1")
	input.StartTime = testutil.Ptr(testutil.Time("2024-05-01T10:00:00Z"))
	created, err := svc.Create(ctx, staffUser, input)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.PartialUpdate(ctx, staffUser, created.ID, ContestPatch{StartTime: Field[time.Time]{Set: true}})
	if err != nil {
		t.Fatalf("PartialUpdate failed: %v", err)
	}
	if updated.StartTime != nil {
		t.Errorf("explicit null should clear start_time, got %v", updated.StartTime)
	}
}

func TestContestUpdateCheckOrder(t *testing.T) {
	svc, _ := newTestContestService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, staffUser, sampleContestInput("1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Update(ctx, basicUser, 999, sampleContestInput("2")); !errors.Is(err, ErrContestNotFound) {
		t.Errorf("missing contest err = %v, want ErrContestNotFound", err)
	}

	_, err = svc.Update(ctx, basicUser, created.ID, ContestInput{Name: "only a name"})
	assertFieldError(t, err, "url")

	_, err = svc.Update(ctx, basicUser, created.ID, sampleContestInput("2"))
	assertPermissionError(t, err, "You do not have permission to update contests.")

	stored, _ := svc.Get(ctx, created.ID)
	if stored.PlatformID != "1" {
		t.Errorf("denied update was persisted")
	}
}

func TestContestDelete(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestContestService(t, pub)
	ctx := context.Background()

	created, err := svc.Create(ctx, staffUser, sampleContestInput("1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = svc.Delete(ctx, basicUser, created.ID)
	assertPermissionError(t, err, "You do not have permission to delete contests.")

	if err := svc.Delete(ctx, staffUser, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrContestNotFound) {
		t.Errorf("Get after delete err = %v, want ErrContestNotFound", err)
	}
	if got := pub.events[len(pub.events)-1]; got.Action != model.ContestDeleted || got.ContestName != "Test Contest" {
		t.Errorf("last event = %+v, want deleted with contest name", got)
	}
}

func TestContestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newTestContestService(t, pub)

	if _, err := svc.Create(context.Background(), staffUser, sampleContestInput("1")); err != nil {
		t.Fatalf("Create should succeed when publishing fails: %v", err)
	}
}

func TestContestListAudit(t *testing.T) {
	svc, auditRepo := newTestContestService(t, nil)
	ctx := context.Background()

	event := model.ContestEvent{EventID: "evt-1", ContestID: 7, ContestName: "Gone", Action: model.ContestDeleted, ActorID: 1, OccurredAt: time.Now().UTC()}
	entry := event.AuditEntry()
	if err := auditRepo.Create(ctx, &entry); err != nil {
		t.Fatalf("seed audit entry failed: %v", err)
	}

	_, err := svc.ListAudit(ctx, basicUser, 7)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("non-staff err = %v, want ErrPermissionDenied", err)
	}

	entries, err := svc.ListAudit(ctx, staffUser, 7)
	if err != nil {
		t.Fatalf("ListAudit failed: %v", err)
	}
	if len(entries) != 1 || entries[0].EventID != "evt-1" {
		t.Errorf("entries = %+v, want the deleted contest's entry", entries)
	}
}
