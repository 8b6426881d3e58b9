package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"contest-tracker/internal/model"
	"contest-tracker/internal/repository"
	"contest-tracker/internal/testutil"
)

func TestContestAuditWorkerHandle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewContestAuditRepository(db)
	w := NewContestAuditWorker(nil, repo, "contest.audit.events")
	ctx := context.Background()

	event := model.ContestEvent{
		EventID:     "0b6f4b4e-1f3c-4a43-9b7b-2d1f0d3e9c11",
		ContestID:   3,
		ContestName: "Test Contest",
		Action:      model.ContestUpdated,
		ActorID:     1,
		ActorEmail:  "superuser@example.com",
		OccurredAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event failed: %v", err)
	}

	// a redelivery must not create a second entry
	for i := 0; i < 2; i++ {
		if err := w.handle(ctx, body); err != nil {
			t.Fatalf("handle #%d failed: %v", i+1, err)
		}
	}

	entries, err := repo.ListByContestID(ctx, 3)
	if err != nil {
		t.Fatalf("ListByContestID failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Action != model.ContestUpdated || entries[0].ActorEmail != event.ActorEmail {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestContestAuditWorkerRejectsBadPayload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	w := NewContestAuditWorker(nil, repository.NewContestAuditRepository(db), "contest.audit.events")

	cases := map[string]string{
		"not json":        `{"event_id":`,
		"missing ids":     `{"action":"created"}`,
		"missing contest": `{"event_id":"abc","action":"created"}`,
	}
	for name, body := range cases {
		err := w.handle(context.Background(), []byte(body))
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !isDecodeError(err) {
			t.Errorf("%s: err = %v, want decode error", name, err)
		}
	}
}
