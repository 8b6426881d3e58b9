package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"contest-tracker/internal/testutil"
)

func TestContestPatchUnmarshal(t *testing.T) {
	var patch ContestPatch
	if err := json.Unmarshal([]byte(`{"end_time":null,"name":"x","id":5}`), &patch); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if patch.StartTime.Set {
		t.Errorf("absent start_time should not be set")
	}
	if !patch.EndTime.Set || patch.EndTime.Value != nil {
		t.Errorf("explicit null end_time = %+v, want set with nil value", patch.EndTime)
	}
	if patch.Name.Value == nil || *patch.Name.Value != "x" {
		t.Errorf("name = %+v, want x", patch.Name)
	}

	patch = ContestPatch{}
	if err := json.Unmarshal([]byte(`{"start_time":"2024-05-01T10:00:00Z"}`), &patch); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !patch.StartTime.Set || patch.StartTime.Value == nil {
		t.Errorf("start_time not decoded: %+v", patch.StartTime)
	}
}

func TestContestTimestampFormats(t *testing.T) {
	want := testutil.Time("2030-01-01T10:00:00Z")
	for _, raw := range []string{
		"2030-01-01T10:00:00Z",
		"2030-01-01T12:00:00+02:00",
		"2030-01-01T10:00:00",
		"2030-01-01T10:00:00.000000",
		"2030-01-01T10:00",
		"2030-01-01 10:00:00",
	} {
		var patch ContestPatch
		body := `{"start_time":"` + raw + `"}`
		if err := json.Unmarshal([]byte(body), &patch); err != nil {
			t.Errorf("%s: unmarshal failed: %v", raw, err)
			continue
		}
		if patch.StartTime.Value == nil || !patch.StartTime.Value.Equal(want) {
			t.Errorf("%s: start_time = %v, want %v", raw, patch.StartTime.Value, want)
		}
	}
}

func TestContestMalformedFieldsKeyedByName(t *testing.T) {
	cases := []struct {
		body  string
		field string
	}{
		{`{"start_time":"next tuesday"}`, "start_time"},
		{`{"end_time":"2030-13-01T10:00:00Z"}`, "end_time"},
		{`{"end_time":12}`, "end_time"},
		{`{"name":42}`, "name"},
	}
	for _, tc := range cases {
		var patch ContestPatch
		err := json.Unmarshal([]byte(tc.body), &patch)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: err = %v, want *ValidationError", tc.body, err)
			continue
		}
		if len(verr.Fields[tc.field]) == 0 {
			t.Errorf("%s: errors = %v, want an entry for %s", tc.body, verr.Fields, tc.field)
		}
	}
}

func TestContestInputRejectsNull(t *testing.T) {
	var input ContestInput
	err := json.Unmarshal([]byte(`{"name":null,"url":"https://example.com","platform":"C","platform_id":"1","start_time":null}`), &input)
	assertFieldError(t, err, "name")

	input = ContestInput{}
	body := `{"name":"n","url":"https://example.com","platform":"C","platform_id":"1","start_time":null}`
	if err := json.Unmarshal([]byte(body), &input); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if input.Name != "n" || input.StartTime != nil {
		t.Errorf("input = %+v", input)
	}
}

func TestContestPartialUpdateRejectsNull(t *testing.T) {
	svc, _ := newTestContestService(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, staffUser, sampleContestInput("1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var patch ContestPatch
	if err := json.Unmarshal([]byte(`{"name":null,"platform":null}`), &patch); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	_, err = svc.PartialUpdate(ctx, staffUser, created.ID, patch)
	assertFieldError(t, err, "name")
	assertFieldError(t, err, "platform")

	stored, _ := svc.Get(ctx, created.ID)
	if stored.Name != "Test Contest" || stored.Platform != "C" {
		t.Errorf("contest changed by a rejected patch: %+v", stored)
	}
}

func TestContestURLSchemes(t *testing.T) {
	svc, _ := newTestContestService(t, nil)
	ctx := context.Background()

	for _, u := range []string{"javascript:alert(1)", "foo:bar", "mailto:a@b.c", "http://", "example.com/contest"} {
		input := sampleContestInput("1")
		input.URL = u
		_, err := svc.Create(ctx, staffUser, input)
		assertFieldError(t, err, "url")
	}

	for _, u := range []string{"https://codeforces.com/contest/1", "HTTP://example.com", "ftp://example.com/a", "ftps://example.com"} {
		input := sampleContestInput("1")
		input.URL = u
		if _, err := svc.Create(ctx, staffUser, input); err != nil {
			t.Errorf("url %q rejected: %v", u, err)
		}
	}
}

func TestContestPlatformMessage(t *testing.T) {
	svc, _ := newTestContestService(t, nil)

	input := sampleContestInput("1")
	input.Platform = "Z"
	_, err := svc.Create(context.Background(), staffUser, input)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	msgs := verr.Fields["platform"]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "V (Vjudge)") {
		t.Errorf("platform errors = %v, want the list of choices", msgs)
	}
}
