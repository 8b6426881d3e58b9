package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"contest-tracker/internal/model"
)

// Field tracks whether a JSON key was present. A present key with a null
// value has Set true and Value nil.
type Field[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// ContestPatch holds the contest fields present in a request body.
type ContestPatch struct {
	Name        Field[string]
	Description Field[string]
	URL         Field[string]
	Platform    Field[string]
	PlatformID  Field[string]
	StartTime   Field[time.Time]
	EndTime     Field[time.Time]
}

// UnmarshalJSON reports malformed values as a *ValidationError keyed by the
// offending field. Unknown and read-only keys are ignored.
func (p *ContestPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	verr := newValidationError()
	p.Name = decodeString(raw, "name", verr)
	p.Description = decodeString(raw, "description", verr)
	p.URL = decodeString(raw, "url", verr)
	p.Platform = decodeString(raw, "platform", verr)
	p.PlatformID = decodeString(raw, "platform_id", verr)
	p.StartTime = decodeTimestamp(raw, "start_time", verr)
	p.EndTime = decodeTimestamp(raw, "end_time", verr)
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// UnmarshalJSON decodes a full contest body; absent keys take their zero value.
func (in *ContestInput) UnmarshalJSON(data []byte) error {
	var p ContestPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	merged, verr := p.mergeInto(&model.Contest{})
	if verr.HasErrors() {
		return verr
	}
	*in = merged
	return nil
}

// mergeInto overlays the present fields on c. Null is only accepted for the
// timestamps.
func (p ContestPatch) mergeInto(c *model.Contest) (ContestInput, *ValidationError) {
	in := ContestInput{
		Name:        c.Name,
		Description: c.Description,
		URL:         c.URL,
		Platform:    string(c.Platform),
		PlatformID:  c.PlatformID,
		StartTime:   c.StartTime,
		EndTime:     c.EndTime,
	}

	verr := newValidationError()
	mergeString(&in.Name, p.Name, "name", verr)
	mergeString(&in.Description, p.Description, "description", verr)
	mergeString(&in.URL, p.URL, "url", verr)
	mergeString(&in.Platform, p.Platform, "platform", verr)
	mergeString(&in.PlatformID, p.PlatformID, "platform_id", verr)
	if p.StartTime.Set {
		in.StartTime = p.StartTime.Value
	}
	if p.EndTime.Set {
		in.EndTime = p.EndTime.Value
	}
	return in, verr
}

func mergeString(dst *string, f Field[string], key string, verr *ValidationError) {
	if !f.Set {
		return
	}
	if f.Value == nil {
		verr.Add(key, fmt.Sprintf("%s may not be null", key))
		return
	}
	*dst = *f.Value
}

func decodeString(raw map[string]json.RawMessage, key string, verr *ValidationError) Field[string] {
	msg, ok := raw[key]
	if !ok {
		return Field[string]{}
	}
	if isNull(msg) {
		return Field[string]{Set: true}
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		verr.Add(key, fmt.Sprintf("%s must be a string", key))
		return Field[string]{}
	}
	return Some(s)
}

func decodeTimestamp(raw map[string]json.RawMessage, key string, verr *ValidationError) Field[time.Time] {
	msg, ok := raw[key]
	if !ok {
		return Field[time.Time]{}
	}
	if isNull(msg) {
		return Field[time.Time]{Set: true}
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		verr.Add(key, fmt.Sprintf("%s must be a datetime string", key))
		return Field[time.Time]{}
	}
	t, err := parseTimestamp(s)
	if err != nil {
		verr.Add(key, fmt.Sprintf("%s has wrong format, use ISO 8601 such as 2024-05-01T10:00:00Z", key))
		return Field[time.Time]{}
	}
	return Some(t)
}

// Timestamps without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}
