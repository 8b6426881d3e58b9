package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"contest-tracker/internal/config"
	"contest-tracker/internal/platform/database"
)

// SetupTestDB opens a migrated sqlite database private to the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver:             config.DriverSQLite,
		Path:               filepath.Join(t.TempDir(), "test.db"),
		WaitAttempts:       1,
		WaitIntervalMillis: 10,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// SetupTestRedis starts an in-process redis and returns a client bound to it.
func SetupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

// TestAuthConfig keeps bcrypt cheap so suites stay fast.
func TestAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		MinPasswordLength: 5,
		BcryptCost:        4,
	}
}

func TestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:    "contest-tracker-test",
			Env:     "test",
			GinMode: "test",
		},
		Auth: TestAuthConfig(),
		Database: config.DatabaseConfig{
			Driver: config.DriverSQLite,
		},
	}
}

// MakeRequest builds a JSON request; token, when set, goes in the Authorization header.
func MakeRequest(method, path string, body interface{}, token string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// Envelope mirrors the response wrapper written by the HTTP layer.
type Envelope struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

// DecodeEnvelope decodes the wrapper and, when data is non-nil, its payload.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data interface{}) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode JSON response: %v (body %s)", err, w.Body.String())
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("Failed to decode response data: %v (data %s)", err, string(env.Data))
		}
	}
	return env
}

func Ptr[T any](v T) *T {
	return &v
}

func Time(value string) time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return ts
}
