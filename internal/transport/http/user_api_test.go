package http

import (
	"context"
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"contest-tracker/internal/repository"
	"contest-tracker/internal/testutil"
)

func TestCreateValidUserSuccess(t *testing.T) {
	env := setupTestEnv(t)
	payload := map[string]string{
		"email":    "test@example.com",
		"password": "testpass1234",
		"name":     "Test Name",
	}

	w := env.serve(testutil.MakeRequest(http.MethodPost, "/user/create", payload, ""))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var data map[string]interface{}
	testutil.DecodeEnvelope(t, w, &data)
	if _, ok := data["password"]; ok {
		t.Error("password must not be echoed")
	}

	user, err := repository.NewUserRepository(env.db).GetByEmail(context.Background(), "test@example.com")
	if err != nil || user == nil {
		t.Fatalf("user not stored: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("testpass1234")); err != nil {
		t.Error("stored hash does not match the password")
	}
}

func TestCreateUserWithEmailExistsError(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "test@example.com", "testpass1234", "Test Name", false)

	payload := map[string]string{
		"email":    "test@example.com",
		"password": "testpass1234",
		"name":     "Test Name",
	}
	w := env.serve(testutil.MakeRequest(http.MethodPost, "/user/create", payload, ""))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	if resp := testutil.DecodeEnvelope(t, w, nil); len(resp.Errors["email"]) == 0 {
		t.Errorf("errors = %v, want an email error", resp.Errors)
	}
}

func TestCreateUserWithShortPasswordError(t *testing.T) {
	env := setupTestEnv(t)
	payload := map[string]string{
		"email":    "test@example.com",
		"password": "1234",
		"name":     "Test Name",
	}

	w := env.serve(testutil.MakeRequest(http.MethodPost, "/user/create", payload, ""))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	user, _ := repository.NewUserRepository(env.db).GetByEmail(context.Background(), "test@example.com")
	if user != nil {
		t.Error("user persisted despite short password")
	}
}

func TestCreateTokenForUser(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "test@example.com", "1234", "Test Name", false)

	payload := map[string]string{"email": "test@example.com", "password": "1234"}
	w := env.serve(testutil.MakeRequest(http.MethodPost, "/user/token", payload, ""))
	testutil.AssertStatus(t, w, http.StatusOK)

	var data struct {
		Token string `json:"token"`
	}
	testutil.DecodeEnvelope(t, w, &data)
	if data.Token == "" {
		t.Error("token missing from response")
	}
}

func TestCreateTokenInvalidCredentials(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "test@example.com", "goodpass", "Test Name", false)

	payload := map[string]string{"email": "test@example.com", "password": "badpass"}
	w := env.serve(testutil.MakeRequest(http.MethodPost, "/user/token", payload, ""))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	resp := testutil.DecodeEnvelope(t, w, nil)
	if len(resp.Data) != 0 {
		t.Errorf("no data expected, got %s", resp.Data)
	}
	msgs := resp.Errors["non_field_errors"]
	if len(msgs) != 1 || msgs[0] != "Unable to log in with provided credentials." {
		t.Errorf("non_field_errors = %v", msgs)
	}
}

func TestCreateTokenBlankPassword(t *testing.T) {
	env := setupTestEnv(t)

	payload := map[string]string{"email": "test@example.com", "password": ""}
	w := env.serve(testutil.MakeRequest(http.MethodPost, "/user/token", payload, ""))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	if resp := testutil.DecodeEnvelope(t, w, nil); len(resp.Errors["password"]) == 0 {
		t.Errorf("errors = %v, want a password error", resp.Errors)
	}
}

func TestRetrieveProfileUnauthorized(t *testing.T) {
	env := setupTestEnv(t)

	w := env.serve(testutil.MakeRequest(http.MethodGet, "/user/me", nil, ""))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
	if got := w.Header().Get("WWW-Authenticate"); got != "Token" {
		t.Errorf("WWW-Authenticate = %q, want Token", got)
	}

	w = env.serve(testutil.MakeRequest(http.MethodGet, "/user/me", nil, "not-a-real-token"))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestInactiveUserTokenRejected(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "test@example.com", "testpass1234", "Test Name", false)
	token := env.tokenFor(t, user)

	if err := env.db.Model(user).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate user failed: %v", err)
	}

	w := env.serve(testutil.MakeRequest(http.MethodGet, "/user/me", nil, token))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestRetrieveProfileSuccess(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "test@example.com", "testpass1234", "Test Name", false)

	w := env.serve(testutil.MakeRequest(http.MethodGet, "/user/me", nil, env.tokenFor(t, user)))
	testutil.AssertStatus(t, w, http.StatusOK)

	var data map[string]interface{}
	testutil.DecodeEnvelope(t, w, &data)
	want := map[string]interface{}{"name": "Test Name", "email": "test@example.com"}
	if len(data) != len(want) {
		t.Fatalf("profile = %v, want %v", data, want)
	}
	for k, v := range want {
		if data[k] != v {
			t.Errorf("%s = %v, want %v", k, data[k], v)
		}
	}
}

func TestPostMeNotAllowed(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "test@example.com", "testpass1234", "Test Name", false)

	w := env.serve(testutil.MakeRequest(http.MethodPost, "/user/me", map[string]string{}, env.tokenFor(t, user)))
	testutil.AssertStatus(t, w, http.StatusMethodNotAllowed)
}

func TestUpdateUserProfile(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "test@example.com", "testpass1234", "Test Name", false)

	payload := map[string]string{"name": "New Name", "password": "newpass1234"}
	w := env.serve(testutil.MakeRequest(http.MethodPatch, "/user/me", payload, env.tokenFor(t, user)))
	testutil.AssertStatus(t, w, http.StatusOK)

	stored, err := repository.NewUserRepository(env.db).GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Name != "New Name" {
		t.Errorf("name = %q, want New Name", stored.Name)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpass1234")); err != nil {
		t.Error("password was not updated")
	}
}

func TestListUsers(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser(t, "a@example.com", "testpass1234", "A", false)
	env.createUser(t, "b@example.com", "testpass1234", "B", false)

	w := env.serve(testutil.MakeRequest(http.MethodGet, "/user/list", nil, ""))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = env.serve(testutil.MakeRequest(http.MethodGet, "/user/list", nil, env.tokenFor(t, user)))
	testutil.AssertStatus(t, w, http.StatusOK)

	var data []map[string]interface{}
	testutil.DecodeEnvelope(t, w, &data)
	if len(data) != 2 || data[0]["email"] != "a@example.com" {
		t.Errorf("users = %v", data)
	}
}
