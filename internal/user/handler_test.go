package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/housekeeper/internal/auth/token"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newTestStore(t)
	svc := newTestService(t, store)
	handler := NewHandler(svc, svc.log)

	engine := gin.New()
	handler.RegisterRoutes(engine)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func registerAlice(t *testing.T, engine *gin.Engine) {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/register", "", gin.H{
		"username":  "alice",
		"password":  "Secr3t!",
		"name":      "Alice",
		"last_name": "Smith",
		"email":     "a@x.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func loginAlice(t *testing.T, engine *gin.Engine) string {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/login", "", gin.H{
		"username": "alice",
		"password": "Secr3t!",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeBody(t, rec, &body)
	if body.TokenType != "bearer" {
		t.Errorf("expected token_type 'bearer', got %q", body.TokenType)
	}
	if body.AccessToken == "" {
		t.Fatal("expected a non-empty access token")
	}
	return body.AccessToken
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	engine := newTestRouter(t)

	registerAlice(t, engine)
	tok := loginAlice(t, engine)

	rec := doJSON(t, engine, http.MethodGet, "/users/me", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var profile Profile
	decodeBody(t, rec, &profile)
	if profile.Email != "a@x.com" {
		t.Errorf("expected email a@x.com, got %q", profile.Email)
	}
	if profile.Username != "alice" {
		t.Errorf("expected username alice, got %q", profile.Username)
	}
}

func TestRegisterValidation(t *testing.T) {
	engine := newTestRouter(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing email", gin.H{"username": "alice", "password": "pw", "name": "A", "last_name": "S"}},
		{"bad email", gin.H{"username": "alice", "password": "pw", "name": "A", "last_name": "S", "email": "not-an-email"}},
		{"missing password", gin.H{"username": "alice", "name": "A", "last_name": "S", "email": "a@x.com"}},
		{"short username", gin.H{"username": "al", "password": "pw", "name": "A", "last_name": "S", "email": "a@x.com"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, engine, http.MethodPost, "/register", "", tc.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("password over bcrypt limit", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/register", "", gin.H{
			"username": "bob", "password": strings.Repeat("a", 73),
			"name": "B", "last_name": "S", "email": "b@x.com",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRegisterDuplicates(t *testing.T) {
	engine := newTestRouter(t)
	registerAlice(t, engine)

	t.Run("duplicate email", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/register", "", gin.H{
			"username": "bob", "password": "pw", "name": "B", "last_name": "S", "email": "a@x.com",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		decodeBody(t, rec, &body)
		if body.Error.Message != "Email already registered" {
			t.Errorf("unexpected message %q", body.Error.Message)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPost, "/register", "", gin.H{
			"username": "alice", "password": "pw", "name": "B", "last_name": "S", "email": "b@x.com",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		decodeBody(t, rec, &body)
		if body.Error.Message != "Username already taken" {
			t.Errorf("unexpected message %q", body.Error.Message)
		}
	})
}

func TestLoginFailures(t *testing.T) {
	engine := newTestRouter(t)
	registerAlice(t, engine)

	for _, tc := range []struct {
		name string
		body gin.H
	}{
		{"wrong password", gin.H{"username": "alice", "password": "wrong"}},
		{"unknown user", gin.H{"username": "nobody", "password": "Secr3t!"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, engine, http.MethodPost, "/login", "", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var body struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			decodeBody(t, rec, &body)
			want := "Login failed. Please check your credentials and try again."
			if body.Error.Message != want {
				t.Errorf("expected generic login failure message, got %q", body.Error.Message)
			}
		})
	}
}

func TestGuardRejectsBadTokens(t *testing.T) {
	engine := newTestRouter(t)
	registerAlice(t, engine)

	t.Run("no header", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodGet, "/users/me", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodGet, "/users/me", "garbage", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		past := time.Now().Add(-2 * time.Hour)
		expiredTokens, err := token.NewService(
			token.Config{Secret: "test-secret"},
			token.WithNow(func() time.Time { return past }),
		)
		if err != nil {
			t.Fatalf("token.NewService failed: %v", err)
		}
		tok, err := expiredTokens.Issue("a@x.com", time.Minute)
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		rec := doJSON(t, engine, http.MethodGet, "/users/me", tok, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestUpdateProfileEndpoint(t *testing.T) {
	engine := newTestRouter(t)
	registerAlice(t, engine)
	tok := loginAlice(t, engine)

	rec := doJSON(t, engine, http.MethodPut, "/users/me", tok, gin.H{
		"name": "Alicia",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var profile Profile
	decodeBody(t, rec, &profile)
	if profile.Name != "Alicia" {
		t.Errorf("expected updated name, got %q", profile.Name)
	}
	if profile.Username != "alice" {
		t.Errorf("unrelated field changed: %q", profile.Username)
	}

	t.Run("invalid email rejected", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPut, "/users/me", tok, gin.H{
			"email": "not-an-email",
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestUpdatePasswordEndpoint(t *testing.T) {
	engine := newTestRouter(t)
	registerAlice(t, engine)
	tok := loginAlice(t, engine)

	t.Run("wrong old password", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPut, "/users/me/password", tok, gin.H{
			"old_password": "wrong",
			"new_password": "NewSecr3t!",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		decodeBody(t, rec, &body)
		if body.Error.Message != "Old password is incorrect" {
			t.Errorf("unexpected message %q", body.Error.Message)
		}
	})

	t.Run("success, old password stops working", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodPut, "/users/me/password", tok, gin.H{
			"old_password": "Secr3t!",
			"new_password": "NewSecr3t!",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = doJSON(t, engine, http.MethodPost, "/login", "", gin.H{
			"username": "alice", "password": "Secr3t!",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("old password should fail, got %d", rec.Code)
		}
		rec = doJSON(t, engine, http.MethodPost, "/login", "", gin.H{
			"username": "alice", "password": "NewSecr3t!",
		})
		if rec.Code != http.StatusOK {
			t.Errorf("new password should work, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestListUsersEndpoint(t *testing.T) {
	engine := newTestRouter(t)
	registerAlice(t, engine)
	tok := loginAlice(t, engine)

	rec := doJSON(t, engine, http.MethodGet, "/users", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var profiles []Profile
	decodeBody(t, rec, &profiles)
	if len(profiles) != 1 || profiles[0].Username != "alice" {
		t.Errorf("unexpected profiles: %+v", profiles)
	}

	t.Run("requires auth", func(t *testing.T) {
		rec := doJSON(t, engine, http.MethodGet, "/users", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}
