package authenticator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/server/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newEngine(t *testing.T, limit gin.HandlerFunc) (*gin.Engine, *fixture) {
	t.Helper()
	f := newFixture(t, nil)
	engine := gin.New()
	NewHandler(f.svc).Register(engine, limit)
	return engine, f
}

func do(engine http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func loginBody(user, pw string) string {
	b, _ := json.Marshal(auth.LoginRequest{Username: user, Password: pw})
	return string(b)
}

func TestHandler_LoginRefreshSession(t *testing.T) {
	engine, f := newEngine(t, nil)

	rr := do(engine, "POST", LoginPath, loginBody(testUser, testPassword), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	tokens := decode[auth.Tokens](t, rr)
	if !tokens.Complete() {
		t.Fatalf("incomplete tokens: %+v", tokens)
	}

	rr = do(engine, "GET", SessionPath, "", tokens.Access)
	if rr.Code != http.StatusOK {
		t.Fatalf("session: %d %s", rr.Code, rr.Body.String())
	}
	info := decode[auth.SessionInfo](t, rr)
	if info.Subject != testUser || info.ExpiresAt != f.clock.now.Add(time.Hour).Unix() {
		t.Errorf("session = %+v", info)
	}

	f.clock.now = f.clock.now.Add(time.Second)
	rr = do(engine, "POST", RefreshPath, `{"refresh_token":"`+tokens.Refresh+`"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(engine, "POST", RefreshPath, `{"refresh_token":"`+tokens.Refresh+`"}`, "")
	if rr.Code != http.StatusUnauthorized || decode[errorBody](t, rr).Error.Code != "INVALID_TOKEN" {
		t.Errorf("reused refresh: %d %s", rr.Code, rr.Body.String())
	}
}

func TestHandler_Errors(t *testing.T) {
	engine, f := newEngine(t, nil)
	tokens, err := login(t, f.svc, testUser, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		bearer string
		status int
		code   string
	}{
		{"wrong password", "POST", LoginPath, loginBody(testUser, "nope nope"), "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown user", "POST", LoginPath, loginBody("mallory", testPassword), "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"missing password", "POST", LoginPath, `{"username":"alice"}`, "", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad username", "POST", LoginPath, loginBody("a b", testPassword), "", http.StatusBadRequest, "INVALID_INPUT"},
		{"not json", "POST", LoginPath, `username=alice`, "", http.StatusBadRequest, "INVALID_INPUT"},
		{"refresh with access token", "POST", RefreshPath, `{"refresh_token":"` + tokens.Access + `"}`, "", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"session without token", "GET", SessionPath, "", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"session with refresh token", "GET", SessionPath, "", tokens.Refresh, http.StatusUnauthorized, "INVALID_TOKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(engine, tt.method, tt.path, tt.body, tt.bearer)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.status, rr.Body.String())
			}
			if got := decode[errorBody](t, rr).Error.Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestHandler_NoPasswordInErrors(t *testing.T) {
	engine, _ := newEngine(t, nil)
	rr := do(engine, "POST", LoginPath, loginBody(testUser, "hunter2-secret"), "")
	if strings.Contains(rr.Body.String(), "hunter2") {
		t.Errorf("password leaked: %s", rr.Body.String())
	}
}

func TestHandler_RateLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	engine, _ := newEngine(t, middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillInterval: time.Minute,
		Clock:          func() time.Time { return now },
	}))

	for i := range 2 {
		rr := do(engine, "POST", LoginPath, loginBody(testUser, "wrong pass"), "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d", i, rr.Code)
		}
	}
	rr := do(engine, "POST", LoginPath, loginBody(testUser, testPassword), "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get(middleware.HeaderRateLimitRemaining) != "0" {
		t.Fatalf("expected 429 with headers, got %d %v", rr.Code, rr.Header())
	}

	rr = do(engine, "GET", SessionPath, "", "")
	if rr.Header().Get(middleware.HeaderRateLimitLimit) != "" {
		t.Error("/session must not be rate limited")
	}
}
