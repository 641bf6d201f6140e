package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNoSession, "no session", http.StatusNotFound)
	if err.Code != ErrCodeNoSession {
		t.Errorf("expected code %s, got %s", ErrCodeNoSession, err.Code)
	}
	if err.Message != "no session" {
		t.Errorf("expected message 'no session', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NO_SESSION should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_LoginFailed_Success(t *testing.T) {
	cause := fmt.Errorf("401 from server")
	err := LoginFailed(cause)
	if err.Code != ErrCodeLoginFailed {
		t.Errorf("expected LOGIN_FAILED, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", err.HTTPStatus)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if !strings.Contains(err.Message, "check your username and password") {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAppError_Internal_Success(t *testing.T) {
	cause := fmt.Errorf("keyring locked")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", err.HTTPStatus)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
	if err.Retryable {
		t.Error("Internal should NOT be retryable by default")
	}
}

func TestAppError_Unauthorized_DefaultMessage(t *testing.T) {
	err := Unauthorized("")
	if err.Message != "Authentication required." {
		t.Errorf("expected default message, got %q", err.Message)
	}
	if got := Unauthorized("missing bearer token").Message; got != "missing bearer token" {
		t.Errorf("expected custom message, got %q", got)
	}
}

func TestAppError_InvalidInput_Success(t *testing.T) {
	err := InvalidInput("username", "must not be empty")
	if err.Details["field"] != "username" {
		t.Errorf("expected field=username, got %v", err.Details["field"])
	}
	if InvalidInput("", "x").Details["field"] != nil {
		t.Error("expected no field detail when field is empty")
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NoSession(nil).WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := ServiceUnavailable("auth server").WithDetails(map[string]any{
		"extra": "info",
	})
	if err.Details["extra"] != "info" {
		t.Errorf("expected extra=info in details")
	}
	if err.Details["service"] != "auth server" {
		t.Error("expected original details to be preserved")
	}

	err.WithDetails(map[string]any{"another": "detail"})
	if err.Details["another"] != "detail" || err.Details["extra"] != "info" {
		t.Error("expected second merge to keep earlier details")
	}
}

func TestAppError_WithDetails_Nil(t *testing.T) {
	err := Internal(nil).WithDetails(nil)
	if err.Details == nil {
		t.Fatal("expected Details map to be initialized even with nil input")
	}
}

func TestAppError_WithDetail_Single(t *testing.T) {
	err := &AppError{}
	err.WithDetail("remaining", 0)
	if err.Details["remaining"] != 0 {
		t.Errorf("expected remaining=0, got %v", err.Details["remaining"])
	}
	err.WithDetail("remaining", 2)
	if err.Details["remaining"] != 2 {
		t.Errorf("expected overwrite, got %v", err.Details["remaining"])
	}
}

func TestAppError_Error_Format(t *testing.T) {
	s := AlreadyLoggedIn().Error()
	if !strings.Contains(s, "ALREADY_LOGGED_IN") {
		t.Errorf("expected error string to contain code, got %q", s)
	}
	if !strings.Contains(s, "already logged in") {
		t.Errorf("expected error string to contain message, got %q", s)
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("api"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"Timeout", Timeout("login"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"RateLimited", RateLimited(), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"AlreadyLoggedIn", AlreadyLoggedIn(), ErrCodeAlreadyLoggedIn, http.StatusConflict, false},
		{"ConcurrentLogin", ConcurrentLogin(), ErrCodeConcurrentLogin, http.StatusConflict, false},
		{"LoginFailed", LoginFailed(nil), ErrCodeLoginFailed, http.StatusUnauthorized, false},
		{"NoSession", NoSession(nil), ErrCodeNoSession, http.StatusNotFound, false},
		{"MissingField", MissingField("password"), ErrCodeMissingField, http.StatusBadRequest, false},
		{"InvalidToken", InvalidToken(), ErrCodeInvalidToken, http.StatusUnauthorized, false},
		{"ExternalServiceError", ExternalServiceError("redis", nil), ErrCodeExternalService, http.StatusBadGateway, true},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, http.StatusBadRequest, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestErrorCode_IsRetryableCode_Table(t *testing.T) {
	retryable := []ErrorCode{ErrCodeServiceUnavailable, ErrCodeTimeout, ErrCodeRateLimited, ErrCodeExternalService}
	for _, code := range retryable {
		if !IsRetryableCode(code) {
			t.Errorf("expected %s to be retryable", code)
		}
	}

	nonRetryable := []ErrorCode{ErrCodeAlreadyLoggedIn, ErrCodeConcurrentLogin, ErrCodeLoginFailed, ErrCodeNoSession, ErrCodeUnauthorized, ErrCodeInternal}
	for _, code := range nonRetryable {
		if IsRetryableCode(code) {
			t.Errorf("expected %s to NOT be retryable", code)
		}
	}
}

func TestAppError_ToResponse_Success(t *testing.T) {
	resp := RateLimited().WithDetail("retry_after", 30).ToResponse()
	if resp.Error.Code != ErrCodeRateLimited {
		t.Errorf("expected code RATE_LIMITED in response, got %s", resp.Error.Code)
	}
	if !resp.Error.Retryable {
		t.Error("expected retryable=true in response")
	}
	if resp.Error.Details["retry_after"] != 30 {
		t.Error("expected retry_after in response details")
	}
}

func TestAppError_AsAppError_Success(t *testing.T) {
	wrapped := fmt.Errorf("wrap: %w", InvalidToken())

	if !IsAppError(wrapped) {
		t.Error("expected IsAppError to see through wrapping")
	}
	got, ok := AsAppError(wrapped)
	if !ok || got.Code != ErrCodeInvalidToken {
		t.Fatalf("expected INVALID_TOKEN, got %v %v", got, ok)
	}

	if _, ok := AsAppError(fmt.Errorf("not an app error")); ok {
		t.Error("expected AsAppError to return false for non-AppError")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	orig := ConcurrentLogin()
	if Wrap(orig) != orig {
		t.Error("Wrap should return the original AppError unchanged")
	}
	if Wrap(fmt.Errorf("outer: %w", orig)).Code != ErrCodeConcurrentLogin {
		t.Error("Wrap should unwrap nested AppErrors")
	}

	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("expected INTERNAL_ERROR with cause, got %+v", got)
	}
}
