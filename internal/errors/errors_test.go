package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := DatabaseError("query failed").WithCause(cause)

	if !errors.Is(appErr, cause) {
		t.Error("expected the cause to be reachable through errors.Is")
	}
	if appErr.Error() == "" {
		t.Error("expected a non-empty error string")
	}
}

func TestWriteError_AppError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, "req-123", ChatbotNotFound())

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if got := w.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("expected request ID header, got %q", got)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != CodeChatbotNotFound {
		t.Errorf("expected code %s, got %s", CodeChatbotNotFound, resp.Error.Code)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("expected request ID in body, got %q", resp.Error.RequestID)
	}
}

func TestWriteError_UnknownErrorWrapped(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, "", errors.New("something leaked"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != CodeInternalError {
		t.Errorf("expected code %s, got %s", CodeInternalError, resp.Error.Code)
	}
	// The raw error text must not reach the client
	if resp.Error.Message == "something leaked" {
		t.Error("internal error details must not leak into responses")
	}
}

func TestInvalidCredentials_FixedMessage(t *testing.T) {
	a := InvalidCredentials()
	b := InvalidCredentials()

	if a.Message != b.Message {
		t.Error("invalid credentials responses must carry one fixed message")
	}
	if a.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", a.HTTPStatus)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generates when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Error("expected a generated request ID in the context")
		}
		if w.Header().Get(RequestIDHeader) != seen {
			t.Error("expected the same request ID in the response header")
		}
	})

	t.Run("propagates when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "client-supplied")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen != "client-supplied" {
			t.Errorf("expected the client's request ID, got %q", seen)
		}
	})
}

func TestCategoryHelpers(t *testing.T) {
	if !IsClientError(ValidationError("bad")) {
		t.Error("validation errors are client errors")
	}
	if !IsServerError(InternalError("boom")) {
		t.Error("internal errors are server errors")
	}
	if IsClientError(errors.New("plain")) || IsServerError(errors.New("plain")) {
		t.Error("plain errors belong to no category")
	}
}
