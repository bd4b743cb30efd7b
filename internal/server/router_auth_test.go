package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/auth"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubSessionValidator struct {
	requestErr error
	tokenErr   error
	claims     auth.SessionClaims
	seenTokens *[]string
}

func (s stubSessionValidator) ValidateRequest(*http.Request) (auth.SessionClaims, error) {
	if s.requestErr != nil {
		return auth.SessionClaims{}, s.requestErr
	}
	return s.claims, nil
}

func (s stubSessionValidator) ValidateToken(token string) (auth.SessionClaims, error) {
	if s.seenTokens != nil {
		*s.seenTokens = append(*s.seenTokens, token)
	}
	if s.tokenErr != nil {
		return auth.SessionClaims{}, s.tokenErr
	}
	return s.claims, nil
}

type stubViewerResolver struct {
	err error
}

func (s stubViewerResolver) ResolveViewer(claims auth.SessionClaims) (views.Viewer, error) {
	if s.err != nil {
		return views.Viewer{}, s.err
	}
	return views.NewViewer(claims.UserID, claims.Role())
}

func newAuthTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	ctx.Request = httptest.NewRequest(http.MethodGet, target, http.NoBody)
	return ctx, recorder
}

func TestAuthorizeRequestLogLevels(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		wantLevel zapcore.Level
	}{
		{name: "expired token", err: auth.ErrExpiredSessionToken, wantLevel: zapcore.InfoLevel},
		{name: "missing token", err: auth.ErrMissingSessionToken, wantLevel: zapcore.InfoLevel},
		{name: "signature mismatch", err: errors.New("signature mismatch"), wantLevel: zapcore.WarnLevel},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctx, recorder := newAuthTestContext("/views")
			core, logs := observer.New(zapcore.DebugLevel)
			handler := &httpHandler{
				sessions: stubSessionValidator{requestErr: testCase.err},
				viewers:  stubViewerResolver{},
				logger:   zap.New(core),
			}

			handler.authorizeRequest(ctx)

			if recorder.Code != http.StatusUnauthorized {
				t.Fatalf("unexpected status code: got %d, want %d", recorder.Code, http.StatusUnauthorized)
			}
			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("expected exactly one log entry, got %d", len(entries))
			}
			entry := entries[0]
			if entry.Level != testCase.wantLevel {
				t.Fatalf("expected %s level, got %s", testCase.wantLevel, entry.Level)
			}
			if entry.Message != "token validation failed" {
				t.Fatalf("unexpected log message: %q", entry.Message)
			}
			hasCause := false
			for _, field := range entry.Context {
				if field.Type == zapcore.ErrorType && errors.Is(field.Interface.(error), testCase.err) {
					hasCause = true
				}
			}
			if !hasCause {
				t.Fatalf("expected error context, got %v", entry.Context)
			}
		})
	}
}

func TestAuthorizeRequestFallsBackToQueryToken(t *testing.T) {
	ctx, recorder := newAuthTestContext("/events/stream?access_token=stream-token")
	var seen []string
	handler := &httpHandler{
		sessions: stubSessionValidator{
			requestErr: auth.ErrMissingSessionToken,
			claims:     auth.SessionClaims{UserID: "artist-a"},
			seenTokens: &seen,
		},
		viewers: stubViewerResolver{},
		logger:  zap.NewNop(),
	}

	handler.authorizeRequest(ctx)

	if recorder.Code != http.StatusOK || ctx.IsAborted() {
		t.Fatalf("expected request to pass, got %d", recorder.Code)
	}
	if len(seen) != 1 || seen[0] != "stream-token" {
		t.Fatalf("expected query token to be validated, got %v", seen)
	}
	viewer, ok := viewerFrom(ctx)
	if !ok || viewer.UserID != "artist-a" || viewer.IsAdmin() {
		t.Fatalf("unexpected viewer: %+v", viewer)
	}
}

func TestAuthorizeRequestIgnoresQueryTokenWhenHeaderIsInvalid(t *testing.T) {
	ctx, recorder := newAuthTestContext("/views?access_token=other")
	var seen []string
	handler := &httpHandler{
		sessions: stubSessionValidator{requestErr: auth.ErrInvalidSessionToken, seenTokens: &seen},
		viewers:  stubViewerResolver{},
		logger:   zap.NewNop(),
	}

	handler.authorizeRequest(ctx)

	if recorder.Code != http.StatusUnauthorized || len(seen) != 0 {
		t.Fatalf("expected rejection without query fallback, got %d and %v", recorder.Code, seen)
	}
}

func TestAuthorizeRequestRejectsUnresolvableViewer(t *testing.T) {
	ctx, recorder := newAuthTestContext("/views")
	core, logs := observer.New(zapcore.DebugLevel)
	handler := &httpHandler{
		sessions: stubSessionValidator{claims: auth.SessionClaims{UserID: "artist-a"}},
		viewers:  stubViewerResolver{err: errors.New("database unavailable")},
		logger:   zap.New(core),
	}

	handler.authorizeRequest(ctx)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: %d", recorder.Code)
	}
	if logs.FilterMessage("viewer resolution failed").Len() != 1 {
		t.Fatalf("expected viewer resolution warning, got %v", logs.All())
	}
}

func TestNewHTTPHandlerRequiresDependencies(t *testing.T) {
	if _, err := NewHTTPHandler(Dependencies{}); !errors.Is(err, errMissingSessionValidator) {
		t.Fatalf("expected missing validator error, got %v", err)
	}
	if _, err := NewHTTPHandler(Dependencies{Sessions: stubSessionValidator{}}); !errors.Is(err, errMissingViewerResolver) {
		t.Fatalf("expected missing resolver error, got %v", err)
	}
	if _, err := NewHTTPHandler(Dependencies{Sessions: stubSessionValidator{}, Viewers: stubViewerResolver{}}); !errors.Is(err, errMissingRegistry) {
		t.Fatalf("expected missing registry error, got %v", err)
	}
}
