package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/example/conschedule/internal/application"
	"github.com/example/conschedule/internal/scheduler"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func signToken(t *testing.T, subject string, method jwt.SigningMethod, secret string, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(expires)}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

type desiredServiceStub struct {
	result  application.AddDesiredEventResult
	err     error
	userID  string
	eventID string
}

func (s *desiredServiceStub) AddDesiredEvent(ctx context.Context, userID, eventID string) (application.AddDesiredEventResult, error) {
	s.userID, s.eventID = userID, eventID
	return s.result, s.err
}

func (s *desiredServiceStub) RemoveDesiredEvent(ctx context.Context, userID, eventID string) error {
	s.userID, s.eventID = userID, eventID
	return s.err
}

type conflictServiceStub struct {
	result      scheduler.ConflictResult
	commitments []scheduler.Commitment
	err         error
	query       application.ConflictQuery
}

func (s *conflictServiceStub) CheckConflicts(ctx context.Context, principal application.Principal, query application.ConflictQuery) (scheduler.ConflictResult, error) {
	s.query = query
	return s.result, s.err
}

func (s *conflictServiceStub) ListCommitments(ctx context.Context, principal application.Principal) ([]scheduler.Commitment, error) {
	return s.commitments, s.err
}

type capacityServiceStub struct {
	capacity application.EventCapacity
	err      error
}

func (s *capacityServiceStub) EventCapacity(ctx context.Context, eventID string) (application.EventCapacity, error) {
	return s.capacity, s.err
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(ctx context.Context) error {
	return p.err
}

type testServer struct {
	router    *gin.Engine
	desired   *desiredServiceStub
	conflicts *conflictServiceStub
	capacity  *capacityServiceStub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		desired:   &desiredServiceStub{},
		conflicts: &conflictServiceStub{},
		capacity:  &capacityServiceStub{},
	}
	s.router = NewRouter(RouterConfig{
		DesiredEvents: NewDesiredEventHandler(s.desired, nil),
		Schedule:      NewScheduleHandler(s.conflicts, nil),
		Capacity:      NewCapacityHandler(s.capacity, nil),
		Health:        NewHealthHandler(pingerStub{}, nil),
		Auth:          RequireBearer(NewJWTVerifier(testSecret), nil),
		Middleware:    []gin.HandlerFunc{RequestLogger(nil)},
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", jwt.SigningMethodHS256, testSecret, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestDesiredEventHandlers(t *testing.T) {
	t.Parallel()

	t.Run("add returns advisory conflicts and capacity warning", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		start := time.Date(2025, time.July, 19, 10, 0, 0, 0, time.UTC)
		s.desired.result = application.AddDesiredEventResult{
			DesiredEvent: application.EventSignup{ID: "d-2", UserID: "user-1", EventID: "B"},
			Conflicts: []scheduler.Commitment{{
				ID: "d-1", EventID: "A", Title: "Event A",
				Window:     scheduler.NewTimeWindow(start, start.Add(4*time.Hour)),
				SourceKind: scheduler.SourceKindDesired, SourceLabel: scheduler.SourceKindDesired.Label(),
			}},
			CapacityWarning: true,
		}

		rec := s.do(t, http.MethodPost, "/me/desired-events", `{"event_id":" B "}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if s.desired.userID != "user-1" || s.desired.eventID != "B" {
			t.Fatalf("unexpected service call user=%q event=%q", s.desired.userID, s.desired.eventID)
		}
		resp := decode[addDesiredEventResponse](t, rec)
		if !resp.CapacityWarning || len(resp.Conflicts) != 1 || resp.Conflicts[0].SourceKind != "desired" {
			t.Fatalf("unexpected response %+v", resp)
		}
		if rec.Header().Get(requestIDHeader) == "" {
			t.Fatalf("expected a request id header")
		}
	})

	t.Run("maps service errors to statuses", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{application.ErrAlreadyRegistered, http.StatusConflict, "ALREADY_REGISTERED"},
			{application.ErrEventNotFound, http.StatusNotFound, "EVENT_NOT_FOUND"},
			{application.ErrUnauthorized, http.StatusForbidden, "FORBIDDEN"},
			{fmt.Errorf("%w: %w", application.ErrStorageUnavailable, errors.New("locked")), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
			{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
		}
		for _, tc := range cases {
			s := newTestServer(t)
			s.desired.err = tc.err
			rec := s.do(t, http.MethodPost, "/me/desired-events", `{"event_id":"A"}`)
			if rec.Code != tc.status {
				t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
			}
			if resp := decode[errorResponse](t, rec); resp.ErrorCode != tc.code {
				t.Fatalf("%v: expected code %s, got %+v", tc.err, tc.code, resp)
			}
		}
	})

	t.Run("rejects a body without event id", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		if rec := s.do(t, http.MethodPost, "/me/desired-events", `{}`); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("remove", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		if rec := s.do(t, http.MethodDelete, "/me/desired-events/A", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		s.desired.err = application.ErrNotFound
		if rec := s.do(t, http.MethodDelete, "/me/desired-events/A", ""); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestScheduleHandlers(t *testing.T) {
	t.Parallel()

	t.Run("conflict query forwards window and exclusion", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		rec := s.do(t, http.MethodPost, "/me/conflicts",
			`{"start":"2025-07-19T10:00:00Z","end":"2025-07-19T12:00:00Z","exclude":{"id":"pe-1","source_kind":"personal"}}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		q := s.conflicts.query
		if !q.Window.Complete() || q.Exclude == nil || q.Exclude.SourceKind != scheduler.SourceKindPersonal {
			t.Fatalf("unexpected query %+v", q)
		}
		if resp := decode[conflictResponse](t, rec); resp.Conflicts == nil {
			t.Fatalf("expected an empty conflicts array, got %s", rec.Body.String())
		}
	})

	t.Run("invalid window is unprocessable", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		s.conflicts.err = application.ErrInvalidWindow
		if rec := s.do(t, http.MethodPost, "/me/conflicts", `{"start":"2025-07-19T10:00:00Z"}`); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("ics export", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		start := time.Date(2025, time.July, 19, 10, 0, 0, 0, time.UTC)
		s.conflicts.commitments = []scheduler.Commitment{{
			ID: "d-1", Title: "Event A", Window: scheduler.NewTimeWindow(start, start.Add(time.Hour)),
			SourceKind: scheduler.SourceKindDesired,
		}}
		rec := s.do(t, http.MethodGet, "/me/schedule.ics", "")
		if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") {
			t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get("Content-Type"))
		}
		if !strings.Contains(rec.Body.String(), "SUMMARY:Event A") {
			t.Fatalf("expected event in calendar, got %s", rec.Body.String())
		}
	})
}

func TestCapacityHandler(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	tickets := 3
	s.capacity.capacity = application.EventCapacity{EventID: "C", TicketsAvailable: &tickets, SignupCount: 3, AtCapacity: true}

	rec := s.do(t, http.MethodGet, "/events/C/capacity", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[capacityResponse](t, rec)
	if !resp.AtCapacity || resp.CurrentSignupCount != 3 || resp.TicketsAvailable == nil || *resp.TicketsAvailable != 3 {
		t.Fatalf("unexpected capacity %+v", resp)
	}
}

func TestRequireBearer(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	cases := map[string]string{
		"missing":      "",
		"malformed":    "Token abc",
		"wrong secret": "Bearer " + signToken(t, "user-1", jwt.SigningMethodHS256, "other", time.Now().Add(time.Hour)),
		"expired":      "Bearer " + signToken(t, "user-1", jwt.SigningMethodHS256, testSecret, time.Now().Add(-time.Hour)),
		"no subject":   "Bearer " + signToken(t, "", jwt.SigningMethodHS256, testSecret, time.Now().Add(time.Hour)),
		"wrong alg":    "Bearer " + signToken(t, "user-1", jwt.SigningMethodHS512, testSecret, time.Now().Add(time.Hour)),
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me/schedule", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health check without auth, got %d", rec.Code)
	}
}

func TestHealthHandlerReportsStorageFailure(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Health: NewHealthHandler(pingerStub{err: errors.New("down")}, nil)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
