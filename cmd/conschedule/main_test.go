package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/example/conschedule/internal/config"
	"github.com/example/conschedule/internal/testfixtures"
)

const testSecret = "integration-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	t       *testing.T
	harness *testfixtures.SQLiteHarness
	server  *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	harness := testfixtures.NewSQLiteHarness(t)
	cfg := config.Default()
	cfg.JWTSecret = testSecret
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	server := httptest.NewServer(newRouter(harness.Storage, cfg, logger, testfixtures.NewClock(time.Time{}).NowFunc()))
	t.Cleanup(server.Close)
	return &testServer{t: t, harness: harness, server: server}
}

func (s *testServer) request(method, path, userID string, body any) *http.Request {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	if err != nil {
		s.t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(s.t, userID))
	}
	return req
}

func (s *testServer) do(method, path, userID string, body any) (int, []byte) {
	s.t.Helper()

	resp, err := s.server.Client().Do(s.request(method, path, userID, body))
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type conflictBody struct {
	ID         string `json:"id"`
	SourceKind string `json:"source_kind"`
}

type addResponse struct {
	Conflicts       []conflictBody `json:"conflicts"`
	CapacityWarning bool           `json:"capacity_warning"`
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestAddDesiredEventReportsPersonalConflict(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := testfixtures.NewUserFixture()
	panel := testfixtures.NewEventFixture(testfixtures.WithEventHours(11, 13))
	meetup := testfixtures.NewPersonalEventFixture(alice.ID, testfixtures.WithPersonalEventHours(10, 12))
	s.harness.SeedUsers(alice)
	s.harness.SeedEvents(panel)
	s.harness.SeedPersonalEvents(meetup)

	status, body := s.do(http.MethodPost, "/me/desired-events", alice.ID, map[string]string{"event_id": panel.ID})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	resp := decode[addResponse](t, body)
	if len(resp.Conflicts) != 1 || resp.Conflicts[0].ID != meetup.ID || resp.Conflicts[0].SourceKind != "personal" {
		t.Fatalf("expected the meetup as the only conflict, got %+v", resp.Conflicts)
	}
	if resp.CapacityWarning {
		t.Fatalf("expected no capacity warning for unlimited seating")
	}

	status, body = s.do(http.MethodPost, "/me/desired-events", alice.ID, map[string]string{"event_id": panel.ID})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on second add, got %d: %s", status, body)
	}
}

func TestAddDesiredEventCapacityWarning(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	users := []testfixtures.UserFixture{
		testfixtures.NewUserFixture(),
		testfixtures.NewUserFixture(),
		testfixtures.NewUserFixture(),
		testfixtures.NewUserFixture(),
	}
	panel := testfixtures.NewEventFixture(testfixtures.WithTickets(3))
	s.harness.SeedUsers(users...)
	s.harness.SeedEvents(panel)
	s.harness.SeedDesired(panel.ID, users[0].ID, users[1].ID, users[2].ID)

	status, body := s.do(http.MethodPost, "/me/desired-events", users[3].ID, map[string]string{"event_id": panel.ID})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	if !decode[addResponse](t, body).CapacityWarning {
		t.Fatalf("expected a capacity warning at 3 of 3")
	}

	status, body = s.do(http.MethodGet, "/events/"+panel.ID+"/capacity", users[0].ID, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	capacity := decode[struct {
		Count      int  `json:"current_signup_count"`
		AtCapacity bool `json:"at_capacity"`
	}](t, body)
	if capacity.Count != 4 || !capacity.AtCapacity {
		t.Fatalf("expected 4 signups at capacity, got %+v", capacity)
	}
}

func TestConcurrentAddRegistersOnce(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := testfixtures.NewUserFixture()
	panel := testfixtures.NewEventFixture()
	s.harness.SeedUsers(alice)
	s.harness.SeedEvents(panel)

	requests := []*http.Request{
		s.request(http.MethodPost, "/me/desired-events", alice.ID, map[string]string{"event_id": panel.ID}),
		s.request(http.MethodPost, "/me/desired-events", alice.ID, map[string]string{"event_id": panel.ID}),
	}
	statuses := make([]int, len(requests))
	errs := make([]error, len(requests))

	var wg sync.WaitGroup
	for i, req := range requests {
		i, req := i, req
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.server.Client().Do(req)
			if err != nil {
				errs[i] = err
				return
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
	}

	created, conflicted := 0, 0
	for _, status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		}
	}
	if created != 1 || conflicted != 1 {
		t.Fatalf("expected one 201 and one 409, got %v", statuses)
	}

	count, err := s.harness.Storage.DesiredEvents.CountSignupsForEvent(context.Background(), panel.ID)
	if err != nil || count != 1 {
		t.Fatalf("expected exactly one stored signup, got %d (%v)", count, err)
	}
}

func TestCheckConflictsFindsPurchasedTicketByName(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := testfixtures.NewUserFixture(testfixtures.WithUserName("Alice", "Liddell"))
	kept := testfixtures.NewEventFixture(testfixtures.WithEventHours(10, 12))
	refunded := testfixtures.NewEventFixture(testfixtures.WithEventHours(10, 12))
	s.harness.SeedUsers(alice)
	s.harness.SeedEvents(kept, refunded)
	ticket := testfixtures.NewPurchaseFixture(kept.ID, "Alice Liddell")
	s.harness.SeedPurchases(ticket, testfixtures.NewPurchaseFixture(refunded.ID, "Alice Liddell").Refund())

	status, body := s.do(http.MethodPost, "/me/conflicts", alice.ID, map[string]any{
		"start": testfixtures.At(11),
		"end":   testfixtures.At(12),
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	resp := decode[struct {
		HasConflicts bool           `json:"has_conflicts"`
		Conflicts    []conflictBody `json:"conflicts"`
	}](t, body)
	if !resp.HasConflicts || len(resp.Conflicts) != 1 || resp.Conflicts[0].ID != ticket.ID || resp.Conflicts[0].SourceKind != "purchased" {
		t.Fatalf("expected only the unrefunded ticket, got %+v", resp)
	}

	status, body = s.do(http.MethodPost, "/me/conflicts", alice.ID, map[string]any{
		"start": testfixtures.At(12),
		"end":   testfixtures.At(11),
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a reversed window, got %d: %s", status, body)
	}
}

func TestPersonalEventLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := testfixtures.NewUserFixture()
	bob := testfixtures.NewUserFixture()
	panel := testfixtures.NewEventFixture(testfixtures.WithEventHours(14, 16))
	s.harness.SeedUsers(alice, bob)
	s.harness.SeedEvents(panel)
	s.harness.SeedTracked(panel.ID, alice.ID)

	status, body := s.do(http.MethodPost, "/me/personal-events", alice.ID, map[string]any{
		"title":        "Dinner",
		"start":        testfixtures.At(15),
		"end":          testfixtures.At(17),
		"attendee_ids": []string{bob.ID},
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	created := decode[struct {
		PersonalEvent struct {
			ID string `json:"id"`
		} `json:"personal_event"`
		Conflicts []conflictBody `json:"conflicts"`
	}](t, body)
	if len(created.Conflicts) != 1 || created.Conflicts[0].SourceKind != "tracked" {
		t.Fatalf("expected the tracked panel as conflict, got %+v", created.Conflicts)
	}

	status, body = s.do(http.MethodGet, "/me/schedule", bob.ID, nil)
	if status != http.StatusOK || !strings.Contains(string(body), created.PersonalEvent.ID) {
		t.Fatalf("expected bob's schedule to include the dinner, got %d: %s", status, body)
	}

	status, _ = s.do(http.MethodDelete, "/me/personal-events/"+created.PersonalEvent.ID, bob.ID, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-creator delete, got %d", status)
	}
	status, _ = s.do(http.MethodDelete, "/me/personal-events/"+created.PersonalEvent.ID, alice.ID, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}

	status, body = s.do(http.MethodPost, "/me/personal-events", alice.ID, map[string]any{
		"title":        "Ghost meeting",
		"start":        testfixtures.At(9),
		"end":          testfixtures.At(10),
		"attendee_ids": []string{"ghost"},
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for an unknown attendee, got %d: %s", status, body)
	}
}

func TestScheduleExportAndAuth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := testfixtures.NewUserFixture()
	panel := testfixtures.NewEventFixture()
	s.harness.SeedUsers(alice)
	s.harness.SeedEvents(panel)
	s.harness.SeedDesired(panel.ID, alice.ID)

	status, body := s.do(http.MethodGet, "/me/schedule.ics", alice.ID, nil)
	if status != http.StatusOK || !strings.Contains(string(body), "BEGIN:VCALENDAR") || !strings.Contains(string(body), panel.Title) {
		t.Fatalf("expected a calendar containing %q, got %d: %s", panel.Title, status, body)
	}

	if status, _ := s.do(http.MethodGet, "/me/schedule", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", status)
	}
	if status, _ := s.do(http.MethodGet, "/healthz", "", nil); status != http.StatusOK {
		t.Fatalf("expected healthz to be open, got %d", status)
	}
}

func TestUserDirectoryAdapter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	named := testfixtures.NewUserFixture(testfixtures.WithUserName("Ada", "Lovelace"))
	configured := testfixtures.NewUserFixture(testfixtures.WithUserDisplayName("The Countess"))
	harness.SeedUsers(named, configured)

	directory := newUserDirectoryAdapter(harness.Storage.Users)

	if name, err := directory.ResolveDisplayName(ctx, named.ID); err != nil || name != "Ada Lovelace" {
		t.Fatalf("expected joined name, got %q (%v)", name, err)
	}
	if name, err := directory.ResolveDisplayName(ctx, configured.ID); err != nil || name != "The Countess" {
		t.Fatalf("expected configured name, got %q (%v)", name, err)
	}

	missing, err := directory.MissingUserIDs(ctx, []string{named.ID, "ghost", "ghost", configured.ID})
	if err != nil {
		t.Fatalf("MissingUserIDs failed: %v", err)
	}
	if len(missing) != 1 || missing[0] != "ghost" {
		t.Fatalf("expected [ghost], got %v", missing)
	}
}
