package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"roster/internal/api"
	"roster/internal/auth"
	"roster/internal/roster"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := roster.NewMemStore()
	hash, err := auth.HashPassword("admin")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}
	if _, err := store.CreateAccount(context.Background(), "admin", hash); err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}

	r := gin.New()
	api.New(roster.NewService(store), auth.NewMemoryStore(time.Hour), time.Hour).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newLoggedInSync(t *testing.T) *Synchronizer {
	t.Helper()
	srv := newTestServer(t)

	apiClient, err := NewAPI(srv.URL)
	if err != nil {
		t.Fatalf("NewAPI() failed: %v", err)
	}
	sync := NewSynchronizer(apiClient)
	if err := sync.Login(context.Background(), "admin", "admin"); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	return sync
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	apiClient, err := NewAPI(srv.URL)
	if err != nil {
		t.Fatalf("NewAPI() failed: %v", err)
	}

	sync := NewSynchronizer(apiClient)
	err = sync.Login(context.Background(), "admin", "wrong")
	if err == nil {
		t.Fatal("Login() with bad password succeeded")
	}
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Status != 401 || apiErr.Message != "Invalid credentials" {
		t.Errorf("Login() error = %v, want 401 Invalid credentials", err)
	}
}

func TestCheckAuthFollowsSession(t *testing.T) {
	srv := newTestServer(t)
	apiClient, err := NewAPI(srv.URL)
	if err != nil {
		t.Fatalf("NewAPI() failed: %v", err)
	}
	ctx := context.Background()

	ok, _, err := apiClient.CheckAuth(ctx)
	if err != nil || ok {
		t.Fatalf("CheckAuth() before login = %v, %v; want false", ok, err)
	}

	sync := NewSynchronizer(apiClient)
	if err := sync.Login(ctx, "admin", "admin"); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	ok, username, err := apiClient.CheckAuth(ctx)
	if err != nil || !ok || username != "admin" {
		t.Errorf("CheckAuth() after login = %v, %q, %v", ok, username, err)
	}

	if err := sync.Logout(ctx); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	ok, _, err = apiClient.CheckAuth(ctx)
	if err != nil || ok {
		t.Errorf("CheckAuth() after logout = %v, %v; want false", ok, err)
	}
	if sync.Username() != "" || len(sync.Students()) != 0 {
		t.Error("Logout() left the cache populated")
	}
}

func TestSynchronizerReloadsAfterMutations(t *testing.T) {
	sync := newLoggedInSync(t)
	ctx := context.Background()

	if n := len(sync.Students()); n != 0 {
		t.Fatalf("fresh account cache has %d students", n)
	}

	if err := sync.Add(ctx, roster.Student{ID: "S1", Name: "Ann"}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	students := sync.Students()
	if len(students) != 1 || students[0] != (roster.Student{ID: "S1", Name: "Ann", Attendance: roster.Present}) {
		t.Fatalf("cache after Add() = %v", students)
	}
	if sync.Stats() != (roster.Stats{Total: 1, Present: 1}) {
		t.Errorf("stats after Add() = %v", sync.Stats())
	}

	// The attendance toggle goes through the same reload path.
	if err := sync.SetAttendance(ctx, "S1", roster.Absent); err != nil {
		t.Fatalf("SetAttendance() failed: %v", err)
	}
	if got := sync.Students()[0].Attendance; got != roster.Absent {
		t.Errorf("cache attendance = %q, want absent", got)
	}
	if sync.Stats() != (roster.Stats{Total: 1, Absent: 1}) {
		t.Errorf("stats after toggle = %v", sync.Stats())
	}

	// A failed mutation leaves the cache untouched.
	if err := sync.SetAttendance(ctx, "S1", "late"); err == nil {
		t.Fatal("SetAttendance(late) succeeded")
	}
	if got := sync.Students()[0].Attendance; got != roster.Absent {
		t.Errorf("cache changed by failed mutation: %q", got)
	}

	if err := sync.Update(ctx, "S1", roster.Student{ID: "S2", Name: "Anna", Attendance: roster.Absent}); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if got := sync.Students()[0]; got.ID != "S2" || got.Name != "Anna" {
		t.Errorf("cache after rename = %v", got)
	}

	if err := sync.Delete(ctx, "S2"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if len(sync.Students()) != 0 {
		t.Errorf("cache after Delete() = %v", sync.Students())
	}
}

func TestClearAll(t *testing.T) {
	sync := newLoggedInSync(t)
	ctx := context.Background()

	for _, st := range []roster.Student{
		{ID: "S1", Name: "Ann"},
		{ID: "S2", Name: "Bea", Attendance: roster.Absent},
		{ID: "S3", Name: "Cal"},
	} {
		if err := sync.Add(ctx, st); err != nil {
			t.Fatalf("Add(%v) failed: %v", st, err)
		}
	}

	if err := sync.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() failed: %v", err)
	}
	if len(sync.Students()) != 0 {
		t.Errorf("cache after ClearAll() = %v", sync.Students())
	}
	if sync.Stats() != (roster.Stats{}) {
		t.Errorf("stats after ClearAll() = %v", sync.Stats())
	}
}

func TestStudentsReturnsACopy(t *testing.T) {
	sync := newLoggedInSync(t)
	ctx := context.Background()

	if err := sync.Add(ctx, roster.Student{ID: "S1", Name: "Ann"}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	snapshot := sync.Students()
	snapshot[0].Name = "mutated"
	if sync.Students()[0].Name != "Ann" {
		t.Error("Students() exposed the internal cache")
	}
}
