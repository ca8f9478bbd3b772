package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"roster/internal/roster"
)

// API is a thin HTTP client for the roster server. The cookie jar carries
// the session cookie, so every call after Login is authenticated.
type API struct {
	base string
	http *http.Client
}

// NewAPI creates a client for the server at base, e.g. "http://127.0.0.1:3000".
func NewAPI(base string) (*API, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &API{
		base: strings.TrimRight(base, "/") + "/api",
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}, nil
}

// APIError is a non-2xx response decoded from the server's {error} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

// User is the public account info returned by login.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Login establishes a session; the cookie jar keeps the token.
func (a *API) Login(ctx context.Context, username, password string) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	err := a.do(ctx, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	return resp.User, err
}

// Logout destroys the current session.
func (a *API) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// CheckAuth reports whether the jar holds a live session.
func (a *API) CheckAuth(ctx context.Context) (bool, string, error) {
	var resp struct {
		Authenticated bool   `json:"authenticated"`
		Username      string `json:"username"`
	}
	if err := a.do(ctx, http.MethodGet, "/auth/check", nil, &resp); err != nil {
		return false, "", err
	}
	return resp.Authenticated, resp.Username, nil
}

// ListStudents fetches the full roster.
func (a *API) ListStudents(ctx context.Context) ([]roster.Student, error) {
	var students []roster.Student
	err := a.do(ctx, http.MethodGet, "/students", nil, &students)
	return students, err
}

// AddStudent creates a record.
func (a *API) AddStudent(ctx context.Context, st roster.Student) error {
	return a.do(ctx, http.MethodPost, "/students", map[string]any{
		"id": st.ID, "name": st.Name, "attendance": st.Attendance,
	}, nil)
}

// UpdateStudent rewrites the record stored under oldID.
func (a *API) UpdateStudent(ctx context.Context, oldID string, st roster.Student) error {
	return a.do(ctx, http.MethodPut, "/students/"+oldID, map[string]any{
		"id": st.ID, "name": st.Name, "attendance": st.Attendance,
	}, nil)
}

// SetAttendance flips one record's attendance.
func (a *API) SetAttendance(ctx context.Context, id string, att roster.Attendance) error {
	return a.do(ctx, http.MethodPatch, "/students/"+id+"/attendance", map[string]any{
		"attendance": att,
	}, nil)
}

// DeleteStudent removes one record.
func (a *API) DeleteStudent(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/students/"+id, nil, nil)
}

// ClearStudents removes every record in one batched call.
func (a *API) ClearStudents(ctx context.Context) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	err := a.do(ctx, http.MethodDelete, "/students", nil, &resp)
	return resp.Deleted, err
}

// Statistics fetches aggregate attendance counts.
func (a *API) Statistics(ctx context.Context) (roster.Stats, error) {
	var stats roster.Stats
	err := a.do(ctx, http.MethodGet, "/statistics", nil, &stats)
	return stats, err
}

// Synchronizer holds the authenticated account's full roster in memory and
// reloads it from the server after every successful mutation, so the cache
// never silently diverges. It is single-threaded by design: callers drive
// one operation at a time, like the browser client it mirrors.
type Synchronizer struct {
	api      *API
	username string
	students []roster.Student
	stats    roster.Stats
}

// NewSynchronizer wraps an API client with a cache.
func NewSynchronizer(api *API) *Synchronizer {
	return &Synchronizer{api: api}
}

// Login authenticates and performs the initial full load.
func (s *Synchronizer) Login(ctx context.Context, username, password string) error {
	user, err := s.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	s.username = user.Username
	return s.ReloadAll(ctx)
}

// Logout drops the session and empties the cache.
func (s *Synchronizer) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		return err
	}
	s.username = ""
	s.students = nil
	s.stats = roster.Stats{}
	return nil
}

// ReloadAll replaces the cache with the server's record list and statistics.
func (s *Synchronizer) ReloadAll(ctx context.Context) error {
	students, err := s.api.ListStudents(ctx)
	if err != nil {
		return err
	}
	stats, err := s.api.Statistics(ctx)
	if err != nil {
		return err
	}
	s.students = students
	s.stats = stats
	return nil
}

// Add creates a student and reloads.
func (s *Synchronizer) Add(ctx context.Context, st roster.Student) error {
	if err := s.api.AddStudent(ctx, st); err != nil {
		return err
	}
	return s.ReloadAll(ctx)
}

// Update rewrites the student stored under oldID and reloads.
func (s *Synchronizer) Update(ctx context.Context, oldID string, st roster.Student) error {
	if err := s.api.UpdateStudent(ctx, oldID, st); err != nil {
		return err
	}
	return s.ReloadAll(ctx)
}

// SetAttendance flips one record and reloads. Every mutation goes through
// the same reload path; there is no optimistic local patching.
func (s *Synchronizer) SetAttendance(ctx context.Context, id string, att roster.Attendance) error {
	if err := s.api.SetAttendance(ctx, id, att); err != nil {
		return err
	}
	return s.ReloadAll(ctx)
}

// Delete removes one student and reloads.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteStudent(ctx, id); err != nil {
		return err
	}
	return s.ReloadAll(ctx)
}

// ClearAll removes the whole roster with one batched server call, then
// reloads. All-or-nothing; a failure leaves the roster untouched.
func (s *Synchronizer) ClearAll(ctx context.Context) error {
	if _, err := s.api.ClearStudents(ctx); err != nil {
		return err
	}
	return s.ReloadAll(ctx)
}

// Students returns a copy of the cached roster.
func (s *Synchronizer) Students() []roster.Student {
	out := make([]roster.Student, len(s.students))
	copy(out, s.students)
	return out
}

// Stats returns the cached aggregate counts.
func (s *Synchronizer) Stats() roster.Stats {
	return s.stats
}

// Username returns the logged-in account name, empty when logged out.
func (s *Synchronizer) Username() string {
	return s.username
}
