package roster

import (
	"context"
	"errors"

	"roster/internal/auth"
)

// ErrInvalidCredentials is returned by Authenticate when no account matches
// the username/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service validates input and delegates to a RecordStore. All student
// operations are scoped to the calling account; nothing here can see
// another account's rows.
type Service struct {
	store RecordStore
}

// NewService creates a service backed by a store.
func NewService(store RecordStore) *Service {
	return &Service{store: store}
}

// Authenticate resolves a username/password pair to its account.
// Passwords are compared against the stored bcrypt hash.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Account, error) {
	acc, err := s.store.AccountByUsername(ctx, username)
	if err != nil {
		return Account{}, err
	}
	if acc == nil || !auth.CheckPassword(acc.PasswordHash, password) {
		return Account{}, ErrInvalidCredentials
	}
	return *acc, nil
}

// List returns the account's roster in insertion order.
func (s *Service) List(ctx context.Context, accountID int64) ([]Student, error) {
	return s.store.List(ctx, accountID)
}

// Create adds a student, defaulting attendance to present.
func (s *Service) Create(ctx context.Context, accountID int64, st Student) (Student, error) {
	if st.ID == "" || st.Name == "" {
		return Student{}, ErrInvalidInput
	}
	if st.Attendance == "" {
		st.Attendance = Present
	}
	if !st.Attendance.Valid() {
		return Student{}, ErrInvalidInput
	}
	if err := s.store.Create(ctx, accountID, st); err != nil {
		return Student{}, err
	}
	return st, nil
}

// Update rewrites the student stored under oldID; the new id may differ,
// which renames the record in place.
func (s *Service) Update(ctx context.Context, accountID int64, oldID string, st Student) error {
	if st.ID == "" || st.Name == "" {
		return ErrInvalidInput
	}
	if st.Attendance == "" {
		st.Attendance = Present
	}
	if !st.Attendance.Valid() {
		return ErrInvalidInput
	}
	return s.store.Update(ctx, accountID, oldID, st)
}

// SetAttendance flips the attendance field only.
func (s *Service) SetAttendance(ctx context.Context, accountID int64, id string, att Attendance) error {
	if !att.Valid() {
		return ErrInvalidInput
	}
	return s.store.SetAttendance(ctx, accountID, id, att)
}

// Delete removes one student.
func (s *Service) Delete(ctx context.Context, accountID int64, id string) error {
	return s.store.Delete(ctx, accountID, id)
}

// DeleteAll clears the account's roster atomically.
func (s *Service) DeleteAll(ctx context.Context, accountID int64) (int64, error) {
	return s.store.DeleteAll(ctx, accountID)
}

// Statistics returns aggregate attendance counts.
func (s *Service) Statistics(ctx context.Context, accountID int64) (Stats, error) {
	return s.store.Statistics(ctx, accountID)
}
