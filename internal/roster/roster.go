package roster

import (
	"context"
	"errors"
)

// Attendance is the binary presence state of a student.
type Attendance string

const (
	Present Attendance = "present"
	Absent  Attendance = "absent"
)

// Valid reports whether a is one of the two accepted values.
func (a Attendance) Valid() bool {
	return a == Present || a == Absent
}

// Student is one roster entry, owned by exactly one account.
type Student struct {
	ID         string     `json:"student_id"`
	Name       string     `json:"name"`
	Attendance Attendance `json:"attendance"`
}

// Account is an authenticated owner of a private set of students.
// Passwords are stored as bcrypt hashes, never plaintext.
type Account struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Stats aggregates attendance counts for one account.
type Stats struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

var (
	// ErrInvalidInput is returned when a required field is empty or an
	// attendance value is outside the enum.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateID is returned when a student id already exists under
	// the same account.
	ErrDuplicateID = errors.New("student id already exists")
	// ErrNotFound is returned when no student matches (account, id).
	ErrNotFound = errors.New("student not found")
)

// RecordStore persists accounts and students. Student ids are unique per
// owning account, not globally.
type RecordStore interface {
	AccountByUsername(ctx context.Context, username string) (*Account, error)
	CreateAccount(ctx context.Context, username, passwordHash string) (Account, error)

	List(ctx context.Context, accountID int64) ([]Student, error)
	Create(ctx context.Context, accountID int64, st Student) error
	Update(ctx context.Context, accountID int64, oldID string, st Student) error
	SetAttendance(ctx context.Context, accountID int64, id string, att Attendance) error
	Delete(ctx context.Context, accountID int64, id string) error
	// DeleteAll removes every student of the account in one batched
	// operation and reports how many rows went away.
	DeleteAll(ctx context.Context, accountID int64) (int64, error)
	Statistics(ctx context.Context, accountID int64) (Stats, error)
}
