package roster

import (
	"context"
	"database/sql"
	"errors"
)

// Repository persists roster data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the accounts and students tables when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id            BIGSERIAL PRIMARY KEY,
			username      TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS students (
			account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			student_id TEXT NOT NULL,
			name       TEXT NOT NULL,
			attendance TEXT NOT NULL DEFAULT 'present',
			seq        BIGSERIAL,
			PRIMARY KEY (account_id, student_id)
		);
	`)
	return err
}

// SeedAccount ensures an account exists with the given credential hash.
// Existing accounts are left untouched.
func (r *Repository) SeedAccount(ctx context.Context, username, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (username, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
	`, username, passwordHash)
	return err
}

// AccountByUsername returns the account for an exact username match, or nil.
func (r *Repository) AccountByUsername(ctx context.Context, username string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash FROM accounts WHERE username = $1
	`, username)
	var acc Account
	if err := row.Scan(&acc.ID, &acc.Username, &acc.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

// CreateAccount inserts a new account and returns it with its generated id.
func (r *Repository) CreateAccount(ctx context.Context, username, passwordHash string) (Account, error) {
	acc := Account{Username: username, PasswordHash: passwordHash}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, username, passwordHash)
	if err := row.Scan(&acc.ID); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// List returns the account's students in insertion order.
func (r *Repository) List(ctx context.Context, accountID int64) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id, name, attendance
		FROM students
		WHERE account_id = $1
		ORDER BY seq
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Attendance); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// Create inserts a student; ErrDuplicateID when (account, id) already exists.
func (r *Repository) Create(ctx context.Context, accountID int64, st Student) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO students (account_id, student_id, name, attendance)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, student_id) DO NOTHING
	`, accountID, st.ID, st.Name, st.Attendance)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicateID
	}
	return nil
}

// Update rewrites a student row, allowing the student id itself to change.
func (r *Repository) Update(ctx context.Context, accountID int64, oldID string, st Student) error {
	if st.ID != oldID {
		var exists bool
		err := r.db.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM students WHERE account_id = $1 AND student_id = $2
			)
		`, accountID, st.ID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateID
		}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET student_id = $3, name = $4, attendance = $5
		WHERE account_id = $1 AND student_id = $2
	`, accountID, oldID, st.ID, st.Name, st.Attendance)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAttendance updates the attendance field only.
func (r *Repository) SetAttendance(ctx context.Context, accountID int64, id string, att Attendance) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE students SET attendance = $3
		WHERE account_id = $1 AND student_id = $2
	`, accountID, id, att)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one student.
func (r *Repository) Delete(ctx context.Context, accountID int64, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM students WHERE account_id = $1 AND student_id = $2
	`, accountID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll clears the account's roster in a single statement.
func (r *Repository) DeleteAll(ctx context.Context, accountID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM students WHERE account_id = $1
	`, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Statistics aggregates attendance counts; all zero for an empty roster.
func (r *Repository) Statistics(ctx context.Context, accountID int64) (Stats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE attendance = 'present'),
			COUNT(*) FILTER (WHERE attendance = 'absent')
		FROM students
		WHERE account_id = $1
	`, accountID)
	var st Stats
	if err := row.Scan(&st.Total, &st.Present, &st.Absent); err != nil {
		return Stats{}, err
	}
	return st, nil
}
