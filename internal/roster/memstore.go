package roster

import (
	"context"
	"sync"
)

// MemStore is a mutex-guarded in-memory RecordStore for dev and tests,
// selected with STORE_BACKEND=memory. Insertion order is the slice order.
type MemStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[string]Account
	students map[int64][]Student
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		nextID:   1,
		accounts: make(map[string]Account),
		students: make(map[int64][]Student),
	}
}

func (m *MemStore) AccountByUsername(_ context.Context, username string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[username]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (m *MemStore) CreateAccount(_ context.Context, username, passwordHash string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[username]; ok {
		return acc, nil
	}
	acc := Account{ID: m.nextID, Username: username, PasswordHash: passwordHash}
	m.nextID++
	m.accounts[username] = acc
	return acc, nil
}

func (m *MemStore) List(_ context.Context, accountID int64) ([]Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Student, len(m.students[accountID]))
	copy(out, m.students[accountID])
	return out, nil
}

func (m *MemStore) Create(_ context.Context, accountID int64, st Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(accountID, st.ID) >= 0 {
		return ErrDuplicateID
	}
	m.students[accountID] = append(m.students[accountID], st)
	return nil
}

func (m *MemStore) Update(_ context.Context, accountID int64, oldID string, st Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(accountID, oldID)
	if i < 0 {
		return ErrNotFound
	}
	if st.ID != oldID && m.find(accountID, st.ID) >= 0 {
		return ErrDuplicateID
	}
	m.students[accountID][i] = st
	return nil
}

func (m *MemStore) SetAttendance(_ context.Context, accountID int64, id string, att Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(accountID, id)
	if i < 0 {
		return ErrNotFound
	}
	m.students[accountID][i].Attendance = att
	return nil
}

func (m *MemStore) Delete(_ context.Context, accountID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(accountID, id)
	if i < 0 {
		return ErrNotFound
	}
	list := m.students[accountID]
	m.students[accountID] = append(list[:i], list[i+1:]...)
	return nil
}

func (m *MemStore) DeleteAll(_ context.Context, accountID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.students[accountID]))
	delete(m.students, accountID)
	return n, nil
}

func (m *MemStore) Statistics(_ context.Context, accountID int64) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st Stats
	for _, s := range m.students[accountID] {
		st.Total++
		switch s.Attendance {
		case Present:
			st.Present++
		case Absent:
			st.Absent++
		}
	}
	return st, nil
}

// find returns the index of (accountID, id) or -1. Callers hold mu.
func (m *MemStore) find(accountID int64, id string) int {
	for i, s := range m.students[accountID] {
		if s.ID == id {
			return i
		}
	}
	return -1
}
