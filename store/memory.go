package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory facade for tests. The Fail* hooks let a test make
// a specific operation fail to exercise the kernel's persistence-failure
// paths (notably the pickup reinsertion rule).
type Memory struct {
	mu        sync.Mutex
	layouts   map[string][][]any
	furniture map[string]FurnitureRow
	users     map[string]UserRow
	byName    map[string]string
	tokens    map[string]string

	FailInsertFurniture bool
	FailDeleteFurniture bool
	FailUpdateUser      bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		layouts:   make(map[string][][]any),
		furniture: make(map[string]FurnitureRow),
		users:     make(map[string]UserRow),
		byName:    make(map[string]string),
		tokens:    make(map[string]string),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) LoadRoomLayout(roomID string) ([][]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layouts[roomID], nil
}

func (m *Memory) SaveRoomLayout(roomID string, layout [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layouts[roomID] = layout
	return nil
}

func (m *Memory) LoadFurniture(roomID string) ([]FurnitureRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []FurnitureRow
	for _, row := range m.furniture {
		if row.RoomID == roomID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *Memory) InsertFurniture(row FurnitureRow) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailInsertFurniture {
		return "", fmt.Errorf("store: insert furniture: injected failure")
	}
	if row.InstanceID == "" {
		row.InstanceID = uuid.NewString()
	}
	m.furniture[row.InstanceID] = row
	return row.InstanceID, nil
}

func (m *Memory) UpdateFurniture(instanceID string, patch FurniturePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.furniture[instanceID]
	if !ok {
		return fmt.Errorf("store: furniture %s: %w", instanceID, ErrNotFound)
	}
	applyFurniturePatch(&row, patch)
	m.furniture[instanceID] = row
	return nil
}

func (m *Memory) DeleteFurniture(instanceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDeleteFurniture {
		return fmt.Errorf("store: delete furniture: injected failure")
	}
	if _, ok := m.furniture[instanceID]; !ok {
		return fmt.Errorf("store: furniture %s: %w", instanceID, ErrNotFound)
	}
	delete(m.furniture, instanceID)
	return nil
}

// HasFurniture reports whether a persistent row exists, for tests.
func (m *Memory) HasFurniture(instanceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.furniture[instanceID]
	return ok
}

func (m *Memory) LoadUser(userID string) (*UserRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	cp := row
	return &cp, nil
}

func (m *Memory) LoadUserByName(username string) (*UserRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byName[username]
	if !ok {
		return nil, nil
	}
	row := m.users[id]
	cp := row
	return &cp, nil
}

func (m *Memory) CreateUser(row UserRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byName[row.Username]; taken {
		return fmt.Errorf("store: username %q already taken", row.Username)
	}
	m.users[row.UserID] = row
	m.byName[row.Username] = row.UserID
	return nil
}

func (m *Memory) UpdateUser(userID string, patch UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdateUser {
		return fmt.Errorf("store: update user: injected failure")
	}
	row, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("store: user %s: %w", userID, ErrNotFound)
	}
	applyUserPatch(&row, patch)
	m.users[userID] = row
	return nil
}

func (m *Memory) InsertToken(token, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = userID
	return nil
}

func (m *Memory) LookupToken(token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.tokens[token]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}
