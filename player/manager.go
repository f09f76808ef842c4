package player

import (
	"sync"

	"github.com/google/uuid"
)

// CharacterData is a player's controllable avatar: position plus the
// animation-state flags the client mirrors. HurtUntil is epoch milliseconds;
// zero means not hurt.
type CharacterData struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Class          string  `json:"class"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Direction      string  `json:"direction"`
	IsMoving       bool    `json:"isMoving"`
	IsAttacking    bool    `json:"isAttacking"`
	IsRunAttacking bool    `json:"isRunAttacking"`
	IsDead         bool    `json:"isDead"`
	IsHurt         bool    `json:"isHurt"`
	HurtUntil      int64   `json:"hurtUntil,omitempty"`
	DeathDirection string  `json:"deathDirection,omitempty"`
}

// UserData is one connected identity inside a room: its characters, which
// one is active, and which lobby room the identity currently plays in.
type UserData struct {
	ID                string           `json:"id"`
	Username          string           `json:"username"`
	Token             string           `json:"-"`
	Characters        []*CharacterData `json:"characters"`
	ActiveCharacterID string           `json:"activeCharacterId,omitempty"`
	ActiveRoom        string           `json:"activeRoom,omitempty"`
}

// Manager is the per-room registry of identities and their characters. One
// instance is owned by each lobby room. All mutation goes through the
// manager so the mutex covers every shared map access.
type Manager struct {
	mu    sync.RWMutex
	users map[string]*UserData
}

func NewManager() *Manager {
	return &Manager{users: make(map[string]*UserData)}
}

// AddUser registers an identity. Idempotent: an already registered user only
// gets its token refreshed (when one is supplied).
func (m *Manager) AddUser(username, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addUserLocked(username, token)
}

func (m *Manager) addUserLocked(username, token string) *UserData {
	if user, exists := m.users[username]; exists {
		if token != "" {
			user.Token = token
		}
		return user
	}
	user := &UserData{
		ID:         uuid.New().String(),
		Username:   username,
		Token:      token,
		Characters: []*CharacterData{},
	}
	m.users[username] = user
	return user
}

// AddCharacter appends a character for the user (registering the user when
// needed), assigns it a fresh id, and makes it active if the user has no
// active character yet.
func (m *Manager) AddCharacter(username string, character CharacterData) *CharacterData {
	m.mu.Lock()
	defer m.mu.Unlock()

	user := m.addUserLocked(username, "")
	character.ID = uuid.New().String()
	user.Characters = append(user.Characters, &character)
	if user.ActiveCharacterID == "" {
		user.ActiveCharacterID = character.ID
	}
	return &character
}

// SetActiveCharacter points the user at one of its own characters. Returns
// false for unknown users or foreign character ids.
func (m *Manager) SetActiveCharacter(username, characterID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[username]
	if !exists {
		return false
	}
	for _, c := range user.Characters {
		if c.ID == characterID {
			user.ActiveCharacterID = characterID
			return true
		}
	}
	return false
}

func (m *Manager) SetActiveRoom(username, roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[username]
	if !exists {
		return false
	}
	user.ActiveRoom = roomID
	return true
}

// GetActiveCharacter returns a copy of the user's active character, or false
// when the user has none.
func (m *Manager) GetActiveCharacter(username string) (CharacterData, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	char := m.activeCharacterLocked(username)
	if char == nil {
		return CharacterData{}, false
	}
	return *char, true
}

func (m *Manager) activeCharacterLocked(username string) *CharacterData {
	user, exists := m.users[username]
	if !exists || user.ActiveCharacterID == "" {
		return nil
	}
	for _, c := range user.Characters {
		if c.ID == user.ActiveCharacterID {
			return c
		}
	}
	return nil
}

// RemoveCharacter deletes one character. When the active character is the
// one removed, the active pointer moves to the first remaining character, or
// clears if none are left.
func (m *Manager) RemoveCharacter(username, characterID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[username]
	if !exists {
		return false
	}
	kept := user.Characters[:0]
	for _, c := range user.Characters {
		if c.ID != characterID {
			kept = append(kept, c)
		}
	}
	user.Characters = kept
	if user.ActiveCharacterID == characterID {
		user.ActiveCharacterID = ""
		if len(user.Characters) > 0 {
			user.ActiveCharacterID = user.Characters[0].ID
		}
	}
	return true
}

// RemoveUser drops the identity entirely, e.g. on disconnect.
func (m *Manager) RemoveUser(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, username)
}

// GetUser returns a copy of the user's registry entry.
func (m *Manager) GetUser(username string) (UserData, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[username]
	if !exists {
		return UserData{}, false
	}
	return m.copyUserLocked(user), true
}

// GetAllUsers returns copies of every registered identity.
func (m *Manager) GetAllUsers() []UserData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]UserData, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, m.copyUserLocked(user))
	}
	return users
}

// GetAllCharacters flattens every identity's character list. This is the
// broadcast/collision universe for movement and attack resolution.
func (m *Manager) GetAllCharacters() []CharacterData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var characters []CharacterData
	for _, user := range m.users {
		for _, c := range user.Characters {
			characters = append(characters, *c)
		}
	}
	return characters
}

func (m *Manager) copyUserLocked(user *UserData) UserData {
	out := *user
	out.Characters = make([]*CharacterData, len(user.Characters))
	for i, c := range user.Characters {
		clone := *c
		out.Characters[i] = &clone
	}
	return out
}
