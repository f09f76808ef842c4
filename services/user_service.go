// services/user_service.go
package services

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/models"
	"github.com/wfunc/dungeonserver/persistence"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// PBKDF2 parameters for password hashing.
const (
	hashIterations = 10000
	hashKeyLength  = 64
)

// UserService owns account records and bearer tokens. Records are held in
// memory and written through to the store on every change.
type UserService struct {
	store    persistence.Store
	users    map[string]*models.UserRecord
	salt     string
	tokenTTL time.Duration
	mutex    sync.RWMutex
}

func NewUserService(store persistence.Store, salt string, tokenTTL time.Duration) (*UserService, error) {
	s := &UserService{
		store:    store,
		users:    make(map[string]*models.UserRecord),
		salt:     salt,
		tokenTTL: tokenTTL,
	}

	if store != nil {
		users, err := store.LoadUsers()
		if err != nil && !errors.Is(err, persistence.ErrRecordNotFound) {
			return nil, err
		}
		if users != nil {
			s.users = users
		}
	}
	return s, nil
}

// Register creates an account and returns a fresh token.
func (s *UserService) Register(username, password string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.users[username]; exists {
		return "", ErrUserExists
	}

	record := &models.UserRecord{
		Username:       username,
		PasswordHash:   s.hash(password),
		Token:          uuid.New().String(),
		TokenExpiresAt: time.Now().Add(s.tokenTTL).UnixMilli(),
	}
	s.users[username] = record
	s.persistLocked()

	logger.Log.Infof("用户 %s 注册成功", username)
	return record.Token, nil
}

// Authenticate verifies a password and rotates the user's token.
func (s *UserService) Authenticate(username, password string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record, exists := s.users[username]
	if !exists || record.PasswordHash != s.hash(password) {
		return "", ErrInvalidCredentials
	}

	record.Token = uuid.New().String()
	record.TokenExpiresAt = time.Now().Add(s.tokenTTL).UnixMilli()
	s.persistLocked()

	return record.Token, nil
}

// ValidateToken resolves a bearer token to its username.
func (s *UserService) ValidateToken(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := time.Now().UnixMilli()
	for _, record := range s.users {
		if record.Token == token && record.TokenExpiresAt > now {
			return record.Username, nil
		}
	}
	return "", ErrInvalidToken
}

// ExtendToken pushes the expiry of a still-valid token out by the TTL.
func (s *UserService) ExtendToken(token string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now().UnixMilli()
	for _, record := range s.users {
		if record.Token == token && record.TokenExpiresAt > now {
			record.TokenExpiresAt = time.Now().Add(s.tokenTTL).UnixMilli()
			s.persistLocked()
			return nil
		}
	}
	return ErrInvalidToken
}

// SaveCharacters stores the persistent character list of a user.
func (s *UserService) SaveCharacters(username string, characters []models.CharacterInfo) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record, exists := s.users[username]
	if !exists {
		return ErrInvalidCredentials
	}
	record.Characters = characters
	s.persistLocked()
	return nil
}

func (s *UserService) GetUser(username string) (*models.UserRecord, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, exists := s.users[username]
	if !exists {
		return nil, false
	}
	copied := *record
	return &copied, true
}

func (s *UserService) hash(password string) string {
	key := pbkdf2.Key([]byte(password), []byte(s.salt), hashIterations, hashKeyLength, sha512.New)
	return hex.EncodeToString(key)
}

func (s *UserService) persistLocked() {
	if s.store == nil {
		return
	}
	if err := s.store.SaveUsers(s.users); err != nil {
		logger.Log.Errorf("保存用户表失败: %v", err)
	}
}
