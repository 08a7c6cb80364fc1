package auth

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wat40/C-Encryption-System/server/internal/storage"
)

type memStore struct {
	mu    sync.Mutex
	users map[string]*storage.User
	next  int64
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*storage.User)}
}

func (m *memStore) CreateUser(username, hashedPassword string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.users[username] = &storage.User{ID: m.next, Username: username, HashedPassword: hashedPassword}
	return m.next, nil
}

func (m *memStore) GetUserByUsername(username string) (*storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[username], nil
}

func (m *memStore) GetUserByID(userID int64) (*storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := New("test-secret", time.Hour, newMemStore())

	id, err := svc.Register("alice", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.Register("alice", "again"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	token, loginID, err := svc.Login("alice", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loginID != id {
		t.Fatalf("Login returned user %d, want %d", loginID, id)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != id || claims.Username != "alice" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, _, err := svc.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login("bob", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := New("test-secret", time.Hour, newMemStore())
	if _, err := svc.Register("", "pw"); !errors.Is(err, ErrEmptyCredentials) {
		t.Fatalf("expected ErrEmptyCredentials, got %v", err)
	}
	if _, err := svc.Register("a b", "pw"); err == nil {
		t.Fatalf("accepted username with a space")
	}
}

func TestValidateTokenRejectsForeignAndExpired(t *testing.T) {
	store := newMemStore()
	svc := New("secret-one", time.Hour, store)
	other := New("secret-two", time.Hour, store)

	token, err := other.CreateToken(1, "mallory")
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	expired := New("secret-one", -time.Hour, store)
	expired.tokenTTL = -time.Minute
	old, _ := expired.CreateToken(1, "alice")
	if _, err := svc.ValidateToken(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := svc.ValidateToken("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
