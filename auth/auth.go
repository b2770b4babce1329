// Package auth provides the role-based demo login used by the CLI.
// There are no passwords: picking a role and a name is enough.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vvatanabe/scm"
	"github.com/vvatanabe/scm/internal/clock"
)

// ErrNotLoggedIn is returned when an operation needs a current user and there is none.
var ErrNotLoggedIn = errors.New("auth: not logged in")

// InvalidRoleError reports a role that is not a known HandlerRole.
type InvalidRoleError struct {
	Role string
}

func (e InvalidRoleError) Error() string {
	return fmt.Sprintf("auth: invalid role %q", e.Role)
}

// User is the logged-in identity.
type User struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       scm.HandlerRole `json:"role"`
	LoggedInAt time.Time       `json:"logged_in_at"`
}

// Storage persists the logged-in user between runs.
// Load returns a nil user and no error when nothing is stored.
type Storage interface {
	Load() (*User, error)
	Save(u *User) error
	Remove() error
}

// MemoryStorage keeps the user in memory only.
type MemoryStorage struct {
	mu   sync.Mutex
	user *User
}

// Load returns a copy of the stored user, or nil.
func (s *MemoryStorage) Load() (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

// Save stores a copy of u.
func (s *MemoryStorage) Save(u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.user = &c
	return nil
}

// Remove forgets the stored user.
func (s *MemoryStorage) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}

// FileStorage keeps the user as JSON in a single file.
type FileStorage struct {
	Path string
}

// DefaultSessionPath is $XDG_CONFIG_HOME/scm/session.json or its platform equivalent.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "scm", "session.json"), nil
}

// Load reads the user from the file. A missing file yields nil.
func (s FileStorage) Load() (*User, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("auth: decode %s: %w", s.Path, err)
	}
	return &u, nil
}

// Save writes u to the file, creating its directory when needed.
func (s FileStorage) Save(u *User) error {
	b, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, b, 0o600)
}

// Remove deletes the file. A missing file is not an error.
func (s FileStorage) Remove() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Session tracks the current user on top of a Storage.
type Session struct {
	storage     Storage
	clock       clock.Clock
	idGenerator func() string
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Clock       clock.Clock
	IDGenerator func() string
}

// WithClock replaces the clock used for LoggedInAt.
func WithClock(c clock.Clock) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.Clock = c
	}
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(f func() string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.IDGenerator = f
	}
}

// NewSession returns a Session persisted through storage.
func NewSession(storage Storage, optFns ...func(*SessionOptions)) *Session {
	o := &SessionOptions{
		Clock:       &clock.RealClock{},
		IDGenerator: uuid.NewString,
	}
	for _, opt := range optFns {
		opt(o)
	}
	return &Session{
		storage:     storage,
		clock:       o.Clock,
		idGenerator: o.IDGenerator,
	}
}

// Login replaces any current user. An empty name defaults to the role, and an
// empty email to <role>@scm.local.
func (s *Session) Login(name, email string, role scm.HandlerRole) (*User, error) {
	if !role.IsValid() {
		return nil, InvalidRoleError{Role: string(role)}
	}
	if strings.TrimSpace(name) == "" {
		name = string(role)
	}
	if strings.TrimSpace(email) == "" {
		email = string(role) + "@scm.local"
	}
	u := &User{
		ID:         s.idGenerator(),
		Name:       name,
		Email:      email,
		Role:       role,
		LoggedInAt: s.clock.Now(),
	}
	if err := s.storage.Save(u); err != nil {
		return nil, fmt.Errorf("auth: save session: %w", err)
	}
	return u, nil
}

// Logout removes the current user. It succeeds when nobody is logged in.
func (s *Session) Logout() error {
	return s.storage.Remove()
}

// Current returns ErrNotLoggedIn when nobody is logged in.
func (s *Session) Current() (*User, error) {
	u, err := s.storage.Load()
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotLoggedIn
	}
	return u, nil
}
