package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"snapstream/internal/logging"
	"snapstream/internal/media"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Default administrator available when neither the persistence API nor
// a cached account can answer a login.
const (
	DefaultAdminEmail    = "admin@snapstream.io"
	DefaultAdminPassword = "password123"
	DefaultAdminName     = "Admin User"
)

// LocalStore keeps media records and accounts in JSON files on disk.
// It mirrors a browser localStorage cache: every write replaces the
// whole array, so the files always hold a complete, consistent
// snapshot.
type LocalStore struct {
	mu        sync.Mutex
	mediaFile string
	userFile  string
}

type cachedUser struct {
	media.User
	PasswordHash string `json:"passwordHash"`
}

// NewLocalStore creates a cache backed by the given media and user
// files. The files are created lazily on first write.
func NewLocalStore(mediaFile, userFile string) *LocalStore {
	return &LocalStore{mediaFile: mediaFile, userFile: userFile}
}

// ListItems returns cached items visible to ownerID, newest first.
func (s *LocalStore) ListItems(ctx context.Context, ownerID string, isAdmin bool) ([]media.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readMedia()
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return items, nil
	}

	visible := make([]media.Item, 0, len(items))
	for _, item := range items {
		if item.OwnerID == ownerID {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

// CreateItem prepends the item and rewrites the cache file.
func (s *LocalStore) CreateItem(ctx context.Context, item media.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readMedia()
	if err != nil {
		logging.Warn("Local cache unreadable, starting fresh: %v", err)
		items = nil
	}
	for _, existing := range items {
		if existing.ID == item.ID {
			return ErrConflict
		}
	}

	items = append([]media.Item{item}, items...)
	return s.writeJSON(s.mediaFile, items)
}

// UpdateAnalysis attaches the result to the cached item and marks it
// completed.
func (s *LocalStore) UpdateAnalysis(ctx context.Context, id string, result *media.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readMedia()
	if err != nil {
		return err
	}

	for i := range items {
		if items[i].ID == id {
			items[i].Analysis = result
			items[i].Status = media.StatusCompleted
			return s.writeJSON(s.mediaFile, items)
		}
	}
	return ErrNotFound
}

// DeleteItem removes the cached item. Deleting an id that is not in
// the cache is not an error; the record may live on the remote side.
func (s *LocalStore) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readMedia()
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	return s.writeJSON(s.mediaFile, kept)
}

// Authenticate checks the built-in admin first, then the cached user
// registry. Unknown accounts and bad passwords both yield
// ErrUnauthorized.
func (s *LocalStore) Authenticate(ctx context.Context, email, password string) (*media.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if email == DefaultAdminEmail && password == DefaultAdminPassword {
		return &media.User{
			ID:        "user-admin-01",
			Name:      DefaultAdminName,
			Email:     DefaultAdminEmail,
			Role:      media.RoleAdmin,
			LastLogin: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.ToLower(users[i].Email) != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(users[i].PasswordHash), []byte(password)) != nil {
			return nil, ErrUnauthorized
		}
		users[i].LastLogin = time.Now().UTC().Format(time.RFC3339)
		user := users[i].User
		if err := s.writeJSON(s.userFile, users); err != nil {
			logging.Warn("Failed to record last login in user cache: %v", err)
		}
		return &user, nil
	}
	return nil, ErrUnauthorized
}

// Register adds an account to the cached registry with a bcrypt
// password hash.
func (s *LocalStore) Register(ctx context.Context, name, email, password string, role media.Role) (*media.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == DefaultAdminEmail {
		return nil, ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		logging.Warn("User cache unreadable, starting fresh: %v", err)
		users = nil
	}
	for _, existing := range users {
		if strings.ToLower(existing.Email) == email {
			return nil, ErrConflict
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := media.User{
		ID:    "user-" + uuid.NewString(),
		Name:  name,
		Email: email,
		Role:  role,
	}
	users = append(users, cachedUser{User: user, PasswordHash: string(hash)})
	if err := s.writeJSON(s.userFile, users); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns the built-in admin plus all cached accounts,
// without credential material.
func (s *LocalStore) ListUsers(ctx context.Context) ([]media.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, err := s.readUsers()
	if err != nil {
		return nil, err
	}

	users := []media.User{{
		ID:    "user-admin-01",
		Name:  DefaultAdminName,
		Email: DefaultAdminEmail,
		Role:  media.RoleAdmin,
	}}
	for _, u := range cached {
		users = append(users, u.User)
	}
	return users, nil
}

func (s *LocalStore) readMedia() ([]media.Item, error) {
	var items []media.Item
	if err := s.readJSON(s.mediaFile, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *LocalStore) readUsers() ([]cachedUser, error) {
	var users []cachedUser
	if err := s.readJSON(s.userFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *LocalStore) readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("corrupt cache %s: %w", path, err)
	}
	return nil
}

// writeJSON replaces the file contents atomically: marshal to a temp
// file in the same directory, then rename over the target.
func (s *LocalStore) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}
