package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"snapstream/internal/media"
)

// RemoteStore talks to the persistence HTTP API described by the
// snapstream-api service: JSON bodies under a common /api base path.
type RemoteStore struct {
	base string
	hc   *http.Client
}

// NewRemoteStore creates a client for the persistence API at base
// (e.g. "http://localhost:5000/api").
func NewRemoteStore(base string, timeout time.Duration) *RemoteStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 2 * time.Second}).DialContext,
	}

	return &RemoteStore{
		base: base,
		hc:   &http.Client{Transport: transport, Timeout: timeout},
	}
}

// ListItems fetches items filtered server-side by owner and admin flag.
func (s *RemoteStore) ListItems(ctx context.Context, ownerID string, isAdmin bool) ([]media.Item, error) {
	u := fmt.Sprintf("%s/media?owner_id=%s&is_admin=%s",
		s.base, url.QueryEscape(ownerID), strconv.FormatBool(isAdmin))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list items failed: %s", resp.Status)
	}

	var items []media.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("malformed list response: %w", err)
	}
	return items, nil
}

// CreateItem POSTs a new record, owner_id included in the body.
func (s *RemoteStore) CreateItem(ctx context.Context, item media.Item) error {
	resp, err := s.doJSON(ctx, http.MethodPost, s.base+"/media", item)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("create item failed: %s", resp.Status)
	}
	return nil
}

// UpdateAnalysis PUTs the analysis result for an existing record.
func (s *RemoteStore) UpdateAnalysis(ctx context.Context, id string, result *media.AnalysisResult) error {
	u := s.base + "/media/" + url.PathEscape(id) + "/analysis"
	resp, err := s.doJSON(ctx, http.MethodPut, u, result)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("update analysis failed: %s", resp.Status)
	}
}

// DeleteItem removes a record by id.
func (s *RemoteStore) DeleteItem(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.base+"/media/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete item failed: %s", resp.Status)
	}
	return nil
}

// Authenticate POSTs credentials to /login. A 401 maps to
// ErrUnauthorized so the caller can distinguish rejection from
// unreachability.
func (s *RemoteStore) Authenticate(ctx context.Context, email, password string) (*media.User, error) {
	resp, err := s.doJSON(ctx, http.MethodPost, s.base+"/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user media.User
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, fmt.Errorf("malformed login response: %w", err)
		}
		return &user, nil
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("login failed: %s", resp.Status)
	}
}

// Register POSTs a new account to /register.
func (s *RemoteStore) Register(ctx context.Context, name, email, password string, role media.Role) (*media.User, error) {
	resp, err := s.doJSON(ctx, http.MethodPost, s.base+"/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(role),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		var user media.User
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, fmt.Errorf("malformed register response: %w", err)
		}
		return &user, nil
	case http.StatusBadRequest, http.StatusConflict:
		return nil, ErrConflict
	default:
		return nil, fmt.Errorf("register failed: %s", resp.Status)
	}
}

// ListUsers fetches all accounts for the admin view.
func (s *RemoteStore) ListUsers(ctx context.Context) ([]media.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/users", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list users failed: %s", resp.Status)
	}

	var users []media.User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("malformed users response: %w", err)
	}
	return users, nil
}

func (s *RemoteStore) doJSON(ctx context.Context, method, u string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return s.hc.Do(req)
}
