package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/config"
)

var ErrNoCredential = errors.New("no_credential")

// Credential is the token pair issued by the record store.
type Credential struct {
	Access     string    `json:"access"`
	Refresh    string    `json:"refresh,omitempty"`
	ObtainedAt time.Time `json:"obtained_at"`
}

// Source supplies and updates the credential the store client sends.
type Source interface {
	Credential(ctx context.Context) (Credential, error)
	Save(ctx context.Context, cred Credential) error
}

// Store keeps the credential in a 0600 JSON file.
type Store struct {
	path string

	mu     sync.Mutex
	cached *Credential
}

func NewStore(cfg config.Config) *Store {
	return &Store{path: cfg.SessionFile}
}

func NewFileStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Credential(_ context.Context) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Credential{}, ErrNoCredential
	}
	if err != nil {
		return Credential{}, fmt.Errorf("read session: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, fmt.Errorf("decode session: %w", err)
	}
	if strings.TrimSpace(cred.Access) == "" {
		return Credential{}, ErrNoCredential
	}
	s.cached = &cred
	return cred, nil
}

func (s *Store) Save(_ context.Context, cred Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write session: %w", err)
	}

	s.mu.Lock()
	s.cached = &cred
	s.mu.Unlock()
	return nil
}

// Clear removes the stored credential. A missing file is not an error.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
