package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Apurer/storefront-client/internal/domains/session/ports"
)

// DefaultFileName is the credentials file created under the user config directory.
const DefaultFileName = "credentials.yml"

// CredentialStore persists the token in a small YAML document so it survives restarts.
type CredentialStore struct {
	mu   sync.Mutex
	path string
}

type document struct {
	Credentials map[string]string `yaml:"credentials"`
}

// NewCredentialStore stores credentials at path, or under the user config directory when path is empty.
func NewCredentialStore(path string) (*CredentialStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "storefront", DefaultFileName)
	}
	return &CredentialStore{path: path}, nil
}

// Path returns the backing file location.
func (s *CredentialStore) Path() string {
	return s.path
}

func (s *CredentialStore) Get(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return "", false, err
	}
	token, ok := doc.Credentials[ports.CredentialKey]
	return token, ok, nil
}

func (s *CredentialStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc.Credentials == nil {
		doc.Credentials = map[string]string{}
	}
	doc.Credentials[ports.CredentialKey] = token
	return s.write(doc)
}

func (s *CredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Credentials[ports.CredentialKey]; !ok {
		return nil
	}
	delete(doc.Credentials, ports.CredentialKey)
	return s.write(doc)
}

func (s *CredentialStore) read() (document, error) {
	var doc document
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read credentials file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode credentials file: %w", err)
	}
	return doc, nil
}

// write replaces the file atomically; the token never sits in a world-readable file.
func (s *CredentialStore) write(doc document) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode credentials file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create credentials file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

var _ ports.CredentialStore = (*CredentialStore)(nil)
