package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/storage"
)

// CollectionStore persists each user's collection tree as one YAML file,
// <basePath>/<userID>.yaml.
type CollectionStore struct {
	mu       sync.Mutex
	basePath string
}

// NewCollectionStore creates a new filesystem-based collection store.
func NewCollectionStore(basePath string) (*CollectionStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create collections directory: %w", err)
	}

	return &CollectionStore{
		basePath: basePath,
	}, nil
}

// BasePath returns the directory holding the user files.
func (s *CollectionStore) BasePath() string {
	return s.basePath
}

// LoadCollections reads the tree of userID. A user without a file has no
// collections.
func (s *CollectionStore) LoadCollections(ctx context.Context, userID string) ([]*core.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.userPath(userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []*core.Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection file: %w", err)
	}
	return storage.UnmarshalYAML(content)
}

// SaveCollections replaces the tree of userID. The file is written to a
// temporary name and renamed so a failed write never truncates it.
func (s *CollectionStore) SaveCollections(ctx context.Context, userID string, collections []*core.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.userPath(userID)
	if err != nil {
		return err
	}

	content, err := storage.MarshalYAML(collections)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.basePath, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create collection file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write collection file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write collection file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace collection file: %w", err)
	}
	return nil
}

// Delete removes the file of userID.
func (s *CollectionStore) Delete(ctx context.Context, userID string) error {
	path, err := s.userPath(userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return core.NewNotFoundError("user", userID)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete collection file: %w", err)
	}
	return nil
}

// Users lists the user ids that have a saved tree.
func (s *CollectionStore) Users(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read collections directory: %w", err)
	}

	var users []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		users = append(users, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	return users, nil
}

// userPath maps a user id to its file, rejecting ids that would escape the
// base directory.
func (s *CollectionStore) userPath(userID string) (string, error) {
	if userID == "" || userID != filepath.Base(userID) || strings.HasPrefix(userID, ".") {
		return "", core.NewValidationError("user", nil, "invalid user id %q", userID)
	}
	return filepath.Join(s.basePath, userID+".yaml"), nil
}
