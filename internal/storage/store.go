package storage

import (
	"context"
	"errors"

	"github.com/artpar/workbench/internal/core"
)

// Common errors.
var (
	ErrStoreClosed = errors.New("store is closed")
)

// CollectionStore persists the collection tree of each user.
type CollectionStore interface {
	LoadCollections(ctx context.Context, userID string) ([]*core.Collection, error)
	SaveCollections(ctx context.Context, userID string, collections []*core.Collection) error
}
