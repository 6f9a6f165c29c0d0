package tree

import (
	"fmt"
	"strings"

	"github.com/artpar/workbench/internal/core"
)

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", core.NewValidationError("name", core.ErrEmptyName, "name is required")
	}
	return name, nil
}

// checkCollectionNameLocked trims name and rejects it when empty or already
// used by a sibling other than exclude.
func (s *Store) checkCollectionNameLocked(parentID, name, exclude string) (string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	if s.collectionNameTakenLocked(parentID, name, exclude) {
		return "", core.NewValidationError("name", core.ErrNameConflict, "collection %q already exists", name)
	}
	return name, nil
}

func (s *Store) collectionNameTakenLocked(parentID, name, exclude string) bool {
	for _, id := range s.siblingsLocked(parentID) {
		if id != exclude && strings.EqualFold(s.nodes[id].name, name) {
			return true
		}
	}
	return false
}

func checkRequestName(n *node, name, exclude string) (string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	if requestNameTaken(n, name, exclude) {
		return "", core.NewValidationError("name", core.ErrNameConflict, "request %q already exists in %q", name, n.name)
	}
	return name, nil
}

func requestNameTaken(n *node, name, exclude string) bool {
	for _, r := range n.requests {
		if r.ID() != exclude && strings.EqualFold(r.Name(), name) {
			return true
		}
	}
	return false
}

func copyName(base string, attempt int) string {
	if attempt == 1 {
		return base + " (copy)"
	}
	return fmt.Sprintf("%s (copy %d)", base, attempt)
}

func numberedName(base string, attempt int) string {
	if attempt == 1 {
		return base
	}
	return fmt.Sprintf("%s (%d)", base, attempt)
}

// uniqueCollectionNameLocked returns the first candidate name that no
// sibling under parentID uses.
func (s *Store) uniqueCollectionNameLocked(parentID, base string, candidate func(string, int) string) string {
	for attempt := 1; ; attempt++ {
		name := candidate(base, attempt)
		if !s.collectionNameTakenLocked(parentID, name, "") {
			return name
		}
	}
}

func uniqueRequestName(n *node, base string) string {
	if base == "" {
		base = "Untitled"
	}
	for attempt := 1; ; attempt++ {
		name := numberedName(base, attempt)
		if !requestNameTaken(n, name, "") {
			return name
		}
	}
}
