package tree

import (
	"strings"

	"github.com/artpar/workbench/internal/core"
	"github.com/sahilm/fuzzy"
)

// Matcher reports whether a collection or request name matches a search.
type Matcher func(name string) bool

// SubstringMatcher matches names containing query, ignoring case.
func SubstringMatcher(query string) Matcher {
	query = strings.ToLower(strings.TrimSpace(query))
	return func(name string) bool {
		return strings.Contains(strings.ToLower(name), query)
	}
}

// FuzzyMatcher matches names containing the characters of query in order,
// as editors do for file pickers. An empty query matches every name.
func FuzzyMatcher(query string) Matcher {
	query = strings.TrimSpace(query)
	if query == "" {
		return func(string) bool { return true }
	}
	return func(name string) bool {
		return len(fuzzy.Find(query, []string{name})) > 0
	}
}

// Filter returns a pruned copy of the tree for a case-insensitive substring
// query. An empty query returns the whole tree.
func (s *Store) Filter(query string) []*core.Collection {
	if strings.TrimSpace(query) == "" {
		return s.Collections()
	}
	return s.FilterWith(SubstringMatcher(query))
}

// FilterWith returns a pruned copy of the tree. A collection is kept when its
// name matches, in which case its whole subtree is kept, or when it
// transitively contains a matching request or collection. Requests of a
// kept, non-matching collection are reduced to the matching ones.
func (s *Store) FilterWith(match Matcher) []*core.Collection {
	var result []*core.Collection
	for _, c := range s.Collections() {
		if pruned := prune(c, match); pruned != nil {
			result = append(result, pruned)
		}
	}
	return result
}

func prune(c *core.Collection, match Matcher) *core.Collection {
	if match(c.Name()) {
		return c
	}

	pruned := core.NewCollectionWithID(c.ID(), c.Name())
	for _, r := range c.Requests() {
		if match(r.Name()) {
			pruned.AddRequest(r)
		}
	}
	for _, sub := range c.Collections() {
		if p := prune(sub, match); p != nil {
			pruned.AddCollection(p)
		}
	}

	if len(pruned.Requests()) == 0 && len(pruned.Collections()) == 0 {
		return nil
	}
	return pruned
}
