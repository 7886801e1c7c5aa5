package category

import (
	"regexp"
	"strings"
	"sync"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Registry is the ordered, concurrency-safe set of categories in use.
type Registry struct {
	mu   sync.RWMutex
	cats []Category
}

// NewRegistry returns a registry holding a copy of cats.
func NewRegistry(cats []Category) *Registry {
	return &Registry{cats: cloneAll(cats)}
}

// Snapshot returns a copy of the categories in registry order.
func (r *Registry) Snapshot() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.cats)
}

// Replace swaps the whole category set, used when preferences are reloaded.
func (r *Registry) Replace(cats []Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cats = cloneAll(cats)
}

// Lookup finds a category by id.
func (r *Registry) Lookup(id string) (Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.cats {
		if c.ID == id {
			return c.clone(), true
		}
	}
	return Category{}, false
}

// Classify runs Classify against the current rules.
func (r *Registry) Classify(filename string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Classify(filename, r.cats)
}

// Add validates and appends a user-defined category. extensionsRaw is the
// comma separated list typed by the user, e.g. ".psd, ai".
func (r *Registry) Add(name, icon, extensionsRaw string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrEmptyName
	}
	if strings.TrimSpace(icon) == "" {
		icon = DefaultIconTag
	}

	c := Category{
		ID:         DeriveID(name),
		Name:       name,
		Icon:       strings.TrimSpace(icon),
		Extensions: ParseExtensions(extensionsRaw),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.cats {
		if existing.ID == c.ID {
			return Category{}, &ValidationError{Reason: ReasonDuplicateID, Value: c.ID}
		}
	}
	r.cats = append(r.cats, c)
	return c.clone(), nil
}

// DeriveID turns a display name into a category id: lowercase with
// whitespace runs collapsed into single hyphens.
func DeriveID(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// ParseExtensions normalizes a comma separated extension list. Empty tokens
// are dropped, a leading dot is added when missing and duplicates keep their
// first position.
func ParseExtensions(raw string) []string {
	exts := []string{}
	seen := make(map[string]bool)
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if !strings.HasPrefix(tok, ".") {
			tok = "." + tok
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		exts = append(exts, tok)
	}
	return exts
}
