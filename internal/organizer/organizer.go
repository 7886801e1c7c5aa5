// Package organizer holds the application state of the file organizer: the
// category registry, the file collection and the theme, and the operations
// the REST and gRPC surfaces call on them.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mtiwari1/filehaven/internal/category"
	"github.com/mtiwari1/filehaven/internal/collection"
	"github.com/mtiwari1/filehaven/internal/ingest"
	"github.com/mtiwari1/filehaven/internal/metrics"
	"github.com/mtiwari1/filehaven/internal/notify"
	"github.com/mtiwari1/filehaven/internal/prefs"
	"github.com/mtiwari1/filehaven/internal/source"
)

// CategorySummary is a category with the number of files it holds.
type CategorySummary struct {
	category.Category
	IconKind string `json:"iconKind"`
	Count    int    `json:"count"`
}

// Counts reports files per category plus the total.
type Counts struct {
	ByCategory map[string]int `json:"byCategory"`
	Total      int            `json:"total"`
}

// Organizer is safe for concurrent use.
type Organizer struct {
	registry *category.Registry
	store    *collection.Store
	pipeline *ingest.Pipeline
	prefs    *prefs.Preferences
	notifier notify.Notifier
	logger   *slog.Logger

	mu    sync.RWMutex
	theme prefs.Theme

	// persistMu orders each in-memory change with its save so the store
	// never ends on an older snapshot.
	persistMu sync.Mutex
}

// New builds an organizer around an already wired pipeline. Call Load before
// serving requests.
func New(
	registry *category.Registry,
	store *collection.Store,
	pipeline *ingest.Pipeline,
	preferences *prefs.Preferences,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Organizer {
	return &Organizer{
		registry: registry,
		store:    store,
		pipeline: pipeline,
		prefs:    preferences,
		notifier: notifier,
		logger:   logger,
		theme:    prefs.ThemeLight,
	}
}

// Load restores the persisted categories and theme.
func (o *Organizer) Load(ctx context.Context) {
	cats := o.prefs.LoadCategories(ctx)
	o.registry.Replace(cats)

	theme := o.prefs.LoadTheme(ctx)
	o.mu.Lock()
	o.theme = theme
	o.mu.Unlock()

	o.logger.InfoContext(ctx, "preferences loaded",
		slog.Int("categories", len(cats)),
		slog.String("theme", string(theme)),
	)
}

// Ingest adds a batch of files. See ingest.Pipeline.Ingest for ownership of
// the handles.
func (o *Organizer) Ingest(ctx context.Context, files []source.File) ([]collection.FileRecord, error) {
	return o.pipeline.Ingest(ctx, files)
}

// AddCategory validates and registers a new category and persists the
// registry. A failed save is logged; the in-memory registry stays
// authoritative.
func (o *Organizer) AddCategory(ctx context.Context, name, icon, extensions string) (category.Category, error) {
	o.persistMu.Lock()
	defer o.persistMu.Unlock()

	c, err := o.registry.Add(name, icon, extensions)
	if err != nil {
		o.notifier.Notify(ctx, notify.LevelError, "Error", validationMessage(err))
		return category.Category{}, err
	}

	o.notifier.Notify(ctx, notify.LevelInfo, "Category Added",
		fmt.Sprintf("%q category has been added.", c.Name))

	if err := o.prefs.SaveCategories(ctx, o.registry.Snapshot()); err != nil {
		metrics.PrefsSaveFailures.WithLabelValues(prefs.KeyCategories).Inc()
		o.logger.WarnContext(ctx, "save categories failed", slog.String("error", err.Error()))
	}
	return c, nil
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, category.ErrEmptyName):
		return "Category name cannot be empty."
	case errors.Is(err, category.ErrDuplicateID):
		return "A category with this name already exists."
	default:
		return err.Error()
	}
}

// DeleteFile removes a file and releases its handle. It reports whether
// anything was removed; an unknown id is a silent no-op.
func (o *Organizer) DeleteFile(ctx context.Context, id string) bool {
	rec, ok := o.store.RemoveByID(id)
	if !ok {
		return false
	}
	if err := rec.Source.Release(); err != nil {
		o.logger.WarnContext(ctx, "release handle",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
	metrics.FilesCurrent.Set(float64(o.store.Len()))

	o.notifier.Notify(ctx, notify.LevelInfo, "File Removed", "The file has been removed from your list.")
	return true
}

// Files lists files in insertion order; an empty categoryID means all.
func (o *Organizer) Files(categoryID string) []collection.FileRecord {
	return o.store.Filtered(categoryID)
}

// File returns one file by id.
func (o *Organizer) File(id string) (collection.FileRecord, bool) {
	return o.store.Get(id)
}

// Counts returns the number of files per category and in total.
func (o *Organizer) Counts() Counts {
	by := o.store.CountsByCategory()
	total := 0
	for _, n := range by {
		total += n
	}
	return Counts{ByCategory: by, Total: total}
}

// Categories returns the registry in order, each with its file count.
func (o *Organizer) Categories() []CategorySummary {
	by := o.store.CountsByCategory()
	cats := o.registry.Snapshot()
	out := make([]CategorySummary, len(cats))
	for i, c := range cats {
		out[i] = CategorySummary{Category: c, IconKind: c.IconKind().String(), Count: by[c.ID]}
	}
	return out
}

// Category looks up one category.
func (o *Organizer) Category(id string) (category.Category, bool) {
	return o.registry.Lookup(id)
}

func (o *Organizer) Theme() prefs.Theme {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.theme
}

// SetTheme switches the theme and persists it.
func (o *Organizer) SetTheme(ctx context.Context, t prefs.Theme) prefs.Theme {
	t = prefs.ParseTheme(string(t))

	o.persistMu.Lock()
	defer o.persistMu.Unlock()

	o.mu.Lock()
	o.theme = t
	o.mu.Unlock()

	o.saveTheme(ctx, t)
	return t
}

// ToggleTheme flips between light and dark.
func (o *Organizer) ToggleTheme(ctx context.Context) prefs.Theme {
	o.persistMu.Lock()
	defer o.persistMu.Unlock()

	o.mu.Lock()
	t := o.theme.Toggle()
	o.theme = t
	o.mu.Unlock()

	o.saveTheme(ctx, t)
	return t
}

func (o *Organizer) saveTheme(ctx context.Context, t prefs.Theme) {
	if err := o.prefs.SaveTheme(ctx, t); err != nil {
		metrics.PrefsSaveFailures.WithLabelValues(prefs.KeyTheme).Inc()
		o.logger.WarnContext(ctx, "save theme failed", slog.String("error", err.Error()))
	}
}

// Close releases the handles of every file still held.
func (o *Organizer) Close() {
	for _, rec := range o.store.Drain() {
		if err := rec.Source.Release(); err != nil {
			o.logger.Warn("release handle",
				slog.String("id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	metrics.FilesCurrent.Set(0)
}
