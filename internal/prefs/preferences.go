package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mtiwari1/filehaven/internal/category"
)

// Theme is the persisted colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme treats anything but "dark" as light.
func ParseTheme(s string) Theme {
	if s == string(ThemeDark) {
		return ThemeDark
	}
	return ThemeLight
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences reads and writes the typed preference records on a Store.
type Preferences struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Preferences {
	return &Preferences{store: store, logger: logger}
}

// LoadCategories returns the persisted registry. A missing record, a load
// failure or an unreadable record all yield the default categories.
func (p *Preferences) LoadCategories(ctx context.Context) []category.Category {
	raw, ok, err := p.store.Load(ctx, KeyCategories)
	if err != nil {
		p.logger.WarnContext(ctx, "load categories failed, using defaults", slog.String("error", err.Error()))
		return category.Defaults()
	}
	if !ok {
		return category.Defaults()
	}

	cats, err := DecodeCategories(raw)
	if err != nil {
		p.logger.WarnContext(ctx, "stored categories unreadable, using defaults", slog.String("error", err.Error()))
		return category.Defaults()
	}
	return cats
}

// SaveCategories persists the registry as a JSON array.
func (p *Preferences) SaveCategories(ctx context.Context, cats []category.Category) error {
	raw, err := json.Marshal(cats)
	if err != nil {
		return fmt.Errorf("prefs: encode categories: %w", err)
	}
	return p.store.Save(ctx, KeyCategories, string(raw))
}

// LoadTheme returns the persisted theme, light when unset or unreadable.
func (p *Preferences) LoadTheme(ctx context.Context) Theme {
	raw, ok, err := p.store.Load(ctx, KeyTheme)
	if err != nil {
		p.logger.WarnContext(ctx, "load theme failed", slog.String("error", err.Error()))
		return ThemeLight
	}
	if !ok {
		return ThemeLight
	}
	return ParseTheme(raw)
}

// SaveTheme persists the theme.
func (p *Preferences) SaveTheme(ctx context.Context, t Theme) error {
	return p.store.Save(ctx, KeyTheme, string(ParseTheme(string(t))))
}

// DecodeCategories parses a stored registry. JSON null counts as corrupt.
func DecodeCategories(raw string) ([]category.Category, error) {
	var cats []category.Category
	if err := json.Unmarshal([]byte(raw), &cats); err != nil {
		return nil, fmt.Errorf("prefs: decode categories: %w", err)
	}
	if cats == nil {
		return nil, fmt.Errorf("prefs: decode categories: null registry")
	}
	for i := range cats {
		if cats[i].ID == "" {
			return nil, fmt.Errorf("prefs: decode categories: entry %d has no id", i)
		}
		if cats[i].Extensions == nil {
			cats[i].Extensions = []string{}
		}
	}
	return cats, nil
}
