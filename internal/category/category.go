// Package category holds the classification rules of the organizer: the
// category model, the default rule set and the extension classifier.
package category

import (
	"path"
	"slices"
	"strings"
)

// FallbackID is returned by Classify when no category claims a suffix.
const FallbackID = "other"

// Category is a named bucket of filename extensions.
type Category struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Icon       string   `json:"icon"`
	Extensions []string `json:"extensions"`
}

// IconKind resolves the stored icon tag to the closed icon enumeration.
func (c Category) IconKind() Icon {
	return ParseIcon(c.Icon)
}

// Claims reports whether ext (dotted, lowercase) belongs to the category.
func (c Category) Claims(ext string) bool {
	return slices.Contains(c.Extensions, ext)
}

func (c Category) clone() Category {
	c.Extensions = slices.Clone(c.Extensions)
	if c.Extensions == nil {
		c.Extensions = []string{}
	}
	return c
}

var defaults = []Category{
	{ID: "photos", Name: "Photos", Icon: "image", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg"}},
	{ID: "documents", Name: "Documents", Icon: "file-text", Extensions: []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".rtf", ".md"}},
	{ID: "music", Name: "Music", Icon: "music", Extensions: []string{".mp3", ".wav", ".ogg", ".flac", ".aac", ".m4a"}},
	{ID: "videos", Name: "Videos", Icon: "film", Extensions: []string{".mp4", ".avi", ".mov", ".wmv", ".mkv", ".webm"}},
	{ID: "archives", Name: "Archives", Icon: "archive", Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz"}},
	{ID: FallbackID, Name: "Other", Icon: "file", Extensions: []string{}},
}

// Defaults returns a fresh copy of the first-run category set.
func Defaults() []Category {
	return cloneAll(defaults)
}

// Suffix returns the dotted, lowercased suffix after the last '.' of the
// file's base name, or "" when there is none.
func Suffix(filename string) string {
	name := strings.ToLower(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// Classify returns the id of the first category, in order, that claims the
// suffix of filename. Names without a suffix and unclaimed suffixes resolve
// to FallbackID. Only the part after the last dot counts, so "a.tar.gz" is
// classified by ".gz".
func Classify(filename string, categories []Category) string {
	ext := Suffix(filename)
	if ext == "" {
		return FallbackID
	}
	for _, c := range categories {
		if c.Claims(ext) {
			return c.ID
		}
	}
	return FallbackID
}

func cloneAll(cats []Category) []Category {
	out := make([]Category, len(cats))
	for i, c := range cats {
		out[i] = c.clone()
	}
	return out
}
