package category

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_DefaultExtensions(t *testing.T) {
	cats := Defaults()
	for _, c := range cats {
		for _, ext := range c.Extensions {
			assert.Equal(t, c.ID, Classify("file"+ext, cats), "extension %s", ext)
			assert.Equal(t, c.ID, Classify("UPPER"+ext, cats), "uppercase name with %s", ext)
		}
	}
}

func TestClassify_Fallback(t *testing.T) {
	cats := Defaults()

	tests := []struct {
		name     string
		filename string
	}{
		{"unknown extension", "program.exe"},
		{"no dot", "README"},
		{"trailing dot", "weird."},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, FallbackID, Classify(tt.filename, cats))
		})
	}
}

func TestClassify_LastDotOnly(t *testing.T) {
	cats := Defaults()
	assert.Equal(t, "archives", Classify("archive.tar.gz", cats))
	assert.Equal(t, "photos", Classify("holiday.final.JPG", cats))
}

func TestClassify_FirstMatchWins(t *testing.T) {
	cats := []Category{
		{ID: "first", Extensions: []string{".dup"}},
		{ID: "second", Extensions: []string{".dup", ".two"}},
	}
	assert.Equal(t, "first", Classify("a.dup", cats))
	assert.Equal(t, "second", Classify("a.two", cats))

	cats[0], cats[1] = cats[1], cats[0]
	assert.Equal(t, "second", Classify("a.dup", cats))
}

func TestClassify_EmptyExtensionSetNeverMatches(t *testing.T) {
	cats := []Category{{ID: "catch-all", Extensions: []string{}}}
	assert.Equal(t, FallbackID, Classify("a.bin", cats))
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, ".gz", Suffix("backup.tar.gz"))
	assert.Equal(t, ".bashrc", Suffix(".bashrc"))
	assert.Equal(t, ".png", Suffix("dir.with.dots/photo.PNG"))
	assert.Equal(t, "", Suffix("dir.with.dots/noext"))
}

func TestRegistry_AddRoundTrip(t *testing.T) {
	reg := NewRegistry(Defaults())

	c, err := reg.Add("Design", "file", ".psd, .ai")
	require.NoError(t, err)
	assert.Equal(t, Category{ID: "design", Name: "Design", Icon: "file", Extensions: []string{".psd", ".ai"}}, c)

	assert.Equal(t, "design", reg.Classify("mock.psd"))
	assert.Equal(t, "design", Classify("mock.psd", reg.Snapshot()))

	snap := reg.Snapshot()
	assert.Len(t, snap, len(Defaults())+1)
	assert.Equal(t, "design", snap[len(snap)-1].ID)
}

func TestRegistry_AddNormalizesInput(t *testing.T) {
	reg := NewRegistry(nil)

	c, err := reg.Add("  My   Source Code ", "", "py, .JS,, ts ,py")
	require.NoError(t, err)
	assert.Equal(t, "my-source-code", c.ID)
	assert.Equal(t, "My   Source Code", c.Name)
	assert.Equal(t, DefaultIconTag, c.Icon)
	assert.Equal(t, []string{".py", ".js", ".ts"}, c.Extensions)
}

func TestRegistry_AddEmptyExtensions(t *testing.T) {
	reg := NewRegistry(nil)

	c, err := reg.Add("Misc", "archive", " , ,")
	require.NoError(t, err)
	assert.Empty(t, c.Extensions)
	assert.NotNil(t, c.Extensions)
}

func TestRegistry_AddValidation(t *testing.T) {
	reg := NewRegistry(Defaults())

	_, err := reg.Add("   ", "file", ".x")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = reg.Add("Photos", "image", ".heic")
	assert.ErrorIs(t, err, ErrDuplicateID)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "photos", verr.Value)

	assert.Len(t, reg.Snapshot(), len(Defaults()), "rejected adds must not change the registry")
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	reg := NewRegistry(Defaults())

	snap := reg.Snapshot()
	snap[0].Extensions[0] = ".mutated"
	snap[0].ID = "mutated"

	c, ok := reg.Lookup("photos")
	require.True(t, ok)
	assert.Equal(t, ".jpg", c.Extensions[0])
}

func TestRegistry_Replace(t *testing.T) {
	reg := NewRegistry(Defaults())
	reg.Replace([]Category{{ID: "only", Name: "Only", Icon: "file", Extensions: []string{".jpg"}}})

	assert.Equal(t, "only", reg.Classify("a.jpg"))
	_, ok := reg.Lookup("photos")
	assert.False(t, ok)
}

func TestParseIcon(t *testing.T) {
	tests := map[string]Icon{
		"file":         IconGeneric,
		"file-text":    IconDocument,
		"image":        IconImage,
		"music":        IconAudio,
		"film":         IconVideo,
		"archive":      IconArchive,
		"video":        IconVideo,
		"sparkles":     IconGeneric,
		"":             IconGeneric,
		"IMAGE":        IconGeneric,
		"future-shape": IconGeneric,
	}
	for tag, want := range tests {
		assert.Equal(t, want, ParseIcon(tag), "tag %q", tag)
	}
	assert.Equal(t, "audio", IconAudio.String())
	assert.Equal(t, "generic", Icon(42).String())
}

func TestDefaultsAreIndependentCopies(t *testing.T) {
	a := Defaults()
	a[0].Extensions = append(a[0].Extensions, ".raw")
	b := Defaults()
	assert.NotContains(t, b[0].Extensions, ".raw")
}
