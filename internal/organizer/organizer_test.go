package organizer

import (
	"context"
	"errors"
	"io"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtiwari1/filehaven/internal/category"
	"github.com/mtiwari1/filehaven/internal/collection"
	"github.com/mtiwari1/filehaven/internal/ingest"
	"github.com/mtiwari1/filehaven/internal/notify"
	"github.com/mtiwari1/filehaven/internal/prefs"
	"github.com/mtiwari1/filehaven/internal/source"
	"github.com/mtiwari1/filehaven/internal/worker"
)

type noPreview struct{}

func (noPreview) Generate(context.Context, source.File) (string, error) { return "", nil }

type brokenStore struct{ *prefs.MemoryStore }

func (brokenStore) Save(context.Context, string, string) error {
	return errors.New("disk full")
}

// gatedStore holds the first categories save until release is closed.
type gatedStore struct {
	*prefs.MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: prefs.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedStore) Save(ctx context.Context, key, value string) error {
	if key == prefs.KeyCategories {
		first := false
		g.once.Do(func() { first = true })
		if first {
			close(g.entered)
			<-g.release
		}
	}
	return g.MemoryStore.Save(ctx, key, value)
}

type recorder struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recorder) Notify(_ context.Context, level notify.Level, title, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notify.Notification{Level: level, Title: title, Description: description})
}

func (r *recorder) last() notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func newOrganizer(t *testing.T, store prefs.Store) (*Organizer, *recorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pool := worker.NewPool(2, noPreview{}, logger)
	pool.Start()
	t.Cleanup(pool.Shutdown)

	rec := &recorder{}
	registry := category.NewRegistry(category.Defaults())
	files := collection.NewStore()
	pipeline := ingest.NewPipeline(registry, pool, files, rec, logger)

	o := New(registry, files, pipeline, prefs.New(store, logger), rec, logger)
	o.Load(context.Background())
	return o, rec
}

func ingestNames(t *testing.T, o *Organizer, names ...string) []collection.FileRecord {
	t.Helper()
	files := make([]source.File, len(names))
	for i, n := range names {
		files[i] = source.NewBytes(n, "", []byte("x"))
	}
	records, err := o.Ingest(context.Background(), files)
	require.NoError(t, err)
	return records
}

func TestOrganizer_CountsAndFilter(t *testing.T) {
	o, _ := newOrganizer(t, prefs.NewMemoryStore())
	ingestNames(t, o, "a.jpg", "b.png", "c.pdf", "d")

	counts := o.Counts()
	assert.Equal(t, 4, counts.Total)
	assert.Equal(t, 2, counts.ByCategory["photos"])
	assert.Equal(t, 1, counts.ByCategory["documents"])
	assert.Equal(t, 1, counts.ByCategory["other"])

	photos := o.Files("photos")
	require.Len(t, photos, 2)
	assert.Equal(t, "a.jpg", photos[0].Source.Name())
	assert.Len(t, o.Files(""), 4)

	var music CategorySummary
	for _, c := range o.Categories() {
		if c.ID == "music" {
			music = c
		}
	}
	assert.Equal(t, 0, music.Count)
	assert.Equal(t, "audio", music.IconKind)
}

func TestOrganizer_AddCategoryPersistsAndNotifies(t *testing.T) {
	store := prefs.NewMemoryStore()
	o, rec := newOrganizer(t, store)

	c, err := o.AddCategory(context.Background(), "  Design Files ", "", ".PSD, ai, .psd")
	require.NoError(t, err)
	assert.Equal(t, "design-files", c.ID)
	assert.Equal(t, "Design Files", c.Name)
	assert.Equal(t, "file", c.Icon)
	assert.Equal(t, []string{".psd", ".ai"}, c.Extensions)

	assert.Equal(t, "Category Added", rec.last().Title)
	assert.Equal(t, `"Design Files" category has been added.`, rec.last().Description)

	raw, ok, err := store.Load(context.Background(), prefs.KeyCategories)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"design-files"`)

	records := ingestNames(t, o, "logo.psd")
	assert.Equal(t, "design-files", records[0].CategoryID)
}

func TestOrganizer_AddCategoryValidation(t *testing.T) {
	o, rec := newOrganizer(t, prefs.NewMemoryStore())
	before := len(o.Categories())

	_, err := o.AddCategory(context.Background(), "   ", "image", ".x")
	assert.ErrorIs(t, err, category.ErrEmptyName)
	assert.Equal(t, notify.LevelError, rec.last().Level)
	assert.Equal(t, "Category name cannot be empty.", rec.last().Description)

	_, err = o.AddCategory(context.Background(), "Photos", "image", ".x")
	assert.ErrorIs(t, err, category.ErrDuplicateID)
	assert.Len(t, o.Categories(), before)
}

func TestOrganizer_SaveFailureKeepsMemoryState(t *testing.T) {
	o, _ := newOrganizer(t, brokenStore{MemoryStore: prefs.NewMemoryStore()})

	_, err := o.AddCategory(context.Background(), "Code", "file", ".go")
	require.NoError(t, err)
	_, ok := o.Category("code")
	assert.True(t, ok)

	assert.Equal(t, prefs.ThemeDark, o.ToggleTheme(context.Background()))
	assert.Equal(t, prefs.ThemeDark, o.Theme())
}

func TestOrganizer_DeleteFile(t *testing.T) {
	o, rec := newOrganizer(t, prefs.NewMemoryStore())
	records := ingestNames(t, o, "a.txt", "b.txt")
	notified := rec.count()

	assert.True(t, o.DeleteFile(context.Background(), records[0].ID))
	assert.Equal(t, "File Removed", rec.last().Title)
	_, err := records[0].Source.Open()
	assert.ErrorIs(t, err, source.ErrReleased)

	assert.False(t, o.DeleteFile(context.Background(), records[0].ID))
	assert.Equal(t, notified+1, rec.count(), "absent id is a silent no-op")
	assert.Equal(t, 1, o.Counts().Total)
}

func TestOrganizer_ThemePersists(t *testing.T) {
	store := prefs.NewMemoryStore()
	o, _ := newOrganizer(t, store)
	assert.Equal(t, prefs.ThemeLight, o.Theme())

	assert.Equal(t, prefs.ThemeDark, o.ToggleTheme(context.Background()))
	assert.Equal(t, prefs.ThemeLight, o.SetTheme(context.Background(), "sepia"))
	assert.Equal(t, prefs.ThemeDark, o.SetTheme(context.Background(), prefs.ThemeDark))

	again, _ := newOrganizer(t, store)
	assert.Equal(t, prefs.ThemeDark, again.Theme())
}

func TestOrganizer_CloseReleasesHandles(t *testing.T) {
	o, _ := newOrganizer(t, prefs.NewMemoryStore())
	records := ingestNames(t, o, "a.txt")

	o.Close()
	assert.Zero(t, o.Counts().Total)
	_, err := records[0].Source.Open()
	assert.ErrorIs(t, err, source.ErrReleased)
}

func TestOrganizer_SlowSaveDoesNotOverwriteNewerCategories(t *testing.T) {
	store := newGatedStore()
	o, _ := newOrganizer(t, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := o.AddCategory(ctx, "Alpha", "file", ".alpha")
		assert.NoError(t, err)
	}()
	<-store.entered

	go func() {
		defer wg.Done()
		_, err := o.AddCategory(ctx, "Beta", "file", ".beta")
		assert.NoError(t, err)
	}()
	close(store.release)
	wg.Wait()

	raw, ok, err := store.Load(ctx, prefs.KeyCategories)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"alpha"`)
	assert.Contains(t, raw, `"beta"`)

	again, _ := newOrganizer(t, store)
	_, ok = again.Category("beta")
	assert.True(t, ok)
}

func TestOrganizer_ThemeSaveMatchesMemory(t *testing.T) {
	store := prefs.NewMemoryStore()
	o, _ := newOrganizer(t, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			o.ToggleTheme(ctx)
		}()
		go func() {
			defer wg.Done()
			o.SetTheme(ctx, prefs.ThemeLight)
		}()
	}
	wg.Wait()

	raw, ok, err := store.Load(ctx, prefs.KeyTheme)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, string(o.Theme()), raw)
}

func TestOrganizer_ConcurrentMutations(t *testing.T) {
	o, _ := newOrganizer(t, prefs.NewMemoryStore())
	ctx := context.Background()

	names := make([]string, 40)
	for i := range names {
		names[i] = fmt.Sprintf("f%02d.txt", i)
	}
	records := ingestNames(t, o, names...)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := o.AddCategory(ctx, fmt.Sprintf("Kind %d", i), "file", fmt.Sprintf(".k%d", i))
			assert.NoError(t, err)
		}(i)
	}
	for i := range records {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			o.DeleteFile(ctx, id)
		}(records[i].ID)
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen := map[string]bool{}
			for _, rec := range o.Files("") {
				assert.False(t, seen[rec.ID], "duplicate record in listing")
				seen[rec.ID] = true
			}
			o.Categories()
		}()
	}
	wg.Wait()

	assert.Zero(t, o.Counts().Total)
	assert.Len(t, o.Categories(), len(category.Defaults())+8)
}
