package collection

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, cat string) FileRecord {
	return FileRecord{ID: id, CategoryID: cat}
}

func ids(records []FileRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.InsertBatch([]FileRecord{rec("1", "photos"), rec("2", "music"), rec("3", "photos")}))
	require.NoError(t, s.InsertBatch([]FileRecord{rec("4", "other"), rec("5", "photos")}))
	return s
}

func TestStore_FilteredView(t *testing.T) {
	s := seeded(t)

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(s.Filtered("")))
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(s.All()))
	assert.Equal(t, []string{"1", "3", "5"}, ids(s.Filtered("photos")))
	assert.Equal(t, []string{"2"}, ids(s.Filtered("music")))
	assert.Empty(t, s.Filtered("videos"))
}

func TestStore_CountsByCategory(t *testing.T) {
	s := seeded(t)

	counts := s.CountsByCategory()
	assert.Equal(t, map[string]int{"photos": 3, "music": 1, "other": 1}, counts)
	_, present := counts["videos"]
	assert.False(t, present, "empty categories are absent")

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, s.Len(), total)
}

func TestStore_RemoveByIDIsIdempotent(t *testing.T) {
	s := seeded(t)

	removed, ok := s.RemoveByID("3")
	require.True(t, ok)
	assert.Equal(t, "3", removed.ID)
	assert.Equal(t, []string{"1", "2", "4", "5"}, ids(s.All()))

	_, ok = s.RemoveByID("3")
	assert.False(t, ok)
	assert.Equal(t, []string{"1", "2", "4", "5"}, ids(s.All()))

	// the index stays consistent after a removal in the middle
	got, ok := s.Get("5")
	require.True(t, ok)
	assert.Equal(t, "photos", got.CategoryID)
	assert.Equal(t, 2, s.CountsByCategory()["photos"])
}

func TestStore_InsertBatchIsAtomic(t *testing.T) {
	s := seeded(t)

	err := s.InsertBatch([]FileRecord{rec("6", "music"), rec("2", "music")})
	assert.ErrorIs(t, err, ErrDuplicateID)

	err = s.InsertBatch([]FileRecord{rec("7", "music"), rec("7", "music")})
	assert.ErrorIs(t, err, ErrDuplicateID)

	err = s.InsertBatch([]FileRecord{rec("8", "music"), rec("", "music")})
	assert.Error(t, err)

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(s.All()), "rejected batches leave the store unchanged")
	_, ok := s.Get("6")
	assert.False(t, ok)
}

func TestStore_InsertEmptyBatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.InsertBatch(nil))
	assert.Zero(t, s.Len())
}

func TestStore_Drain(t *testing.T) {
	s := seeded(t)
	drained := s.Drain()
	assert.Len(t, drained, 5)
	assert.Zero(t, s.Len())
	require.NoError(t, s.InsertBatch([]FileRecord{rec("1", "photos")}), "ids are free again after a drain")
}

func TestStore_ViewsAreCopies(t *testing.T) {
	s := seeded(t)
	view := s.Filtered("")
	view[0].CategoryID = "mutated"

	got, _ := s.Get("1")
	assert.Equal(t, "photos", got.CategoryID)
}

func TestStore_ManyRemovals(t *testing.T) {
	s := NewStore()
	batch := make([]FileRecord, 0, 20)
	for i := 0; i < 20; i++ {
		batch = append(batch, rec(fmt.Sprint(i), "c"))
	}
	require.NoError(t, s.InsertBatch(batch))

	for i := 0; i < 20; i += 2 {
		_, ok := s.RemoveByID(fmt.Sprint(i))
		require.True(t, ok)
	}
	for i := 1; i < 20; i += 2 {
		got, ok := s.Get(fmt.Sprint(i))
		require.True(t, ok)
		assert.Equal(t, fmt.Sprint(i), got.ID)
	}
	assert.Equal(t, 10, s.Len())
}
