package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_KeepsMostRecent(t *testing.T) {
	var buf bytes.Buffer
	f := NewFeed(2, slog.New(slog.NewJSONHandler(&buf, nil)))

	f.Notify(context.Background(), LevelInfo, "one", "")
	f.Notify(context.Background(), LevelError, "two", "broken")
	f.Notify(context.Background(), LevelInfo, "three", "")

	recent := f.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Title)
	assert.Equal(t, LevelError, recent[0].Level)
	assert.Equal(t, "three", recent[1].Title)
	assert.NotEmpty(t, recent[1].ID)
	assert.False(t, recent[1].At.IsZero())

	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"title":"two"`)
}

func TestFeed_RecentIsACopy(t *testing.T) {
	f := NewFeed(5, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	f.Notify(context.Background(), LevelInfo, "a", "")

	r := f.Recent()
	r[0].Title = "changed"
	assert.Equal(t, "a", f.Recent()[0].Title)
	assert.Equal(t, 1, f.Len())
}
