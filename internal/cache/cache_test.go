package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/estatescout/internal/model"
)

func TestKey_StableAndDistinct(t *testing.T) {
	a := Key("https://portal.example.gov/case/1")
	assert.Equal(t, a, Key("https://portal.example.gov/case/1"))
	assert.NotEqual(t, a, Key("https://portal.example.gov/case/2"))
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(Key("u"), []byte("body"), 0))
	got, ok := c.Get(Key("u"))
	require.True(t, ok)
	assert.Equal(t, []byte("body"), got)

	now = now.Add(2 * time.Hour)
	_, ok = c.Get(Key("u"))
	assert.False(t, ok, "entry should expire")

	_, err := os.Stat(c.path(Key("u")))
	assert.True(t, os.IsNotExist(err), "expired file should be removed")
}

func TestDiskCache_Prune(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("short", []byte("a"), time.Minute))
	require.NoError(t, c.Set("long", []byte("b"), 3*time.Hour))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk"+diskSuffix), []byte("{"), 0o644))

	now = now.Add(time.Hour)
	removed, err := c.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok := c.Get("long")
	assert.True(t, ok)
}

func TestDiskCache_DeleteMissing(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	assert.NoError(t, c.Delete("missing"))
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	require.NoError(t, c.disk.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, ok = c.memory.Get("k")
	assert.True(t, ok, "disk hit should be promoted to memory")
}

func TestPageCache_PutGet(t *testing.T) {
	pc := New(model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour})

	page := &Page{
		URL:       "https://portal.example.gov/case/1",
		Body:      []byte("<html></html>"),
		Meta:      model.FetchMeta{StatusCode: 200, ContentType: "text/html"},
		FetchedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pc.Put(page))

	got, ok := pc.Get(page.URL)
	require.True(t, ok)
	assert.Equal(t, page.Body, got.Body)
	assert.Equal(t, 200, got.Meta.StatusCode)
	assert.True(t, got.FetchedAt.Equal(page.FetchedAt))

	require.NoError(t, pc.Forget(page.URL))
	_, ok = pc.Get(page.URL)
	assert.False(t, ok)
}

func TestPageCache_Disabled(t *testing.T) {
	pc := New(model.CacheConfig{Enabled: false})
	require.NoError(t, pc.Put(&Page{URL: "u"}))
	_, ok := pc.Get("u")
	assert.False(t, ok)
}
