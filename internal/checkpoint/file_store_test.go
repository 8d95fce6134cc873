package checkpoint_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/firm-intel-crawler/internal/checkpoint"
)

func TestNewFileStore(t *testing.T) {
	t.Parallel()

	_, err := checkpoint.NewFileStore("  ", nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "nested", "dir", "progress.json")
	store, err := checkpoint.NewFileStore(path, nil)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Dir(path))
	assert.Equal(t, path, store.Path())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "progress_completed.json"), store.ArchivePath())
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scraper_progress.json")
	store, err := checkpoint.NewFileStore(path, nil)
	require.NoError(t, err)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	want := checkpoint.State{
		AllTargets: []string{"https://a.example", "https://b.example"},
		Processed:  []string{"https://a.example"},
		Failed:     []checkpoint.Failure{{Target: "https://b.example", Reason: "no_content"}},
		StartTime:  &start,
	}
	require.NoError(t, store.Save(ctx, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got := store.Load(ctx)
	assert.Equal(t, want.AllTargets, got.AllTargets)
	assert.Equal(t, want.Processed, got.Processed)
	assert.Equal(t, want.Failed, got.Failed)
	require.NotNil(t, got.StartTime)
	assert.True(t, start.Equal(*got.StartTime))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreLoadTolerance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	dir := t.TempDir()

	missing, err := checkpoint.NewFileStore(filepath.Join(dir, "missing.json"), zap.New(core))
	require.NoError(t, err)
	assert.True(t, missing.Load(ctx).IsZero())

	corruptPath := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corruptPath, []byte(`{"all_targets": [`), 0o600))
	corrupt, err := checkpoint.NewFileStore(corruptPath, zap.New(core))
	require.NoError(t, err)
	assert.True(t, corrupt.Load(ctx).IsZero())

	assert.Equal(t, 1, logs.FilterMessage("no checkpoint found, starting fresh").Len())
	assert.Equal(t, 1, logs.FilterMessage("checkpoint corrupt, starting fresh").Len())
}

func TestFileStoreArchive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scraper_progress.json")
	store, err := checkpoint.NewFileStore(path, nil)
	require.NoError(t, err)

	err = store.Archive(ctx)
	require.ErrorIs(t, err, checkpoint.ErrNotFound)

	require.NoError(t, store.Save(ctx, checkpoint.State{AllTargets: []string{"a"}, Processed: []string{"a"}}))
	require.NoError(t, store.Archive(ctx))

	assert.NoFileExists(t, path)
	assert.FileExists(t, store.ArchivePath())
	assert.True(t, store.Load(ctx).IsZero(), "a fresh run starts after archive")
}
