package corvid

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestFolderCountsCorruptFiles(t *testing.T) {
	requireFFmpeg(t)
	svc := newTestService(t)

	dir := t.TempDir()
	writeMelodyFixture(t, filepath.Join(dir, "good.wav"), 22050, richMelodyFreqs(), 0.5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.wav"), []byte("not a wav file"), 0o644))

	report, err := svc.IngestFolder(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.RecordingsAdded)
	assert.Equal(t, 1, report.CorruptFiles)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, filepath.Join(dir, "bad.wav"), report.Failures[0].Path)
}

func TestIngestFolderSkipsNonAudioExtensions(t *testing.T) {
	requireFFmpeg(t)
	svc := newTestService(t)

	dir := t.TempDir()
	writeMelodyFixture(t, filepath.Join(dir, "good.wav"), 22050, richMelodyFreqs(), 0.5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hello"), 0o644))

	report, err := svc.IngestFolder(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.RecordingsAdded)
	assert.Equal(t, 0, report.CorruptFiles)
}

func TestIngestFolderCancellation(t *testing.T) {
	svc := newTestService(t)

	dir := t.TempDir()
	writeMelodyFixture(t, filepath.Join(dir, "good.wav"), 22050, richMelodyFreqs(), 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.IngestFolder(ctx, dir)
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Zero(t, report.RecordingsAdded)
}

func TestIngestFolderEmptyDirectory(t *testing.T) {
	svc := newTestService(t)
	report, err := svc.IngestFolder(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, report.RecordingsAdded)
	assert.Zero(t, report.CorruptFiles)
}
