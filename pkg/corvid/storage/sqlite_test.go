package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test_corvid.sqlite3")
	idx, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestOpenCreatesSchema(t *testing.T) {
	idx := setupTestIndex(t)
	var count int64
	require.NoError(t, idx.db.Model(&Recording{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddRecording(t *testing.T) {
	idx := setupTestIndex(t)

	id, err := idx.AddRecording("Sandstorm", "/songs/sandstorm.wav", 225.0)
	require.NoError(t, err)
	assert.NotZero(t, id)

	rec, err := idx.GetRecording(id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Sandstorm", rec.SongName)
	assert.Equal(t, 225.0, rec.SongDurationSeconds)
}

func TestAddRecordingIdempotent(t *testing.T) {
	idx := setupTestIndex(t)

	id1, err := idx.AddRecording("Same Name", "/a.wav", 10)
	require.NoError(t, err)
	id2, err := idx.AddRecording("Same Name", "/b.wav", 20)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)

	recs, err := idx.ListRecordings()
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestAddFingerprintsAndLookup(t *testing.T) {
	idx := setupTestIndex(t)
	songID, err := idx.AddRecording("Test Song", "/t.wav", 30)
	require.NoError(t, err)

	err = idx.AddFingerprints(songID, map[int64][]float64{
		12345: {1.0, 2.0},
		67890: {3.0},
	})
	require.NoError(t, err)

	hits, err := idx.Lookup(12345)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, songID, h.SongID)
	}

	count, err := idx.HashCount(songID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestLookupUnknownHash(t *testing.T) {
	idx := setupTestIndex(t)
	hits, err := idx.Lookup(999)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLookupManyAcrossSongs(t *testing.T) {
	idx := setupTestIndex(t)
	song1, _ := idx.AddRecording("Song 1", "/1.wav", 10)
	song2, _ := idx.AddRecording("Song 2", "/2.wav", 10)

	require.NoError(t, idx.AddFingerprints(song1, map[int64][]float64{111: {0.5}}))
	require.NoError(t, idx.AddFingerprints(song2, map[int64][]float64{111: {1.5}, 222: {2.5}}))

	result, err := idx.LookupMany([]int64{111, 222, 333})
	require.NoError(t, err)
	assert.Len(t, result[111], 2)
	assert.Len(t, result[222], 1)
	assert.Empty(t, result[333])
}

func TestDeleteRecordingCascadesFingerprints(t *testing.T) {
	idx := setupTestIndex(t)
	songID, _ := idx.AddRecording("To Delete", "/d.wav", 10)
	require.NoError(t, idx.AddFingerprints(songID, map[int64][]float64{1: {0}, 2: {0}}))

	require.NoError(t, idx.DeleteRecording(songID))

	rec, err := idx.GetRecording(songID)
	require.NoError(t, err)
	assert.Nil(t, rec)

	count, err := idx.HashCount(songID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListRecordingsOrdered(t *testing.T) {
	idx := setupTestIndex(t)
	idx.AddRecording("A", "/a.wav", 1)
	idx.AddRecording("B", "/b.wav", 1)
	idx.AddRecording("C", "/c.wav", 1)

	recs, err := idx.ListRecordings()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.True(t, recs[0].SongID < recs[1].SongID)
	assert.True(t, recs[1].SongID < recs[2].SongID)
}

func TestAddFingerprintsEmptyIsNoop(t *testing.T) {
	idx := setupTestIndex(t)
	songID, _ := idx.AddRecording("Empty", "/e.wav", 1)
	require.NoError(t, idx.AddFingerprints(songID, map[int64][]float64{}))

	count, err := idx.HashCount(songID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetRecordingNotFound(t *testing.T) {
	idx := setupTestIndex(t)
	rec, err := idx.GetRecording(99999)
	require.NoError(t, err)
	assert.Nil(t, rec)
}
