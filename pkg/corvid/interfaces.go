package corvid

import "context"

// Service is the programmatic surface the CLI (and any embedding program)
// drives: ingest reference recordings, then identify query clips against
// them.
type Service interface {
	// AddRecording fingerprints one audio file and stores it in the index.
	// Re-adding a recording with the same name is a no-op that returns the
	// existing song id.
	AddRecording(ctx context.Context, audioPath, songName string) (uint32, error)

	// IngestFolder fingerprints every audio file found directly under dir,
	// skipping and counting files that fail to decode, surfacing any other
	// error.
	IngestFolder(ctx context.Context, dir string) (IngestReport, error)

	// Identify loads audioPath (optionally windowed to offsetSeconds,
	// durationSeconds), fingerprints it, and returns the best match in the
	// index, or a NO_MATCH result. A zero durationSeconds uses the whole
	// decoded clip.
	Identify(ctx context.Context, audioPath string, offsetSeconds, durationSeconds float64) (MatchResult, error)

	// GetRecording retrieves a recording's metadata by its database id.
	GetRecording(songID uint32) (*Recording, error)

	// ListRecordings returns every recording in the index.
	ListRecordings() ([]Recording, error)

	// DeleteRecording removes a recording and all its fingerprints.
	DeleteRecording(songID uint32) error

	// Close releases resources held by the service (index connections etc).
	Close() error

	// AnalyzeThresholds is a read-only diagnostic: it self-identifies every
	// recording in the index against itself and classifies the outcome at
	// the given score threshold, to help a deployer pick one. It never
	// modifies the index.
	AnalyzeThresholds(ctx context.Context, scoreThreshold int) (ThresholdReport, error)
}

// Storage is the persistence layer interface for the Fingerprint Index (C5).
// Implementations must allow one writer at a time with concurrent readers.
type Storage interface {
	// AddRecording inserts or, if songName already exists, returns the
	// existing Recording's id without modifying it further.
	AddRecording(songName, filePath string, durationSeconds float64) (uint32, error)

	// AddFingerprints batch-inserts every (hash, offset) pair for songID in
	// a single transaction.
	AddFingerprints(songID uint32, hashes map[int64][]float64) error

	// Lookup returns every (song_id, anchor_time_seconds) pair stored under
	// hash.
	Lookup(hash int64) ([]FingerprintHit, error)

	// LookupMany batches Lookup over multiple hashes in one round trip.
	LookupMany(hashes []int64) (map[int64][]FingerprintHit, error)

	GetRecording(songID uint32) (*Recording, error)
	ListRecordings() ([]Recording, error)
	DeleteRecording(songID uint32) error
	HashCount(songID uint32) (int, error)

	Close() error
}

// FingerprintHit is one posting-list row returned by a hash lookup.
type FingerprintHit struct {
	SongID            uint32
	AnchorTimeSeconds float64
}

// Logger is the logging interface used by the service, satisfied by
// *pkg/logger.Logger.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
