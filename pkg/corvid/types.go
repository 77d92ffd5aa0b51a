package corvid

// Recording is a reference audio item in the fingerprint index. SongID is
// assigned monotonically by the storage layer; SongName is unique and
// re-ingesting it is a no-op that returns the existing id.
type Recording struct {
	SongID              uint32
	SongName            string
	FilePath            string
	SongDurationSeconds float64
}

// MatchResult is the outcome of identifying a query clip against the index.
// A nil *Recording with Score == 0 and Confidence == 0 encodes NO_MATCH.
type MatchResult struct {
	Recording  *Recording
	Score      int     // vote count in the winning offset bin
	Confidence float64 // alignment_confidence: share of this song's matched hashes agreeing on one offset
	Cancelled  bool    // true if the caller's context was cancelled before completion
}

// IsMatch reports whether this result names a recording at all, independent
// of any deployment-chosen score threshold (the matcher itself never censors
// results by score).
func (m MatchResult) IsMatch() bool { return m.Recording != nil }

// IngestFailure records one file that the ingest pipeline skipped.
type IngestFailure struct {
	Path string
	Err  error
}

// IngestReport summarizes one folder ingest run.
type IngestReport struct {
	RecordingsAdded  int
	FingerprintCount int
	CorruptFiles     int
	Failures         []IngestFailure
	Cancelled        bool
}

// ThresholdReport summarizes AnalyzeThresholds's self-match classification
// of every recording in the index against one candidate score threshold.
type ThresholdReport struct {
	Threshold int

	// TruePositives is recordings that self-matched correctly at or above
	// the threshold.
	TruePositives int

	// FalseNegatives is recordings that self-matched correctly but scored
	// below the threshold (the threshold is too high).
	FalseNegatives int

	// FalsePositives is recordings whose self-match named a different
	// recording, at or above the threshold.
	FalsePositives int

	// NoMatch is recordings that produced no match at all against their own
	// index entry.
	NoMatch int

	PerRecording []RecordingThreshold
}

// RecordingThreshold is one recording's self-match outcome within a
// ThresholdReport.
type RecordingThreshold struct {
	SongID     uint32
	SongName   string
	Score      int
	Confidence float64
	Matched    bool // true if Identify returned any match
	Correct    bool // true if the match named this recording's own song id
}
