package corvid

import (
	"context"
	"errors"
	"fmt"

	"github.com/corvidlabs/corvid/pkg/corvid/audio"
	"github.com/corvidlabs/corvid/pkg/corvid/fingerprint"
	"github.com/corvidlabs/corvid/pkg/logger"
)

// SlideIncrementSeconds is how far a query's start is advanced when a
// window produces too few peaks to fingerprint.
const SlideIncrementSeconds = 0.5

type corvidService struct {
	storage Storage
	log     Logger
	config  *Config
}

// NewService builds a Service from the given options, opening the default
// (or configured) SQLite index and logger when the caller doesn't supply
// their own.
func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	stor := cfg.Storage
	if stor == nil {
		var err error
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("creating storage: %w", err)
		}
	}

	return &corvidService{storage: stor, log: cfg.Logger, config: cfg}, nil
}

func (s *corvidService) extractPeaks(result audio.Result) ([]fingerprint.Peak, error) {
	spec, err := fingerprint.STFT(result.Samples, result.SampleRate)
	if err != nil {
		return nil, wrapDecode(err)
	}
	return fingerprint.ExtractPeaks(spec, s.config.Params.PeakMinDist, s.config.Params.PeakMinAmpDB), nil
}

// AddRecording fingerprints audioPath and stores it as songName.
func (s *corvidService) AddRecording(ctx context.Context, audioPath, songName string) (uint32, error) {
	s.log.Infof("adding recording %q from %s", songName, audioPath)

	loader := audio.NewLoader(s.config.TempDir)
	result, err := loader.Load(ctx, audioPath, 0, 0)
	if err != nil {
		if errors.Is(err, audio.ErrIO) {
			return 0, wrapIO(err)
		}
		return 0, wrapDecode(err)
	}
	durationSeconds := float64(len(result.Samples)) / float64(result.SampleRate)

	songID, err := s.storage.AddRecording(songName, audioPath, durationSeconds)
	if err != nil {
		return 0, err
	}

	existing, err := s.storage.HashCount(songID)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		s.log.Debugf("recording %q already ingested (song_id=%d), skipping fingerprint re-store", songName, songID)
		return songID, nil
	}

	peaks, err := s.extractPeaks(result)
	if err != nil {
		return 0, err
	}
	hashes := fingerprint.Fingerprint(peaks)
	if err := s.storage.AddFingerprints(songID, hashes); err != nil {
		return 0, err
	}

	s.log.Infof("recording %q stored as song_id=%d with %d hashes", songName, songID, len(hashes))
	return songID, nil
}

// IngestFolder fingerprints every recognized audio file directly under dir.
func (s *corvidService) IngestFolder(ctx context.Context, dir string) (IngestReport, error) {
	return s.ingestFolder(ctx, dir)
}

// Identify loads audioPath (optionally windowed), fingerprints it, and
// matches it against the index. If the window yields fewer than
// MinPeaksForFingerprint peaks, the window is slid forward in
// SlideIncrementSeconds increments until enough peaks are found or the
// remaining source audio is shorter than the configured clip length, at
// which point NO_MATCH is returned.
func (s *corvidService) Identify(ctx context.Context, audioPath string, offsetSeconds, durationSeconds float64) (MatchResult, error) {
	loader := audio.NewLoader(s.config.TempDir)
	clipLen := durationSeconds
	if clipLen == 0 {
		clipLen = s.config.Params.ClipLenSeconds
	}

	offset := offsetSeconds
	for {
		if err := ctx.Err(); err != nil {
			return MatchResult{Cancelled: true}, nil
		}

		result, err := loader.Load(ctx, audioPath, offset, durationSeconds)
		if err != nil {
			if IsCancelled(err) {
				return MatchResult{Cancelled: true}, nil
			}
			if audio.IsOffsetBeyondEnd(err) {
				return MatchResult{}, nil
			}
			if errors.Is(err, audio.ErrIO) {
				return MatchResult{}, wrapIO(err)
			}
			return MatchResult{}, wrapDecode(err)
		}

		peaks, err := s.extractPeaks(result)
		if err != nil {
			return MatchResult{}, err
		}

		if len(peaks) >= MinPeaksForFingerprint {
			return s.matchPeaks(ctx, peaks)
		}

		windowDuration := float64(len(result.Samples)) / float64(result.SampleRate)
		if windowDuration < clipLen {
			return MatchResult{}, nil
		}

		s.log.Debugf("window at %.1fs produced only %d peaks, sliding forward", offset, len(peaks))
		offset += SlideIncrementSeconds
	}
}

func (s *corvidService) matchPeaks(ctx context.Context, peaks []fingerprint.Peak) (MatchResult, error) {
	hashes := fingerprint.Fingerprint(peaks)
	outcome, err := fingerprint.Match(ctx, hashes, storageLookup{s.storage})
	if err != nil {
		return MatchResult{}, err
	}
	if outcome.Cancelled {
		return MatchResult{Cancelled: true}, nil
	}
	if !outcome.IsMatch() {
		return MatchResult{}, nil
	}

	rec, err := s.storage.GetRecording(outcome.SongID)
	if err != nil {
		return MatchResult{}, err
	}
	if rec == nil {
		return MatchResult{}, nil
	}

	return MatchResult{Recording: rec, Score: outcome.Score, Confidence: outcome.Confidence}, nil
}

func (s *corvidService) GetRecording(songID uint32) (*Recording, error) {
	return s.storage.GetRecording(songID)
}

func (s *corvidService) ListRecordings() ([]Recording, error) {
	return s.storage.ListRecordings()
}

func (s *corvidService) DeleteRecording(songID uint32) error {
	return s.storage.DeleteRecording(songID)
}

func (s *corvidService) Close() error {
	return s.storage.Close()
}

// AnalyzeThresholds self-identifies every recording in the index against
// its own stored audio file and classifies the outcome at scoreThreshold.
func (s *corvidService) AnalyzeThresholds(ctx context.Context, scoreThreshold int) (ThresholdReport, error) {
	recordings, err := s.storage.ListRecordings()
	if err != nil {
		return ThresholdReport{}, err
	}

	report := ThresholdReport{Threshold: scoreThreshold, PerRecording: make([]RecordingThreshold, 0, len(recordings))}
	for _, rec := range recordings {
		if err := ctx.Err(); err != nil {
			return report, nil
		}

		result, err := s.Identify(ctx, rec.FilePath, 0, 0)
		if err != nil {
			return report, err
		}

		entry := RecordingThreshold{SongID: rec.SongID, SongName: rec.SongName}
		switch {
		case !result.IsMatch():
			report.NoMatch++
		case result.Recording.SongID == rec.SongID && result.Score >= scoreThreshold:
			entry.Matched, entry.Correct = true, true
			entry.Score, entry.Confidence = result.Score, result.Confidence
			report.TruePositives++
		case result.Recording.SongID == rec.SongID:
			entry.Matched, entry.Correct = true, true
			entry.Score, entry.Confidence = result.Score, result.Confidence
			report.FalseNegatives++
		default:
			entry.Matched = true
			entry.Score, entry.Confidence = result.Score, result.Confidence
			report.FalsePositives++
		}
		report.PerRecording = append(report.PerRecording, entry)
	}

	return report, nil
}

// storageLookup adapts Storage to fingerprint.HashLookup.
type storageLookup struct {
	storage Storage
}

func (l storageLookup) LookupMany(hashes []int64) (map[int64][]fingerprint.Hit, error) {
	raw, err := l.storage.LookupMany(hashes)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]fingerprint.Hit, len(raw))
	for hash, hits := range raw {
		converted := make([]fingerprint.Hit, len(hits))
		for i, h := range hits {
			converted[i] = fingerprint.Hit{SongID: h.SongID, AnchorTimeSeconds: h.AnchorTimeSeconds}
		}
		out[hash] = converted
	}
	return out, nil
}
