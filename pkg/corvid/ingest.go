package corvid

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// audioExtensions bounds which files IngestFolder attempts to decode;
// anything else is skipped silently rather than counted as corrupt, since
// it was never audio to begin with.
var audioExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".flac": true, ".ogg": true,
	".m4a": true, ".aac": true, ".opus": true, ".wma": true,
}

// ingestFolder walks dir (non-recursively) and fingerprints every
// recognized audio file into the service's index, skipping files that
// fail to decode (counted as corrupt) and propagating any other error.
// Each file commits in its own transaction via AddRecording/
// AddFingerprints, so a failure partway through leaves the index
// consistent: a recording either has all its fingerprints or none.
func (s *corvidService) ingestFolder(ctx context.Context, dir string) (IngestReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestReport{}, wrapIO(err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	report := IngestReport{}
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			return report, nil
		}

		songName := filepath.Base(path)
		songID, err := s.AddRecording(ctx, path, songName)
		if err != nil {
			if IsDecodeError(err) {
				report.CorruptFiles++
				report.Failures = append(report.Failures, IngestFailure{Path: path, Err: err})
				s.log.Warnf("skipping corrupt file %s: %v", path, err)
				bar.Add(1)
				continue
			}
			return report, err
		}

		hashCount, err := s.storage.HashCount(songID)
		if err != nil {
			return report, err
		}

		report.RecordingsAdded++
		report.FingerprintCount += hashCount
		bar.Add(1)
	}

	return report, nil
}
