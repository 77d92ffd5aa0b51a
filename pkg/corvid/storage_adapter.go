package corvid

import "github.com/corvidlabs/corvid/pkg/corvid/storage"

// sqliteAdapter adapts *storage.SQLiteIndex to the Storage interface,
// converting between storage's package-local value types and corvid's.
type sqliteAdapter struct {
	idx *storage.SQLiteIndex
}

// NewSQLiteStorage opens the on-disk fingerprint index at dbPath.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	idx, err := storage.Open(dbPath)
	if err != nil {
		return nil, wrapIndex(err)
	}
	return &sqliteAdapter{idx: idx}, nil
}

func (a *sqliteAdapter) AddRecording(songName, filePath string, durationSeconds float64) (uint32, error) {
	id, err := a.idx.AddRecording(songName, filePath, durationSeconds)
	if err != nil {
		return 0, wrapIndex(err)
	}
	return id, nil
}

func (a *sqliteAdapter) AddFingerprints(songID uint32, hashes map[int64][]float64) error {
	if err := a.idx.AddFingerprints(songID, hashes); err != nil {
		return wrapIndex(err)
	}
	return nil
}

func (a *sqliteAdapter) Lookup(hash int64) ([]FingerprintHit, error) {
	hits, err := a.idx.Lookup(hash)
	if err != nil {
		return nil, wrapIndex(err)
	}
	return toFingerprintHits(hits), nil
}

func (a *sqliteAdapter) LookupMany(hashes []int64) (map[int64][]FingerprintHit, error) {
	raw, err := a.idx.LookupMany(hashes)
	if err != nil {
		return nil, wrapIndex(err)
	}
	out := make(map[int64][]FingerprintHit, len(raw))
	for hash, hits := range raw {
		out[hash] = toFingerprintHits(hits)
	}
	return out, nil
}

func (a *sqliteAdapter) GetRecording(songID uint32) (*Recording, error) {
	info, err := a.idx.GetRecording(songID)
	if err != nil {
		return nil, wrapIndex(err)
	}
	if info == nil {
		return nil, nil
	}
	return toRecording(info), nil
}

func (a *sqliteAdapter) ListRecordings() ([]Recording, error) {
	infos, err := a.idx.ListRecordings()
	if err != nil {
		return nil, wrapIndex(err)
	}
	out := make([]Recording, 0, len(infos))
	for _, info := range infos {
		out = append(out, *toRecording(&info))
	}
	return out, nil
}

func (a *sqliteAdapter) DeleteRecording(songID uint32) error {
	if err := a.idx.DeleteRecording(songID); err != nil {
		return wrapIndex(err)
	}
	return nil
}

func (a *sqliteAdapter) HashCount(songID uint32) (int, error) {
	count, err := a.idx.HashCount(songID)
	if err != nil {
		return 0, wrapIndex(err)
	}
	return count, nil
}

func (a *sqliteAdapter) Close() error {
	return wrapIndex(a.idx.Close())
}

func toFingerprintHits(hits []storage.FingerprintHit) []FingerprintHit {
	out := make([]FingerprintHit, len(hits))
	for i, h := range hits {
		out[i] = FingerprintHit{SongID: h.SongID, AnchorTimeSeconds: h.AnchorTimeSeconds}
	}
	return out
}

func toRecording(info *storage.RecordingInfo) *Recording {
	return &Recording{
		SongID:              info.SongID,
		SongName:            info.SongName,
		FilePath:            info.FilePath,
		SongDurationSeconds: info.SongDurationSeconds,
	}
}
