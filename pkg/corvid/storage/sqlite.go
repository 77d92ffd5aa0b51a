// Package storage implements the Fingerprint Index (C5): a SQLite-backed
// store of recordings and the hashes fingerprinting them, reachable through
// the corvid.Storage interface.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/corvidlabs/corvid/pkg/utils"
)

// RecordingInfo is the storage package's own recording value type, kept
// independent of pkg/corvid's Recording to avoid an import cycle (corvid
// imports storage, not the reverse); pkg/corvid's storage_adapter.go
// converts between the two.
type RecordingInfo struct {
	SongID              uint32
	SongName            string
	FilePath            string
	SongDurationSeconds float64
}

// FingerprintHit is one posting-list row returned by a hash lookup.
type FingerprintHit struct {
	SongID            uint32
	AnchorTimeSeconds float64
}

// DefaultDBFile is used when no path is supplied.
const DefaultDBFile = "corvid.sqlite3"

// Recording is the Songs relation: one row per ingested recording.
type Recording struct {
	SongID              uint32  `gorm:"column:song_id;primaryKey;autoIncrement"`
	SongName            string  `gorm:"column:song_name;uniqueIndex"`
	FilePath            string  `gorm:"column:file_path"`
	SongDurationSeconds float64 `gorm:"column:song_duration_seconds"`
	CreatedAt           time.Time
}

// Fingerprint is one row of the Fingerprints relation: a hash value paired
// with the recording and anchor-time offset that produced it. HashValue
// carries a non-unique index for O(log N + k) lookups.
type Fingerprint struct {
	ID                uint    `gorm:"primaryKey;autoIncrement"`
	HashValue         int64   `gorm:"column:hash_value;index:idx_hash_value"`
	SongID            uint32  `gorm:"column:song_id;index:idx_song_id"`
	AnchorTimeSeconds float64 `gorm:"column:offset"`
}

// SQLiteIndex is the GORM-backed implementation of corvid.Storage.
type SQLiteIndex struct {
	db *gorm.DB
}

// Open creates or opens the fingerprint index at path, ensuring its schema
// exists. Idempotent: calling it again against the same path is a no-op
// beyond opening the connection.
func Open(path string) (*SQLiteIndex, error) {
	if path == "" {
		path = DefaultDBFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	// a single writer at a time; SQLite serializes writers regardless, this
	// just keeps the pool from fanning out more readers than useful.
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Recording{}, &Fingerprint{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLiteIndex{db: db}, nil
}

// AddRecording inserts a new recording, or returns the existing song_id if
// songName is already present (no-op update).
func (s *SQLiteIndex) AddRecording(songName, filePath string, durationSeconds float64) (uint32, error) {
	var rec Recording
	err := s.db.Where("song_name = ?", songName).First(&rec).Error
	if err == nil {
		return rec.SongID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("querying existing recording: %w", err)
	}

	rec = Recording{SongName: songName, FilePath: filePath, SongDurationSeconds: durationSeconds}
	if err := s.db.Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			if fetchErr := s.db.Where("song_name = ?", songName).First(&rec).Error; fetchErr != nil {
				return 0, fmt.Errorf("fetching recording after constraint violation: %w", fetchErr)
			}
			return rec.SongID, nil
		}
		return 0, fmt.Errorf("creating recording: %w", err)
	}
	return rec.SongID, nil
}

// AddFingerprints inserts every (hash, offset) pair for songID in one
// transaction, batching the insert to avoid one round trip per row.
func (s *SQLiteIndex) AddFingerprints(songID uint32, hashes map[int64][]float64) error {
	rows := make([]Fingerprint, 0, len(hashes))
	for hash, offsets := range hashes {
		for _, offset := range offsets {
			rows = append(rows, Fingerprint{
				HashValue:         hash,
				SongID:            songID,
				AnchorTimeSeconds: offset,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 500).Error
	})
}

// Lookup returns every (song_id, anchor_time_seconds) pair stored under hash.
func (s *SQLiteIndex) Lookup(hash int64) ([]FingerprintHit, error) {
	var rows []Fingerprint
	if err := s.db.Where("hash_value = ?", hash).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying fingerprints: %w", err)
	}
	hits := make([]FingerprintHit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, FingerprintHit{SongID: r.SongID, AnchorTimeSeconds: r.AnchorTimeSeconds})
	}
	return hits, nil
}

// LookupMany batches Lookup over multiple hashes in a single query.
func (s *SQLiteIndex) LookupMany(hashes []int64) (map[int64][]FingerprintHit, error) {
	result := make(map[int64][]FingerprintHit)
	if len(hashes) == 0 {
		return result, nil
	}

	var rows []Fingerprint
	if err := s.db.Where("hash_value IN ?", hashes).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("batch querying fingerprints: %w", err)
	}
	for _, r := range rows {
		result[r.HashValue] = append(result[r.HashValue], FingerprintHit{
			SongID:            r.SongID,
			AnchorTimeSeconds: r.AnchorTimeSeconds,
		})
	}
	return result, nil
}

// GetRecording retrieves a recording's metadata by id.
func (s *SQLiteIndex) GetRecording(songID uint32) (*RecordingInfo, error) {
	var rec Recording
	if err := s.db.First(&rec, "song_id = ?", songID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying recording: %w", err)
	}
	return toRecordingInfo(rec), nil
}

// ListRecordings returns every recording in the index.
func (s *SQLiteIndex) ListRecordings() ([]RecordingInfo, error) {
	var recs []Recording
	if err := s.db.Order("song_id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}
	out := make([]RecordingInfo, 0, len(recs))
	for _, r := range recs {
		out = append(out, *toRecordingInfo(r))
	}
	return out, nil
}

// DeleteRecording removes a recording and all its fingerprints in one
// transaction.
func (s *SQLiteIndex) DeleteRecording(songID uint32) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", songID).Delete(&Fingerprint{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Recording{}, "song_id = ?", songID).Error
	})
}

// HashCount returns how many fingerprint rows belong to songID.
func (s *SQLiteIndex) HashCount(songID uint32) (int, error) {
	var count int64
	if err := s.db.Model(&Fingerprint{}).Where("song_id = ?", songID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting hashes: %w", err)
	}
	return int(count), nil
}

// Close releases the underlying database connection.
func (s *SQLiteIndex) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecordingInfo(r Recording) *RecordingInfo {
	return &RecordingInfo{
		SongID:              r.SongID,
		SongName:            r.SongName,
		FilePath:            r.FilePath,
		SongDurationSeconds: r.SongDurationSeconds,
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return msg != "" && (strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed"))
}
