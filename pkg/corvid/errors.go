package corvid

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
)

// Sentinel error kinds per the engine's error-handling design: decoding and
// per-file failures are recovered locally inside ingest, while a single
// Identify call surfaces everything to its caller. Wrap a sentinel with
// fmt.Errorf("...: %w", ErrDecode) at the call site and recover the kind with
// errors.Is.
var (
	// ErrDecode means the input audio could not be decoded at all (format
	// not recognized, corrupt stream).
	ErrDecode = xerrors.New("decode error")

	// ErrIO means an underlying storage/file operation failed.
	ErrIO = xerrors.New("io error")

	// ErrIndex means the fingerprint index's schema is missing, corrupt, or
	// violated a constraint other than the expected song-name uniqueness.
	ErrIndex = xerrors.New("index error")

	// ErrEmptyFingerprint means a recording produced fewer than the minimum
	// peak count even after the loader's window was exhausted.
	ErrEmptyFingerprint = xerrors.New("fewer than minimum peaks extracted")

	// ErrCancelled means the caller's context was cancelled mid-operation.
	ErrCancelled = xerrors.New("operation cancelled")
)

// MinPeaksForFingerprint is the threshold below which a window's peak list is
// too sparse to fingerprint.
const MinPeaksForFingerprint = 10

// IsDecodeError reports whether err (or something it wraps) is ErrDecode.
func IsDecodeError(err error) bool { return errors.Is(err, ErrDecode) }

// IsIOError reports whether err (or something it wraps) is ErrIO.
func IsIOError(err error) bool { return errors.Is(err, ErrIO) }

// IsIndexError reports whether err (or something it wraps) is ErrIndex.
func IsIndexError(err error) bool { return errors.Is(err, ErrIndex) }

// IsEmptyFingerprintError reports whether err wraps ErrEmptyFingerprint.
func IsEmptyFingerprintError(err error) bool { return errors.Is(err, ErrEmptyFingerprint) }

// IsCancelled reports whether err wraps ErrCancelled or context.Canceled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

func wrapDecode(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrDecode, err)
}

func wrapIO(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrIO, err)
}

func wrapIndex(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrIndex, err)
}
