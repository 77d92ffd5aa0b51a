// Package audio implements the Audio Loader (C1): decoding an input file to
// mono PCM at a fixed target rate, honoring an optional (offset, duration)
// window. Format decoding itself is delegated to ffmpeg; this package owns
// the windowing, mono mixdown, and rate contract the fingerprinting engine
// depends on.
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"

	"github.com/corvidlabs/corvid/pkg/utils"
)

// ErrDecode and ErrIO are the two failure kinds the loader can produce; they
// mirror pkg/corvid's error kinds but live here to avoid an import cycle
// (pkg/corvid imports this package, not the reverse). pkg/corvid maps ErrIO
// onto its own ErrIO and every other loader error onto its ErrDecode.
var (
	ErrDecode = xerrors.New("decode error")
	ErrIO     = xerrors.New("io error")
)

// Result is the decoded, windowed clip ready for spectrogram analysis.
type Result struct {
	Samples    []float64 // mono, normalized to [-1, 1]
	SampleRate int       // always TargetSampleRate on success
}

const (
	// TargetSampleRate is the rate every decoded clip is resampled to.
	TargetSampleRate = 22050

	decodeTimeout = 2 * time.Minute
)

// ErrOffsetBeyondEnd is returned by Load when offsetSeconds falls at or past
// the end of the source audio.
var ErrOffsetBeyondEnd = fmt.Errorf("%w: requested offset is beyond the end of the audio", ErrDecode)

// IsOffsetBeyondEnd reports whether err indicates the requested offset fell
// at or past the end of the source audio.
func IsOffsetBeyondEnd(err error) bool {
	return errors.Is(err, ErrOffsetBeyondEnd)
}

// Loader decodes audio files to mono PCM at TargetSampleRate using ffmpeg,
// honoring an optional (offset, duration) window.
type Loader struct {
	// TempDir holds the intermediate WAV ffmpeg produces. Each call uses a
	// freshly named file and removes it on every exit path.
	TempDir string
}

func NewLoader(tempDir string) *Loader {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Loader{TempDir: tempDir}
}

// Load decodes path to mono float64 PCM at TargetSampleRate. When
// durationSeconds is 0 the whole remaining file (from offsetSeconds) is
// returned. offsetSeconds must be >= 0.
func (l *Loader) Load(ctx context.Context, path string, offsetSeconds, durationSeconds float64) (Result, error) {
	if offsetSeconds < 0 {
		return Result{}, fmt.Errorf("%w: negative offset: %f", ErrDecode, offsetSeconds)
	}

	if err := utils.MakeDir(l.TempDir); err != nil {
		return Result{}, fmt.Errorf("%w: creating temp dir: %v", ErrIO, err)
	}

	tmpName := fmt.Sprintf("corvid-%s.wav", uuid.NewString())
	tmpPath := filepath.Join(l.TempDir, tmpName)
	defer os.Remove(tmpPath)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, decodeTimeout)
		defer cancel()
	}

	args := []string{"-y", "-v", "error"}
	if offsetSeconds > 0 {
		args = append(args, "-ss", fmt.Sprintf("%f", offsetSeconds))
	}
	args = append(args, "-i", path)
	if durationSeconds > 0 {
		args = append(args, "-t", fmt.Sprintf("%f", durationSeconds))
	}
	args = append(args,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", TargetSampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if err != nil {
		return Result{}, fmt.Errorf("%w: ffmpeg failed: %v (%s)", ErrDecode, err, out)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: missing decoded output: %v", ErrIO, err)
	}
	if info.Size() <= 44 { // bare RIFF/WAVE header, no frames: offset past end of input
		return Result{SampleRate: TargetSampleRate}, ErrOffsetBeyondEnd
	}

	result, err := readWAV(tmpPath)
	if err == nil && len(result.Samples) == 0 { // header (and metadata chunks) only: offset past end of input
		return Result{SampleRate: TargetSampleRate}, ErrOffsetBeyondEnd
	}
	return result, err
}

func readWAV(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading PCM buffer: %v", ErrDecode, err)
	}
	if buf.Format == nil || buf.Format.NumChannels != 1 {
		return Result{}, fmt.Errorf("%w: expected mono PCM, got %+v", ErrDecode, buf.Format)
	}

	// integer PCM is divided by 2^(bitDepth-1) so full scale maps to [-1, 1]
	scale := math.Exp2(float64(buf.SourceBitDepth - 1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}

	return Result{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}
