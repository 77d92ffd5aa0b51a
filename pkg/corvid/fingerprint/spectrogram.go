// Package fingerprint implements the Spectrogrammer (C2), Peak Picker (C3),
// and Fingerprint Hasher (C4): turning decoded PCM into a sparse set of
// content-addressable hashes.
package fingerprint

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Frame/hop/window parameters are fixed, not tunable: the hasher's
// TZT/TZF constants and the matcher's offset-bin width are only meaningful
// at this frame-to-time mapping.
const (
	FrameSize = 2048
	HopSize   = 512

	// MinDB floors the decibel matrix; any magnitude this far or further
	// below the matrix maximum is clamped rather than left to diverge
	// toward -Inf on near-silent frames.
	MinDB = -80.0
)

// Spectrogram is a log-amplitude magnitude matrix, frequency-major:
// Data[k][t] is bin k of frame t, in dB relative to the matrix maximum (so
// max(Data) == 0, except for all-zero input, where every cell is MinDB).
type Spectrogram struct {
	Data       [][]float64 // [freqBin][frame]
	SampleRate int
}

// NumFreqBins returns N/2+1, the one-sided bin count.
func (s Spectrogram) NumFreqBins() int {
	if len(s.Data) == 0 {
		return 0
	}
	return len(s.Data)
}

// NumFrames returns the number of STFT frames.
func (s Spectrogram) NumFrames() int {
	if len(s.Data) == 0 {
		return 0
	}
	return len(s.Data[0])
}

// TimeSeconds maps a frame index to its start time, per t_seconds(frame) =
// frame * H / rate.
func (s Spectrogram) TimeSeconds(frame int) float64 {
	return float64(frame) * float64(HopSize) / float64(s.SampleRate)
}

// FrequencyHz maps a bin index to its center frequency, per f_hz(k) = k *
// rate / N.
func (s Spectrogram) FrequencyHz(bin int) float64 {
	return float64(bin) * float64(s.SampleRate) / float64(FrameSize)
}

// Hann returns a symmetric Hann window of length n (zero at both ends).
func Hann(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// magnitudeOneSided extracts the N/2+1 non-redundant bins (DC through
// Nyquist inclusive) of a real FFT's conjugate-symmetric output.
func magnitudeOneSided(spectrum []complex128) []float64 {
	half := len(spectrum)/2 + 1
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// STFT computes the fixed-parameter short-time Fourier transform of
// samples at the given rate: frame length FrameSize, hop HopSize, Hann
// window, one-sided magnitude, converted to dB relative to the matrix
// maximum and floored at MinDB.
func STFT(samples []float64, rate int) (Spectrogram, error) {
	if rate <= 0 {
		return Spectrogram{}, fmt.Errorf("sample rate must be positive, got %d", rate)
	}
	if len(samples) < FrameSize {
		return Spectrogram{}, fmt.Errorf("%d samples is shorter than frame size %d", len(samples), FrameSize)
	}

	window := Hann(FrameSize)
	numFrames := (len(samples)-FrameSize)/HopSize + 1
	numBins := FrameSize/2 + 1

	// column-major accumulation (per-frame magnitude vectors), transposed
	// into the frequency-major Spectrogram.Data layout once the global max
	// is known.
	frames := make([][]float64, numFrames)
	maxMag := 0.0

	frame := make([]float64, FrameSize)
	for t := 0; t < numFrames; t++ {
		start := t * HopSize
		copy(frame, samples[start:start+FrameSize])
		for i := range frame {
			frame[i] *= window[i]
		}

		spectrum := fft.FFTReal(frame)
		mag := magnitudeOneSided(spectrum)
		frames[t] = mag
		for _, m := range mag {
			if m > maxMag {
				maxMag = m
			}
		}
	}

	data := make([][]float64, numBins)
	for k := range data {
		data[k] = make([]float64, numFrames)
	}

	for t, mag := range frames {
		for k, m := range mag {
			db := MinDB
			if maxMag > 0 && m > 0 {
				db = 20 * math.Log10(m/maxMag)
				if db < MinDB {
					db = MinDB
				}
			}
			data[k][t] = db
		}
	}

	return Spectrogram{Data: data, SampleRate: rate}, nil
}
