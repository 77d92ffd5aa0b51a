package fingerprint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHann(t *testing.T) {
	w := Hann(16)
	require.Len(t, w, 16)
	for _, v := range w {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	// symmetric Hann touches zero at both edges
	assert.InDelta(t, 0.0, w[0], 1e-9)
}

func sineWave(freq float64, rate, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(rate))
	}
	return samples
}

func TestSTFTShape(t *testing.T) {
	rate := 22050
	samples := sineWave(440, rate, rate*2)

	spec, err := STFT(samples, rate)
	require.NoError(t, err)

	assert.Equal(t, FrameSize/2+1, spec.NumFreqBins())
	expectedFrames := (len(samples)-FrameSize)/HopSize + 1
	assert.Equal(t, expectedFrames, spec.NumFrames())
}

func TestSTFTMaxIsZeroDB(t *testing.T) {
	rate := 22050
	samples := sineWave(1000, rate, rate)

	spec, err := STFT(samples, rate)
	require.NoError(t, err)

	max := -math.MaxFloat64
	for _, row := range spec.Data {
		for _, v := range row {
			if v > max {
				max = v
			}
			assert.GreaterOrEqual(t, v, MinDB)
		}
	}
	assert.InDelta(t, 0.0, max, 1e-9)
}

func TestSTFTRejectsShortInput(t *testing.T) {
	_, err := STFT(make([]float64, FrameSize-1), 22050)
	assert.Error(t, err)
}

func TestSTFTRejectsInvalidRate(t *testing.T) {
	_, err := STFT(make([]float64, FrameSize*4), 0)
	assert.Error(t, err)
}

func TestFrameAndBinMapping(t *testing.T) {
	spec := Spectrogram{SampleRate: 22050, Data: make([][]float64, 3)}
	for i := range spec.Data {
		spec.Data[i] = make([]float64, 5)
	}

	assert.Equal(t, 0.0, spec.TimeSeconds(0))
	assert.InDelta(t, float64(HopSize)/22050.0, spec.TimeSeconds(1), 1e-12)

	assert.Equal(t, 0.0, spec.FrequencyHz(0))
	assert.InDelta(t, float64(22050)/FrameSize, spec.FrequencyHz(1), 1e-9)
}

func TestSTFTDetectsDominantFrequency(t *testing.T) {
	rate := 22050
	targetFreq := 2000.0
	samples := sineWave(targetFreq, rate, rate)

	spec, err := STFT(samples, rate)
	require.NoError(t, err)

	// find the loudest bin in a middle frame
	midFrame := spec.NumFrames() / 2
	bestBin, bestVal := 0, -math.MaxFloat64
	for k := 0; k < spec.NumFreqBins(); k++ {
		if spec.Data[k][midFrame] > bestVal {
			bestVal = spec.Data[k][midFrame]
			bestBin = k
		}
	}

	gotFreq := spec.FrequencyHz(bestBin)
	assert.InDelta(t, targetFreq, gotFreq, float64(rate)/FrameSize*2)
}
