package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridSpectrogram(rows, cols int, fill func(k, t int) float64) Spectrogram {
	data := make([][]float64, rows)
	for k := range data {
		data[k] = make([]float64, cols)
		for t := range data[k] {
			data[k][t] = fill(k, t)
		}
	}
	return Spectrogram{Data: data, SampleRate: 22050}
}

func TestExtractPeaksSingleSpike(t *testing.T) {
	spec := gridSpectrogram(40, 40, func(k, t int) float64 { return -80 })
	spec.Data[20][20] = 0

	peaks := ExtractPeaks(spec, 5, -30)
	require.Len(t, peaks, 1)
	assert.Equal(t, 20, peaks[0].FreqIdx)
	assert.Equal(t, 20, peaks[0].TimeIdx)
}

func TestExtractPeaksRespectsAmpThreshold(t *testing.T) {
	spec := gridSpectrogram(40, 40, func(k, t int) float64 { return -80 })
	spec.Data[20][20] = 0
	spec.Data[5][5] = -50 // below -30 dB threshold relative to max(0)

	peaks := ExtractPeaks(spec, 3, -30)
	require.Len(t, peaks, 1)
	assert.Equal(t, 20, peaks[0].FreqIdx)
}

func TestExtractPeaksTiesBothSurvive(t *testing.T) {
	spec := gridSpectrogram(10, 10, func(k, t int) float64 { return -80 })
	spec.Data[2][2] = 0
	spec.Data[2][4] = 0 // inside each other's radius-2 neighborhood: equal, not greater

	peaks := ExtractPeaks(spec, 2, -30)
	assert.Len(t, peaks, 2)
}

func TestExtractPeaksEmptySpectrogram(t *testing.T) {
	peaks := ExtractPeaks(Spectrogram{}, 15, -30)
	assert.Nil(t, peaks)
}

func TestExtractPeaksSortedByTimeThenFreq(t *testing.T) {
	spec := gridSpectrogram(30, 30, func(k, t int) float64 { return -80 })
	spec.Data[10][5] = 0
	spec.Data[20][5] = 0
	spec.Data[15][15] = 0

	peaks := ExtractPeaks(spec, 2, -30)
	for i := 1; i < len(peaks); i++ {
		if peaks[i].TimeIdx == peaks[i-1].TimeIdx {
			assert.LessOrEqual(t, peaks[i-1].FreqIdx, peaks[i].FreqIdx)
		} else {
			assert.Less(t, peaks[i-1].TimeIdx, peaks[i].TimeIdx)
		}
	}
}

func TestExtractPeaksEdgeNeighborhoodTruncated(t *testing.T) {
	spec := gridSpectrogram(10, 10, func(k, t int) float64 { return -80 })
	spec.Data[0][0] = 0 // corner cell, truncated neighborhood

	peaks := ExtractPeaks(spec, 5, -30)
	require.Len(t, peaks, 1)
	assert.Equal(t, 0, peaks[0].FreqIdx)
	assert.Equal(t, 0, peaks[0].TimeIdx)
}
