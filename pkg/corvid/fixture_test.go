package corvid

import (
	"math"
	"os"
	"os/exec"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed, skipping test that decodes audio")
	}
}

// writeMelodyFixture synthesizes a short sequence of pure tones, one per
// entry in freqs, each held for noteSeconds, and writes it as a mono 16-bit
// WAV at sampleRate. A melody (rather than a single sustained tone) gives
// the spectrogram enough distinct frequency/time content to produce more
// than MinPeaksForFingerprint peaks.
func writeMelodyFixture(t *testing.T, path string, sampleRate int, freqs []float64, noteSeconds float64) {
	t.Helper()

	samplesPerNote := int(float64(sampleRate) * noteSeconds)
	data := make([]int, 0, samplesPerNote*len(freqs))
	for _, freq := range freqs {
		for i := 0; i < samplesPerNote; i++ {
			t := float64(i) / float64(sampleRate)
			v := math.Sin(2*math.Pi*freq*t) + 0.3*math.Sin(2*math.Pi*freq*2*t)
			data = append(data, int(v*20000))
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   data,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func richMelodyFreqs() []float64 {
	return []float64{440, 554.37, 659.25, 880, 1046.5, 1318.5}
}
