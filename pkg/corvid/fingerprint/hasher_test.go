package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintEmitsWithinTargetZone(t *testing.T) {
	peaks := []Peak{
		{Time: 0.0, Freq: 440},
		{Time: 0.5, Freq: 460}, // within [0.1,1.0]s, within 1000Hz
	}
	hashes := Fingerprint(peaks)
	require.Len(t, hashes, 1)
	for _, times := range hashes {
		assert.Equal(t, []float64{0.0}, times)
	}
}

func TestFingerprintSkipsBelowMinDelta(t *testing.T) {
	peaks := []Peak{
		{Time: 0.0, Freq: 440},
		{Time: 0.05, Freq: 440}, // below TZTMin
	}
	hashes := Fingerprint(peaks)
	assert.Empty(t, hashes)
}

func TestFingerprintStopsAtMaxDelta(t *testing.T) {
	peaks := []Peak{
		{Time: 0.0, Freq: 440},
		{Time: 0.5, Freq: 440},  // in window
		{Time: 1.5, Freq: 440},  // beyond TZTMax, should stop scan for this anchor
		{Time: 1.6, Freq: 440},
	}
	hashes := Fingerprint(peaks)
	total := 0
	for _, v := range hashes {
		total += len(v)
	}
	// anchor 0.0 pairs with 0.5 only (its scan stops at 1.5, Δt = 1.5);
	// anchor 0.5 pairs with 1.5 (Δt = 1.0, inclusive) and stops at 1.6 (Δt = 1.1);
	// anchor 1.5 pairs with 1.6 (Δt = 0.1, inclusive).
	assert.Equal(t, 3, total)
}

func TestFingerprintSkipsBeyondFreqDelta(t *testing.T) {
	peaks := []Peak{
		{Time: 0.0, Freq: 100},
		{Time: 0.5, Freq: 2000}, // Δf > 1000Hz
	}
	hashes := Fingerprint(peaks)
	assert.Empty(t, hashes)
}

func TestMixHashDeterministic(t *testing.T) {
	a := mixHash(100, 200, 5)
	b := mixHash(100, 200, 5)
	assert.Equal(t, a, b)
}

func TestMixHashDistinguishesInputs(t *testing.T) {
	a := mixHash(100, 200, 5)
	b := mixHash(100, 200, 6)
	c := mixHash(200, 100, 5)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestFingerprintHandlesFewPeaks(t *testing.T) {
	assert.Empty(t, Fingerprint(nil))
	assert.Empty(t, Fingerprint([]Peak{{Time: 0, Freq: 100}}))
}
