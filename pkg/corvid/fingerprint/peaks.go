package fingerprint

import "sort"

// Peak is one local-maximum cell of a Spectrogram.
type Peak struct {
	TimeIdx int
	FreqIdx int
	Time    float64
	Freq    float64
	MagDB   float64
}

const (
	// DefaultMinDistance is the square-neighborhood radius used when callers
	// don't override it.
	DefaultMinDistance = 15

	// DefaultAmpThresholdDB is how far below the spectrogram's global
	// maximum a cell may sit and still qualify as a peak.
	DefaultAmpThresholdDB = -30.0
)

// ExtractPeaks finds every cell (k,t) of spec that is simultaneously the
// maximum of its own (2*minDistance+1)-square neighborhood (edges
// truncated, not padded) and within ampThresholdDB of the spectrogram's
// global maximum. ampThresholdDB is expected to be negative.
//
// Ties within a neighborhood all pass: a cell disqualifies only when some
// other cell in its neighborhood is strictly greater, so two equal-valued
// local maxima both survive.
func ExtractPeaks(spec Spectrogram, minDistance int, ampThresholdDB float64) []Peak {
	nBins := spec.NumFreqBins()
	nFrames := spec.NumFrames()
	if nBins == 0 || nFrames == 0 {
		return nil
	}

	globalMax := spec.Data[0][0]
	for k := 0; k < nBins; k++ {
		for t := 0; t < nFrames; t++ {
			if spec.Data[k][t] > globalMax {
				globalMax = spec.Data[k][t]
			}
		}
	}
	floor := globalMax + ampThresholdDB

	peaks := make([]Peak, 0, nFrames)
	for k := 0; k < nBins; k++ {
		kLo, kHi := k-minDistance, k+minDistance
		if kLo < 0 {
			kLo = 0
		}
		if kHi >= nBins {
			kHi = nBins - 1
		}

		for t := 0; t < nFrames; t++ {
			val := spec.Data[k][t]
			if val <= floor {
				continue
			}

			tLo, tHi := t-minDistance, t+minDistance
			if tLo < 0 {
				tLo = 0
			}
			if tHi >= nFrames {
				tHi = nFrames - 1
			}

			isPeak := true
			for kk := kLo; kk <= kHi && isPeak; kk++ {
				for tt := tLo; tt <= tHi; tt++ {
					if spec.Data[kk][tt] > val {
						isPeak = false
						break
					}
				}
			}
			if !isPeak {
				continue
			}

			peaks = append(peaks, Peak{
				TimeIdx: t,
				FreqIdx: k,
				Time:    spec.TimeSeconds(t),
				Freq:    spec.FrequencyHz(k),
				MagDB:   val,
			})
		}
	}

	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].TimeIdx == peaks[j].TimeIdx {
			return peaks[i].FreqIdx < peaks[j].FreqIdx
		}
		return peaks[i].TimeIdx < peaks[j].TimeIdx
	})

	return peaks
}
