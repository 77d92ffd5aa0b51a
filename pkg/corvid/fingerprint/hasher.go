package fingerprint

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sort"
)

// Target-zone constants bounding which peak pairs become a hash. Δt is
// scanned in ascending time order per anchor and the scan stops the moment
// it exceeds TZTMax, since peaks are time-sorted and no later peak can fall
// back inside the window.
const (
	TZTMin = 0.1    // seconds
	TZTMax = 1.0    // seconds
	TZFMax = 1000.0 // Hz
)

// Fingerprint builds the constellation-pair hash table for a time-sorted
// peak set: for every anchor peak, every later peak within the target zone
// emits one hash keyed to the anchor's time. The same hash value may recur
// for several anchor times, and the returned slices are not deduplicated.
func Fingerprint(peaks []Peak) map[int64][]float64 {
	sorted := make([]Peak, len(peaks))
	copy(sorted, peaks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	hashes := make(map[int64][]float64)
	for i, anchor := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			target := sorted[j]
			dt := target.Time - anchor.Time
			if dt > TZTMax {
				break
			}
			if dt < TZTMin {
				continue
			}
			df := math.Abs(target.Freq - anchor.Freq)
			if df > TZFMax {
				continue
			}

			h := mixHash(int64(math.Floor(anchor.Freq)), int64(math.Floor(target.Freq)), int64(math.Floor(dt*10)))
			hashes[h] = append(hashes[h], anchor.Time)
		}
	}
	return hashes
}

// mixHash folds the (f_a, f_b, Δt*10) triplet into a stable 64-bit hash via
// FNV-1a. The mixer must not change across the lifetime of an index file:
// changing it invalidates every fingerprint already stored.
func mixHash(fa, fb, dtBin int64) int64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range [3]int64{fa, fb, dtBin} {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	return int64(h.Sum64())
}
