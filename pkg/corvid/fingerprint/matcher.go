package fingerprint

import (
	"context"
	"math"
	"sort"
)

// HashLookup resolves a hash to the (song_id, anchor_time_seconds) pairs an
// index has stored for it; pkg/corvid adapts its Storage's LookupMany to it.
type HashLookup interface {
	LookupMany(hashes []int64) (map[int64][]Hit, error)
}

// Hit is one posting-list row: a recording id plus the anchor time the
// matching hash was stored under.
type Hit struct {
	SongID            uint32
	AnchorTimeSeconds float64
}

// offsetBinScale rounds a time delta to 0.1s bins: histogram keys are the
// rounded value scaled by 10 so they compare exactly as integers.
const offsetBinScale = 10.0

// MatchOutcome is the histogram-vote winner for one query fingerprint.
type MatchOutcome struct {
	SongID     uint32
	Score      int
	Confidence float64 // alignment_confidence
	Cancelled  bool
}

// IsMatch reports whether this outcome names a song at all.
func (m MatchOutcome) IsMatch() bool { return m.Score > 0 || m.SongID != 0 }

// Match runs the offset-histogram algorithm: every (sample_anchor, db_anchor)
// pair sharing a hash casts one vote in histogram[song_id][round(db_anchor -
// sample_anchor, 0.1s)]; the winning (song_id, bin) is the cell with the
// highest vote count, tie-broken by lowest song_id then smallest bin.
//
// Lookups proceed in chunks of lookupChunk hashes so ctx can be checked
// between chunks per the cooperative-cancellation contract; a cancelled
// context returns whatever
// partial histogram has accumulated, flagged Cancelled.
func Match(ctx context.Context, sampleHashes map[int64][]float64, lookup HashLookup) (MatchOutcome, error) {
	// histogram[songID][binKey] = votes, where binKey = round(delta*10).
	histogram := make(map[uint32]map[int64]int)
	totalBySong := make(map[uint32]int)

	hashes := make([]int64, 0, len(sampleHashes))
	for h := range sampleHashes {
		hashes = append(hashes, h)
	}

	const lookupChunk = 256
	for start := 0; start < len(hashes); start += lookupChunk {
		if err := ctx.Err(); err != nil {
			return finalize(histogram, totalBySong, true), nil
		}

		end := start + lookupChunk
		if end > len(hashes) {
			end = len(hashes)
		}
		chunk := hashes[start:end]

		hits, err := lookup.LookupMany(chunk)
		if err != nil {
			return MatchOutcome{}, err
		}

		for _, h := range chunk {
			entries := hits[h]
			if len(entries) == 0 {
				continue
			}
			for _, sampleAnchor := range sampleHashes[h] {
				for _, entry := range entries {
					delta := entry.AnchorTimeSeconds - sampleAnchor
					binKey := int64(math.Round(delta * offsetBinScale))

					bins, ok := histogram[entry.SongID]
					if !ok {
						bins = make(map[int64]int)
						histogram[entry.SongID] = bins
					}
					bins[binKey]++
					totalBySong[entry.SongID]++
				}
			}
		}
	}

	return finalize(histogram, totalBySong, false), nil
}

func finalize(histogram map[uint32]map[int64]int, totalBySong map[uint32]int, cancelled bool) MatchOutcome {
	if len(histogram) == 0 {
		return MatchOutcome{Cancelled: cancelled}
	}

	songIDs := make([]uint32, 0, len(histogram))
	for songID := range histogram {
		songIDs = append(songIDs, songID)
	}
	sort.Slice(songIDs, func(i, j int) bool { return songIDs[i] < songIDs[j] })

	var bestSong uint32
	bestScore := -1

	for _, songID := range songIDs {
		bins := histogram[songID]
		binKeys := make([]int64, 0, len(bins))
		for bin := range bins {
			binKeys = append(binKeys, bin)
		}
		sort.Slice(binKeys, func(i, j int) bool { return binKeys[i] < binKeys[j] })

		for _, bin := range binKeys {
			if score := bins[bin]; score > bestScore {
				bestScore = score
				bestSong = songID
			}
		}
	}

	confidence := 0.0
	if total := totalBySong[bestSong]; total > 0 {
		confidence = float64(bestScore) / float64(total)
	}

	return MatchOutcome{SongID: bestSong, Score: bestScore, Confidence: confidence, Cancelled: cancelled}
}

// DensityConfidence computes the diagnostic density_confidence metric:
// score divided by the statistically expected vote count for a true match
// of this duration against a recording with hashCount hashes over
// songDurationSeconds. Returns false if expected is zero (undefined).
func DensityConfidence(score, hashCount int, sampleDurationSeconds, songDurationSeconds float64) (float64, bool) {
	if songDurationSeconds <= 0 {
		return 0, false
	}
	expected := float64(hashCount) * sampleDurationSeconds / songDurationSeconds
	if expected == 0 {
		return 0, false
	}
	return float64(score) / expected, true
}
