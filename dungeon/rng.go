package dungeon

import "math"

// RNG is a deterministic pseudo-random stream keyed by an integer seed.
// It folds a sine wave: x' = sin(x) * 10000, draw = frac(x'). The same seed
// and the same call sequence always produce the same values, which is what
// makes map generation reproducible. An RNG instance is passed explicitly
// into the generators; there is no global source to swap and restore.
//
// Not safe for concurrent use; each generation run owns its own instance.
type RNG struct {
	x float64
}

func NewRNG(seed int64) *RNG {
	return &RNG{x: math.Sin(float64(seed)) * 10000}
}

// Float64 returns the next draw in [0,1).
func (r *RNG) Float64() float64 {
	r.x = math.Sin(r.x) * 10000
	return r.x - math.Floor(r.x)
}

// IntRange returns a uniform integer in [min,max], inclusive on both ends.
// A degenerate range (max < min) collapses to min; the draw is still consumed
// so the stream position stays aligned with the call sequence.
func (r *RNG) IntRange(min, max int) int {
	if max < min {
		max = min
	}
	return int(math.Floor(r.Float64()*float64(max-min+1))) + min
}
