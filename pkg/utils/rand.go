package utils

import (
	"math/rand"
	"time"
)

// RandSource is a seeded random number generator. It is not safe for
// concurrent use; give each simulation its own source.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource creates a new random source with the given seed. A zero seed
// uses the current time.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NormFloat64 returns a normally distributed random number with mean and stddev
func (r *RandSource) NormFloat64(mean, stddev float64) float64 {
	return r.rng.NormFloat64()*stddev + mean
}

// NoiseFactor returns a multiplicative noise factor around 1 with the given
// relative standard deviation, clamped to [minFactor, 2-minFactor].
func (r *RandSource) NoiseFactor(relStdDev, minFactor float64) float64 {
	if relStdDev <= 0 {
		return 1
	}
	return ClampFloat64(r.NormFloat64(1, relStdDev), minFactor, 2-minFactor)
}
