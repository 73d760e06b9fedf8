package cleaning

import (
	"math/rand/v2"
	"sync"

	"surveyclean/ports"
)

type globalNoise struct{}

func (globalNoise) Float64() float64 { return rand.Float64() }

// DefaultNoise draws from the process-wide generator, so simulated imputation
// differs on every pass
func DefaultNoise() ports.NoiseSource {
	return globalNoise{}
}

type seededNoise struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *seededNoise) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// NewSeededNoise returns a reproducible source. Draws are serialized, so the
// sequence is only reproducible when one pass runs at a time.
func NewSeededNoise(seed int64) ports.NoiseSource {
	return &seededNoise{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}
