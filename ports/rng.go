package ports

// NoiseSource supplies uniform random numbers in [0,1) for simulated
// imputation. Tests substitute a fixed source to make passes deterministic.
type NoiseSource interface {
	Float64() float64
}
