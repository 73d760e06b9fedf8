package api

// Config holds HTTP surface settings
type Config struct {
	// MaxUploadMB caps multipart uploads
	MaxUploadMB int `validate:"gt=0"`
	// MaxReportOperations caps the corrections table in reports
	MaxReportOperations int `validate:"gte=0"`
}

// DefaultConfig returns a 32 MB upload cap
func DefaultConfig() Config {
	return Config{MaxUploadMB: 32, MaxReportOperations: 50}
}

func (c Config) maxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
