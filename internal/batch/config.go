package batch

type Config struct {
	MaxConcurrency int `yaml:"max_concurrency"`

	// RatePerSecond caps how many scans start per second across the batch.
	// Zero disables the limit.
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

func DefaultConfig() Config {
	return Config{MaxConcurrency: 8}
}
