package assessor

import "time"

// Config holds runtime settings for the reputation engine.
type Config struct {
	// ProviderTimeout bounds a single reputation provider lookup.
	ProviderTimeout time.Duration `yaml:"provider_timeout" json:"provider_timeout"`

	Weights Weights `yaml:"weights" json:"weights"`
}

func DefaultConfig() *Config {
	return &Config{
		ProviderTimeout: 5 * time.Second,
		Weights:         DefaultWeights(),
	}
}
