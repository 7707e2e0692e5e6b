package demoserver

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// MaxHops caps /hop/{n} so a typo cannot build an enormous chain.
	MaxHops int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:    9999,
		MaxHops: 50,
	}
}
