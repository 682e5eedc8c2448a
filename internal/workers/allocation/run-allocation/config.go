// internal/workers/allocation/run-allocation/config.go
package runallocation

import "time"

type Config struct {
	// Timeout bounds one full run including the queue lock wait.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
