// internal/workers/scoring/evaluate-scoring-form/config.go
package evaluatescoringform

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
