package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestPath string // operator manifest .hcl file or directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// Optional demo dispatch: evaluate one call through the registry after
	// loading. CallOp names the operator ("base" or "base.overload"),
	// CallKeys is the candidate key set, CallArgs the raw argument values.
	CallOp   string
	CallKeys []string
	CallArgs []string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
