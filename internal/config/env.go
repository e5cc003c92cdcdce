package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome          = "MULTISECRET_HOME"
	EnvScheme        = "MULTISECRET_SCHEME"
	EnvPrime         = "MULTISECRET_PRIME"
	EnvOutputFormat  = "MULTISECRET_OUTPUT_FORMAT"
	EnvVerbose       = "MULTISECRET_VERBOSE"
	EnvLogLevel      = "MULTISECRET_LOG_LEVEL"
	EnvStorageFormat = "MULTISECRET_STORAGE_FORMAT"
	EnvNoColor       = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvScheme); v != "" {
		cfg.Scheme.Default = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvPrime); v != "" {
		cfg.Scheme.Prime = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvStorageFormat); v != "" {
		cfg.Storage.Format = strings.ToLower(strings.TrimSpace(v))
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
