package config

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.multisecret",
		Scheme: SchemeConfig{
			Default: "roy-adhikari",
			Prime:   "p256",
			Digest:  "sha256",
			KeySize: 16,
		},
		Storage: StorageConfig{
			Format:        "json",
			EncryptShares: true,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level:  "error",
			File:   "~/.multisecret/multisecret.log",
			Format: "text",
		},
	}
}
