package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisecret/internal/bundle"
	"github.com/mrz1836/multisecret/internal/config"
	"github.com/mrz1836/multisecret/internal/field"
	"github.com/mrz1836/multisecret/internal/keyhash"
	"github.com/mrz1836/multisecret/internal/scheme"
	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	GroupID: groupConfig,
	Long:    `View and modify multisecret configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.multisecret/config.yaml.

An existing file is only replaced with --force.`,
	Example: `  multisecret config init
  multisecret config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after environment and flag overrides.`,
	Example: `  multisecret config show
  multisecret config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long:  `Get a configuration value by its dot-separated path.`,
	Example: `  multisecret config get scheme.default
  multisecret config get storage.encrypt_shares
  multisecret config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by its dot-separated path and save the file.

Values are validated before saving: scheme names accept aliases, primes must
be prime, and formats must be known.`,
	Example: `  multisecret config set scheme.default lin-yeh
  multisecret config set scheme.prime 15487469
  multisecret config set storage.format cbor
  multisecret config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")

	enrichParentLong(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.Home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return mserr.WithSuggestion(
			mserr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home
	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - scheme.default: roy-adhikari, lin-yeh or herranz-ruiz-saez")
	outln(w, "  - scheme.prime: p256, 15487469, 4099, 1009 or any prime")
	outln(w, "  - storage.format: json or cbor")
	outln(w, "  - storage.encrypt_shares: passphrase-protect participant files")
	outln(w, "  - logging.level: off, error or debug")
	outln(w, "  - logging.format: text or json")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if formatter != nil && formatter.IsJSON() {
		return displayConfigJSON(w, cfg)
	}
	displayConfigText(w, cfg)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return mserr.WithSuggestion(err, fmt.Sprintf("configuration path '%s' not found", args[0]))
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, value := args[0], args[1]

	if _, err := getConfigValue(cfg, path); err != nil {
		return mserr.WithSuggestion(err, fmt.Sprintf("configuration path '%s' not found", path))
	}

	configPath := config.Path(cfg.Home)
	current, err := config.Load(configPath)
	if err != nil {
		current = config.Defaults()
		current.Home = cfg.Home
	}

	if err := setConfigValue(current, path, value); err != nil {
		return err
	}
	if err := config.Save(current, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out(cmd.OutOrStdout(), "Set %s = %s\n", path, value)
	return nil
}

func unknownKey(path string) error {
	return mserr.WithDetails(mserr.ErrUnknownConfigKey, map[string]string{"path": path})
}

func invalidValue(value, valid string) error {
	return mserr.WithDetails(mserr.ErrInvalidFormat, map[string]string{"value": value, "valid": valid})
}

// getConfigValue retrieves a value from the config using dot notation.
func getConfigValue(c *config.Config, path string) (string, error) {
	section, key, _ := strings.Cut(path, ".")
	if key == "" {
		if section == "home" {
			return c.Home, nil
		}
		return "", unknownKey(path)
	}

	switch section {
	case "scheme":
		switch key {
		case "default":
			return c.Scheme.Default, nil
		case "prime":
			return c.Scheme.Prime, nil
		case "digest":
			return c.Scheme.Digest, nil
		case "key_size":
			return strconv.Itoa(c.Scheme.KeySize), nil
		}
	case "storage":
		switch key {
		case "format":
			return c.Storage.Format, nil
		case "encrypt_shares":
			return strconv.FormatBool(c.Storage.EncryptShares), nil
		}
	case "output":
		switch key {
		case "default_format":
			return c.Output.DefaultFormat, nil
		case "color":
			return c.Output.Color, nil
		case "verbose":
			return strconv.FormatBool(c.Output.Verbose), nil
		}
	case "logging":
		switch key {
		case "level":
			return c.Logging.Level, nil
		case "file":
			return c.Logging.File, nil
		case "format":
			return c.Logging.Format, nil
		}
	}
	return "", unknownKey(path)
}

// setConfigValue validates and sets a value using dot notation.
func setConfigValue(c *config.Config, path, value string) error {
	section, key, _ := strings.Cut(path, ".")
	if key == "" {
		if section == "home" {
			c.Home = value
			return nil
		}
		return unknownKey(path)
	}

	switch section {
	case "scheme":
		return setSchemeValue(c, key, value)
	case "storage":
		return setStorageValue(c, key, value)
	case "output":
		return setOutputValue(c, key, value)
	case "logging":
		return setLoggingValue(c, key, value)
	}
	return unknownKey(path)
}

func setSchemeValue(c *config.Config, key, value string) error {
	switch key {
	case "default":
		kind, err := scheme.ByName(value)
		if err != nil {
			return err
		}
		c.Scheme.Default = string(kind)
	case "prime":
		p, err := field.ParsePrime(value)
		if err != nil {
			return err
		}
		if _, err := field.New(p); err != nil {
			return err
		}
		c.Scheme.Prime = strings.ToLower(strings.TrimSpace(value))
	case "digest":
		d, err := keyhash.ParseDigest(value)
		if err != nil {
			return err
		}
		c.Scheme.Digest = string(d)
	case "key_size":
		n, err := strconv.Atoi(value)
		if err != nil || (n != scheme.KeySize128 && n != scheme.KeySize256) {
			return invalidValue(value, "16 or 32")
		}
		c.Scheme.KeySize = n
	default:
		return unknownKey("scheme." + key)
	}
	return nil
}

func setStorageValue(c *config.Config, key, value string) error {
	switch key {
	case "format":
		f, err := bundle.ParseFormat(value)
		if err != nil {
			return err
		}
		c.Storage.Format = string(f)
	case "encrypt_shares":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalidValue(value, "true or false")
		}
		c.Storage.EncryptShares = b
	default:
		return unknownKey("storage." + key)
	}
	return nil
}

func setOutputValue(c *config.Config, key, value string) error {
	switch key {
	case "default_format":
		if value != "text" && value != "json" && value != "auto" {
			return invalidValue(value, "text, json, or auto")
		}
		c.Output.DefaultFormat = value
	case "verbose":
		c.Output.Verbose = value == "true"
	case "color":
		if value != "auto" && value != "always" && value != "never" {
			return invalidValue(value, "auto, always, or never")
		}
		c.Output.Color = value
	default:
		return unknownKey("output." + key)
	}
	return nil
}

func setLoggingValue(c *config.Config, key, value string) error {
	switch key {
	case "level":
		if value != "off" && value != "error" && value != "debug" {
			return invalidValue(value, "off, error, or debug")
		}
		c.Logging.Level = value
	case "file":
		c.Logging.File = value
	case "format":
		if value != "text" && value != "json" {
			return invalidValue(value, "text or json")
		}
		c.Logging.Format = value
	default:
		return unknownKey("logging." + key)
	}
	return nil
}

func displayConfigText(w io.Writer, c *config.Config) {
	outln(w, "Configuration:")
	outln(w)
	out(w, "  Home: %s\n", c.Home)
	outln(w)
	outln(w, "  Scheme:")
	out(w, "    default: %s\n", c.Scheme.Default)
	out(w, "    prime: %s\n", c.Scheme.Prime)
	out(w, "    digest: %s\n", c.Scheme.Digest)
	out(w, "    key_size: %d\n", c.Scheme.KeySize)
	outln(w)
	outln(w, "  Storage:")
	out(w, "    format: %s\n", c.Storage.Format)
	out(w, "    encrypt_shares: %t\n", c.Storage.EncryptShares)
	outln(w)
	outln(w, "  Output:")
	out(w, "    default_format: %s\n", c.Output.DefaultFormat)
	out(w, "    verbose: %t\n", c.Output.Verbose)
	out(w, "    color: %s\n", c.Output.Color)
	outln(w)
	outln(w, "  Logging:")
	out(w, "    level: %s\n", c.Logging.Level)
	out(w, "    file: %s\n", c.Logging.File)
	out(w, "    format: %s\n", c.Logging.Format)
}

func displayConfigJSON(w io.Writer, c *config.Config) error {
	type configJSON struct {
		Version int    `json:"version"`
		Home    string `json:"home"`
		Scheme  struct {
			Default string `json:"default"`
			Prime   string `json:"prime"`
			Digest  string `json:"digest"`
			KeySize int    `json:"key_size"`
		} `json:"scheme"`
		Storage struct {
			Format        string `json:"format"`
			EncryptShares bool   `json:"encrypt_shares"`
		} `json:"storage"`
		Output struct {
			DefaultFormat string `json:"default_format"`
			Color         string `json:"color"`
			Verbose       bool   `json:"verbose"`
		} `json:"output"`
		Logging struct {
			Level  string `json:"level"`
			File   string `json:"file"`
			Format string `json:"format"`
		} `json:"logging"`
	}

	v := configJSON{Version: c.Version, Home: c.Home}
	v.Scheme.Default = c.Scheme.Default
	v.Scheme.Prime = c.Scheme.Prime
	v.Scheme.Digest = c.Scheme.Digest
	v.Scheme.KeySize = c.Scheme.KeySize
	v.Storage.Format = c.Storage.Format
	v.Storage.EncryptShares = c.Storage.EncryptShares
	v.Output.DefaultFormat = c.Output.DefaultFormat
	v.Output.Color = c.Output.Color
	v.Output.Verbose = c.Output.Verbose
	v.Logging.Level = c.Logging.Level
	v.Logging.File = c.Logging.File
	v.Logging.Format = c.Logging.Format

	return writeJSON(w, v)
}
