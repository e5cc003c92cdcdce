package cli

import (
	"io"
	"os"

	"github.com/mrz1836/multisecret/internal/config"
	"github.com/mrz1836/multisecret/internal/output"
	"github.com/mrz1836/multisecret/internal/sharecrypto"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Config    *config.Config
	Logger    *config.Logger
	Formatter *output.Formatter

	// Rand feeds every random draw of a split.
	Rand io.Reader
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
) *CommandContext {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = config.NullLogger()
	}
	if formatter == nil {
		formatter = output.NewFormatter(output.FormatText, os.Stdout)
	}
	return &CommandContext{
		Config:    cfg,
		Logger:    logger,
		Formatter: formatter,
		Rand:      sharecrypto.Reader,
	}
}

// WithRand sets the randomness source.
func (c *CommandContext) WithRand(r io.Reader) *CommandContext {
	c.Rand = r
	return c
}

// commandContextFn builds the context for the running command; tests swap it.
//
//nolint:gochecknoglobals // test hook
var commandContextFn = func() *CommandContext {
	return NewCommandContext(cfg, logger, formatter)
}
