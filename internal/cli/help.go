package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisecret/internal/output"
)

// walkCommands visits cmd and every descendant, parents first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// enrichParentLong appends a table of the visible subcommands, with their
// aliases, to a parent's Long text. Call it after AddCommand.
func enrichParentLong(cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}

	t := output.NewTable("COMMAND", "ALIASES", "DESCRIPTION")
	t.SetNoHeader(true)
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			t.AddRow(sub.Name(), strings.Join(sub.Aliases, ","), sub.Short)
		}
	}

	var sb strings.Builder
	sb.WriteString(cmd.Long)
	sb.WriteString("\n\nSubcommands:\n")
	for _, line := range strings.Split(strings.TrimRight(t.String(), "\n"), "\n") {
		sb.WriteString("  " + strings.TrimRight(line, " ") + "\n")
	}
	cmd.Long = sb.String()
}
