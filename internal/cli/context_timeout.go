package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// contextWithTimeout derives the context for a bounded recovery run from the
// command context. A non-positive limit disables the deadline.
func contextWithTimeout(cmd *cobra.Command, limit time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	if limit <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, limit)
}
