package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/sift/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Watch a directory tree and report change batches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			windowMs, _ := cmd.Flags().GetInt("window")
			jsonLogs, _ := cmd.Flags().GetBool("json")
			return c.app.Watch(cmd.Context(), root, app.WatchOptions{
				Window: time.Duration(windowMs) * time.Millisecond,
				JSON:   jsonLogs,
			})
		},
	}
	cmd.Flags().IntP("window", "w", 0, "Override the debounce window in milliseconds")
	cmd.Flags().Bool("json", false, "Emit logs as JSON")
	return cmd
}
