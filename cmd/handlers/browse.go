package handlers

import (
	"context"
	"fmt"
	"os"

	"newsbrief/internal/tui"

	"github.com/spf13/cobra"
)

// NewBrowseCmd creates the browse command
func NewBrowseCmd() *cobra.Command {
	var topic string
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse stored digests in the terminal",
		Long:  `Open a terminal UI listing stored digests with the selected summary alongside.`,
		Run: func(cmd *cobra.Command, args []string) {
			browseRun(topic, limit)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Only digests for this topic")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of digests to load")

	return cmd
}

func browseRun(topic string, limit int) {
	ctx := context.Background()

	st := openStore()
	defer closeStore(st)

	digests, err := st.ListDigests(ctx, topic, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to list digests: %v\n", err)
		os.Exit(1)
	}

	if len(digests) == 0 {
		fmt.Println("No digests stored yet")
		fmt.Println("💡 Generate one with 'newsbrief run'")
		return
	}

	if err := tui.Run(digests); err != nil {
		fmt.Fprintf(os.Stderr, "❌ TUI error: %v\n", err)
		os.Exit(1)
	}
}
