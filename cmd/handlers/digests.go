package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"newsbrief/internal/core"
	"newsbrief/internal/render"

	"github.com/spf13/cobra"
)

// NewDigestsCmd creates the digests command group
func NewDigestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digests",
		Short: "Inspect stored digests",
	}

	cmd.AddCommand(NewDigestsListCmd())
	cmd.AddCommand(NewDigestsShowCmd())

	return cmd
}

// NewDigestsListCmd creates the digests list command
func NewDigestsListCmd() *cobra.Command {
	var topic string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored digests, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			digestsListRun(topic, limit)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Only digests for this topic")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of digests to list")

	return cmd
}

func digestsListRun(topic string, limit int) {
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

	fmt.Printf("\n📄 Digests (%d)\n", len(digests))
	fmt.Println(strings.Repeat("─", 96))
	fmt.Printf("%-36s  %-12s  %-14s  %-22s  %s\n", "ID", "Date", "Topic", "Model", "Status")
	fmt.Println(strings.Repeat("─", 96))

	for _, digest := range digests {
		status := "ok"
		if !digest.Usable() {
			status = "failed"
		}
		fmt.Printf("%-36s  %-12s  %-14s  %-22s  %s\n",
			digest.ID,
			digest.GeneratedAt.Format("2006-01-02"),
			digest.Topic,
			digest.ModelUsed,
			status,
		)
	}

	fmt.Println(strings.Repeat("─", 96))
	fmt.Println("\n💡 Use 'newsbrief digests show <id>' to read one")
}

// NewDigestsShowCmd creates the digests show command
func NewDigestsShowCmd() *cobra.Command {
	var export string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Display one stored digest",
		Long: `Display a stored digest's summary and metadata.

Examples:
  # Print a digest to the terminal
  newsbrief digests show 6e1b0c2a-...

  # Export it as a markdown file
  newsbrief digests show 6e1b0c2a-... --export digests`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			digestsShowRun(args[0], export)
		},
	}

	cmd.Flags().StringVarP(&export, "export", "e", "", "Write the digest as markdown into this directory")

	return cmd
}

func digestsShowRun(id, export string) {
	ctx := context.Background()

	st := openStore()
	defer closeStore(st)

	digest, err := st.GetDigest(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to get digest: %v\n", err)
		os.Exit(1)
	}
	if digest == nil {
		fmt.Fprintf(os.Stderr, "❌ Digest %q not found\n", id)
		fmt.Fprintf(os.Stderr, "💡 Use 'newsbrief digests list' to see stored digests\n")
		os.Exit(1)
	}

	if export != "" {
		path, err := render.WriteMarkdownDigest(*digest, export)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to export digest: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Digest written to %s\n", path)
		return
	}

	displayDigest(digest)
}

func displayDigest(digest *core.Digest) {
	fmt.Printf("\n📄 %s\n", digest.Topic)
	fmt.Println(strings.Repeat("═", 80))

	fmt.Printf("ID:         %s\n", digest.ID)
	fmt.Printf("Generated:  %s\n", digest.GeneratedAt.Format("January 2, 2006 15:04 MST"))
	fmt.Printf("Model:      %s\n", digest.ModelUsed)
	fmt.Printf("Chunks:     %d\n", digest.ChunkCount)
	fmt.Println()

	fmt.Println("📝 Summary")
	fmt.Println(strings.Repeat("─", 80))
	fmt.Println(digest.SummaryText)

	fmt.Println(strings.Repeat("═", 80))
}
