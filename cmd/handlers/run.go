package handlers

import (
	"context"
	"fmt"
	"os"
	"sort"

	"newsbrief/internal/config"
	"newsbrief/internal/core"
	"newsbrief/internal/cost"
	"newsbrief/internal/logger"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/render"
	"newsbrief/internal/search"

	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var (
		topic   string
		window  string
		output  string
		dryRun  bool
		noEmail bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the digest pipeline for active topics",
		Long: `Run the full digest pipeline once: search the news for each active
topic, extract article bodies, summarize them, persist the results, export
markdown, and email each topic's subscribers.

Examples:
  # Run every active topic
  newsbrief run

  # Run one topic only
  newsbrief run --topic ai

  # Use a day window instead of the configured one
  newsbrief run --window day

  # Estimate generation costs without calling the LLM
  newsbrief run --dry-run

  # Skip email delivery for this run
  newsbrief run --no-email`,
		Run: func(cmd *cobra.Command, args []string) {
			runRun(topic, window, output, dryRun, noEmail)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Run a single topic instead of all active topics")
	cmd.Flags().StringVarP(&window, "window", "w", "", "Retrieval window: day, week, or month (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory for markdown digests (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Estimate generation costs without calling the LLM")
	cmd.Flags().BoolVar(&noEmail, "no-email", false, "Skip email delivery for this run")

	return cmd
}

func runRun(topic, window, output string, dryRun, noEmail bool) {
	ctx := context.Background()
	cfg := config.Get()

	st := openStore()
	defer closeStore(st)

	builder := pipeline.NewBuilder(cfg).WithStore(st)
	if window != "" {
		builder = builder.WithWindow(search.ParseWindow(window))
	}
	if output != "" {
		builder = builder.WithOutputDir(output)
	}
	if noEmail {
		builder = builder.WithoutEmail()
	}

	if dryRun {
		if err := runEstimate(ctx, builder, topic, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		return
	}

	job, err := builder.BuildJob()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	topics, err := runTopicSet(ctx, job, topic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	if len(topics) == 0 {
		fmt.Println("No active topics with search terms configured")
		fmt.Println("💡 Add one with 'newsbrief topics add <name> --terms \"...\"'")
		return
	}

	fmt.Printf("🚀 Running %d topic(s)...\n\n", len(topics))
	results, err := job.RunTopics(ctx, topics)
	if err != nil {
		logger.Error("Run aborted", err)
		os.Exit(1)
	}

	fmt.Print(render.Summary(render.BuildReport(results)))
}

// runTopicSet resolves the topics for this run: all active ones, or just the
// named one when --topic is set.
func runTopicSet(ctx context.Context, job *pipeline.Job, only string) (map[string][]string, error) {
	if only != "" {
		return job.FilterTopic(ctx, only)
	}
	return job.ActiveTopics(ctx)
}

// noopSummarizer satisfies the pipeline's summarizer slot for dry runs,
// which collect articles but never summarize.
type noopSummarizer struct{}

func (noopSummarizer) SummarizeAll(context.Context, []core.EnrichedArticle) core.Digest {
	return core.Digest{}
}

func runEstimate(ctx context.Context, builder *pipeline.Builder, only string, cfg *config.Config) error {
	builder = builder.WithSummarizer(noopSummarizer{}).WithoutEmail()

	p, err := builder.Build()
	if err != nil {
		return err
	}
	job, err := builder.BuildJob()
	if err != nil {
		return err
	}

	topics, err := runTopicSet(ctx, job, only)
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		fmt.Println("No active topics with search terms configured")
		fmt.Println("💡 Add one with 'newsbrief topics add <name> --terms \"...\"'")
		return nil
	}

	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Dry run: estimating %d topic(s), no generation calls will be made\n\n", len(names))

	for _, name := range names {
		fmt.Printf("Collecting articles for %q...\n", name)
		articles, candidates, err := p.Collect(ctx, name, topics[name])
		if err != nil {
			logger.Error("Collection failed", err, "topic", name)
			fmt.Printf("❌ %s: %v\n\n", name, err)
			continue
		}
		fmt.Printf("Found %d candidate(s), extracted %d article(s)\n\n", candidates, len(articles))

		estimate := cost.EstimateRun(articles, cfg.Pipeline.MaxTokens, cfg.Gemini.Model)
		fmt.Print(estimate.FormatEstimate())
		fmt.Println()
	}

	return nil
}
