package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"newsbrief/internal/core"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewTopicsCmd creates the topics command group
func NewTopicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Manage digest topics",
		Long: `Manage the topics the pipeline runs for.

Each topic carries a set of search terms; the pipeline joins them into one
news query per run. Only active topics are included in runs.`,
	}

	cmd.AddCommand(NewTopicsListCmd())
	cmd.AddCommand(NewTopicsAddCmd())
	cmd.AddCommand(NewTopicsImportCmd())
	cmd.AddCommand(NewTopicsActivateCmd())
	cmd.AddCommand(NewTopicsDeactivateCmd())

	return cmd
}

// NewTopicsListCmd creates the topics list command
func NewTopicsListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured topics",
		Run: func(cmd *cobra.Command, args []string) {
			topicsListRun(all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include inactive topics")

	return cmd
}

func topicsListRun(all bool) {
	ctx := context.Background()

	st := openStore()
	defer closeStore(st)

	topics, err := st.ListTopics(ctx, !all)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to list topics: %v\n", err)
		os.Exit(1)
	}

	if len(topics) == 0 {
		fmt.Println("No topics configured")
		fmt.Println("💡 Add one with 'newsbrief topics add <name> --terms \"term1,term2\"'")
		return
	}

	fmt.Printf("\n📚 Topics (%d)\n", len(topics))
	fmt.Println(strings.Repeat("─", 72))
	fmt.Printf("%-20s  %-8s  %s\n", "Name", "Active", "Search terms")
	fmt.Println(strings.Repeat("─", 72))

	for _, topic := range topics {
		active := "yes"
		if !topic.IsActive {
			active = "no"
		}
		fmt.Printf("%-20s  %-8s  %s\n", topic.Name, active, strings.Join(topic.SearchTerms, ", "))
	}
}

// NewTopicsAddCmd creates the topics add command
func NewTopicsAddCmd() *cobra.Command {
	var terms string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update a topic",
		Long: `Add a topic, or update its search terms when it already exists.

Examples:
  newsbrief topics add ai --terms "artificial intelligence,machine learning"
  newsbrief topics add chips`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			topicsAddRun(args[0], terms)
		},
	}

	cmd.Flags().StringVarP(&terms, "terms", "t", "", "Comma-separated search terms (defaults to the topic name)")

	return cmd
}

func topicsAddRun(name, terms string) {
	ctx := context.Background()

	st := openStore()
	defer closeStore(st)

	searchTerms := splitTerms(terms)
	if len(searchTerms) == 0 {
		searchTerms = []string{name}
	}

	topic := core.Topic{
		Name:        name,
		SearchTerms: searchTerms,
		IsActive:    true,
	}
	if err := st.AddTopic(ctx, topic); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to add topic: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Topic %q saved with search terms: %s\n", name, strings.Join(searchTerms, ", "))
}

// topicsFile is the YAML shape accepted by topics import.
type topicsFile struct {
	Topics []struct {
		Name   string   `yaml:"name"`
		Terms  []string `yaml:"terms"`
		Active *bool    `yaml:"active"`
	} `yaml:"topics"`
}

// NewTopicsImportCmd creates the topics import command
func NewTopicsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import topics from a YAML file",
		Long: `Import topics from a YAML file. Existing topics with the same name
are updated.

File format:

  topics:
    - name: ai
      terms: [artificial intelligence, machine learning]
    - name: chips
      terms: [semiconductor]
      active: false`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			topicsImportRun(args[0])
		},
	}
}

func topicsImportRun(path string) {
	ctx := context.Background()

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to read %s: %v\n", path, err)
		os.Exit(1)
	}

	var file topicsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to parse %s: %v\n", path, err)
		os.Exit(1)
	}

	if len(file.Topics) == 0 {
		fmt.Printf("No topics found in %s\n", path)
		return
	}

	st := openStore()
	defer closeStore(st)

	added := 0
	for _, entry := range file.Topics {
		if entry.Name == "" {
			fmt.Fprintf(os.Stderr, "⚠️  Skipping entry without a name\n")
			continue
		}

		terms := entry.Terms
		if len(terms) == 0 {
			terms = []string{entry.Name}
		}
		active := true
		if entry.Active != nil {
			active = *entry.Active
		}

		topic := core.Topic{
			Name:        entry.Name,
			SearchTerms: terms,
			IsActive:    active,
		}
		if err := st.AddTopic(ctx, topic); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %s: %v\n", entry.Name, err)
			continue
		}

		added++
		fmt.Printf("✅ %s (%s)\n", entry.Name, strings.Join(terms, ", "))
	}

	fmt.Printf("\nImported %d of %d topic(s)\n", added, len(file.Topics))
}

// NewTopicsActivateCmd creates the topics activate command
func NewTopicsActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <name>",
		Short: "Include a topic in future runs",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			topicsSetActiveRun(args[0], true)
		},
	}
}

// NewTopicsDeactivateCmd creates the topics deactivate command
func NewTopicsDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <name>",
		Short: "Exclude a topic from future runs",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			topicsSetActiveRun(args[0], false)
		},
	}
}

func topicsSetActiveRun(name string, active bool) {
	ctx := context.Background()

	st := openStore()
	defer closeStore(st)

	if err := st.SetTopicActive(ctx, name, active); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	state := "activated"
	if !active {
		state = "deactivated"
	}
	fmt.Printf("✅ Topic %q %s\n", name, state)
}

// splitTerms splits a comma-separated flag value into trimmed, non-empty
// search terms.
func splitTerms(raw string) []string {
	var terms []string
	for _, term := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(term); trimmed != "" {
			terms = append(terms, trimmed)
		}
	}
	return terms
}
