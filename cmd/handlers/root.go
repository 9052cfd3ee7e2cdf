/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"newsbrief/internal/config"
	"newsbrief/internal/logger"
	"newsbrief/internal/store"

	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "newsbrief",
		Short: "Newsbrief retrieves, summarizes, and delivers weekly topic digests",
		Long: `Newsbrief - Topic News Digest Pipeline

Newsbrief searches the week's news for each configured topic, extracts the
article bodies, summarizes them with Gemini, and delivers the digest to the
topic's subscribers by email.

Core workflows:
  • One-off run: search, extract, summarize, store, and deliver now
  • Scheduled:   fire the same job weekly at a configured local time
  • Browse:      read stored digests in the terminal

Examples:
  # Run every active topic once
  newsbrief run

  # Run a single topic without sending email
  newsbrief run --topic ai --no-email

  # Estimate generation costs without calling the LLM
  newsbrief run --dry-run

  # Register a topic and a subscriber
  newsbrief topics add ai --terms "artificial intelligence,machine learning"
  newsbrief subscribers add reader@example.com --topic ai

  # Start the weekly scheduler
  newsbrief schedule`,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.newsbrief.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewScheduleCmd())
	rootCmd.AddCommand(NewTopicsCmd())
	rootCmd.AddCommand(NewSubscribersCmd())
	rootCmd.AddCommand(NewDigestsCmd())
	rootCmd.AddCommand(NewBrowseCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Load configuration using the centralized config module
	_, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.SetLevel(config.Get().App.LogLevel)

	// Show which config file is being used (if any)
	if config.Get().App.ConfigFile != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", config.Get().App.ConfigFile)
	}
}

// openStore opens the SQLite store under the configured data directory,
// exiting the process when it cannot be opened.
func openStore() *store.Store {
	st, err := store.NewStore(config.GetDataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to open store: %v\n", err)
		os.Exit(1)
	}
	return st
}

// closeStore closes the store, logging rather than failing on error.
func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logger.Error("Failed to close store", err)
	}
}
