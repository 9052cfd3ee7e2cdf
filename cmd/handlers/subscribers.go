package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"newsbrief/internal/core"

	"github.com/spf13/cobra"
)

// NewSubscribersCmd creates the subscribers command group
func NewSubscribersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Manage digest subscribers",
		Long: `Manage the email recipients of each topic's digest.

A subscription ties one email address to one topic. The same address can
subscribe to several topics independently; unsubscribing affects only the
named topic.`,
	}

	cmd.AddCommand(NewSubscribersListCmd())
	cmd.AddCommand(NewSubscribersAddCmd())
	cmd.AddCommand(NewSubscribersUnsubscribeCmd())

	return cmd
}

// NewSubscribersListCmd creates the subscribers list command
func NewSubscribersListCmd() *cobra.Command {
	var topic string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscribers",
		Run: func(cmd *cobra.Command, args []string) {
			subscribersListRun(topic, all)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Only subscribers of this topic")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include unsubscribed entries")

	return cmd
}

func subscribersListRun(topic string, all bool) {
	ctx := context.Background()

	st := openStore()
	defer closeStore(st)

	subs, err := st.ListSubscribers(ctx, topic, !all)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to list subscribers: %v\n", err)
		os.Exit(1)
	}

	if len(subs) == 0 {
		fmt.Println("No subscribers found")
		fmt.Println("💡 Add one with 'newsbrief subscribers add <email> --topic <name>'")
		return
	}

	fmt.Printf("\n📬 Subscribers (%d)\n", len(subs))
	fmt.Println(strings.Repeat("─", 72))
	fmt.Printf("%-30s  %-16s  %-14s  %s\n", "Email", "Name", "Topic", "Status")
	fmt.Println(strings.Repeat("─", 72))

	for _, sub := range subs {
		fmt.Printf("%-30s  %-16s  %-14s  %s\n", sub.Email, sub.Name, sub.Topic, sub.Status)
	}
}

// NewSubscribersAddCmd creates the subscribers add command
func NewSubscribersAddCmd() *cobra.Command {
	var topic string
	var name string

	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Subscribe an email address to a topic",
		Long: `Subscribe an email address to a topic's digest. Re-adding an existing
subscription reactivates it.

Examples:
  newsbrief subscribers add reader@example.com --topic ai
  newsbrief subscribers add reader@example.com --topic ai --name "Avery Reader"`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			subscribersAddRun(args[0], topic, name)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to subscribe to (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name used in the email greeting")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func subscribersAddRun(email, topic, name string) {
	ctx := context.Background()

	st := openStore()
	defer closeStore(st)

	sub := core.Subscriber{
		Email:  email,
		Name:   name,
		Topic:  topic,
		Status: core.SubscriberActive,
	}
	if err := st.AddSubscriber(ctx, sub); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to add subscriber: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ %s subscribed to %q\n", email, topic)
}

// NewSubscribersUnsubscribeCmd creates the subscribers unsubscribe command
func NewSubscribersUnsubscribeCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "unsubscribe <email>",
		Short: "Unsubscribe an email address from a topic",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			subscribersUnsubscribeRun(args[0], topic)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic to unsubscribe from (required)")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func subscribersUnsubscribeRun(email, topic string) {
	ctx := context.Background()

	st := openStore()
	defer closeStore(st)

	if err := st.SetSubscriberStatus(ctx, email, topic, core.SubscriberUnsubscribed); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ %s unsubscribed from %q\n", email, topic)
}
