package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/packetgov/kernel/internal/engine"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the full runtime state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = k.Close() }()
			state, err := k.StatusReader.Status()
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), outputFormat(flags.output),
				fmt.Sprintf("%d packets tracked, updated %s", len(state.Packets), state.UpdatedAt), state)
		},
	}
}

func newReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "List packets whose dependencies are all done and are unclaimed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := bootstrap()
			if err != nil {
				return err
			}
			ids, err := k.Engine.Ready()
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), outputFormat(flags.output), strings.Join(ids, "\n"), ids)
		},
	}
}

func newContextCmd() *cobra.Command {
	var maxEvents, maxHandovers, maxNotesBytes int
	cmd := &cobra.Command{
		Use:   "context <packet-id>",
		Short: "Print a packet's context bundle: definition, history, neighbors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := bootstrap()
			if err != nil {
				return err
			}
			limits := engine.DefaultBundleLimits()
			if cmd.Flags().Changed("max-events") {
				limits.MaxEvents = maxEvents
			}
			if cmd.Flags().Changed("max-handovers") {
				limits.MaxHandovers = maxHandovers
			}
			if cmd.Flags().Changed("max-notes-bytes") {
				limits.MaxNotesBytes = maxNotesBytes
			}
			bundle, err := k.Engine.ContextBundle(args[0], limits)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), outputFormat(flags.output),
				fmt.Sprintf("%s: %s (truncated=%t)", bundle.Definition.ID, bundle.Runtime.Status, bundle.Truncated), bundle)
		},
	}
	cmd.Flags().IntVar(&maxEvents, "max-events", 0, "cap on activity events included")
	cmd.Flags().IntVar(&maxHandovers, "max-handovers", 0, "cap on handover records included")
	cmd.Flags().IntVar(&maxNotesBytes, "max-notes-bytes", 0, "cap on the packet's notes size in bytes")
	return cmd
}

func newBriefingCmd() *cobra.Command {
	var recentEvents int
	var compact bool
	cmd := &cobra.Command{
		Use:   "briefing",
		Short: "Print a project-wide summary: counts, ready work, recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := bootstrap()
			if err != nil {
				return err
			}
			briefing, err := k.Engine.Briefing(recentEvents, compact)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), outputFormat(flags.output),
				fmt.Sprintf("%d ready, %d blocked", len(briefing.Ready), len(briefing.Blocked)), briefing)
		},
	}
	cmd.Flags().IntVar(&recentEvents, "recent-events", 10, "number of recent activity events to include")
	cmd.Flags().BoolVar(&compact, "compact", false, "omit recent activity events")
	return cmd
}
