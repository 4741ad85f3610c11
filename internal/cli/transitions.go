package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packetgov/kernel/internal/engine"
)

// runTransition is the shared shell for every mutating subcommand: build
// the kernel, invoke fn, and render the result in the requested format.
func runTransition(cmd *cobra.Command, fn func(*engine.Engine) (*engine.Result, error)) error {
	k, err := bootstrap()
	if err != nil {
		return err
	}
	result, err := fn(k.Engine)
	if err != nil {
		return err
	}
	text := result.Message
	if text == "" {
		text = fmt.Sprintf("%s %s: ok", result.Action, result.PacketID)
	}
	for _, w := range result.Warnings {
		log().Warn().Str("packet", result.PacketID).Msg(w)
	}
	return emit(cmd.OutOrStdout(), outputFormat(flags.output), text, result)
}

func newClaimCmd() *cobra.Command {
	var agent string
	cmd := &cobra.Command{
		Use:   "claim <packet-id>",
		Short: "Claim a ready packet for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, func(e *engine.Engine) (*engine.Result, error) {
				return e.Claim(args[0], agent)
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "claiming agent identity")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

func newDoneCmd() *cobra.Command {
	var agent, notes string
	cmd := &cobra.Command{
		Use:   "done <packet-id>",
		Short: "Mark a claimed packet done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, func(e *engine.Engine) (*engine.Result, error) {
				return e.Done(args[0], agent, notes)
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent identity")
	cmd.Flags().StringVar(&notes, "notes", "", "completion notes")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

func newNoteCmd() *cobra.Command {
	var agent, notes string
	cmd := &cobra.Command{
		Use:   "note <packet-id>",
		Short: "Replace a packet's notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, func(e *engine.Engine) (*engine.Result, error) {
				return e.Note(args[0], agent, notes)
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent identity")
	cmd.Flags().StringVar(&notes, "notes", "", "note text")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("notes")
	return cmd
}

func newFailCmd() *cobra.Command {
	var agent, reason string
	cmd := &cobra.Command{
		Use:   "fail <packet-id>",
		Short: "Fail a packet and block its downstream dependents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, func(e *engine.Engine) (*engine.Result, error) {
				return e.Fail(args[0], agent, reason)
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent identity")
	cmd.Flags().StringVar(&reason, "reason", "", "failure reason")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newResetCmd() *cobra.Command {
	var agent string
	cmd := &cobra.Command{
		Use:   "reset <packet-id>",
		Short: "Reset an in-progress packet back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, func(e *engine.Engine) (*engine.Result, error) {
				return e.Reset(args[0], agent)
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent identity")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

func newHandoverCmd() *cobra.Command {
	var agent, reason, progress, toAgent string
	var files, remaining []string
	cmd := &cobra.Command{
		Use:   "handover <packet-id>",
		Short: "Hand a claimed packet off to another agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, func(e *engine.Engine) (*engine.Result, error) {
				return e.Handover(args[0], agent, engine.HandoverInput{
					Reason:        reason,
					ProgressNotes: progress,
					FilesModified: files,
					RemainingWork: remaining,
					ToAgent:       toAgent,
				})
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "handing-off agent identity")
	cmd.Flags().StringVar(&reason, "reason", "", "handover reason")
	cmd.Flags().StringVar(&progress, "progress-notes", "", "progress notes for the receiving agent")
	cmd.Flags().StringSliceVar(&files, "files-modified", nil, "files touched so far")
	cmd.Flags().StringSliceVar(&remaining, "remaining-work", nil, "remaining work items")
	cmd.Flags().StringVar(&toAgent, "to-agent", "", "target agent identity, if known")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newResumeCmd() *cobra.Command {
	var agent string
	cmd := &cobra.Command{
		Use:   "resume <packet-id>",
		Short: "Resume a packet with an active handover",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, func(e *engine.Engine) (*engine.Result, error) {
				return e.Resume(args[0], agent)
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "resuming agent identity")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

func newCloseoutL2Cmd() *cobra.Command {
	var agent, assessmentPath, notes string
	cmd := &cobra.Command{
		Use:   "closeout-l2 <area-id>",
		Short: "Close out a work area once every packet in it is done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, func(e *engine.Engine) (*engine.Result, error) {
				return e.CloseoutL2(args[0], agent, assessmentPath, notes)
			})
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent identity")
	cmd.Flags().StringVar(&assessmentPath, "assessment", "", "path to the drift-assessment markdown document")
	cmd.Flags().StringVar(&notes, "notes", "", "closeout notes")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("assessment")
	return cmd
}
