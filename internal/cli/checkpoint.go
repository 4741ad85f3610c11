package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckpointCmd() *cobra.Command {
	var phase string
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Record a checkpoint over every packet's current DCL head",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := bootstrap()
			if err != nil {
				return err
			}
			packetIDs, err := k.Ledger.PacketIDsOnDisk()
			if err != nil {
				return err
			}
			heads := make(map[string]string, len(packetIDs))
			for _, id := range packetIDs {
				head, headErr := k.Ledger.LoadHead(id)
				if headErr != nil {
					return headErr
				}
				heads[id] = head.CommitHash
			}
			checkpoint, err := k.Ledger.Checkpoint(phase, heads)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), outputFormat(flags.output),
				fmt.Sprintf("checkpoint %s over %d packet(s)", checkpoint.CheckpointID, len(heads)), checkpoint)
		},
	}
	cmd.Flags().StringVar(&phase, "phase", "", "label for this checkpoint (e.g. a release or milestone name)")
	_ = cmd.MarkFlagRequired("phase")
	return cmd
}
