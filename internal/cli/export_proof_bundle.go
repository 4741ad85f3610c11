package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportProofBundleCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-proof-bundle <packet-id>",
		Short: "Export a packet's DCL commits, HEAD, and constitution as a zip proof bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := bootstrap()
			if err != nil {
				return err
			}
			if err := k.Ledger.ExportProofBundle(args[0], out); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return err
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output zip path")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
