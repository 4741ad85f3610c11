package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packetgov/kernel/internal/dcl"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
	"github.com/packetgov/kernel/internal/integrity"
)

func newIntegrityCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Verify the config lock, DCL chains, and activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := bootstrap()
			if err != nil {
				return err
			}
			mode := dcl.ModeFast
			if full {
				mode = dcl.ModeFull
			}
			svc := integrity.New(k.Store, k.Ledger)
			report, err := svc.Verify(mode)
			if err != nil {
				return err
			}
			text := fmt.Sprintf("ok=%t packets_checked=%d commits_verified=%d errors=%d",
				report.OK, report.PacketsChecked, report.CommitsVerified, len(report.IntegrityErrors))
			if err := emit(cmd.OutOrStdout(), outputFormat(flags.output), text, report); err != nil {
				return err
			}
			if !report.OK {
				err := fmt.Errorf("%d issue(s) found: %w", len(report.IntegrityErrors), kernelerrors.ErrIntegrityError)
				return kernelerrors.NewDomainError(kernelerrors.KindIntegrityError, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "also recompute and compare runtime state hashes")
	return cmd
}
