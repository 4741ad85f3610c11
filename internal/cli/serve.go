package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/packetgov/kernel/internal/dcl"
	"github.com/packetgov/kernel/internal/httpapi"
	"github.com/packetgov/kernel/internal/integrity"
	"github.com/packetgov/kernel/internal/signal"
)

func newServeCmd() *cobra.Command {
	var bindAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP adapter over the lifecycle engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = k.Close() }()
			if cmd.Flags().Changed("addr") {
				k.Config.HTTP.BindAddr = bindAddr
			}

			if k.Config.Integrity.StrictOnStartup {
				report, verifyErr := integrity.New(k.Store, k.Ledger).Verify(dcl.Mode(k.Config.Integrity.Mode))
				if verifyErr != nil {
					return fmt.Errorf("cli: startup integrity check: %w", verifyErr)
				}
				if !report.OK {
					return fmt.Errorf("cli: refusing to bind: startup integrity check found %d issue(s)", len(report.IntegrityErrors))
				}
			}

			svc := integrity.New(k.Store, k.Ledger)
			srv := httpapi.NewServer(k.Engine, k.StatusReader, svc, *log())
			httpSrv := httpapi.NewHTTPServer(k.Config.HTTP.BindAddr, srv, k.Config.HTTP.ReadTimeout, k.Config.HTTP.WriteTimeout)

			sig := signal.NewHandler(cmd.Context())
			defer sig.Stop()
			go func() {
				<-sig.Interrupted()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), k.Config.HTTP.WriteTimeout)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}()

			log().Info().Str("addr", k.Config.HTTP.BindAddr).Msg("http adapter listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bindAddr, "addr", "", "override the configured bind address")
	return cmd
}
