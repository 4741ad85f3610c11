// Package cli implements the kernelctl command-line interface: one
// subcommand per lifecycle transition and read, plus integrity,
// checkpoint, and proof-bundle export commands.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/packetgov/kernel/internal/logging"
)

// BuildInfo carries version metadata injected at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

//nolint:gochecknoglobals // populated once in Execute, read by subcommands via log()
var logger zerolog.Logger

func log() *zerolog.Logger { return &logger }

// Execute builds the root command and runs it against os.Args.
func Execute(build BuildInfo) error {
	root := &cobra.Command{
		Use:           "kernelctl",
		Short:         "kernelctl drives the governed packet orchestration kernel",
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.output)
			if err != nil {
				return err
			}
			flags.output = string(format)
			logger = logging.New(logging.Options{Verbose: flags.verbose, Quiet: flags.quiet})
			return nil
		},
	}
	registerGlobalFlags(root)

	root.AddCommand(
		newClaimCmd(),
		newDoneCmd(),
		newNoteCmd(),
		newFailCmd(),
		newResetCmd(),
		newHandoverCmd(),
		newResumeCmd(),
		newCloseoutL2Cmd(),
		newStatusCmd(),
		newReadyCmd(),
		newContextCmd(),
		newBriefingCmd(),
		newIntegrityCmd(),
		newCheckpointCmd(),
		newExportProofBundleCmd(),
		newServeCmd(),
		newConfigCmd(),
	)
	AddCompletionCommand(root)

	return root.Execute()
}
