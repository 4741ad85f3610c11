package cli

import "github.com/spf13/cobra"

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	output  string
	verbose bool
	quiet   bool
}

var flags globalFlags //nolint:gochecknoglobals // cobra's persistent-flag idiom binds into package globals

func registerGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&flags.output, "output", "o", "text", "output format: text|json")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress info-level logging")
}
