package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions are the flags every subcommand shares.
type RootOptions struct {
	Verbose bool
	Format  string // text or json
}

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"text", "json"}

// NewRootCommand assembles the jpqlc command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "jpqlc",
		Short: "Render expression trees as JPQL",
		Long: `jpqlc renders serialized expression trees as JPQL fragments.

Fragments are declared in CUE, YAML or JSON files. A render can be recorded
in a SQLite log and replayed later to check that a newer renderer still
produces the same text.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if slices.Contains(ValidFormats, opts.Format) {
				return nil
			}
			return NewExitError(ExitCommandError,
				fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "print diagnostics to stderr")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(
		NewRenderCommand(opts),
		NewValidateCommand(opts),
		NewTestCommand(opts),
		NewReplayCommand(opts),
	)
	return cmd
}

// Execute runs jpqlc with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
