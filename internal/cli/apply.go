package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/memtier/internal/reconcile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "apply [file|-]",
		Short: "Merge a model reply into memory",
		Long: `Extract a delta from raw model output (fenced or bare JSON, lenient about
trailing commas, unquoted keys and smart quotes) and merge it into the
memory document. Reads stdin when no file is given.

Nothing is saved when no delta can be found or parsed.`,
		Args: cobra.MaximumNArgs(1),
		Run:  runApply,
	}

	RootCmd.AddCommand(cmd)
}

func runApply(cmd *cobra.Command, args []string) {
	raw, err := readInput(args)
	if err != nil {
		exitErr("read input", err)
	}

	svc, cleanup, err := openService(false)
	if err != nil {
		exitErr("open", err)
	}
	defer cleanup()

	report, err := svc.Apply(cmd.Context(), identity, raw)
	if err != nil {
		cleanup()
		fmt.Fprintln(os.Stderr, reconcile.FailureMessage(err))
		os.Exit(1)
	}

	err = render(cmd.OutOrStdout(), formatFlag, report, func(w io.Writer) {
		fmt.Fprintln(w, report.String())
	})
	if err != nil {
		exitErr("apply", err)
	}
}
