package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Replace the memory document from JSON",
		Long:  "Replace the memory document with one read from a file or stdin. Expects the format produced by export.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := readInput(args)
	if err != nil {
		exitErr("read input", err)
	}

	svc, cleanup, err := openService(false)
	if err != nil {
		exitErr("open", err)
	}
	defer cleanup()

	state, err := svc.Import(cmd.Context(), identity, []byte(data))
	if err != nil {
		exitErr("import", err)
	}

	out := map[string]any{"ok": true, "identity": identity, "imported": state.Len()}
	err = render(cmd.OutOrStdout(), formatFlag, out, func(w io.Writer) {
		fmt.Fprintf(w, "imported %d entries for %s\n", state.Len(), identity)
	})
	if err != nil {
		exitErr("import", err)
	}
}
