package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the memory document",
		Long:  "Discard the memory document for an identity. The next command recreates an empty one.",
		Args:  cobra.NoArgs,
		Run:   runReset,
	}

	RootCmd.AddCommand(cmd)
}

func runReset(cmd *cobra.Command, args []string) {
	svc, cleanup, err := openService(false)
	if err != nil {
		exitErr("open", err)
	}
	defer cleanup()

	if err := svc.Reset(cmd.Context(), identity); err != nil {
		exitErr("reset", err)
	}

	out := map[string]any{"ok": true, "identity": identity}
	err = render(cmd.OutOrStdout(), formatFlag, out, func(w io.Writer) {
		fmt.Fprintf(w, "memory reset: %s\n", identity)
	})
	if err != nil {
		exitErr("reset", err)
	}
}
