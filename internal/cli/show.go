package cli

import (
	"io"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the memory document",
		Long:  "Show the memory document for an identity, creating an empty one if none exists.",
		Args:  cobra.NoArgs,
		Run:   runShow,
	}

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	svc, cleanup, err := openService(false)
	if err != nil {
		exitErr("open", err)
	}
	defer cleanup()

	state := svc.State(cmd.Context(), identity)
	err = render(cmd.OutOrStdout(), formatFlag, state, func(w io.Writer) {
		writeState(w, state)
	})
	if err != nil {
		exitErr("show", err)
	}
}
