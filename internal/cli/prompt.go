package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt refresh would send",
		Args:  cobra.NoArgs,
		Run:   runPrompt,
	}

	cmd.Flags().String("persona", "", "System prompt (overrides prompt.persona)")
	cmd.Flags().String("instructions", "", "Instructions (overrides prompt.instructions)")

	RootCmd.AddCommand(cmd)
}

func runPrompt(cmd *cobra.Command, args []string) {
	svc, cleanup, err := openService(false)
	if err != nil {
		exitErr("open", err)
	}
	defer cleanup()

	p, err := svc.Prompt(cmd.Context(), identity, promptInput(cmd))
	if err != nil {
		exitErr("prompt", err)
	}

	err = render(cmd.OutOrStdout(), formatFlag, p, func(w io.Writer) {
		fmt.Fprint(w, p.Text)
	})
	if err != nil {
		exitErr("prompt", err)
	}
}
