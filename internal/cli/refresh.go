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
		Use:   "refresh",
		Short: "Ask the model to update memory from a conversation",
		Long: `Render the current memory into a prompt, send it with the conversation
history to the configured model, and merge the delta it returns.`,
		Args: cobra.NoArgs,
		Run:  runRefresh,
	}

	cmd.Flags().String("history", "", "Conversation history file, or - for stdin")
	cmd.Flags().String("persona", "", "System prompt (overrides prompt.persona)")
	cmd.Flags().String("instructions", "", "Instructions (overrides prompt.instructions)")

	RootCmd.AddCommand(cmd)
}

func runRefresh(cmd *cobra.Command, args []string) {
	var conversation string
	if path, _ := cmd.Flags().GetString("history"); path != "" {
		text, err := readInput([]string{path})
		if err != nil {
			exitErr("read history", err)
		}
		conversation = text
	}

	svc, cleanup, err := openService(true)
	if err != nil {
		exitErr("open", err)
	}
	defer cleanup()

	report, err := svc.Refresh(cmd.Context(), identity, conversation, promptInput(cmd))
	if err != nil {
		cleanup()
		fmt.Fprintln(os.Stderr, reconcile.FailureMessage(err))
		os.Exit(1)
	}

	err = render(cmd.OutOrStdout(), formatFlag, report, func(w io.Writer) {
		fmt.Fprintln(w, report.String())
	})
	if err != nil {
		exitErr("refresh", err)
	}
}
