package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the memory document as JSON",
		Long:  "Write the raw memory document to stdout or a file. The output can be fed back to import.",
		Args:  cobra.NoArgs,
		Run:   runExport,
	}

	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	output, _ := cmd.Flags().GetString("output")

	svc, cleanup, err := openService(false)
	if err != nil {
		exitErr("open", err)
	}
	defer cleanup()

	data, err := svc.Export(cmd.Context(), identity)
	if err != nil {
		exitErr("export", err)
	}

	if output != "" {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			exitErr("write export", err)
		}
		return
	}
	cmd.OutOrStdout().Write(data)
}
