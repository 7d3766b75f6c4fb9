package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the last merge report",
		Long: `Show the report from the most recent successful apply or refresh for an
identity. Reports outlive the process only when cache.redis_url is set.`,
		Args: cobra.NoArgs,
		Run:  runReport,
	}

	RootCmd.AddCommand(cmd)
}

func runReport(cmd *cobra.Command, args []string) {
	svc, cleanup, err := openService(false)
	if err != nil {
		exitErr("open", err)
	}
	defer cleanup()

	report, ok, err := svc.LastReport(cmd.Context(), identity)
	if err != nil {
		exitErr("report", err)
	}

	out := struct {
		Identity string `json:"identity"`
		Found    bool   `json:"found"`
		Report   string `json:"report,omitempty"`
	}{identity, ok, report}

	err = render(cmd.OutOrStdout(), formatFlag, out, func(w io.Writer) {
		if !ok {
			fmt.Fprintln(w, "暂无记忆更新记录。")
			return
		}
		fmt.Fprintln(w, report)
	})
	if err != nil {
		exitErr("report", err)
	}
}
