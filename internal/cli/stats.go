package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memtier/internal/reconcile"
	"github.com/rcliao/memtier/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory statistics",
		Args:  cobra.NoArgs,
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	svc, cleanup, err := openService(false)
	if err != nil {
		exitErr("open", err)
	}
	defer cleanup()

	stats := store.StatsFor(identity, svc.State(cmd.Context(), identity))

	err = render(cmd.OutOrStdout(), formatFlag, stats, func(w io.Writer) {
		fmt.Fprintf(w, "identity: %s (version %d)\n", stats.Identity, stats.Version)
		fmt.Fprintf(w, "created: %s  updated: %s\n", stats.CreatedAt, stats.LastUpdate)
		for _, t := range stats.Tiers {
			fmt.Fprintf(w, "%s: %d", reconcile.TierLabel(t.Tier), t.Count)
			if t.WithExpiry > 0 {
				fmt.Fprintf(w, " (%d with expiry)", t.WithExpiry)
			}
			if len(t.Categories) > 0 {
				cats := make([]string, 0, len(t.Categories))
				for c, n := range t.Categories {
					cats = append(cats, fmt.Sprintf("%s=%d", c, n))
				}
				sort.Strings(cats)
				fmt.Fprintf(w, "  [%s]", strings.Join(cats, " "))
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "total: %d  summary keys: %d\n", stats.Total, stats.SummaryKeys)
	})
	if err != nil {
		exitErr("stats", err)
	}
}
