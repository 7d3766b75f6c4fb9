package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rcliao/memtier/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored versions (sqlite backend)",
		Long: `List stored versions of the memory document, newest first. With --version,
print that version. With --identities, list every identity that has a document.`,
		Args:  cobra.NoArgs,
		Run:   runHistory,
	}

	cmd.Flags().IntP("version", "v", 0, "Print a specific version")
	cmd.Flags().Bool("identities", false, "List identities instead of versions")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	version, _ := cmd.Flags().GetInt("version")
	listIdentities, _ := cmd.Flags().GetBool("identities")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sq, ok := s.Backend().(*store.SQLiteBackend)
	if !ok {
		exitErr("history", errors.New("requires store.backend = \"sqlite\""))
	}

	if listIdentities {
		ids, err := sq.Identities(cmd.Context())
		if err != nil {
			exitErr("history", err)
		}
		err = render(cmd.OutOrStdout(), formatFlag, ids, func(w io.Writer) {
			for _, id := range ids {
				fmt.Fprintln(w, id)
			}
		})
		if err != nil {
			exitErr("history", err)
		}
		return
	}

	if version > 0 {
		body, err := sq.ReadVersion(cmd.Context(), identity, version)
		if err != nil {
			exitErr("history", err)
		}
		cmd.OutOrStdout().Write(body)
		return
	}

	versions, err := sq.History(cmd.Context(), identity)
	if err != nil {
		exitErr("history", err)
	}

	err = render(cmd.OutOrStdout(), formatFlag, versions, func(w io.Writer) {
		if len(versions) == 0 {
			fmt.Fprintf(w, "no versions for %s\n", identity)
			return
		}
		for _, ver := range versions {
			fmt.Fprintf(w, "v%d  %s  %d bytes  %s\n", ver.Version, ver.CreatedAt, ver.Size, ver.ID)
		}
	})
	if err != nil {
		exitErr("history", err)
	}
}
