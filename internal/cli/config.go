package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/rcliao/memtier/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		// Runs without reading any config, so it works before one exists.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run:               runConfigInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run:   runConfigShow,
	}

	cmd.AddCommand(initCmd, showCmd)
	RootCmd.AddCommand(cmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil && !force {
		exitErr("config init", fmt.Errorf("%s already exists (use --force to overwrite)", path))
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		exitErr("config init", err)
	}

	if err := config.Save(path, config.NewDefaultConfig()); err != nil {
		exitErr("config init", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	shown := *cfg
	shown.Model.APIKey = mask(shown.Model.APIKey)

	err := render(cmd.OutOrStdout(), formatFlag, shown, func(w io.Writer) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(shown); err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			return
		}
		w.Write(buf.Bytes())
	})
	if err != nil {
		exitErr("config show", err)
	}
}
