// Package cli implements the memtier CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rcliao/memtier/internal/config"
	"github.com/rcliao/memtier/internal/llm"
	"github.com/rcliao/memtier/internal/logging"
	"github.com/rcliao/memtier/internal/prompt"
	"github.com/rcliao/memtier/internal/reportcache"
	"github.com/rcliao/memtier/internal/service"
	"github.com/rcliao/memtier/internal/store"
)

var (
	configPath string
	identity   string
	formatFlag string

	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger = logging.Discard()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memtier",
	Short: "Tiered memory for conversational agents",
	Long: `Keeps a small tiered memory document (core, long-term, medium-term,
short-term) per identity and merges upsert/delete deltas proposed by a
language model into it.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Config file (default: $MEMTIER_CONFIG or ~/.memtier/config.toml)")
	pf.StringVarP(&identity, "identity", "i", "default", "Identity whose memory document to use")
	pf.StringVarP(&formatFlag, "format", "f", "text", "Output format: text, json or yaml")
	pf.Bool("debug", false, "Enable debug logging")
	pf.String("backend", "", "Store backend: file or sqlite")
}

func setup(cmd *cobra.Command, args []string) error {
	switch formatFlag {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", formatFlag)
	}

	var err error
	v, err = config.InitViper(configPath)
	if err != nil {
		return err
	}
	_ = v.BindPFlag("log.debug", cmd.Flag("debug"))
	_ = v.BindPFlag("store.backend", cmd.Flag("backend"))

	cfg = config.FromViper(v)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger = logging.New(
		logging.WithDebug(cfg.Log.Debug),
		logging.WithJSON(cfg.Log.JSON),
		logging.WithPretty(cfg.Log.Pretty),
	)
	return nil
}

func openStore() (*store.Store, error) {
	var (
		b   store.Backend
		err error
	)
	switch cfg.Store.Backend {
	case "sqlite":
		b, err = store.NewSQLiteBackend(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
	default:
		b = store.NewFileBackend(cfg.Store.Dir)
	}
	logger.Debug("store opened", "backend", cfg.Store.Backend)
	return store.New(b, store.WithLogger(logger)), nil
}

// openService wires a Service from the resolved config. withModel also
// builds the model client, which fails without an API key.
func openService(withModel bool) (*service.Service, func(), error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closers := []func() error{st.Close}
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithPromptBuilder(prompt.New(cfg.Prompt.Budget)),
	}
	if d := cfg.Model.TimeoutDuration(); d > 0 {
		opts = append(opts, service.WithModelTimeout(d))
	}

	if cfg.Cache.RedisURL != "" {
		cache, err := reportcache.NewRedis(reportcache.RedisOptions{
			URL: cfg.Cache.RedisURL,
			TTL: cfg.Cache.TTLDuration(),
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open report cache: %w", err)
		}
		closers = append(closers, cache.Close)
		opts = append(opts, service.WithReportCache(cache))
	}

	if withModel {
		completer, err := llm.New(llm.Config{
			Provider:  cfg.Model.Provider,
			Model:     cfg.Model.Name,
			APIKey:    cfg.Model.APIKey,
			BaseURL:   cfg.Model.BaseURL,
			MaxTokens: cfg.Model.MaxTokens,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		opts = append(opts, service.WithCompleter(completer))
	}

	return service.New(st, opts...), cleanup, nil
}

func promptInput(cmd *cobra.Command) prompt.Input {
	in := prompt.Input{
		Persona:      cfg.Prompt.Persona,
		Instructions: cfg.Prompt.Instructions,
	}
	if f := cmd.Flag("persona"); f != nil && f.Changed {
		in.Persona = f.Value.String()
	}
	if f := cmd.Flag("instructions"); f != nil && f.Changed {
		in.Instructions = f.Value.String()
	}
	return in
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
