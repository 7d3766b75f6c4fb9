package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/rcliao/memtier/internal/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config file", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	Describe("Load", func() {
		It("returns defaults when the file does not exist", func() {
			cfg, err := config.Load(filepath.Join(tmpDir, "missing.toml"))
			Expect(err).NotTo(HaveOccurred())

			d := config.NewDefaultConfig()
			Expect(cfg).To(Equal(d))
			Expect(cfg.Store.Backend).To(Equal("file"))
			Expect(cfg.Model.TimeoutDuration()).To(Equal(60 * time.Second))
		})

		It("overrides defaults with file values", func() {
			data := `[store]
backend = "sqlite"
sqlite_path = "/tmp/m.db"

[model]
provider = "openai"
name = "gpt-4o-mini"

[cache]
redis_url = "redis://localhost:6379/1"
ttl = "24h"
`
			path := filepath.Join(tmpDir, "config.toml")
			Expect(os.WriteFile(path, []byte(data), 0o600)).To(Succeed())

			cfg, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Store.Backend).To(Equal("sqlite"))
			Expect(cfg.Store.SQLitePath).To(Equal("/tmp/m.db"))
			Expect(cfg.Store.Dir).To(Equal(config.NewDefaultConfig().Store.Dir))
			Expect(cfg.Model.Provider).To(Equal("openai"))
			Expect(cfg.Model.MaxTokens).To(Equal(int64(2048)))
			Expect(cfg.Cache.TTLDuration()).To(Equal(24 * time.Hour))
		})

		It("rejects invalid TOML", func() {
			path := filepath.Join(tmpDir, "config.toml")
			Expect(os.WriteFile(path, []byte("[store\nbackend ="), 0o600)).To(Succeed())

			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing config"))
		})
	})

	Describe("Save", func() {
		It("round-trips through Load", func() {
			path := filepath.Join(tmpDir, "nested", "config.toml")
			cfg := config.NewDefaultConfig()
			cfg.Model.APIKey = "sk-secret"
			cfg.Log.Pretty = true

			Expect(config.Save(path, cfg)).To(Succeed())

			info, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("refuses a nil config", func() {
			Expect(config.Save(filepath.Join(tmpDir, "c.toml"), nil)).NotTo(Succeed())
		})
	})

	Describe("Validate", func() {
		It("accepts the defaults", func() {
			Expect(config.NewDefaultConfig().Validate()).To(Succeed())
		})

		It("rejects an unknown backend", func() {
			cfg := config.NewDefaultConfig()
			cfg.Store.Backend = "postgres"
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("unknown backend")))
		})

		It("rejects a bad duration", func() {
			cfg := config.NewDefaultConfig()
			cfg.Model.Timeout = "soon"
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("model.timeout")))
		})
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		GinkgoT().Setenv("MEMTIER_CONFIG", filepath.Join(tmpDir, "absent.toml"))
	})

	It("falls back to defaults when the default file is missing", func() {
		v, err := config.InitViper("")
		Expect(err).NotTo(HaveOccurred())
		Expect(config.FromViper(v)).To(Equal(config.NewDefaultConfig()))
	})

	It("fails when an explicit file is missing", func() {
		_, err := config.InitViper(filepath.Join(tmpDir, "nope.toml"))
		Expect(err).To(HaveOccurred())
	})

	It("applies flags over env over file over defaults", func() {
		path := filepath.Join(tmpDir, "config.toml")
		data := `[model]
provider = "openai"
name = "from-file"
max_tokens = 100

[prompt]
budget = 500
`
		Expect(os.WriteFile(path, []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("MEMTIER_MODEL_NAME", "from-env")
		GinkgoT().Setenv("MEMTIER_PROMPT_BUDGET", "900")

		v, err := config.InitViper(path)
		Expect(err).NotTo(HaveOccurred())

		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.Int("budget", 0, "")
		Expect(fs.Parse([]string{"--budget=1200"})).To(Succeed())
		Expect(v.BindPFlag("prompt.budget", fs.Lookup("budget"))).To(Succeed())

		cfg := config.FromViper(v)
		Expect(cfg.Model.Provider).To(Equal("openai"))
		Expect(cfg.Model.Name).To(Equal("from-env"))
		Expect(cfg.Model.MaxTokens).To(Equal(int64(100)))
		Expect(cfg.Prompt.Budget).To(Equal(1200))
		Expect(cfg.Store.Backend).To(Equal("file"))
	})
})
