// Command moqipro annotates RIME dictionaries with tone-marked pinyin
// and moqi auxiliary codes, and checks upstream dictionary releases for
// updates.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// config carries the environment-driven settings shared by all
// subcommands. Flags override these where both exist.
type config struct {
	AuxURL        string        `env:"MOQIPRO_AUX_URL"`
	SingleDictURL string        `env:"MOQIPRO_SINGLE_DICT_URL"`
	PhraseDictURL string        `env:"MOQIPRO_PHRASE_DICT_URL"`
	HTTPTimeout   time.Duration `env:"MOQIPRO_HTTP_TIMEOUT" env-default:"45s"`
	VersionsPath  string        `env:"MOQIPRO_VERSIONS_PATH" env-default:"versions.json"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "moqipro",
		Short:         "RIME dictionary annotation with moqi auxiliary codes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newProcessCmd(&verbose))
	root.AddCommand(newCheckUpdatesCmd(&verbose))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}
