package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/starloop/cartomancer/internal/config"
)

var (
	cfg    *config.Config
	logger = zap.NewNop()

	verbose    bool
	dataDir    string
	configPath string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cartomancer",
	Short: "Tool for repairing and verifying multilingual tarot content",
	Long: `Cartomancer is a command-line tool for maintaining the tarot card content files
of a multilingual reading site. It repairs translation files that drifted from the
canonical Spanish schema, verifies completeness and parity across languages, and
can display a card or ask the oracle about it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("error creating logger: %v", err)
		}

		if configPath != "" {
			cfg, err = config.LoadFile(configPath)
		} else {
			cfg, err = config.LoadConfig()
		}
		if err != nil {
			return fmt.Errorf("error loading config: %v", err)
		}

		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		logger.Debug("Configuration loaded",
			zap.String("data_dir", cfg.DataDir), zap.Strings("languages", cfg.Languages))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.DisableStacktrace = true
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	RootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the range files (overrides config)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an alternate config file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}
