// Command genpress compresses files into generative descriptor envelopes and
// regenerates them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seiflotfy/genpress"
)

var (
	verbose    bool
	configPath string
	codecName  string
	storeKind  string
	storePath  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "genpress",
	Short: "Generative lossless compression",
	Long: `genpress searches a catalog of generators for a small descriptor that
regenerates the input exactly, and stores it in a self-describing envelope.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "genpress.yaml", "path to the YAML configuration")
	rootCmd.PersistentFlags().StringVar(&codecName, "codec", "", "envelope codec (none, flate, zstd, lz4, xz, auto)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "sqlite", "store backend (memory, sqlite)")
	rootCmd.PersistentFlags().StringVar(&storePath, "db", "genpress.db", "sqlite database path")

	rootCmd.AddCommand(compressCmd, decompressCmd, infoCmd, rangeCmd, putCmd, getCmd, listCmd)
}

// newEngine builds an engine from the configuration file and flags.
func newEngine() (*genpress.Engine, error) {
	cfg, err := genpress.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	opts := []genpress.Option{genpress.WithConfig(*cfg)}
	if codecName != "" {
		opts = append(opts, genpress.WithCodec(codecName))
	}
	return genpress.New(opts...).WithLogger(logger), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
