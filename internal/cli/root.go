package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"supportrag/config"
	"supportrag/internal/logger"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
	log      *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "supportrag",
	Short: "Support documentation indexer - crawl, download, decompose and index support docs",
	Long: `supportrag builds the retrieval index behind a support assistant. It crawls an
authenticated documentation site, downloads the linked PDF documents, splits
them into sections and token-bounded chunks, and writes the embedded chunks to
a vector collection that is rebuilt on every run.

Every stage writes a JSON artifact the next stage reads, so a run can resume
from the last completed stage.

Example usage:
  supportrag run                          # All stages
  supportrag crawl                        # Only collect page URLs
  supportrag index                        # Rebuild the collection from processed_pdfs.json
  supportrag search -q "reset password"   # Query the collection`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if err := config.LoadEnv(rootDir); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.ApplyEnv()

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		log, err = logger.New(cfg.Logging.Mode, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

// Execute runs the root command. Ctrl-C cancels the running stage.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./supportrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "working directory for artifacts (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func GetLogger() *logger.Logger {
	if log == nil {
		return logger.Nop()
	}
	return log
}
