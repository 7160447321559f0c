package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/engine"
	"github.com/gcbaptista/prism/internal/logger"
)

var (
	flagConfigPath string
	flagDataDir    string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "prism",
	Short:        "Prism: PDF outlines and related-section retrieval",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `Prism extracts a title and heading outline from PDFs, indexes their
sentences as vectors and answers "what else in my library is related to this"
queries over HTTP or from the command line.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "prism.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Directory holding documents, metadata and vectors (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the persistent flag overrides.
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if flagDataDir != "" {
		cfg.Data.Dir = flagDataDir
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	log := logger.Init(&logger.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	return cfg, log, nil
}

// openEngine builds an engine for a one-shot command. The caller closes it.
func openEngine() (*engine.Engine, logger.Logger, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.New(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open engine: %w", err)
	}
	return eng, log, nil
}
