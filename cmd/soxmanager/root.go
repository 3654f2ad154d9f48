// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package main

import (
	"fmt"
	"os"

	"github.com/ZSC714725/soxmanager/internal/config"
	"github.com/ZSC714725/soxmanager/internal/logger"
	"github.com/ZSC714725/soxmanager/internal/sox"
	"github.com/ZSC714725/soxmanager/internal/sox/options"

	"github.com/spf13/cobra"
)

var (
	configPath string
	soxBinary  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "soxmanager",
	Short:         "SoxManager runs and monitors SoX audio processing jobs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&soxBinary, "sox", "", "SoX binary path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if soxBinary != "" {
		cfg.Sox.Path = soxBinary
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newSox builds the SoX facade from the config.
func newSox(cfg *config.Config, log logger.Logger) (sox.Sox, error) {
	validatorIn, err := sox.NewValidator(cfg.Sox.Input.Allow, cfg.Sox.Input.Block)
	if err != nil {
		return nil, err
	}
	validatorOut, err := sox.NewValidator(cfg.Sox.Output.Allow, cfg.Sox.Output.Block)
	if err != nil {
		return nil, err
	}

	return sox.New(sox.Config{
		Binary: cfg.Sox.Path,
		Dir:    cfg.Sox.Dir,
		Global: options.Global{
			Buffer:        cfg.Sox.Buffer,
			Multithreaded: cfg.Sox.Multithreaded,
		},
		ValidatorInput:  validatorIn,
		ValidatorOutput: validatorOut,
		InfoTimeout:     cfg.Sox.InfoTimeout,
		Sampling:        cfg.Sox.Sampling,
		Logger:          logger.With(log, "sox"),
	})
}

// cliLogger returns a logger for the one-shot commands, silent unless
// --verbose is given.
func cliLogger(cfg *config.Config) (logger.Logger, error) {
	if !verbose {
		return logger.Nop(), nil
	}
	return logger.New(cfg.Log)
}
