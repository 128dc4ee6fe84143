package main

import (
	"fmt"
	"io"

	"github.com/cwbudde/algo-noise/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries the state shared by all subcommands once the persistent
// pre-run has loaded it.
type app struct {
	configPath string
	debug      bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "noisecheck",
		Short:        "Self-check of the ambient-noise correlation and dv/v toolkit",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "development logging at debug level")

	root.AddCommand(newDvVCmd(a), newCCFCmd(a), newConfigCmd(a))
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(a.debug, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// newLogger returns a development logger when debug is set and a
// production logger at level otherwise.
func newLogger(debug bool, level string) (*zap.Logger, error) {
	if debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("can't initialize zap logger: %w", err)
		}
		return l, nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}
	return l, nil
}
