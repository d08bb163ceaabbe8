package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/jar-remapper/archive"
	"github.com/wippyai/jar-remapper/config"
	"github.com/wippyai/jar-remapper/provider"
	"github.com/wippyai/jar-remapper/transform"
)

type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "jarremap",
		Short:         "Remap and relocate the classes of a jar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "run file (default $"+config.EnvVar+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newRemapCmd(opts), newInspectCmd(opts))
	return cmd
}

// loadConfig reads the run file if one is named, then lets changed
// flags override it.
func (o *globalOptions) loadConfig(cmd *cobra.Command, override func(*config.Config)) (*config.Config, error) {
	c := config.Default()
	if path := config.Path(o.configPath); path != "" {
		var err error
		if c, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	override(c)
	if cmd.Flags().Changed("log-level") {
		c.Log.Level = o.logLevel
	}
	return c, nil
}

// setupLogging installs one logger for every package that logs.
func setupLogging(c *config.Config) (*zap.Logger, error) {
	lvl, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(lvl)
	if err != nil {
		return nil, err
	}
	provider.SetLogger(logger.Named("provider"))
	transform.SetLogger(logger.Named("transform"))
	archive.SetLogger(logger.Named("archive"))
	return logger, nil
}

// newLogger uses a console encoder on a terminal and JSON otherwise.
func newLogger(lvl zapcore.Level) (*zap.Logger, error) {
	var cfg zap.Config
	if term.IsTerminal(int(os.Stderr.Fd())) {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
