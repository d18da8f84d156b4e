// Package cmd implements the docscan command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/AinsleeWang/smart-doc-scan/internal/config"
	"github.com/AinsleeWang/smart-doc-scan/internal/logging"
	"github.com/AinsleeWang/smart-doc-scan/internal/version"
)

// configKeyAnnotation marks a flag with the configuration key it overrides.
const configKeyAnnotation = "docscan_config_key"

// app carries the state shared by one command tree.
type app struct {
	v        *viper.Viper
	cfgFile  string
	cfg      *config.Config
	closeLog func() error
}

// NewRootCommand builds a fresh command tree with its own configuration
// state, so several trees can run in one process.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "docscan",
		Short: "Find, straighten and clean up documents in photographs",
		Long: `docscan locates the page in a photograph of a document, warps it to a
flat rectangle and enhances it for reading and archiving.

Examples:
  docscan detect photo.jpg --format json
  docscan scan photo.jpg --output-dir scans --pdf scans/all.pdf
  docscan batch ./inbox --recursive --workers 4
  docscan serve --port 8080`,
		Version:           version.Get().String(),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "",
		"config file (default is docscan.yaml in ., $HOME, /etc/docscan, $XDG_CONFIG_HOME/docscan)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "json", "log format (json, text, logfmt)")
	pf.String("log-file", "", "write logs to this file with rotation instead of stderr")
	bindFlag(pf, "verbose", "verbose")
	bindFlag(pf, "log-level", "log_level")
	bindFlag(pf, "log-format", "log.format")
	bindFlag(pf, "log-file", "log.file")

	rootCmd.AddCommand(
		newDetectCommand(a),
		newScanCommand(a),
		newBatchCommand(a),
		newServeCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure. SIGINT and
// SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(ExitCode(err))
	}
}

// bindFlag records the configuration key a flag overrides. The binding is
// applied when the command runs, so subcommands may share keys.
func bindFlag(fs *pflag.FlagSet, name, key string) {
	if err := fs.SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

// setup binds the running command's flags, loads the configuration and
// installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys := f.Annotations[configKeyAnnotation]; len(keys) == 1 && bindErr == nil {
			bindErr = a.v.BindPFlag(keys[0], f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	a.cfg = cfg

	opts := cfg.ToLoggingOptions()
	opts.Writer = cmd.ErrOrStderr()
	closeLog, err := logging.Setup(opts)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	a.closeLog = closeLog
	return nil
}

// loadConfig validates the configuration except for the config command,
// which must be able to show and rewrite a broken file.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoaderWithViper(a.v)
	var (
		cfg *config.Config
		err error
	)
	if isConfigCommand(cmd) {
		cfg, err = loader.LoadWithFileWithoutValidation(a.cfgFile)
	} else {
		cfg, err = loader.LoadWithFile(a.cfgFile)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return cfg, nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}

func (a *app) teardown() error {
	if a.closeLog == nil {
		return nil
	}
	err := a.closeLog()
	a.closeLog = nil
	return err
}
