package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/oukeidos/polyword/internal/apperrors"
	"github.com/oukeidos/polyword/internal/cleanup"
	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/config"
	"github.com/oukeidos/polyword/internal/httpclient"
	"github.com/oukeidos/polyword/internal/logger"
	"github.com/oukeidos/polyword/internal/version"
	"github.com/spf13/cobra"
)

func execute() {
	cmd := newRootCmd()
	err := cmd.Execute()
	if cleanupErr := cleanup.RunAll(); cleanupErr != nil {
		fmt.Fprintln(os.Stderr, cleanupErr)
		if err == nil {
			err = cleanupErr
		}
	}
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", apperrors.PublicMessage(err))
		}
		os.Exit(1)
	}
}

type globalOptions struct {
	server       string
	bucketPrefix string
	timeout      time.Duration
	configPath   string
	logFilePath  string
	debug        bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "polyword",
		Short: "PolyWord document translation client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				_ = cmd.Usage()
				return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return cmd.Help()
		},
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(rootUsageTemplate)

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.server, config.FlagServer, config.DefaultServerURL, "PolyWord service base URL")
	pf.StringVar(&opts.bucketPrefix, config.FlagBucketPrefix, client.DefaultBucketPrefix, "Storage prefix stripped from artifact locators")
	pf.DurationVar(&opts.timeout, config.FlagTimeout, httpclient.DefaultTimeout, "Per-request timeout (0 disables)")
	pf.StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default ~/.polyword/config.yaml)")
	pf.StringVar(&opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newUploadCmd(opts),
		newDownloadCmd(opts),
		newAboutCmd(),
	)

	cmd.InitDefaultCompletionCmd()
	for _, sub := range cmd.Commands() {
		if sub.Name() == "completion" {
			sub.Short = "Generate shell completion scripts"
			sub.SetUsageTemplate(subcommandUsageTemplate)
			break
		}
	}

	return cmd
}

// setup initializes logging and resolves configuration for a subcommand.
func setup(cmd *cobra.Command, opts *globalOptions) (config.Config, error) {
	if err := initLogging(opts); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(config.Options{
		Flags:      cmd.Flags(),
		File:       opts.configPath,
		SearchDirs: config.DefaultSearchDirs(),
		DotEnv:     []string{".env"},
	})
	if err != nil {
		return config.Config{}, err
	}
	logger.Debug("Configuration resolved",
		"server", cfg.ServerURL, "bucket_prefix", cfg.BucketPrefix,
		"timeout", cfg.Timeout, "out", cfg.OutputDir)
	return cfg, nil
}

func initLogging(opts *globalOptions) error {
	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	logFileW, err := openLogFile(opts.logFilePath)
	if err != nil {
		return err
	}
	logger.Init(logLevel, logFileW)
	return nil
}
