package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/oukeidos/polyword/internal/apperrors"
	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/files"
	"github.com/oukeidos/polyword/internal/logger"
	"github.com/spf13/cobra"
)

type downloadOptions struct {
	yes bool
}

func newDownloadCmd(global *globalOptions) *cobra.Command {
	opts := downloadOptions{}
	cmd := &cobra.Command{
		Use:   "download <locator>...",
		Short: "Download artifacts by storage locator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return fmt.Errorf("at least one locator is required")
			}
			return runDownload(cmd, args, global, &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addOutputFlags(cmd, &opts.yes)
	return cmd
}

func runDownload(cmd *cobra.Command, locators []string, global *globalOptions, opts *downloadOptions) error {
	cfg, err := setup(cmd, global)
	if err != nil {
		return err
	}
	api, err := cfg.NewClient()
	if err != nil {
		return err
	}
	sink := newDirSink(cfg.OutputDir, opts.yes, cmd.OutOrStdout())

	ctx, stop := signalContext()
	defer stop()

	var failed int
	for _, loc := range locators {
		err := downloadOne(ctx, api, sink, loc)
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			logger.Warn("Download canceled", "locator", loc)
			return nil
		}
		failed++
		logger.Error("Download failed", "locator", loc, "error", err)
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", apperrors.PublicMessage(err))
	}
	if failed > 0 {
		return &reportedError{err: fmt.Errorf("%d of %d downloads failed", failed, len(locators))}
	}
	return nil
}

func downloadOne(ctx context.Context, api *client.Client, sink *dirSink, locator string) error {
	dl, err := api.Download(ctx, locator)
	if err != nil {
		return err
	}
	staged, err := files.Stage(dl.Filename, []byte(dl.Content))
	if err != nil {
		return apperrors.Download(err)
	}
	defer staged.Release()
	if err := sink.Deliver(ctx, staged); err != nil {
		return apperrors.Download(err)
	}
	return nil
}
