package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/config"
	"github.com/oukeidos/polyword/internal/document"
	"github.com/oukeidos/polyword/internal/logger"
	"github.com/oukeidos/polyword/internal/session"
	"github.com/spf13/cobra"
)

type uploadOptions struct {
	download []string
	yes      bool
}

func newUploadCmd(global *globalOptions) *cobra.Command {
	opts := uploadOptions{}
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document and optionally download its artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_ = cmd.Usage()
				return fmt.Errorf("exactly one input file is required")
			}
			return runUpload(cmd, args[0], global, &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringSliceVar(&opts.download, "download", nil, "Artifacts to download after processing: original, translated, refined or all")
	addOutputFlags(cmd, &opts.yes)
	return cmd
}

// addOutputFlags registers -y and --out. --out is read through config.Load
// so it layers over POLYWORD_OUTPUT_DIR and the config file.
func addOutputFlags(cmd *cobra.Command, yes *bool) {
	cmd.Flags().String(config.FlagOutputDir, config.DefaultOutputDir, "Directory downloaded artifacts are saved to")
	cmd.Flags().BoolVarP(yes, "yes", "y", false, "Overwrite existing files without asking")
}

func runUpload(cmd *cobra.Command, path string, global *globalOptions, opts *uploadOptions) error {
	kinds, err := parseArtifacts(opts.download)
	if err != nil {
		return err
	}
	cfg, err := setup(cmd, global)
	if err != nil {
		return err
	}
	api, err := cfg.NewClient()
	if err != nil {
		return err
	}
	f, err := session.FileFromPath(path)
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}
	if !document.HasPDFExtension(f.Name) {
		logger.Warn("The service only accepts file names ending in .pdf", "file", f.Name)
	}
	if info, err := document.InspectFile(path); err != nil {
		logger.Warn("Input does not look like a PDF; the service may reject it", "file", f.Name, "error", err)
	} else {
		logger.Info("Document inspected", "file", f.Name, "pages", info.Pages, "text_layer", info.TextLayer)
	}

	view := newConsoleView(cmd.ErrOrStderr())
	sink := newDirSink(cfg.OutputDir, opts.yes, cmd.OutOrStdout())
	ctrl := session.New(api, view, sink)

	ctx, stop := signalContext()
	defer stop()

	ctrl.OnFileSelected(f)
	if err := ctrl.OnSubmit(ctx); err != nil {
		return finishError(ctx, view, err)
	}

	res, _ := ctrl.Result()
	printResult(cmd.OutOrStdout(), res)

	// A failed artifact does not stop the others.
	var failed int
	for _, kind := range kinds {
		err := ctrl.OnDownload(ctx, kind)
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			return finishError(ctx, view, err)
		}
		failed++
	}
	if failed > 0 {
		err := fmt.Errorf("%d of %d downloads failed", failed, len(kinds))
		if view.alerted() {
			return &reportedError{err: err}
		}
		return err
	}
	return nil
}

// finishError maps a controller failure to the command result. Cancellation
// is not a failure; alerted errors are not printed twice.
func finishError(ctx context.Context, view *consoleView, err error) error {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		logger.Warn("Canceled", "error", err)
		return nil
	}
	if view.alerted() {
		return &reportedError{err: err}
	}
	return err
}

func printResult(w io.Writer, res client.ProcessingResult) {
	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}
	for _, a := range client.Artifacts() {
		loc, _ := res.Locator(a)
		fmt.Fprintf(w, "%-11s %s\n", string(a)+":", loc)
	}
}
