package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oukeidos/polyword/internal/cleanup"
	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/files"
	"github.com/oukeidos/polyword/internal/logger"
)

// reportedError marks an error whose message was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func openLogFile(path string) (io.Writer, error) {
	if path == "" {
		return nil, nil
	}
	if err := files.RejectSymlinkPath(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	cleanup.Register(f.Close)
	return f, nil
}

// parseArtifacts expands a --download value list. "all" selects every kind;
// duplicates are dropped and display order is kept.
func parseArtifacts(values []string) ([]client.Artifact, error) {
	want := make(map[client.Artifact]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.EqualFold(part, "all") {
				for _, a := range client.Artifacts() {
					want[a] = true
				}
				continue
			}
			a, err := client.ParseArtifact(part)
			if err != nil {
				return nil, err
			}
			want[a] = true
		}
	}
	var out []client.Artifact
	for _, a := range client.Artifacts() {
		if want[a] {
			out = append(out, a)
		}
	}
	return out, nil
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Cancellation requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
