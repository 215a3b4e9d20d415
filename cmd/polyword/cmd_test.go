package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/logger"
	"github.com/oukeidos/polyword/internal/version"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// newService fakes the PolyWord service. Locators point at uploads/<kind>.txt.
// Downloads of the broken names answer 500.
func newService(t *testing.T, uploadStatus int, broken ...string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if uploadStatus != http.StatusOK {
			w.WriteHeader(uploadStatus)
			_, _ = w.Write([]byte(`{"detail":"Only PDF files are allowed"}`))
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message":         "File processed successfully",
			"original_text":   "gs://polyword-bucket/uploads/original.txt",
			"translated_text": "gs://polyword-bucket/uploads/translated.txt",
			"refined_text":    "gs://polyword-bucket/uploads/refined.txt",
		})
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/download/uploads/")
		if name == "missing.txt" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"File not found"}`))
			return
		}
		if slices.Contains(broken, name) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"Internal Server Error"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"content":  "content of " + name,
			"filename": name,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestUpload_DownloadsAllArtifacts(t *testing.T) {
	srv := newService(t, http.StatusOK)
	out := t.TempDir()

	got, err := executeCommand(t, "upload", writeInput(t),
		"--server", srv.URL, "--download", "all", "--out", out, "-y")
	if err != nil {
		t.Fatalf("upload failed: %v\n%s", err, got)
	}
	if !strings.Contains(got, "translated: gs://polyword-bucket/uploads/translated.txt") {
		t.Fatalf("locators not printed: %s", got)
	}
	for _, a := range client.Artifacts() {
		data, err := os.ReadFile(filepath.Join(out, string(a)+".txt"))
		if err != nil {
			t.Fatalf("%s not saved: %v", a, err)
		}
		if string(data) != "content of "+string(a)+".txt" {
			t.Fatalf("%s content = %q", a, data)
		}
	}
}

func TestUpload_FailedArtifactDoesNotStopOthers(t *testing.T) {
	srv := newService(t, http.StatusOK, "original.txt")
	out := t.TempDir()

	got, err := executeCommand(t, "upload", writeInput(t),
		"--server", srv.URL, "--download", "all", "--out", out, "-y")
	if err == nil || !strings.Contains(err.Error(), "1 of 3 downloads failed") {
		t.Fatalf("expected partial failure, got %v", err)
	}
	var reported *reportedError
	if !errors.As(err, &reported) {
		t.Fatalf("expected reportedError, got %T: %v", err, err)
	}
	msg := "An error occurred while downloading the file. Please try again."
	if strings.Count(got, msg) != 1 {
		t.Fatalf("expected exactly one download alert, got output: %s", got)
	}
	if _, err := os.Stat(filepath.Join(out, "original.txt")); !os.IsNotExist(err) {
		t.Fatalf("failed artifact must not be saved: %v", err)
	}
	for _, name := range []string{"translated.txt", "refined.txt"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("%s not saved after an earlier failure: %v", name, err)
		}
	}
}

func TestUpload_NonPDFNameWarns(t *testing.T) {
	srv := newService(t, http.StatusOK)
	dir := t.TempDir()
	path := filepath.Join(dir, "REPORT.PDF")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0600); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(dir, "polyword.jsonl")
	t.Cleanup(func() { logger.Init(logger.LevelInfo, nil) })

	got, err := executeCommand(t, "upload", path, "--server", srv.URL, "--log-file", logPath)
	if err != nil {
		t.Fatalf("upload failed: %v\n%s", err, got)
	}
	logged, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logged), "only accepts file names ending in .pdf") ||
		!strings.Contains(string(logged), `"file":"REPORT.PDF"`) {
		t.Fatalf("expected name warning in log, got %s", logged)
	}
}

func TestUpload_WithoutDownloadOnlyPrintsLocators(t *testing.T) {
	srv := newService(t, http.StatusOK)
	out := t.TempDir()

	got, err := executeCommand(t, "upload", writeInput(t), "--server", srv.URL, "--out", out)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if !strings.Contains(got, "File processed successfully") {
		t.Fatalf("server message not printed: %s", got)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Fatalf("expected no downloads, got %d files", len(entries))
	}
}

func TestUpload_ServerErrorAlertsOnce(t *testing.T) {
	srv := newService(t, http.StatusBadRequest)

	got, err := executeCommand(t, "upload", writeInput(t), "--server", srv.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	var reported *reportedError
	if !errors.As(err, &reported) {
		t.Fatalf("expected reportedError, got %T: %v", err, err)
	}
	msg := "An error occurred while processing your file. Please try again."
	if strings.Count(got, msg) != 1 {
		t.Fatalf("expected exactly one alert, got output: %s", got)
	}
}

func TestUpload_ArgumentErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"no_file", []string{"upload"}, "exactly one input file is required"},
		{"missing_file", []string{"upload", filepath.Join(t.TempDir(), "nope.pdf")}, "cannot read input file"},
		{"bad_kind", []string{"upload", "x.pdf", "--download", "summary"}, `unknown artifact "summary"`},
		{"bad_server", []string{"upload", "x.pdf", "--server", "ftp://host"}, "Invalid server URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := executeCommand(t, tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want contains %q", err, tc.want)
			}
		})
	}
}

func TestDownload_ReportsFailuresAndContinues(t *testing.T) {
	srv := newService(t, http.StatusOK)
	out := t.TempDir()

	got, err := executeCommand(t, "download",
		"gs://polyword-bucket/uploads/missing.txt",
		"gs://polyword-bucket/uploads/refined.txt",
		"--server", srv.URL, "--out", out, "-y")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 downloads failed") {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if !strings.Contains(got, "An error occurred while downloading the file. Please try again.") {
		t.Fatalf("download alert missing: %s", got)
	}
	if _, err := os.Stat(filepath.Join(out, "refined.txt")); err != nil {
		t.Fatalf("second locator not saved: %v", err)
	}
}

func TestDownload_OutputDirFromEnvironment(t *testing.T) {
	srv := newService(t, http.StatusOK)
	out := t.TempDir()
	t.Setenv("POLYWORD_OUTPUT_DIR", out)

	got, err := executeCommand(t, "download", "gs://polyword-bucket/uploads/refined.txt",
		"--server", srv.URL, "-y")
	if err != nil {
		t.Fatalf("download failed: %v\n%s", err, got)
	}
	if _, err := os.Stat(filepath.Join(out, "refined.txt")); err != nil {
		t.Fatalf("artifact not saved to POLYWORD_OUTPUT_DIR: %v", err)
	}
}

func TestDownload_RequiresLocator(t *testing.T) {
	_, err := executeCommand(t, "download")
	if err == nil || !strings.Contains(err.Error(), "at least one locator is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOverwriteFlag_AcceptsYesAndShorthand(t *testing.T) {
	cases := [][]string{
		{"upload", "-y"},
		{"upload", "--yes"},
		{"download", "-y"},
		{"download", "--yes"},
	}
	for _, args := range cases {
		_, err := executeCommand(t, args...)
		if err == nil {
			t.Fatalf("%v: expected missing argument error", args)
		}
		if strings.Contains(err.Error(), "unknown shorthand flag") || strings.Contains(err.Error(), "unknown flag") {
			t.Fatalf("%v: flag not parsed: %v", args, err)
		}
	}
}

func TestRootCommands(t *testing.T) {
	out, err := executeCommand(t, "about")
	if err != nil || !strings.Contains(out, "PolyWord") {
		t.Fatalf("about: err=%v out=%q", err, out)
	}

	out, err = executeCommand(t, "--version")
	if err != nil || !strings.Contains(out, version.Version) {
		t.Fatalf("version: err=%v out=%q", err, out)
	}

	if _, err := executeCommand(t, "translate"); err == nil {
		t.Fatal("expected unknown command error")
	}
}
