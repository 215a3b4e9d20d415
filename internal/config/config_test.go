package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oukeidos/polyword/internal/apperrors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"POLYWORD_SERVER_URL", "POLYWORD_BUCKET_PREFIX", "POLYWORD_TIMEOUT", "POLYWORD_OUTPUT_DIR"} {
		prev, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, prev)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	d := Defaults()
	fs.String(FlagServer, d.ServerURL, "")
	fs.String(FlagBucketPrefix, d.BucketPrefix, "")
	fs.Duration(FlagTimeout, d.Timeout, "")
	fs.String(FlagOutputDir, d.OutputDir, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server_url: http://from-file:9000\nbucket_prefix: gs://file-bucket/\ntimeout: 30s\n"), 0600))

	cfg, err := Load(Options{SearchDirs: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, "http://from-file:9000", cfg.ServerURL)
	assert.Equal(t, "gs://file-bucket/", cfg.BucketPrefix)
	assert.Equal(t, 30*time.Second, cfg.Timeout)

	t.Setenv("POLYWORD_SERVER_URL", "http://from-env:7000")
	cfg, err = Load(Options{SearchDirs: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:7000", cfg.ServerURL)
	assert.Equal(t, "gs://file-bucket/", cfg.BucketPrefix)

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--server", "https://from-flag.example.com", "--timeout", "1m"}))
	cfg, err = Load(Options{Flags: fs, SearchDirs: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, "https://from-flag.example.com", cfg.ServerURL)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Equal(t, "gs://file-bucket/", cfg.BucketPrefix, "unchanged flags fall through to lower sources")
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("POLYWORD_BUCKET_PREFIX=gs://dotenv-bucket/\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("POLYWORD_BUCKET_PREFIX") })

	cfg, err := Load(Options{DotEnv: []string{envFile, filepath.Join(dir, "missing.env")}})
	require.NoError(t, err)
	assert.Equal(t, "gs://dotenv-bucket/", cfg.BucketPrefix)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }},
		{name: "bad scheme", mutate: func(c *Config) { c.ServerURL = "ftp://host" }, wantErr: true},
		{name: "no host", mutate: func(c *Config) { c.ServerURL = "http://" }, wantErr: true},
		{name: "empty prefix", mutate: func(c *Config) { c.BucketPrefix = " " }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.KindConfig))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewClient(t *testing.T) {
	cfg := Defaults()
	cfg.BucketPrefix = "gs://other/"
	c, err := cfg.NewClient()
	require.NoError(t, err)
	assert.Equal(t, "gs://other/", c.BucketPrefix())
}
