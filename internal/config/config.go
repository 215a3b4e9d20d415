// Package config resolves client settings from flags, POLYWORD_* environment
// variables, an optional .env file, an optional YAML file and defaults, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/oukeidos/polyword/internal/apperrors"
	"github.com/oukeidos/polyword/internal/client"
	"github.com/oukeidos/polyword/internal/httpclient"
)

const (
	EnvPrefix        = "POLYWORD"
	DefaultServerURL = "http://localhost:8000"
	DefaultOutputDir = "."
)

// Config keys.
const (
	KeyServerURL    = "server_url"
	KeyBucketPrefix = "bucket_prefix"
	KeyTimeout      = "timeout"
	KeyOutputDir    = "output_dir"
)

// Flag names bound to the keys above.
const (
	FlagServer       = "server"
	FlagBucketPrefix = "bucket-prefix"
	FlagTimeout      = "timeout"
	FlagOutputDir    = "out"
)

type Config struct {
	ServerURL    string        `mapstructure:"server_url"`
	BucketPrefix string        `mapstructure:"bucket_prefix"`
	Timeout      time.Duration `mapstructure:"timeout"`
	OutputDir    string        `mapstructure:"output_dir"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		ServerURL:    DefaultServerURL,
		BucketPrefix: client.DefaultBucketPrefix,
		Timeout:      httpclient.DefaultTimeout,
		OutputDir:    DefaultOutputDir,
	}
}

// Options controls where Load looks.
type Options struct {
	// Flags, when set, overrides every other source for flags the user changed.
	Flags *pflag.FlagSet
	// File is an explicit config file; a missing explicit file is an error.
	File string
	// SearchDirs are probed for config.yaml when File is empty.
	SearchDirs []string
	// DotEnv lists .env files to load before reading the environment.
	// Missing files are ignored.
	DotEnv []string
}

// DefaultSearchDirs returns ~/.polyword when the home directory is known.
func DefaultSearchDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".polyword")}
}

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	if err := loadDotEnv(opts.DotEnv); err != nil {
		return Config{}, apperrors.Config(err)
	}

	v := viper.New()
	d := Defaults()
	v.SetDefault(KeyServerURL, d.ServerURL)
	v.SetDefault(KeyBucketPrefix, d.BucketPrefix)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyOutputDir, d.OutputDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, opts); err != nil {
		return Config{}, apperrors.Config(err)
	}
	if err := bindFlags(v, opts.Flags); err != nil {
		return Config{}, apperrors.Config(err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, apperrors.Config(fmt.Errorf("failed to decode configuration: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv(paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		// godotenv.Load never overrides variables already set.
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func readConfigFile(v *viper.Viper, opts Options) error {
	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", opts.File, err)
		}
		return nil
	}
	if len(opts.SearchDirs) == 0 {
		return nil
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range opts.SearchDirs {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	bindings := map[string]string{
		KeyServerURL:    FlagServer,
		KeyBucketPrefix: FlagBucketPrefix,
		KeyTimeout:      FlagTimeout,
		KeyOutputDir:    FlagOutputDir,
	}
	for key, name := range bindings {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.ServerURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.New(apperrors.KindConfig,
			fmt.Sprintf("Invalid server URL %q: expected http(s)://host[:port].", c.ServerURL), err)
	}
	if strings.TrimSpace(c.BucketPrefix) == "" {
		return apperrors.New(apperrors.KindConfig, "Bucket prefix must not be empty.", nil)
	}
	if c.Timeout < 0 {
		return apperrors.New(apperrors.KindConfig, "Timeout must not be negative.", nil)
	}
	return nil
}

// NewClient builds the service client described by c.
func (c Config) NewClient() (*client.Client, error) {
	return client.New(c.ServerURL,
		client.WithHTTPClient(httpclient.NewClient(c.Timeout)),
		client.WithBucketPrefix(c.BucketPrefix),
	)
}
