package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/philackm/devlog/internal/build"
	"github.com/philackm/devlog/internal/convert"
	"github.com/philackm/devlog/internal/entry"
	"github.com/philackm/devlog/internal/fsutil"
	"github.com/philackm/devlog/internal/history"
)

// FileName is the project configuration file looked up in the project root
const FileName = "devlog.yaml"

// EnvPrefix prefixes environment overrides, e.g. DEVLOG_CONVERTER=goldmark
const EnvPrefix = "DEVLOG"

const (
	ConverterGitHub   = "github"
	ConverterGoldmark = "goldmark"
)

// DefaultsURL hosts the stock views and example entries
const DefaultsURL = "https://raw.githubusercontent.com/philackm/Devlog/master/defaults"

// Config is the project configuration
type Config struct {
	Root string `mapstructure:"-"`

	EntriesDir      string   `mapstructure:"entries_dir"`
	ViewsDir        string   `mapstructure:"views_dir"`
	OutputDir       string   `mapstructure:"output_dir"`
	PagesDir        string   `mapstructure:"pages_dir"`
	LedgerFile      string   `mapstructure:"ledger_file"`
	EntryExtension  string   `mapstructure:"entry_extension"`
	AssetExtensions []string `mapstructure:"asset_extensions"`
	Format          string   `mapstructure:"format"`

	Converter      string        `mapstructure:"converter"`
	GitHubAPIURL   string        `mapstructure:"github_api_url"`
	ConvertTimeout time.Duration `mapstructure:"convert_timeout"`
	DefaultsURL    string        `mapstructure:"defaults_url"`

	RecordRuns bool   `mapstructure:"record_runs"`
	RunsDB     string `mapstructure:"runs_db"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("entries_dir", "entries")
	v.SetDefault("views_dir", "views")
	v.SetDefault("output_dir", "output")
	v.SetDefault("pages_dir", "pages")
	v.SetDefault("ledger_file", history.FileName)
	v.SetDefault("entry_extension", ".md")
	v.SetDefault("asset_extensions", entry.DefaultAssetExtensions)
	v.SetDefault("format", entry.FormatMarkdown)
	v.SetDefault("converter", ConverterGitHub)
	v.SetDefault("github_api_url", convert.DefaultGitHubAPI)
	v.SetDefault("convert_timeout", "30s")
	v.SetDefault("defaults_url", DefaultsURL)
	v.SetDefault("record_runs", true)
	v.SetDefault("runs_db", filepath.Join(".devlog", "builds.db"))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Default returns the configuration used when no file or environment
// override is present.
func Default(root string) *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// defaults always decode
	_ = v.Unmarshal(cfg)
	cfg.Root = root
	return cfg
}

// Load reads devlog.yaml from root (or file when set) and applies DEVLOG_*
// environment overrides. A missing project file is not an error unless it
// was named explicitly.
func Load(root, file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(root)
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || file != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.Root = root

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks required paths and enumerated settings
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.EntriesDir, validation.Required),
		validation.Field(&c.ViewsDir, validation.Required),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.PagesDir, validation.Required),
		validation.Field(&c.LedgerFile, validation.Required),
		validation.Field(&c.EntryExtension, validation.Required),
		validation.Field(&c.Format, validation.Required, validation.In(entry.FormatMarkdown, entry.FormatFrontmatter)),
		validation.Field(&c.Converter, validation.Required, validation.In(ConverterGitHub, ConverterGoldmark)),
		validation.Field(&c.GitHubAPIURL, validation.When(c.Converter == ConverterGitHub, validation.Required)),
		validation.Field(&c.ConvertTimeout, validation.Min(time.Millisecond)),
		validation.Field(&c.RunsDB, validation.When(c.RecordRuns, validation.Required)),
		validation.Field(&c.LogFormat, validation.In("console", "json", "pretty")),
	)
}

// Layout maps the configuration onto a build layout
func (c *Config) Layout() build.Layout {
	return build.Layout{
		Root:            c.Root,
		EntriesDir:      c.EntriesDir,
		ViewsDir:        c.ViewsDir,
		OutputDir:       c.OutputDir,
		PagesDir:        c.PagesDir,
		LedgerFile:      c.LedgerFile,
		EntryExtension:  c.EntryExtension,
		AssetExtensions: c.AssetExtensions,
	}
}

// NewConverter builds the configured markdown converter
func (c *Config) NewConverter() (convert.Converter, error) {
	switch c.Converter {
	case ConverterGitHub:
		return convert.NewGitHub(c.GitHubAPIURL, c.ConvertTimeout), nil
	case ConverterGoldmark:
		return convert.NewGoldmark(), nil
	default:
		return nil, fmt.Errorf("unknown converter %q", c.Converter)
	}
}

// Path resolves p against the project root
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

type document struct {
	EntriesDir      string   `yaml:"entries_dir"`
	ViewsDir        string   `yaml:"views_dir"`
	OutputDir       string   `yaml:"output_dir"`
	PagesDir        string   `yaml:"pages_dir"`
	LedgerFile      string   `yaml:"ledger_file"`
	EntryExtension  string   `yaml:"entry_extension"`
	AssetExtensions []string `yaml:"asset_extensions"`
	Format          string   `yaml:"format"`
	Converter       string   `yaml:"converter"`
	GitHubAPIURL    string   `yaml:"github_api_url"`
	ConvertTimeout  string   `yaml:"convert_timeout"`
	DefaultsURL     string   `yaml:"defaults_url"`
	RecordRuns      bool     `yaml:"record_runs"`
	RunsDB          string   `yaml:"runs_db"`
	LogLevel        string   `yaml:"log_level"`
	LogFormat       string   `yaml:"log_format"`
}

// Marshal renders c as a devlog.yaml document
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(document{
		EntriesDir:      c.EntriesDir,
		ViewsDir:        c.ViewsDir,
		OutputDir:       c.OutputDir,
		PagesDir:        c.PagesDir,
		LedgerFile:      c.LedgerFile,
		EntryExtension:  c.EntryExtension,
		AssetExtensions: c.AssetExtensions,
		Format:          c.Format,
		Converter:       c.Converter,
		GitHubAPIURL:    c.GitHubAPIURL,
		ConvertTimeout:  c.ConvertTimeout.String(),
		DefaultsURL:     c.DefaultsURL,
		RecordRuns:      c.RecordRuns,
		RunsDB:          c.RunsDB,
		LogLevel:        c.LogLevel,
		LogFormat:       c.LogFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Write stores c as devlog.yaml in its root
func (c *Config) Write(ctx context.Context) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return fsutil.WriteFile(ctx, filepath.Join(c.Root, FileName), data)
}
