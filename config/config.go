// Package config loads SmartDoc configuration: embedded defaults overlaid
// by an optional YAML file, with the structuring API key taken from the
// environment or a .env file when the file does not set one.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	yaml "gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/smartdoc/core/capture"
	"github.com/gaurav-prasanna/smartdoc/core/i18n"
	"github.com/gaurav-prasanna/smartdoc/core/paginate"
	"github.com/gaurav-prasanna/smartdoc/core/theme"
)

//go:embed config.yaml
var defaultConfig []byte

// API key environment variables, in lookup order.
const (
	EnvAPIKey       = "SMARTDOC_API_KEY"
	EnvAPIKeyLegacy = "API_KEY"
)

// Structurer providers.
const (
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

type (
	DocumentConfig struct {
		Theme       string            `yaml:"theme"`
		Background  string            `yaml:"background"`
		CatalogPath string            `yaml:"catalog_path"`
		Page        paginate.Settings `yaml:"page"`
	}

	StructurerConfig struct {
		Provider string       `yaml:"provider"`
		Endpoint string       `yaml:"endpoint"`
		Model    string       `yaml:"model"`
		APIKey   SecretString `yaml:"api_key"`
	}

	ExportConfig struct {
		OutputDir             string        `yaml:"output_dir"`
		FileNameTransliterate bool          `yaml:"file_name_transliterate"`
		PDFFontPath           string        `yaml:"pdf_font_path"`
		ImageMaxEdge          int           `yaml:"image_max_edge"`
		RasterSettle          time.Duration `yaml:"raster_settle"`
	}

	ServerConfig struct {
		Listen    string `yaml:"listen"`
		StorePath string `yaml:"store_path"`
		// ImageRoot is the only directory served sessions may read image
		// files from. Empty refuses local image paths.
		ImageRoot string `yaml:"image_root"`
	}

	Config struct {
		Version    int              `yaml:"version"`
		Language   string           `yaml:"language"`
		Document   DocumentConfig   `yaml:"document"`
		Structurer StructurerConfig `yaml:"structurer"`
		Export     ExportConfig     `yaml:"export"`
		Capture    capture.Config   `yaml:"capture"`
		Server     ServerConfig     `yaml:"server"`
		Logging    LoggingConfig    `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// only fields we defined are accepted
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration file at path, superimposes its
// values on top of the embedded defaults and validates the result. An
// empty path returns the defaults. envFiles are loaded with godotenv before
// the API key is resolved; missing files are ignored.
func LoadConfiguration(path string, envFiles ...string) (*Config, error) {
	cfg, err := unmarshalConfig(defaultConfig, &Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}

	if len(path) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if cfg, err = unmarshalConfig(data, cfg); err != nil {
			return nil, err
		}
	}

	for _, f := range envFiles {
		// godotenv never overrides variables already set
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	if cfg.Structurer.APIKey == "" {
		cfg.Structurer.APIKey = SecretString(apiKeyFromEnv())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func apiKeyFromEnv() string {
	for _, name := range []string{EnvAPIKey, EnvAPIKeyLegacy} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.Version != 1 {
		errs = append(errs, fmt.Errorf("unsupported configuration version %d", c.Version))
	}
	if _, err := language.Parse(c.Language); err != nil {
		errs = append(errs, fmt.Errorf("language: %w", err))
	}
	if err := c.Document.Page.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("document.page: %w", err))
	}
	switch c.Structurer.Provider {
	case ProviderGemini, ProviderLocal:
	default:
		errs = append(errs, fmt.Errorf("structurer.provider: unknown provider %q", c.Structurer.Provider))
	}
	if c.Export.ImageMaxEdge < 0 {
		errs = append(errs, errors.New("export.image_max_edge must not be negative"))
	}
	if c.Export.RasterSettle < 0 {
		errs = append(errs, errors.New("export.raster_settle must not be negative"))
	}
	if err := c.Logging.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Lang is the configured language tag.
func (c *Config) Lang() language.Tag { return i18n.Parse(c.Language) }

// Catalog returns the theme catalog: the file at Document.CatalogPath when
// set, the built-in one otherwise. Configured theme and background ids must
// exist in it.
func (c *Config) Catalog() (*theme.Catalog, error) {
	cat := theme.Builtin()
	if c.Document.CatalogPath != "" {
		data, err := os.ReadFile(c.Document.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read theme catalog: %w", err)
		}
		if cat, err = theme.Load(data); err != nil {
			return nil, fmt.Errorf("failed to load theme catalog %s: %w", c.Document.CatalogPath, err)
		}
	}
	if _, ok := cat.Theme(c.Document.Theme); !ok {
		return nil, fmt.Errorf("document.theme: unknown theme %q", c.Document.Theme)
	}
	if _, ok := cat.Background(c.Document.Background); !ok {
		return nil, fmt.Errorf("document.background: unknown background %q", c.Document.Background)
	}
	return cat, nil
}

// Dump returns the configuration as YAML with secrets masked.
func (c *Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}

// DefaultYAML returns the embedded default configuration.
func DefaultYAML() []byte {
	return bytes.Clone(defaultConfig)
}
