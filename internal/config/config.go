package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modkit-dev/modkit/internal/xerrors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "modkit.json"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"
)

// Config represents the complete modkit.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Root is the directory served as the module root, relative to the
	// config file (default: ".").
	Root string `json:"root,omitempty"`

	// Dev contains development server configuration.
	Dev DevConfig `json:"dev,omitempty"`

	// Build contains production build configuration.
	Build BuildConfig `json:"build,omitempty"`

	// Deploy contains deployment target configuration.
	Deploy DeployConfig `json:"deploy,omitempty"`

	// Plugins lists plugin names enabled for this project, in hook
	// execution order.
	Plugins []string `json:"plugins,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// HMR enables hot module replacement (default: true).
	HMR *bool `json:"hmr,omitempty"`

	// Watch contains extra paths to watch for changes.
	Watch []string `json:"watch,omitempty"`

	// Ignore contains glob patterns to ignore during watch.
	Ignore []string `json:"ignore,omitempty"`
}

// BuildConfig contains production build settings.
type BuildConfig struct {
	// Output is the output directory for builds.
	Output string `json:"output,omitempty"`

	// Minify enables whitespace minification of built modules.
	Minify bool `json:"minify,omitempty"`
}

// DeployConfig contains deployment target settings.
type DeployConfig struct {
	// Bucket is the S3 bucket built assets are uploaded to.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the key prefix inside the bucket.
	Prefix string `json:"prefix,omitempty"`

	// Region is the AWS region of the bucket.
	Region string `json:"region,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	hmr := true
	return &Config{
		Root: ".",
		Dev: DevConfig{
			Port: DefaultPort,
			Host: DefaultHost,
			HMR:  &hmr,
		},
		Build: BuildConfig{
			Output: DefaultOutput,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for modkit.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.New("M100").
				WithDetail("No modkit.json found in " + filepath.Dir(path)).
				WithSuggestion("Create a modkit.json in your project root")
		}
		return nil, xerrors.New("M101").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, xerrors.New("M101").
			WithDetail("Failed to parse modkit.json: " + err.Error()).
			WithSuggestion("Check that modkit.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadFromWorkingDir loads configuration starting from the current
// directory, walking up until a modkit.json is found.
func LoadFromWorkingDir() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return LoadFile(configPath)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return nil, xerrors.New("M100")
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.HMR == nil {
		hmr := true
		c.Dev.HMR = &hmr
	}
	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// RootPath returns the absolute path of the served module root.
func (c *Config) RootPath() string {
	root := c.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(c.Dir(), root)
	}
	return filepath.Clean(root)
}

// OutputPath returns the absolute path of the build output directory.
func (c *Config) OutputPath() string {
	out := c.Build.Output
	if !filepath.IsAbs(out) {
		out = filepath.Join(c.Dir(), out)
	}
	return filepath.Clean(out)
}

// HMREnabled reports whether hot module replacement is on.
func (c *Config) HMREnabled() bool {
	return c.Dev.HMR == nil || *c.Dev.HMR
}

// DevAddress returns the host:port the dev server binds to.
func (c *Config) DevAddress() string {
	return fmt.Sprintf("%s:%d", c.Dev.Host, c.Dev.Port)
}

// DevURL returns the URL the dev server is reachable at.
func (c *Config) DevURL() string {
	return fmt.Sprintf("http://%s:%d", c.Dev.Host, c.Dev.Port)
}
