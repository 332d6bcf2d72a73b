// Package config provides hierarchical configuration management for versiontext using koanf.
// Configuration is loaded with priority: command-line overrides > environment variables
// (VERSIONTEXT_*) > project config (.versiontext.yml) > user config
// (~/.config/versiontext/config.yml) > defaults. A legacy .versiontext.json project file is
// still read, with a warning, when no YAML file exists.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ariel-frischer/versiontext/internal/git"
	"github.com/ariel-frischer/versiontext/internal/reconcile"
)

// EnvPrefix is the prefix of environment variables read as configuration.
const EnvPrefix = "VERSIONTEXT_"

// Configuration represents the versiontext configuration
type Configuration struct {
	// Version is the raw project version (e.g. 9.4.1). Empty means the most
	// recent tag matching tag_key. Can be set via VERSIONTEXT_VERSION.
	Version string `koanf:"version" yaml:"version"`

	// TextKey is the identifier template of VERSION.txt headers.
	TextKey string `koanf:"text_key" yaml:"text_key" validate:"required,contains=VERSION"`
	// TagKey is the identifier template of git tags.
	TagKey string `koanf:"tag_key" yaml:"tag_key" validate:"required,contains=VERSION"`

	Input      string `koanf:"input" yaml:"input" validate:"required"`
	Output     string `koanf:"output" yaml:"output" validate:"required"`
	DateFormat string `koanf:"date_format" yaml:"date_format" validate:"required"`

	SortExisting  bool `koanf:"sort_existing" yaml:"sort_existing"`
	RefreshTags   bool `koanf:"refresh_tags" yaml:"refresh_tags"`
	UpdateDate    bool `koanf:"update_date" yaml:"update_date"`
	CopyGenerated bool `koanf:"copy_generated" yaml:"copy_generated"`
	Skip          bool `koanf:"skip" yaml:"skip"`

	Attach           bool   `koanf:"attach" yaml:"attach"`
	AttachType       string `koanf:"attach_type" yaml:"attach_type" validate:"required"`
	AttachClassifier string `koanf:"attach_classifier" yaml:"attach_classifier"`

	// IssuePatterns are regular expressions with a named "id" group and an
	// optional "text" group, tried against every commit message line.
	IssuePatterns []string `koanf:"issue_patterns" yaml:"issue_patterns" validate:"min=1"`

	Git GitConfig `koanf:"git" yaml:"git"`

	LogLevel string `koanf:"log_level" yaml:"log_level" validate:"oneof=error warn info debug trace"`
}

// GitConfig selects and configures the git backend.
type GitConfig struct {
	// Backend is "go-git" (pure Go, default) or "cli" (the git executable).
	Backend string `koanf:"backend" yaml:"backend" validate:"oneof=go-git cli"`
	// Dir is where the repository is looked up; parents are searched.
	Dir    string `koanf:"dir" yaml:"dir" validate:"required"`
	Remote string `koanf:"remote" yaml:"remote" validate:"required"`
	// FetchTimeout bounds refresh_tags.
	FetchTimeout time.Duration `koanf:"fetch_timeout" yaml:"fetch_timeout" validate:"min=0"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .versiontext.yml)
	ProjectConfigPath string
	// SkipUserConfig ignores the user-level config file.
	SkipUserConfig bool
	// Overrides are applied last, typically from command-line flags.
	// Keys are dotted config keys such as "git.backend".
	Overrides map[string]any
	// WarningWriter receives deprecation warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses deprecation warnings
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)

	loadDefaults(k)

	if !opts.SkipUserConfig {
		if err := loadUserConfig(k); err != nil {
			return nil, err
		}
	}

	if err := loadProjectConfig(k, opts.ProjectConfigPath, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	for key, value := range opts.Overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("applying override %s: %w", key, err)
		}
	}

	return finalizeConfig(k)
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadUserConfig loads the user-level YAML config when present.
func loadUserConfig(k *koanf.Koanf) error {
	userYAMLPath, err := UserConfigPath()
	if err != nil || !fileExists(userYAMLPath) {
		return nil
	}
	if err := loadYAMLConfig(k, userYAMLPath, "user"); err != nil {
		return fmt.Errorf("loading user YAML config: %w", err)
	}
	return nil
}

// loadProjectConfig loads project-level config (YAML preferred, legacy JSON supported).
// Supports custom path override. Falls back to legacy JSON with warning.
func loadProjectConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	projectYAMLPath := ProjectConfigPath()
	if customPath != "" {
		if !fileExists(customPath) {
			return fmt.Errorf("config file %s does not exist", customPath)
		}
		projectYAMLPath = customPath
	}
	legacyProjectPath := LegacyProjectConfigPath()

	projectYAMLExists := fileExists(projectYAMLPath)
	legacyProjectExists := fileExists(legacyProjectPath)

	if projectYAMLExists {
		if err := loadYAMLConfig(k, projectYAMLPath, "project"); err != nil {
			return fmt.Errorf("loading project YAML config: %w", err)
		}
		warnLegacyExists(warningWriter, legacyProjectPath, projectYAMLPath, legacyProjectExists, skipWarnings)
	} else if legacyProjectExists {
		if err := loadLegacyJSONConfig(k, legacyProjectPath, warningWriter, skipWarnings); err != nil {
			return fmt.Errorf("loading legacy project JSON config: %w", err)
		}
	}
	return nil
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadLegacyJSONConfig loads legacy JSON and warns about migration
func loadLegacyJSONConfig(k *koanf.Koanf, path string, warningWriter io.Writer, skipWarnings bool) error {
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return fmt.Errorf("failed to load legacy config %s: %w", path, err)
	}
	if !skipWarnings {
		fmt.Fprintf(warningWriter, "Warning: Using deprecated JSON config at %s\n", path)
		fmt.Fprintf(warningWriter, "  Run 'versiontext config migrate' to migrate to YAML format.\n\n")
	}
	return nil
}

// warnLegacyExists warns if legacy JSON exists alongside new YAML
func warnLegacyExists(warningWriter io.Writer, legacyPath, yamlPath string, legacyExists, skipWarnings bool) {
	if legacyExists && !skipWarnings {
		fmt.Fprintf(warningWriter, "Warning: Legacy JSON config found at %s (ignored, using %s)\n", legacyPath, yamlPath)
		fmt.Fprintf(warningWriter, "  Run 'versiontext config migrate' to remove the legacy file.\n\n")
	}
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals and validates the merged configuration.
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys
// Example: VERSIONTEXT_SORT_EXISTING -> sort_existing,
// VERSIONTEXT_GIT_FETCH_TIMEOUT -> git.fetch_timeout
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "git_"); ok {
		return "git." + rest
	}
	return key
}

// ReconcileOptions converts the configuration into the options of one run.
func (c *Configuration) ReconcileOptions() reconcile.Options {
	return reconcile.Options{
		Version:          c.Version,
		TextKey:          c.TextKey,
		TagKey:           c.TagKey,
		InputPath:        c.Input,
		OutputPath:       c.Output,
		DateFormat:       c.DateFormat,
		SortExisting:     c.SortExisting,
		RefreshTags:      c.RefreshTags,
		UpdateDate:       c.UpdateDate,
		CopyGenerated:    c.CopyGenerated,
		Attach:           c.Attach,
		Skip:             c.Skip,
		AttachType:       c.AttachType,
		AttachClassifier: c.AttachClassifier,
	}
}

// GatewayOptions returns the git backend options for this configuration.
func (c *Configuration) GatewayOptions() ([]git.Option, error) {
	matcher, err := git.NewIssueMatcher(c.IssuePatterns)
	if err != nil {
		return nil, err
	}
	return []git.Option{
		git.WithRemote(c.Git.Remote),
		git.WithFetchTimeout(c.Git.FetchTimeout),
		git.WithIssueMatcher(matcher),
	}, nil
}
