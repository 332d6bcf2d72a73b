package config

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/versiontext/internal/config"
	clierrors "github.com/ariel-frischer/versiontext/internal/errors"
)

// ConfigCmd is the parent of the config subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage versiontext configuration",
	Long: `Manage versiontext configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (VERSIONTEXT_*, e.g. VERSIONTEXT_GIT_BACKEND)
  3. Project config (.versiontext.yml, legacy .versiontext.json)
  4. User config (~/.config/versiontext/config.yml)
  5. Built-in defaults`,
	Example: `  # Create .versiontext.yml
  versiontext config init

  # Show the effective configuration
  versiontext config show

  # List every key
  versiontext config keys`,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all configuration keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	ConfigCmd.AddCommand(showCmd, keysCmd, initCmd, migrateCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: configPath,
		WarningWriter:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return clierrors.ConfigInvalid(err)
	}

	out := cmd.OutOrStdout()
	printSources(out, configPath)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// printSources lists the config files and environment variables in effect.
func printSources(out io.Writer, customPath string) {
	dim := color.New(color.Faint).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintln(out, cyan("# Configuration Sources"))
	if userPath, err := config.UserConfigPath(); err == nil {
		fmt.Fprintf(out, "#   user:    %s %s\n", userPath, dim(presence(userPath)))
	}
	projectPath := config.ProjectConfigPath()
	if customPath != "" {
		projectPath = customPath
	}
	fmt.Fprintf(out, "#   project: %s %s\n", projectPath, dim(presence(projectPath)))
	if legacy := config.DetectLegacyConfig(); legacy != "" {
		fmt.Fprintf(out, "#   legacy:  %s %s\n", legacy, dim("(run 'versiontext config migrate')"))
	}

	var envVars []string
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, config.EnvPrefix) {
			envVars = append(envVars, name)
		}
	}
	sort.Strings(envVars)
	for _, name := range envVars {
		fmt.Fprintf(out, "#   env:     %s\n", name)
	}
	fmt.Fprintln(out)
}

func presence(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "(not found)"
	}
	return "(loaded)"
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	keys := make([]string, 0, len(config.KnownKeys))
	for key := range config.KnownKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tDEFAULT\tDESCRIPTION")
	for _, key := range keys {
		schema := config.KnownKeys[key]
		typ := schema.Type.String()
		if len(schema.AllowedValues) > 0 {
			typ = strings.Join(schema.AllowedValues, "|")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", key, typ, formatDefault(schema.Default), schema.Description)
	}
	return tw.Flush()
}

func formatDefault(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "(built-in)"
	case string:
		if v == "" {
			return `""`
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}
