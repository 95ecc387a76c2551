package main

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/imecue/internal/config"
)

var configOpts struct {
	force  bool
	format string
}

// configCmd represents the config command group.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the imecued configuration file",
	Long: `Manage the configuration file read by imecued.

Use 'imecue config init' to write a commented default configuration.
Use 'imecue config path' to print where the file is read from.
Use 'imecue config show' to print the effective configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to showing the path
		return configPathRun(cmd, args)
	},
}

// configInitCmd writes the template.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long:  `Write the commented default configuration. An existing file is kept unless --force is given.`,
	RunE:  configInitRun,
}

// configPathCmd prints the config path.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  configPathRun,
}

// configShowCmd prints the effective configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after defaults and the file are merged, as TOML or YAML.`,
	RunE:  configShowRun,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVar(&configOpts.force, "force", false,
		"Overwrite an existing configuration file")
	configShowCmd.Flags().StringVarP(&configOpts.format, "format", "f", "toml",
		"Output format (toml, yaml)")

	rootCmd.AddCommand(configCmd)
}

// configPath returns the --config flag or the default location.
func configPath() (string, error) {
	if globalOpts.configPath != "" {
		return globalOpts.configPath, nil
	}
	return config.Path()
}

func configInitRun(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := config.WriteTemplate(path, configOpts.force); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func configPathRun(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func configShowRun(cmd *cobra.Command, args []string) error {
	data, err := marshalConfig(cfg, configOpts.format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func marshalConfig(c *config.Config, format string) ([]byte, error) {
	switch format {
	case "toml", "":
		return toml.Marshal(c)
	case "yaml", "yml":
		return yaml.Marshal(c)
	default:
		return nil, fmt.Errorf("unknown format %q (valid: toml, yaml)", format)
	}
}
