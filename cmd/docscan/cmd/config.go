package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AinsleeWang/smart-doc-scan/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration files",
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a configuration file with all defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				file = args[0]
			}
			if force, _ := cmd.Flags().GetBool("force"); !force {
				if _, err := os.Stat(file); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", file)
				}
			}
			if err := config.GenerateDefaultConfigFile(file); err != nil {
				return fmt.Errorf("write %s: %w", file, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", file)
			return nil
		},
	}

	initCmd.Flags().Bool("force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Show prints the configuration after merging defaults, the config file,
DOCSCAN_* environment variables and flags, followed by the validation result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			var (
				data []byte
				err  error
			)
			switch format {
			case "yaml", "yml":
				data, err = yaml.Marshal(a.cfg)
			case "json":
				data, err = json.MarshalIndent(a.cfg, "", "  ")
				data = append(data, '\n')
			default:
				return fmt.Errorf("unsupported format %q (use yaml or json)", format)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if used := a.v.ConfigFileUsed(); used != "" {
				_, _ = fmt.Fprintf(out, "# file: %s\n", used)
			}
			_, _ = out.Write(data)
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("configuration is invalid: %w", err)
			}
			return nil
		},
	}
	showCmd.Flags().StringP("format", "f", "yaml", "output format: yaml or json")

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}
