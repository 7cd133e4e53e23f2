package main

import (
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/addin-compat/internal/version"
	"github.com/spf13/cobra"
)

// newVersionCmd implements the version command.
func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of addin-compat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()

			switch format {
			case "", "text":
				_, err := fmt.Fprintln(out, info.Full())
				return err
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case "yaml":
				data, err := yaml.Marshal(info)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			default:
				return fmt.Errorf("invalid format: %s (valid: text, json, yaml)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, yaml")
	return cmd
}
