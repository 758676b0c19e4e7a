package cmd

import (
	"encoding/json"

	"github.com/roomwise/roomwise/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newOptionsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "options",
		Short: "List the wall slots, personality types, room types, colors and budgets",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := models.AllOptions()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(opts)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(opts); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of YAML")
	return cmd
}
