package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/vango-dev/skellyview/internal/config"
	"github.com/vango-dev/skellyview/internal/errors"
	"github.com/vango-dev/skellyview/pkg/store"
)

func snapshotCmd() *cobra.Command {
	var (
		configPath string
		storeName  string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the initial state of the stores as JSON",
		Long: `Print the state a freshly started registry would hold, using the
current configuration. Useful for checking defaults.

Examples:
  skellyview snapshot
  skellyview snapshot --store=animation`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if err := cfg.ApplyEnv(nil); err != nil {
				return err
			}

			reg := store.NewRegistry(store.WithDefaultFPS(cfg.Animation.FPS))

			var v any = reg.Snapshot()
			if storeName != "" {
				st, ok := reg.Lookup(storeName)
				if !ok {
					return errors.New(errors.CodeUnknownStore).WithDetail(storeName)
				}
				v = st.Fields()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.FileName, "Path to the configuration file")
	cmd.Flags().StringVarP(&storeName, "store", "s", "", "Print only this store")

	return cmd
}
