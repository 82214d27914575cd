package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/evcraddock/piso/internal/config"
)

// configKeys maps config file keys to their fields.
var configKeys = map[string]func(*CLIConfig) *string{
	"store":    func(c *CLIConfig) *string { return &c.Store },
	"db":       func(c *CLIConfig) *string { return &c.DB },
	"rest_url": func(c *CLIConfig) *string { return &c.RESTURL },
	"rest_key": func(c *CLIConfig) *string { return &c.RESTKey },
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI defaults",
		Long:  "Manage ~/.config/piso/config.yaml. Environment variables and flags override it.",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), cfg)
			}
			for _, k := range sortedConfigKeys() {
				v := *configKeys[k](&cfg)
				if k == "rest_key" && v != "" {
					v = truncate(v, 8) + "…"
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s\n", k+":", orDash(v)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value (store, db, rest_url, rest_key)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, ok := configKeys[args[0]]
			if !ok {
				return fmt.Errorf("unknown config key %q", args[0])
			}
			if args[0] == "store" && args[1] != config.StoreSQLite && args[1] != config.StoreREST {
				return fmt.Errorf("store must be %q or %q", config.StoreSQLite, config.StoreREST)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			*field(&cfg) = args[1]
			if err := saveConfig(cfg); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s updated.\n", args[0])
			return err
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
