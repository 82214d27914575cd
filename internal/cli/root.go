// Package cli defines the cobra command tree for piso.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	flagFormat string
	flagDB     string
	flagStore  string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "piso",
		Short:         "Publish one apartment for sale and collect inquiries",
		Long:          "Serve the listing page, edit the listing and manage the contact leads it collects.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.piso/piso.db)")
	root.PersistentFlags().StringVar(&flagStore, "store", "", "storage backend (sqlite|rest)")

	root.AddCommand(
		newServeCmd(),
		newListingCmd(),
		newLeadsCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newConfigCmd(),
		newHashPasswordCmd(),
		newVersionCmd(),
	)

	return root
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
