package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/piso/internal/config"
	"github.com/evcraddock/piso/internal/listing"
	"github.com/evcraddock/piso/internal/session"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check storage and login status",
		Long:  "Shows the configured store, tests that it can be reached and reports whether the CLI is logged in.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runStatus(ctx context.Context, out io.Writer) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	switch cfg.Store {
	case config.StoreREST:
		fmt.Fprintf(out, "Store:   rest (%s)\n", cfg.RESTURL)
	default:
		path := cfg.DBPath
		if path == "" {
			path = "~/.piso/piso.db"
		}
		fmt.Fprintf(out, "Store:   sqlite (%s)\n", path)
	}

	st, err := openStores(cfg)
	if err != nil {
		fmt.Fprintf(out, "Status:  ✗ cannot open store (%v)\n", err)
		return nil
	}
	defer st.close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rec, err := st.listings.First(ctx)
	switch {
	case errors.Is(err, listing.ErrNotFound):
		fmt.Fprintln(out, "Status:  ✓ connected (no listing saved yet)")
	case err != nil:
		fmt.Fprintf(out, "Status:  ✗ cannot reach store (%v)\n", err)
	default:
		fmt.Fprintf(out, "Status:  ✓ connected (listing %s)\n", rec.ID)
	}

	loggedIn, err := cliLoggedIn(cfg)
	if err != nil {
		return err
	}
	if loggedIn {
		fmt.Fprintln(out, "Session: logged in")
	} else {
		fmt.Fprintln(out, "Session: logged out")
		fmt.Fprintln(out, "\nRun 'piso login' to edit the listing and see leads.")
	}
	return nil
}

// cliLoggedIn reads the persisted session flag of the CLI.
func cliLoggedIn(cfg *config.Config) (bool, error) {
	path, err := session.DefaultFlagsPath()
	if err != nil {
		return false, err
	}
	gate, err := session.NewGate(cfg.Checker(), session.NewFileFlags(path))
	if err != nil {
		return false, err
	}
	return gate.LoggedIn(), nil
}
