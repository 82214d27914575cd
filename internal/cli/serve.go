package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/piso/internal/config"
	"github.com/evcraddock/piso/internal/logging"
	"github.com/evcraddock/piso/internal/session"
	"github.com/evcraddock/piso/internal/web"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long:  "Start an HTTP server for the listing page, the admin panel and the JSON API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "port to listen on (default: PISO_PORT or 8080)")

	return cmd
}

func runServe(port string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Port = port
	}

	level, ok, err := cfg.Level()
	if err != nil {
		return err
	}
	opts := logging.Options{DevMode: cfg.DevMode, Output: os.Stderr}
	if ok {
		opts.Level = level
	}
	logging.Setup(opts)

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	// Visitor session flags always live in SQLite, whatever the store.
	flagsDB := st.database
	if flagsDB == nil {
		flagsDB, err = openDB(cfg)
		if err != nil {
			return fmt.Errorf("opening session database: %w", err)
		}
		defer closeDB(flagsDB)
	}

	srv, err := web.NewServer(web.Options{
		Listings: st.listings,
		Leads:    st.leads,
		Checker:  cfg.Checker(),
		Flags: func(visitorID string) session.FlagStore {
			return session.NewSQLFlags(flagsDB, visitorID)
		},
		NotifyDelay: cfg.NotifyDelay,
		Location:    cfg.Location,
		RateLimit:   cfg.RateLimit,
		TrustProxy:  cfg.TrustProxy,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	if cfg.AdminPassword == session.DefaultPassword && cfg.AdminPasswordHash == "" {
		slog.Warn("using the default admin password; set PISO_ADMIN_PASSWORD or PISO_ADMIN_PASSWORD_HASH")
	}
	if cfg.Store == config.StoreREST {
		slog.Info("using PostgREST store", "url", cfg.RESTURL)
	}

	return srv.ListenAndServe(cfg.Port)
}
