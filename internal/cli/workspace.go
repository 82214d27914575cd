package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/evcraddock/piso/internal/app"
	"github.com/evcraddock/piso/internal/config"
	"github.com/evcraddock/piso/internal/db"
	"github.com/evcraddock/piso/internal/email"
	"github.com/evcraddock/piso/internal/lead"
	"github.com/evcraddock/piso/internal/listing"
	"github.com/evcraddock/piso/internal/notify"
	"github.com/evcraddock/piso/internal/postgrest"
	"github.com/evcraddock/piso/internal/session"
)

// stores are the configured listing and lead backends.
type stores struct {
	listings listing.Store
	leads    lead.Store
	database *sql.DB // nil for the rest backend
}

func (s *stores) close() {
	if s.database != nil {
		closeDB(s.database)
	}
}

// openDB opens the SQLite database at the configured or default path.
func openDB(cfg *config.Config) (*sql.DB, error) {
	path := cfg.DBPath
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// closeDB closes the database, logging any error.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		slog.Warn("closing database", "error", err)
	}
}

// openStores opens the configured backend. New leads are mailed to the
// owner when SMTP is configured.
func openStores(cfg *config.Config) (*stores, error) {
	var st *stores
	switch cfg.Store {
	case config.StoreREST:
		c := postgrest.New(cfg.RESTURL, cfg.RESTKey)
		st = &stores{listings: c, leads: c}
	default:
		database, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		st = &stores{
			listings: listing.NewRepository(database),
			leads:    lead.NewRepository(database),
			database: database,
		}
	}

	if cfg.MailEnabled() {
		st.leads = email.NewNotifyingStore(st.leads, cfg.SMTP, cfg.NotifyTo, cfg.Location, nil)
	}
	return st, nil
}

// workspace is the CLI's single-visitor application state. The login flag
// lives in the CLI state file.
type workspace struct {
	ctrl   *app.Controller
	stores *stores
	cfg    *config.Config
}

func (w *workspace) close() {
	w.ctrl.Close()
	w.stores.close()
}

// openWorkspace loads the listing and the leads into a fresh Controller.
func openWorkspace(ctx context.Context) (*workspace, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}

	st, err := openStores(cfg)
	if err != nil {
		return nil, err
	}

	flagsPath, err := session.DefaultFlagsPath()
	if err != nil {
		st.close()
		return nil, err
	}
	gate, err := session.NewGate(cfg.Checker(), session.NewFileFlags(flagsPath))
	if err != nil {
		st.close()
		return nil, err
	}

	ctrl := app.New(app.Deps{
		Listings: st.listings,
		Leads:    st.leads,
		Gate:     gate,
		Notifier: notify.New(cfg.NotifyDelay),
		Location: cfg.Location,
	})
	w := &workspace{ctrl: ctrl, stores: st, cfg: cfg}

	if err := ctrl.LoadListing(ctx); err != nil {
		w.close()
		return nil, err
	}
	if err := ctrl.LoadLeads(ctx); err != nil {
		w.close()
		return nil, err
	}
	return w, nil
}

// beginEdit enters edit mode or explains how to log in.
func (w *workspace) beginEdit() error {
	if !w.ctrl.BeginEdit() {
		return fmt.Errorf("%w: run 'piso login' first", session.ErrLocked)
	}
	return nil
}

// requireLogin fails unless the CLI session is logged in.
func (w *workspace) requireLogin() error {
	if !w.ctrl.Snapshot().LoggedIn {
		return fmt.Errorf("%w: run 'piso login' first", session.ErrLocked)
	}
	return nil
}
