package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/evcraddock/piso/internal/lead"
)

func newLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Manage contact leads",
	}
	cmd.AddCommand(newLeadsListCmd(), newLeadsSubmitCmd(), newLeadsRemoveCmd(), newLeadsExportCmd())
	return cmd
}

func newLeadsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List leads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			if err := w.requireLogin(); err != nil {
				return err
			}
			leads := w.ctrl.Snapshot().Leads
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), leads)
			}
			return printLeadTable(cmd.OutOrStdout(), leads, w.cfg.Location)
		},
	}
}

func newLeadsSubmitCmd() *cobra.Command {
	form := lead.NewForm()

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a lead through the public form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			w.ctrl.SetForm(form)
			if err := w.ctrl.SubmitLead(cmd.Context()); err != nil {
				return err
			}

			st := w.ctrl.Snapshot()
			if isJSON() && len(st.Leads) > 0 {
				return printJSON(cmd.OutOrStdout(), st.Leads[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), st.FormMessage)
			return err
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "your name (required)")
	cmd.Flags().StringVar(&form.Email, "email", "", "your email (required)")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "your phone (required)")
	cmd.Flags().StringVar(&form.Message, "message", lead.DefaultMessage, "message")

	return cmd
}

func newLeadsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			if err := w.ctrl.DeleteLead(cmd.Context(), args[0]); err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "removed": true})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Lead %s removed.\n", args[0])
			return err
		},
	}
}

func newLeadsExportCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all leads to a CSV file",
		Long:  "Write all leads to contactos-piso-YYYY-MM-DD.csv in the target directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			name, data, err := w.ctrl.ExportLeads()
			if err != nil {
				return err
			}

			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"path": path, "leads": len(w.ctrl.Snapshot().Leads)})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", path)
			return err
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write the CSV file to")

	return cmd
}
