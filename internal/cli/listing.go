package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/piso/internal/listing"
)

func newListingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Show or edit the listing",
	}
	cmd.AddCommand(newListingShowCmd(), newListingSetCmd(), newPhotosCmd())
	return cmd
}

func newListingShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the listing",
		Long:  "Show the stored listing, or the default one when nothing has been saved yet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			rec := w.ctrl.Snapshot().Listing
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			return printListing(cmd.OutOrStdout(), rec)
		},
	}
}

func newListingSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <field> <value> [<field> <value>...]",
		Short: "Change listing fields and save",
		Long: "Change one or more listing fields and save them in a single commit.\n" +
			"Fields: title, price, address, meters, rooms, bathrooms, floor, description, features.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected field/value pairs, got %d args", len(args))
			}
			for i := 0; i < len(args); i += 2 {
				if _, err := listing.ParseField(args[i]); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			if err := w.beginEdit(); err != nil {
				return err
			}
			for i := 0; i < len(args); i += 2 {
				f, _ := listing.ParseField(args[i])
				if err := w.ctrl.SetField(f, args[i+1]); err != nil {
					return err
				}
			}
			return commit(cmd, w)
		},
	}
}

func newPhotosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Manage listing photos",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List photo URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			photos := w.ctrl.Snapshot().Listing.Photos
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), photos)
			}
			return printPhotos(cmd.OutOrStdout(), photos)
		},
	}

	add := &cobra.Command{
		Use:   "add <url>",
		Short: "Append a photo and save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			if err := w.beginEdit(); err != nil {
				return err
			}
			w.ctrl.SetPhotoInput(args[0])
			if err := w.ctrl.AddPhoto(); err != nil {
				return err
			}
			return commit(cmd, w)
		},
	}

	rm := &cobra.Command{
		Use:   "rm <index>",
		Short: "Remove the photo at index (from 'photos list') and save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid photo index: %s", args[0])
			}

			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			if err := w.beginEdit(); err != nil {
				return err
			}
			if err := w.ctrl.RemovePhoto(index); err != nil {
				return err
			}
			return commit(cmd, w)
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

// commit saves the draft and reports the stored listing.
func commit(cmd *cobra.Command, w *workspace) error {
	if err := w.ctrl.Commit(cmd.Context()); err != nil {
		return err
	}
	rec := w.ctrl.Snapshot().Listing
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), rec)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "✓ Listing saved (%s).\n", rec.ID)
	return err
}

func printPhotos(out io.Writer, photos []string) error {
	if len(photos) == 0 {
		_, err := fmt.Fprintln(out, "No photos.")
		return err
	}
	for i, p := range photos {
		if _, err := fmt.Fprintf(out, "%d  %s\n", i, p); err != nil {
			return err
		}
	}
	return nil
}
