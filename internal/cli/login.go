package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/piso/internal/session"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in as the listing admin",
		Long:  "Reads the admin password from stdin and keeps the session in ~/.config/piso/state.yaml.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer w.close()

			if w.ctrl.Snapshot().LoggedIn {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Already logged in.")
				return err
			}

			fmt.Fprint(cmd.ErrOrStderr(), "Contraseña: ")
			secret, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}

			ok, err := w.ctrl.Login(secret)
			if !ok {
				return errors.New(session.WrongPasswordMessage)
			}
			if err != nil {
				return fmt.Errorf("saving session: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged in.")
			return err
		},
	}
}

// readSecret reads one line from r.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", fmt.Errorf("no password provided")
	}
	return secret, nil
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for PISO_ADMIN_PASSWORD_HASH",
		Long:  "Reads a password from stdin and prints its bcrypt hash.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := session.HashPassword(secret)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
