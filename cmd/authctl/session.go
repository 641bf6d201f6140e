package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/authkit/authclient"
	"github.com/kbukum/authkit/secret"
)

func newLoginCmd(c *cli) *cobra.Command {
	var (
		username string
		persist  bool
	)
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Log in with username and password",
		Example: `  authctl login --server https://auth.example.com --username alice --persist`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ex, err := c.exchanger()
			if err != nil {
				return err
			}
			store, err := c.store()
			if err != nil {
				return err
			}
			orch, err := c.orchestrator(ex, store)
			if err != nil {
				return err
			}

			pw, err := c.readSecret(fmt.Sprintf("Password for %s: ", username))
			if err != nil {
				return err
			}
			defer pw.Destroy()

			if err := orch.Login(cmd.Context(), username, pw, persist); err != nil {
				return userError(err)
			}
			if err := c.printSession(cmd, ex, orch); err != nil {
				return err
			}
			if persist {
				fmt.Fprintf(c.out, "Session saved to %s\n", store.Path())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().BoolVar(&persist, "persist", false, "save the session for later runs")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newResumeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Restore the saved session",
		Long: `resume exchanges the saved refresh token for a fresh token pair and
saves the new refresh token in its place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ex, err := c.exchanger()
			if err != nil {
				return err
			}
			store, err := c.store()
			if err != nil {
				return err
			}
			orch, err := c.orchestrator(ex, store)
			if err != nil {
				return err
			}
			if err := orch.TryLoadSession(cmd.Context()); err != nil {
				return userError(err)
			}
			// The saved refresh token was consumed; keep the new one.
			if tokens, ok := orch.Tokens(); ok {
				if err := store.Persist(tokens.Refresh); err != nil {
					c.log.Warn("Failed to save rotated session", map[string]interface{}{"error": err.Error()})
				}
			}
			return c.printSession(cmd, ex, orch)
		},
	}
}

func newLogoutCmd(c *cli) *cobra.Command {
	var forget bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Long: `logout ends the session without contacting the server. The saved
session stays on disk, so a later resume still works, unless --forget is
given, which deletes the file and its keyring entry.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := c.store()
			if err != nil {
				return err
			}
			if _, err := store.Stat(); err != nil {
				fmt.Fprintln(c.out, "No saved session.")
			} else {
				fmt.Fprintln(c.out, "Logged out.")
				if !forget {
					fmt.Fprintf(c.out, "Saved session kept at %s\n", store.Path())
				}
			}
			if !forget {
				return nil
			}

			ex, err := c.exchanger()
			if err != nil {
				return err
			}
			orch, err := c.orchestrator(ex, store)
			if err != nil {
				return err
			}
			if err := orch.ForgetSession(); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Saved session deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "delete the saved session")
	return cmd
}

func (c *cli) printSession(cmd *cobra.Command, ex *authclient.HTTPExchanger, orch *authclient.Orchestrator) error {
	tokens, ok := orch.Tokens()
	if !ok {
		return errors.New("no active session")
	}
	info, err := ex.Session(cmd.Context(), tokens.Access)
	if err != nil {
		return fmt.Errorf("query session: %w", err)
	}
	fmt.Fprintf(c.out, "Logged in as %s\n", info.Subject)
	fmt.Fprintf(c.out, "Access token:  %s (expires %s)\n", secret.Mask(tokens.Access, 8), formatExpiry(info.ExpiresAt))
	fmt.Fprintf(c.out, "Refresh token: %s\n", secret.Mask(tokens.Refresh, 8))
	return nil
}

// userError replaces err with the message shown to end users; the
// detailed cause is in the debug log.
func userError(err error) error {
	return errors.New(authclient.UserMessage(err))
}
