package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "authctl",
		Short: "Client and admin tool for the authenticator",
		Long: `authctl logs in to an authenticator server and keeps an encrypted
session on disk so later runs can resume without a password.

It also prepares files for the server: password hashes for the users
file and encrypted private keys.`,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (default: search authctl.yml)")
	flags.StringVar(&c.serverURL, "server", "", "authenticator base URL (overrides client.base_url)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newLoginCmd(c),
		newResumeCmd(c),
		newLogoutCmd(c),
		newHashPasswordCmd(c),
		newEncryptKeyCmd(c),
		newVersionCmd(c),
	)
	return root
}
