package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/authkit/version"
)

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(*cobra.Command, []string) {
			info := version.Get()
			fmt.Fprintf(c.out, "authctl %s\n", info.String())
			fmt.Fprintf(c.out, "go %s\n", info.GoVersion)
		},
	}
}
