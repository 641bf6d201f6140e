// Command authctl logs in to an authenticator server, manages the saved
// session, and prepares user and key files for the server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(newCLI(os.Stdin, os.Stdout, os.Stderr)).Execute(); err != nil {
		os.Exit(1)
	}
}
