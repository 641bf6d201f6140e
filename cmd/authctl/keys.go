package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/authenticator"
	"github.com/kbukum/authkit/encryption"
	"github.com/kbukum/authkit/secret"
	"github.com/kbukum/authkit/security"
)

func newHashPasswordCmd(c *cli) *cobra.Command {
	var (
		username  string
		usersFile string
		generate  int
	)
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for the authenticator users file",
		Long: `hash-password prints a password hash in the configured format
(argon2id by default). With --users-file the user is added to, or updated
in, that file instead. --generate creates a random password and prints it
once.`,
		Example: `  authctl hash-password
  authctl hash-password --username alice --users-file users.yml --generate 20`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if usersFile != "" && username == "" {
				return fmt.Errorf("--username is required with --users-file")
			}

			var pw *secret.Secret
			var err error
			if generate > 0 {
				pw, err = password.NewGenerator(generate).Generate()
			} else {
				pw, err = c.confirmSecret("Password")
			}
			if err != nil {
				return err
			}
			defer pw.Destroy()

			hash, err := password.NewHasher(c.cfg.Password).Hash(pw)
			if err != nil {
				return err
			}
			if generate > 0 {
				fmt.Fprintf(c.out, "Generated password: %s\n", pw.Expose())
			}
			if usersFile == "" {
				fmt.Fprintln(c.out, hash)
				return nil
			}
			if err := authenticator.UpsertUser(c.fs, usersFile, authenticator.User{
				Username:     username,
				PasswordHash: hash,
			}); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Updated %s in %s\n", username, usersFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name (with --users-file)")
	cmd.Flags().StringVar(&usersFile, "users-file", "", "users file to update")
	cmd.Flags().IntVar(&generate, "generate", 0, "generate a random password of this length")
	return cmd
}

func newEncryptKeyCmd(c *cli) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "encrypt-key",
		Short: "Encrypt a PEM private key with a passphrase",
		Long: `encrypt-key encrypts a PEM private key (JWT signing or TLS) so the
authenticator can unlock it at startup with KEY_PASSPHRASE. The kdf section
of the config and KDF_PEPPER must match the authenticator's.`,
		Example: `  authctl encrypt-key --in jwt.key --out jwt.key.enc`,
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			pemData, err := afero.ReadFile(c.fs, in)
			if err != nil {
				return err
			}
			defer secret.Zero(pemData)

			passphrase, err := c.confirmSecret("Passphrase")
			if err != nil {
				return err
			}
			defer passphrase.Destroy()

			kdf, err := encryption.NewKeyDerivation(c.cfg.KDF, encryption.WithPepperString(c.cfg.KDFPepper))
			if err != nil {
				return err
			}
			encoded, err := security.EncryptPrivateKey(pemData, passphrase, kdf)
			if err != nil {
				return err
			}
			if err := afero.WriteFile(c.fs, out, []byte(encoded+"\n"), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "PEM private key to encrypt")
	cmd.Flags().StringVar(&out, "out", "", "output file")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
