package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/authclient"
	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/encryption"
	"github.com/kbukum/authkit/httpclient"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/resilience"
	"github.com/kbukum/authkit/secret"
	"github.com/kbukum/authkit/session"
)

const serviceName = "authctl"

// Config is the authctl configuration, read from authctl.yml, .env and the
// environment. Flags override it.
type Config struct {
	config.BaseConfig `yaml:",inline" mapstructure:",squash"`

	Client   httpclient.Config            `yaml:"client" mapstructure:"client"`
	Session  session.Config               `yaml:"session" mapstructure:"session"`
	Limiter  resilience.RateLimiterConfig `yaml:"limiter" mapstructure:"limiter"`
	Password password.Config              `yaml:"password" mapstructure:"password"`
	KDF      encryption.KDFConfig         `yaml:"kdf" mapstructure:"kdf"`

	// KDFPepper must match the authenticator's KDF_PEPPER for encrypt-key.
	KDFPepper string `yaml:"-" mapstructure:"kdf_pepper"`
}

// ApplyDefaults fills zero-valued fields. Logs go to stderr at warn level
// so they do not mix with command output.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
	c.BaseConfig.ApplyDefaults()
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = "http://127.0.0.1:5643"
	}
	c.Client.ApplyDefaults()
	c.Session.ApplyDefaults()
	c.Password.ApplyDefaults()
	c.KDF.ApplyDefaults()
}

// Validate checks the sections every command relies on.
func (c *Config) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Password.Validate(); err != nil {
		return fmt.Errorf("password: %w", err)
	}
	return c.KDF.Validate()
}

// cli holds the I/O and seams shared by all commands.
type cli struct {
	in     io.Reader
	lines  *bufio.Reader
	out    io.Writer
	errOut io.Writer
	fs     afero.Fs

	configFile string
	serverURL  string
	verbose    bool

	loaderOpts  []config.LoaderOption
	sessionOpts []session.Option
	// readSecret reads a line without echo when stdin is a terminal.
	readSecret func(prompt string) (*secret.Secret, error)

	cfg Config
	log *logger.Logger
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	c := &cli{in: in, out: out, errOut: errOut, fs: afero.NewOsFs()}
	c.readSecret = c.promptSecret
	return c
}

// load reads the configuration and applies global flags.
func (c *cli) load(cmd *cobra.Command) error {
	opts := append([]config.LoaderOption{config.WithFs(c.fs)}, c.loaderOpts...)
	if c.configFile != "" {
		opts = append(opts, config.WithConfigFile(c.configFile))
	}
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return err
	}
	if c.serverURL != "" {
		cfg.Client.BaseURL = c.serverURL
	}
	if c.verbose {
		cfg.Logging.Level = "debug"
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.cfg = cfg
	c.log = logger.NewWithWriter(&cfg.Logging, serviceName, c.errOut)
	cmd.SilenceUsage = true
	return nil
}

func (c *cli) exchanger() (*authclient.HTTPExchanger, error) {
	return authclient.NewHTTPExchanger(c.cfg.Client)
}

func (c *cli) store() (*session.Store, error) {
	opts := append([]session.Option{session.WithFs(c.fs)}, c.sessionOpts...)
	return session.NewStore(c.cfg.Session, c.log, opts...)
}

func (c *cli) orchestrator(ex authclient.Exchanger, store authclient.SessionStore) (*authclient.Orchestrator, error) {
	return authclient.New(authclient.Config{Limiter: c.cfg.Limiter}, ex, store, c.log)
}

// promptSecret reads a secret from the terminal, or one line from the
// input when it is not a terminal.
func (c *cli) promptSecret(prompt string) (*secret.Secret, error) {
	fmt.Fprint(c.errOut, prompt)
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.errOut)
		if err != nil {
			return nil, err
		}
		defer secret.Zero(b)
		return secret.New(b), nil
	}
	if c.lines == nil {
		c.lines = bufio.NewReader(c.in)
	}
	line, err := c.lines.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return secret.NewString(strings.TrimRight(line, "\r\n")), nil
}

// confirmSecret prompts twice and requires both entries to match.
func (c *cli) confirmSecret(prompt string) (*secret.Secret, error) {
	first, err := c.readSecret(prompt + ": ")
	if err != nil {
		return nil, err
	}
	second, err := c.readSecret("Confirm " + strings.ToLower(prompt[:1]) + prompt[1:] + ": ")
	if err != nil {
		first.Destroy()
		return nil, err
	}
	defer second.Destroy()
	if !first.Equal(second) {
		first.Destroy()
		return nil, errors.New("entries do not match")
	}
	return first, nil
}

func formatExpiry(unix int64) string {
	if unix == 0 {
		return "unknown"
	}
	return time.Unix(unix, 0).Local().Format(time.RFC1123)
}
