package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/kbukum/authkit/secret"
)

// Character classes available to Generator.
const (
	Uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Lowercase = "abcdefghijklmnopqrstuvwxyz"
	Digits    = "0123456789"
	Symbols   = "!@#$%^&*()"
)

var (
	// ErrNoCharset is returned when every character class is disabled.
	ErrNoCharset = errors.New("password: no character class enabled")
	// ErrLengthTooShort is returned when length cannot fit one of each enabled class.
	ErrLengthTooShort = errors.New("password: length shorter than enabled classes")
)

// Generator builds random passphrases that contain at least one character
// from every enabled class.
type Generator struct {
	length  int
	classes []string
	rand    io.Reader
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*generatorOptions)

type generatorOptions struct {
	upper, lower, digits, symbols bool
	rand                          io.Reader
}

// WithUppercase toggles A-Z.
func WithUppercase(on bool) GeneratorOption { return func(o *generatorOptions) { o.upper = on } }

// WithLowercase toggles a-z.
func WithLowercase(on bool) GeneratorOption { return func(o *generatorOptions) { o.lower = on } }

// WithDigits toggles 0-9.
func WithDigits(on bool) GeneratorOption { return func(o *generatorOptions) { o.digits = on } }

// WithSymbols toggles !@#$%^&*().
func WithSymbols(on bool) GeneratorOption { return func(o *generatorOptions) { o.symbols = on } }

// WithGeneratorRandom replaces crypto/rand.
func WithGeneratorRandom(r io.Reader) GeneratorOption {
	return func(o *generatorOptions) { o.rand = r }
}

// NewGenerator creates a Generator of the given length. All four classes
// are enabled unless turned off by options.
func NewGenerator(length int, opts ...GeneratorOption) *Generator {
	o := &generatorOptions{upper: true, lower: true, digits: true, symbols: true, rand: rand.Reader}
	for _, opt := range opts {
		opt(o)
	}

	g := &Generator{length: length, rand: o.rand}
	for _, c := range []struct {
		on  bool
		set string
	}{{o.upper, Uppercase}, {o.lower, Lowercase}, {o.digits, Digits}, {o.symbols, Symbols}} {
		if c.on {
			g.classes = append(g.classes, c.set)
		}
	}
	return g
}

// Generate returns a new passphrase. The caller must Destroy it.
func (g *Generator) Generate() (*secret.Secret, error) {
	if len(g.classes) == 0 {
		return nil, ErrNoCharset
	}
	if g.length < len(g.classes) {
		return nil, fmt.Errorf("%w: %d < %d", ErrLengthTooShort, g.length, len(g.classes))
	}

	buf := make([]byte, 0, g.length)
	for _, class := range g.classes {
		c, err := g.pick(class)
		if err != nil {
			return nil, err
		}
		buf = append(buf, c)
	}

	all := strings.Join(g.classes, "")
	for len(buf) < g.length {
		c, err := g.pick(all)
		if err != nil {
			secret.Zero(buf)
			return nil, err
		}
		buf = append(buf, c)
	}

	// Fisher-Yates so the guaranteed characters are not at fixed positions.
	for i := len(buf) - 1; i > 0; i-- {
		j, err := g.intn(i + 1)
		if err != nil {
			secret.Zero(buf)
			return nil, err
		}
		buf[i], buf[j] = buf[j], buf[i]
	}

	return secret.New(buf), nil
}

func (g *Generator) pick(set string) (byte, error) {
	i, err := g.intn(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func (g *Generator) intn(n int) (int, error) {
	v, err := rand.Int(g.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("password: random: %w", err)
	}
	return int(v.Int64()), nil
}
