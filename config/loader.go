package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// LoaderConfig holds the filesystem and optional file overrides.
type LoaderConfig struct {
	Fs         afero.Fs
	ConfigFile string
	EnvFile    string
	// Environ supplies process environment entries; defaults to os.Environ.
	Environ func() []string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFs sets the filesystem config and env files are read from.
func WithFs(fs afero.Fs) LoaderOption {
	return func(lc *LoaderConfig) { lc.Fs = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnviron replaces the process environment used for overrides.
func WithEnviron(environ func() []string) LoaderOption {
	return func(lc *LoaderConfig) { lc.Environ = environ }
}

// ResolveFiles finds config and env files for a service. Explicit paths win;
// otherwise the standard locations are searched in order.
func ResolveFiles(fs afero.Fs, serviceName string, lc LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = firstExisting(fs, configSearchPaths(serviceName))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = firstExisting(fs, envSearchPaths(serviceName))
	}
	return resolved
}

// LoadConfig loads configuration for a service into cfg.
//
// Precedence, lowest first: config.yml, the .env file, process environment.
// Environment keys map onto nested config keys, so JWT_ISSUER sets jwt.issuer.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{Fs: afero.NewOsFs(), Environ: os.Environ}
	for _, opt := range opts {
		opt(&lc)
	}

	files := ResolveFiles(lc.Fs, serviceName, lc)

	v := viper.New()
	v.SetFs(lc.Fs)

	if files.ConfigFile != "" && exists(lc.Fs, files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", files.ConfigFile, err)
		}
	}

	if files.EnvFile != "" && exists(lc.Fs, files.EnvFile) {
		env, err := readEnvFile(lc.Fs, files.EnvFile)
		if err != nil {
			return fmt.Errorf("read env file %s: %w", files.EnvFile, err)
		}
		for key, value := range env {
			bindEnv(v, key, value)
		}
	}

	for _, entry := range lc.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		bindEnv(v, key, value)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

func readEnvFile(fs afero.Fs, path string) (map[string]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return godotenv.Parse(f)
}

func exists(fs afero.Fs, path string) bool {
	ok, err := afero.Exists(fs, path)
	return err == nil && ok
}

func firstExisting(fs afero.Fs, paths []string) string {
	for _, p := range paths {
		if exists(fs, p) {
			return p
		}
	}
	return ""
}

func configSearchPaths(serviceName string) []string {
	paths := []string{
		filepath.Join("cmd", serviceName, "config.yml"),
		filepath.Join("..", "cmd", serviceName, "config.yml"),
		filepath.Join("config", serviceName+".yml"),
		filepath.Join("config", "config.yml"),
		"config.yml",
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "nova", serviceName+".yml"))
	}
	return paths
}

func envSearchPaths(serviceName string) []string {
	return []string{
		filepath.Join("cmd", serviceName, ".env"),
		".env." + serviceName,
		".env",
	}
}

// bindEnv sets every nested key variant an environment variable may refer to.
func bindEnv(v *viper.Viper, key, value string) {
	for _, variant := range generateEnvKeyVariants(key) {
		v.Set(variant, value)
	}
}

// generateEnvKeyVariants creates the key variants an environment variable may map to.
//
//	JWT_ACCESS_TOKEN_TTL -> [jwt_access_token_ttl, jwt.access.token.ttl, jwt.access_token_ttl, ...]
func generateEnvKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{lowerKey, strings.ReplaceAll(lowerKey, "_", ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return removeDuplicates(variants)
}

func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
