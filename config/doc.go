// Package config loads authkit configuration.
//
// LoadConfig reads a YAML file through viper, overlays a .env file parsed
// with godotenv, then overlays the process environment. Files are read
// through an afero.Fs so tests can use an in-memory filesystem.
//
//	var cfg authenticator.Config
//	err := config.LoadConfig("authenticator", &cfg)
package config
