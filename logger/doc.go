// Package logger provides structured logging on top of zerolog.
//
// Components receive a *Logger through their constructors and scope it:
//
//	log := logger.New(&cfg.Logging, "authenticator").WithComponent("login")
//	log.Info("Login succeeded", logger.Fields(logger.FieldUsername, name))
//
// A *secret.Secret passed as a field value renders as a redacted marker.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"   # or "console"
//	  output: "stderr"
package logger
