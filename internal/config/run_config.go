package config

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for RunConfig validation, matching the teacher's
// internal/storage/config.go style.
var (
	ErrMissingDatabaseURL = errors.New("config: database_url not set")
	ErrMissingHome        = errors.New("config: lakehouse_framework_home not set")
	ErrInvalidMaxThreads  = errors.New("config: max_threads must be positive")
)

// RunConfig holds the environment variables the engine reads. The catalog
// connection comes from DATABASE_URL only; decomposed db_* connection
// fields are not read.
type RunConfig struct {
	Env                   string
	MaxThreads            int
	databaseURL           string
	AWSKey                string
	AWSSecret             string
	AWSEndpoint           string
	JDBCJars              string
	LakehouseFrameworkHome string
}

// LoadRunConfig reads every variable from the environment, applying the
// same default-then-override pattern as internal/storage.LoadConfig.
func LoadRunConfig() *RunConfig {
	return &RunConfig{
		Env:                    GetEnvStr("ENV", "dev"),
		MaxThreads:             GetEnvInt("MAX_THREADS", 4),
		databaseURL:            GetEnvStr("DATABASE_URL", ""),
		AWSKey:                 GetEnvStr("AWS_KEY", ""),
		AWSSecret:              GetEnvStr("AWS_SECRET", ""),
		AWSEndpoint:            GetEnvStr("AWS_ENDPOINT", ""),
		JDBCJars:               GetEnvStr("JDBC_JARS", ""),
		LakehouseFrameworkHome: GetEnvStr("LAKEHOUSE_FRAMEWORK_HOME", "."),
	}
}

// DatabaseURL returns the configured connection string.
func (c *RunConfig) DatabaseURL() string { return c.databaseURL }

// Validate checks the fields the engine cannot run without.
func (c *RunConfig) Validate() error {
	if c.databaseURL == "" {
		return ErrMissingDatabaseURL
	}

	if c.LakehouseFrameworkHome == "" {
		return ErrMissingHome
	}

	if c.MaxThreads <= 0 {
		return ErrInvalidMaxThreads
	}

	return nil
}

// MaskDatabaseURL returns the connection string with any user:password
// component replaced by "***", safe to place in a structured log line. Mirrors
// internal/storage.Config.MaskDatabaseURL.
func (c *RunConfig) MaskDatabaseURL() string {
	u := c.databaseURL
	if idx := strings.Index(u, "@"); idx >= 0 {
		if schemeIdx := strings.Index(u, "://"); schemeIdx >= 0 && schemeIdx < idx {
			return u[:schemeIdx+3] + "***@" + u[idx+1:]
		}
	}

	return u
}

// String implements fmt.Stringer without ever exposing secrets.
func (c *RunConfig) String() string {
	return fmt.Sprintf("RunConfig{env=%s max_threads=%d database_url=%s home=%s}",
		c.Env, c.MaxThreads, c.MaskDatabaseURL(), c.LakehouseFrameworkHome)
}
