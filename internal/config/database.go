package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DatabaseConfig holds the connection parameters for the SQL Server import
// target.
type DatabaseConfig struct {
	Server   string
	Database string
	Username string
	Password string
}

// LoadDatabaseConfig reads the import target from the .env file at envPath.
// A missing env file is not an error; the variables may already be present
// in the process environment.
func LoadDatabaseConfig(envPath string) (*DatabaseConfig, error) {
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading %s: %w", envPath, err)
	}

	cfg := &DatabaseConfig{
		Server:   os.Getenv("TARGET_SERVER"),
		Database: os.Getenv("TARGET_DATABASE"),
		Username: os.Getenv("TARGET_USERNAME"),
		Password: os.Getenv("TARGET_DB_PASSWORD"),
	}

	var missing []string
	if cfg.Server == "" {
		missing = append(missing, "TARGET_SERVER")
	}
	if cfg.Database == "" {
		missing = append(missing, "TARGET_DATABASE")
	}
	if cfg.Username == "" {
		missing = append(missing, "TARGET_USERNAME")
	}
	if cfg.Password == "" {
		missing = append(missing, "TARGET_DB_PASSWORD")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// ConnectionString builds a sqlserver:// connection URL for go-mssqldb.
func (c *DatabaseConfig) ConnectionString() string {
	query := url.Values{}
	query.Add("database", c.Database)
	query.Add("app name", "csvsift")
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Server,
		RawQuery: query.Encode(),
	}
	return u.String()
}
