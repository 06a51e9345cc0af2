package common

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/cuihairu/faultline/internal/audit/chain"
	"github.com/cuihairu/faultline/internal/db"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// AddPersistentFlags registers the flags every faultctl command understands.
func AddPersistentFlags(root *cobra.Command) {
	pf := root.PersistentFlags()
	pf.String("env-file", ".env", "dotenv file loaded before config; a missing file is ignored")
	pf.String("config", "", "config file (the server's etc/server.yaml works)")
	pf.StringSlice("include", nil, "extra config files merged over --config")
	pf.String("dsn", "", "database DSN, overrides database.datasource")
	pf.String("log-level", "", "debug|info|warn|error")
	pf.String("log-format", "", "console|json")
}

// FromCommand loads the effective config for cmd and configures logging.
func FromCommand(cmd *cobra.Command) (*viper.Viper, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	includes, _ := cmd.Flags().GetStringSlice("include")
	v, err := Load(cfgFile, includes...)
	if err != nil {
		return nil, err
	}
	for key, flag := range map[string]string{
		"database.datasource": "dsn",
		"log.level":           "log-level",
		"log.format":          "log-format",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	SetupLogger(LogOptionsFrom(v))
	if cfgFile != "" {
		slog.Debug("config loaded", "file", cfgFile, "includes", includes)
	}
	return v, nil
}

// OpenDB opens the configured database.
func OpenDB(v *viper.Viper) (*gorm.DB, error) {
	return db.Open(DataSource(v))
}

// OpenAudit opens audit.file, returning a nil writer (which discards events)
// when it is unset.
func OpenAudit(v *viper.Viper) (*chain.Writer, error) {
	path := strings.TrimSpace(v.GetString("audit.file"))
	if path == "" {
		return nil, nil
	}
	return chain.Open(path)
}

// LoadEnvFile exports the variables in path without overriding ones already set.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}
