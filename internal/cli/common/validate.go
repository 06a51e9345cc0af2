package common

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cuihairu/faultline/internal/platform/objstore"
	"github.com/spf13/viper"
)

// DataSource returns database.datasource with ${VAR} references expanded, so
// the server's etc/server.yaml can be reused as is.
func DataSource(v *viper.Viper) string {
	return strings.TrimSpace(os.ExpandEnv(v.GetString("database.datasource")))
}

// ValidateConfig checks the settings faultctl needs. strict also rejects an
// empty data source instead of falling back to the local sqlite file.
func ValidateConfig(v *viper.Viper, strict bool) error {
	var errs []error
	dsn := DataSource(v)
	switch {
	case dsn == "" && strict:
		errs = append(errs, errors.New("database.datasource is required"))
	case dsn == "":
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.HasPrefix(dsn, "pgx://"):
	case strings.HasPrefix(dsn, "file:"), strings.HasPrefix(dsn, "sqlite:///"), dsn == ":memory:":
	default:
		errs = append(errs, fmt.Errorf("database.datasource: unsupported scheme in %q", redact(dsn)))
	}
	if err := objstore.Validate(StorageConfig(v)); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	switch strings.ToLower(v.GetString("log.format")) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json"))
	}
	return errors.Join(errs...)
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "@"); i > 0 {
		if j := strings.Index(dsn, "://"); j > 0 && j < i {
			return dsn[:j+3] + "***" + dsn[i:]
		}
	}
	return dsn
}
