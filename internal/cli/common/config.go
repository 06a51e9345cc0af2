package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/cuihairu/faultline/internal/platform/objstore"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key looked up in the environment, e.g.
// FAULTLINE_DATABASE_DATASOURCE.
const EnvPrefix = "FAULTLINE"

// Load reads base (optional) and merges includes in order, with environment
// variables taking precedence.
func Load(base string, includes ...string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if base != "" {
		v.SetConfigFile(base)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	for _, inc := range includes {
		iv := viper.New()
		iv.SetConfigFile(inc)
		if err := iv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("include %s: %w", inc, err)
		}
		if err := v.MergeConfigMap(iv.AllSettings()); err != nil {
			return nil, fmt.Errorf("include %s: %w", inc, err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.datasource", "")
	v.SetDefault("storage.driver", objstore.DriverFile)
	v.SetDefault("storage.basedir", "uploads")
	v.SetDefault("storage.signedurlttl", 15*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.max_size", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
}

// StorageConfig reads the storage section using the same keys as the server's
// etc/server.yaml, so one file can configure both.
func StorageConfig(v *viper.Viper) objstore.Config {
	return objstore.Config{
		Driver:         v.GetString("storage.driver"),
		BaseDir:        v.GetString("storage.basedir"),
		Bucket:         v.GetString("storage.bucket"),
		Region:         v.GetString("storage.region"),
		Endpoint:       v.GetString("storage.endpoint"),
		AccessKey:      v.GetString("storage.accesskey"),
		SecretKey:      v.GetString("storage.secretkey"),
		ForcePathStyle: v.GetBool("storage.forcepathstyle"),
		SignedURLTTL:   v.GetDuration("storage.signedurlttl"),
	}
}
