package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"sqlprep/internal/apperr"
	"sqlprep/internal/dialect"
	"sqlprep/internal/engine"
	"sqlprep/internal/logging"
	"sqlprep/internal/render"

	"github.com/spf13/viper"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Active bool   `mapstructure:"active"`
}

// GetActiveDBConfig returns the currently active database configuration.
// Without a "databases" list the single database.dsn/database.driver pair
// is used.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, &apperr.ConfigurationError{Msg: "failed to parse databases config", Err: err}
	}

	// An explicit --dsn wins over the list.
	if len(configs) == 0 || RootCmd.PersistentFlags().Changed("dsn") {
		connStr := viper.GetString("database.dsn")
		if connStr == "" {
			return nil, apperr.Configf("database.dsn is required (via flag, env or config)")
		}
		driver := viper.GetString("database.driver")
		if driver == "" {
			driver = dialect.DetectDriver(connStr)
		}
		return &DBConfig{Name: "default", Driver: driver, DSN: connStr, Active: true}, nil
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, apperr.Configf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, apperr.Configf("multiple active databases found (only one can be active)")
	}
	if activeConfig.Driver == "" {
		activeConfig.Driver = dialect.DetectDriver(activeConfig.DSN)
	}

	return activeConfig, nil
}

// settingKey maps a lookup key onto its viper key:
// TABLESPACE_SEARCH_DATA -> tablespace.search_data, anything else -> settings.<key>.
func settingKey(key string) string {
	if area, ok := strings.CutPrefix(key, "TABLESPACE_"); ok {
		return "tablespace." + strings.ToLower(area)
	}
	return "settings." + strings.ToLower(key)
}

// lookupSetting resolves tablespace and config.<KEY> names from the config
// file, SQLPREP_* env vars and finally the SQLPREP_<KEY> env var.
func lookupSetting(key string) (string, bool) {
	if vk := settingKey(key); viper.IsSet(vk) {
		return viper.GetString(vk), true
	}
	return os.LookupEnv("SQLPREP_" + key)
}

// target is the resolved database a command works on.
type target struct {
	config  *DBConfig
	dialect dialect.Dialect
	schema  string
	open    engine.Opener
}

func resolveTarget() (*target, error) {
	cfg, err := GetActiveDBConfig()
	if err != nil {
		return nil, err
	}
	d, err := dialect.GetDialect(cfg.Driver)
	if err != nil {
		return nil, &apperr.ConfigurationError{Msg: "cannot select dialect", Err: err}
	}
	if cfg.DSN, err = dialect.PrepareDSN(cfg.Driver, cfg.DSN); err != nil {
		return nil, &apperr.ConfigurationError{Msg: "cannot use dsn of " + cfg.Name, Err: err}
	}
	return &target{
		config:  cfg,
		dialect: d,
		schema:  viper.GetString("schema"),
		open:    engine.DriverOpener(cfg.Driver),
	}, nil
}

// connect opens the target and fills in the schema name where the driver
// knows it better than the dialect default.
func (t *target) connect(ctx context.Context) (*sql.DB, error) {
	db, err := t.open(ctx, t.config.DSN)
	if err != nil {
		return nil, &apperr.ConnectionError{Op: "connect to " + t.config.Name, Err: err}
	}
	if t.schema == "" && t.config.Driver == "mysql" {
		if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&t.schema); err != nil {
			db.Close()
			return nil, &apperr.ConnectionError{Op: "get database name", Err: err}
		}
		if t.schema == "" {
			db.Close()
			return nil, apperr.Configf("no database selected in DSN")
		}
	}
	logging.Get().Debug("connected", "database", t.config.Name, "driver", t.config.Driver)
	return db, nil
}

func (t *target) preprocessor() (*engine.Preprocessor, error) {
	return t.preprocessorWith(nil, nil)
}

// preprocessorWith also hooks the parallel run callbacks.
func (t *target) preprocessorWith(onSplit func([]engine.Group), onGroupDone func(engine.GroupResult)) (*engine.Preprocessor, error) {
	dir := viper.GetString("sql_dir")
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return nil, apperr.Configf("sql_dir %q is not a directory", dir)
	}
	return engine.New(engine.Config{
		Files:       os.DirFS(dir),
		Dialect:     t.dialect,
		Schema:      t.schema,
		Settings:    lookupSetting,
		Open:        t.open,
		Logger:      logging.Get(),
		OnSplit:     onSplit,
		OnGroupDone: onGroupDone,
	})
}

// parseParams turns repeated key=value flags into template parameters.
func parseParams(pairs []string) (render.Params, error) {
	out := render.Params{}
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, apperr.Configf("invalid parameter %q, expected key=value", kv)
		}
		out[k] = v
	}
	return out, nil
}

// parseTags is parseParams for place tag maps.
func parseTags(pairs []string) (map[string]string, error) {
	p, err := parseParams(pairs)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	return map[string]string(p), nil
}
