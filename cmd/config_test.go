package cmd

import (
	"errors"
	"strings"
	"testing"

	"sqlprep/internal/apperr"

	"github.com/spf13/viper"
)

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"name=placex", "where=a=b", "empty="})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	want := map[string]string{"name": "placex", "where": "a=b", "empty": ""}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("param %s = %q, want %q", k, got[k], v)
		}
	}

	for _, bad := range []string{"novalue", "=x", " =x"} {
		var cfgErr *apperr.ConfigurationError
		if _, err := parseParams([]string{bad}); !errors.As(err, &cfgErr) {
			t.Errorf("parseParams(%q): expected ConfigurationError, got %v", bad, err)
		}
	}
}

func TestSettingKey(t *testing.T) {
	cases := map[string]string{
		"TABLESPACE_SEARCH_DATA": "tablespace.search_data",
		"TABLESPACE_AUX_INDEX":   "tablespace.aux_index",
		"DATABASE_WEBUSER":       "settings.database_webuser",
	}
	for in, want := range cases {
		if got := settingKey(in); got != want {
			t.Errorf("settingKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLookupSetting(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("tablespace.address_index", "iaddress")
	viper.Set("settings.database_webuser", "www-data")
	t.Setenv("SQLPREP_CUSTOM_FLAG", "on")

	if v, ok := lookupSetting("TABLESPACE_ADDRESS_INDEX"); !ok || v != "iaddress" {
		t.Errorf("tablespace lookup = %q, %v", v, ok)
	}
	if v, ok := lookupSetting("DATABASE_WEBUSER"); !ok || v != "www-data" {
		t.Errorf("settings lookup = %q, %v", v, ok)
	}
	if v, ok := lookupSetting("CUSTOM_FLAG"); !ok || v != "on" {
		t.Errorf("env lookup = %q, %v", v, ok)
	}
	if _, ok := lookupSetting("TABLESPACE_SEARCH_DATA"); ok {
		t.Error("unset tablespace reported as set")
	}
}

func TestGetActiveDBConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("databases", []map[string]any{
		{"name": "import", "dsn": "postgres://localhost/nominatim", "active": true},
		{"name": "old", "driver": "mysql", "dsn": "root@tcp(localhost)/old"},
	})
	cfg, err := GetActiveDBConfig()
	if err != nil {
		t.Fatalf("GetActiveDBConfig: %v", err)
	}
	if cfg.Name != "import" || cfg.Driver != "postgres" {
		t.Errorf("got %+v", cfg)
	}

	viper.Set("databases", []map[string]any{
		{"name": "a", "dsn": "x", "active": true},
		{"name": "b", "dsn": "y", "active": true},
	})
	var cfgErr *apperr.ConfigurationError
	if _, err := GetActiveDBConfig(); !errors.As(err, &cfgErr) {
		t.Errorf("two active databases: expected ConfigurationError, got %v", err)
	}
}

func TestGetActiveDBConfigSingleDSN(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("database.dsn", "file:/tmp/build.db")
	cfg, err := GetActiveDBConfig()
	if err != nil {
		t.Fatalf("GetActiveDBConfig: %v", err)
	}
	if cfg.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Driver)
	}
}

func TestResolveTargetPreparesMySQLDSN(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("database.dsn", "root:root@tcp(127.0.0.1:3306)/nominatim")
	viper.Set("database.driver", "mysql")
	tgt, err := resolveTarget()
	if err != nil {
		t.Fatalf("resolveTarget: %v", err)
	}
	if !strings.Contains(tgt.config.DSN, "multiStatements=true") {
		t.Errorf("dsn = %q, want multiStatements=true", tgt.config.DSN)
	}
	if tgt.dialect.Name() != "mysql" {
		t.Errorf("dialect = %s", tgt.dialect.Name())
	}
}
