package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sqlprep/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	params  []string
)

var RootCmd = &cobra.Command{
	Use:   "sqlprep",
	Short: "A schema-build SQL preprocessor",
	Long: `
  ____   ___  _     ____  ____  _____ ____
 / ___| / _ \| |   |  _ \|  _ \| ____|  _ \
 \___ \| | | | |   | |_) | |_) |  _| | |_) |
  ___) | |_| | |___|  __/|  _ <| |___|  __/
 |____/ \__\_\_____|_|   |_| \_\_____|_|

SQLPREP - renders templated schema SQL against a live database and runs it
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(viper.GetString("log.level"))
		if err != nil {
			return err
		}
		format, err := logging.ParseFormat(viper.GetString("log.format"))
		if err != nil {
			return err
		}
		logging.Init(level, format)
		if used := viper.ConfigFileUsed(); used != "" {
			logging.Get().Debug("using config file", "path", used)
		}
		return nil
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./sqlprep.yaml)")
	flags.String("dsn", "", "Database Source Name (DSN)")
	flags.String("driver", "", "database/sql driver name (detected from the DSN if empty)")
	flags.String("schema", "", "schema to introspect (dialect default if empty)")
	flags.String("sql-dir", "", "directory holding the SQL files")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")

	viper.BindPFlag("database.dsn", flags.Lookup("dsn"))
	viper.BindPFlag("database.driver", flags.Lookup("driver"))
	viper.BindPFlag("schema", flags.Lookup("schema"))
	viper.BindPFlag("sql_dir", flags.Lookup("sql-dir"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))

	viper.SetDefault("sql_dir", "./sql")
	viper.SetDefault("threads", 1)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// addParamFlag registers the repeatable --param flag on a command.
func addParamFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "template parameter as key=value (repeatable)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("sqlprep")
		viper.SetConfigType("yaml")
	}

	// SQLPREP_DATABASE_DSN, SQLPREP_TABLESPACE_SEARCH_DATA, ...
	viper.SetEnvPrefix("sqlprep")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// A missing default config file is fine, a broken or missing explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "cannot read config file:", err)
			os.Exit(1)
		}
	}
}
