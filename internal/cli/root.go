package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rustyeddy/smacross/config"
	"github.com/rustyeddy/smacross/internal/logger"
)

// Version is stamped at build time with -ldflags "-X ...".
var Version = "dev"

// RootConfig carries the persistent flags and what PersistentPreRunE builds
// from them.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string

	// V collects SMACROSS_* variables and every flag bound to a config key.
	V *viper.Viper

	Config *config.Config
	Log    *zap.Logger
}

// Load reads the config file (or defaults) and overlays the environment and
// any flags the user changed.
func (rc *RootConfig) Load() error {
	cfg := config.Default()
	if rc.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(rc.ConfigPath); err != nil {
			return err
		}
	}
	if err := cfg.ApplyEnv(rc.V); err != nil {
		return err
	}
	rc.Config = cfg
	return nil
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{V: config.NewViper()}

	cmd := &cobra.Command{
		Use:           "smacross",
		Short:         "smacross: SMA crossover backtests over a price universe",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "./smacross.sqlite", "SQLite journal database")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	_ = rc.V.BindPFlag("journal.db_path", cmd.PersistentFlags().Lookup("db"))

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		log, err := logger.New("smacross", rc.LogLevel)
		if err != nil {
			return err
		}
		rc.Log = log
		return rc.Load()
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if rc.Log != nil {
			_ = rc.Log.Sync()
		}
	}

	// Subcommands
	cmd.AddCommand(
		newBacktestCmd(rc),
		newResultsCmd(rc),
		newConfigCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smacross (%s)\n", Version)
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
