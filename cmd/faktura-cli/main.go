package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"faktura/internal/backend"
	"faktura/internal/cli"
	"faktura/internal/log"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "faktura-cli",
		Short: "Inspect the faktura ledger and its cash-flow forecast",
		Long: `faktura-cli reads the same database as the faktura server.

It prints the monthly cash-flow forecast, lists the ledger and
applies database migrations.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./faktura.yaml or $HOME/.config/faktura/faktura.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path")
	rootCmd.PersistentFlags().String("backend", "", "data backend (sqlite, memory)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")

	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("database.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(expensesCmd())
	rootCmd.AddCommand(invoicesCmd())
	rootCmd.AddCommand(migrateCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig layers flags over the config file over the environment the
// server reads, so both binaries agree on the database.
func initConfig(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.config/faktura")
		}
		viper.SetConfigName("faktura")
		viper.SetConfigType("yaml")
	}

	bindEnv := map[string]string{
		"database.backend":   "DATA_BACKEND",
		"database.path":      "SQLITE_DB_PATH",
		"logging.level":      "LOG_LEVEL",
		"logging.format":     "LOG_FORMAT",
		"forecast.months":    "FORECAST_HORIZON_MONTHS",
		"forecast.threshold": "LOW_BALANCE_THRESHOLD",
		"invoices.due_days":  "INVOICE_DUE_DAYS",
	}
	for key, env := range bindEnv {
		_ = viper.BindEnv(key, env)
	}

	viper.SetDefault("database.backend", string(backend.SQLiteBackend))
	viper.SetDefault("database.path", "./data/faktura.db")
	viper.SetDefault("logging.level", "warn")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("forecast.months", 12)
	viper.SetDefault("forecast.threshold", "0")
	viper.SetDefault("invoices.due_days", 14)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return setupLogging()
}

// setupLogging writes to stderr so that stdout only carries command output.
func setupLogging() error {
	level, err := log.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	format, err := log.ParseFormat(viper.GetString("logging.format"))
	if err != nil {
		return err
	}
	log.SetDefault(log.New(log.Config{
		Level:     level,
		Format:    format,
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	}))
	return nil
}

// openLedger opens the configured backend without ledger events; the CLI
// only reads.
func openLedger(ctx context.Context) (*backend.Result, backend.Services, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentCLI)
	res, err := backend.NewFactory(logger).Create(ctx, backend.Config{
		Type:         backend.BackendType(viper.GetString("database.backend")),
		SQLiteDBPath: viper.GetString("database.path"),
	})
	if err != nil {
		return nil, backend.Services{}, err
	}
	svc := backend.NewServices(res, viper.GetInt("invoices.due_days"), viper.GetInt("forecast.months"))
	return res, svc, nil
}
