package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"faktura/internal/config"
)

func forecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the monthly cash-flow forecast",
		Long: `Project the balance month by month from the starting balance,
the active recurring and one-off expenses and the sent or paid invoices.`,
		Args: cobra.NoArgs,
		RunE: runForecast,
	}

	cmd.Flags().Int("months", 0, "number of months to project (default from FORECAST_HORIZON_MONTHS)")
	cmd.Flags().String("format", "table", "output format (table, json)")
	cmd.Flags().String("threshold", "", "mark months whose balance is below this amount")
	cmd.Flags().Bool("details", false, "list the transactions of every month")

	_ = viper.BindPFlag("forecast.threshold", cmd.Flags().Lookup("threshold"))

	return cmd
}

func runForecast(cmd *cobra.Command, _ []string) error {
	months := viper.GetInt("forecast.months")
	if cmd.Flags().Changed("months") {
		months, _ = cmd.Flags().GetInt("months")
	}
	if months < 0 || months > config.MaxForecastHorizon {
		return fmt.Errorf("months must be between 0 and %d", config.MaxForecastHorizon)
	}

	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q: must be table or json", format)
	}
	details, _ := cmd.Flags().GetBool("details")

	threshold, err := decimal.NewFromString(strings.TrimSpace(viper.GetString("forecast.threshold")))
	if err != nil {
		return fmt.Errorf("invalid threshold %q: %w", viper.GetString("forecast.threshold"), err)
	}

	ctx := cmd.Context()
	res, svc, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = res.Cleanup() }()

	fc, err := svc.Forecasts.Generate(ctx, months)
	if err != nil {
		return fmt.Errorf("generate forecast: %w", err)
	}

	if format == "json" {
		return renderForecastJSON(cmd.OutOrStdout(), fc, threshold)
	}
	return renderForecastTable(cmd.OutOrStdout(), fc, threshold, details)
}
