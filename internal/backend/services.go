package backend

import (
	"faktura/internal/services"
)

// Services bundles the application services built on one backend.
type Services struct {
	Expenses   *services.ExpenseService
	Invoices   *services.InvoiceService
	Recipients *services.RecipientService
	Settings   *services.SettingsService
	Forecasts  *services.ForecastService
}

// NewServices wires every service to the result's repository and publisher.
func NewServices(res *Result, invoiceDueDays, forecastHorizon int) Services {
	repo := res.Repository
	settings := services.NewSettingsService(repo, res.Publisher)
	return Services{
		Expenses:   services.NewExpenseService(repo, repo, res.Publisher),
		Invoices:   services.NewInvoiceService(repo, repo, settings, res.Publisher, invoiceDueDays),
		Recipients: services.NewRecipientService(repo),
		Settings:   settings,
		Forecasts:  services.NewForecastService(repo, settings, forecastHorizon),
	}
}
