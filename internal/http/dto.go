package http

import (
	"time"

	"faktura/internal/core"
	"faktura/internal/forecast"
	"faktura/internal/services"
)

// Amounts travel as strings so no precision is lost in JSON numbers.

type (
	createRecurringExpenseRequest struct {
		Name       string `json:"name" validate:"required,max=200"`
		Amount     string `json:"amount" validate:"required"`
		DayOfMonth int    `json:"day_of_month" validate:"required,min=1,max=31"`
	}

	updateRecurringExpenseRequest struct {
		Name            *string `json:"name" validate:"omitempty,max=200"`
		Amount          *string `json:"amount"`
		DayOfMonth      *int    `json:"day_of_month" validate:"omitempty,min=1,max=31"`
		FirstOccurrence *string `json:"first_occurrence" validate:"omitempty,datetime=2006-01-02"`
		Active          *bool   `json:"active"`
	}

	createOneOffExpenseRequest struct {
		Name   string `json:"name" validate:"required,max=200"`
		Amount string `json:"amount" validate:"required"`
		Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	}

	updateOneOffExpenseRequest struct {
		Name   *string `json:"name" validate:"omitempty,max=200"`
		Amount *string `json:"amount"`
		Date   *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
		Active *bool   `json:"active"`
	}

	// lineItemRequest.TaxRate falls back to the default tax rate when empty.
	lineItemRequest struct {
		Description string `json:"description" validate:"required,max=200"`
		Quantity    string `json:"quantity" validate:"required"`
		UnitPrice   string `json:"unit_price" validate:"required"`
		TaxRate     string `json:"tax_rate"`
	}

	createInvoiceRequest struct {
		RecipientID int64             `json:"recipient_id" validate:"required,gt=0"`
		Items       []lineItemRequest `json:"items" validate:"required,min=1,dive"`
		IssueDate   string            `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
		DueDate     string            `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
		Notes       string            `json:"notes" validate:"max=2000"`
	}

	invoiceStatusRequest struct {
		Status string `json:"status" validate:"required"`
	}

	createRecipientRequest struct {
		Name       string `json:"name" validate:"required,min=2,max=200"`
		Company    string `json:"company" validate:"max=200"`
		Email      string `json:"email" validate:"omitempty,email"`
		Street     string `json:"street" validate:"max=200"`
		PostalCode string `json:"postal_code" validate:"max=20"`
		City       string `json:"city" validate:"max=100"`
		Country    string `json:"country" validate:"required,min=2,max=56"`
	}

	settingsRequest struct {
		CompanyName                string `json:"company_name" validate:"max=200"`
		PersonName                 string `json:"person_name" validate:"max=200"`
		TaxNumber                  string `json:"tax_number" validate:"max=50"`
		Street                     string `json:"street" validate:"max=200"`
		PostalCode                 string `json:"postal_code" validate:"max=20"`
		City                       string `json:"city" validate:"max=100"`
		Country                    string `json:"country" validate:"max=56"`
		IBAN                       string `json:"iban" validate:"max=34"`
		BIC                        string `json:"bic" validate:"max=11"`
		DefaultTaxRate             string `json:"default_tax_rate" validate:"required"`
		InvoicePrefix              string `json:"invoice_prefix" validate:"max=20"`
		OverrideInvoiceStartNumber int    `json:"override_invoice_start_number" validate:"min=0"`
		StartingBalance            string `json:"starting_balance" validate:"required"`
	}

	startingBalanceRequest struct {
		StartingBalance string `json:"starting_balance" validate:"required"`
	}
)

type (
	recurringExpenseResponse struct {
		ID              int64  `json:"id"`
		Name            string `json:"name"`
		Amount          string `json:"amount"`
		DayOfMonth      int    `json:"day_of_month"`
		FirstOccurrence string `json:"first_occurrence"`
		Active          bool   `json:"active"`
	}

	oneOffExpenseResponse struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Amount string `json:"amount"`
		Date   string `json:"date"`
		Active bool   `json:"active"`
	}

	lineItemResponse struct {
		Position    int    `json:"position"`
		Description string `json:"description"`
		Quantity    string `json:"quantity"`
		UnitPrice   string `json:"unit_price"`
		TaxRate     string `json:"tax_rate"`
	}

	invoiceResponse struct {
		ID          int64              `json:"id"`
		Number      string             `json:"number"`
		RecipientID int64              `json:"recipient_id"`
		IssueDate   string             `json:"issue_date"`
		DueDate     string             `json:"due_date"`
		Status      core.InvoiceStatus `json:"status"`
		Notes       string             `json:"notes,omitempty"`
		Net         string             `json:"total_net"`
		Tax         string             `json:"total_tax"`
		Gross       string             `json:"total_gross"`
		Items       []lineItemResponse `json:"items"`
	}

	recipientResponse struct {
		ID         int64     `json:"id"`
		Name       string    `json:"name"`
		Company    string    `json:"company,omitempty"`
		Email      string    `json:"email,omitempty"`
		Street     string    `json:"street,omitempty"`
		PostalCode string    `json:"postal_code,omitempty"`
		City       string    `json:"city,omitempty"`
		Country    string    `json:"country"`
		CreatedAt  time.Time `json:"created_at"`
	}

	settingsResponse struct {
		CompanyName                string `json:"company_name"`
		PersonName                 string `json:"person_name"`
		TaxNumber                  string `json:"tax_number"`
		Street                     string `json:"street"`
		PostalCode                 string `json:"postal_code"`
		City                       string `json:"city"`
		Country                    string `json:"country"`
		IBAN                       string `json:"iban"`
		BIC                        string `json:"bic"`
		DefaultTaxRate             string `json:"default_tax_rate"`
		InvoicePrefix              string `json:"invoice_prefix"`
		OverrideInvoiceStartNumber int    `json:"override_invoice_start_number"`
		StartingBalance            string `json:"starting_balance"`
	}

	forecastSummaryResponse struct {
		Months         int    `json:"months"`
		TotalIncome    string `json:"total_income"`
		TotalExpenses  string `json:"total_expenses"`
		EndingBalance  string `json:"ending_balance"`
		LowestBalance  string `json:"lowest_balance"`
		LowestMonthEnd string `json:"lowest_month_end,omitempty"`
	}

	forecastResponse struct {
		GeneratedAt     time.Time               `json:"generated_at"`
		StartingBalance string                  `json:"starting_balance"`
		Summary         forecastSummaryResponse `json:"summary"`
		Entries         []forecast.Entry        `json:"entries"`
	}

	dashboardResponse struct {
		InvoiceCount   int               `json:"invoice_count"`
		GrossTotal     string            `json:"gross_total"`
		LatestInvoices []invoiceResponse `json:"latest_invoices"`
	}

	listResponse[T any] struct {
		Items []T `json:"items"`
		Total int `json:"total"`
	}
)

func newListResponse[T, S any](in []S, conv func(S) T) listResponse[T] {
	items := make([]T, 0, len(in))
	for _, v := range in {
		items = append(items, conv(v))
	}
	return listResponse[T]{Items: items, Total: len(items)}
}

func toRecurringExpenseResponse(e core.RecurringExpense) recurringExpenseResponse {
	return recurringExpenseResponse{
		ID:              e.ID,
		Name:            e.Name,
		Amount:          core.FormatAmount(e.Amount),
		DayOfMonth:      e.DayOfMonth,
		FirstOccurrence: core.FormatDate(e.FirstOccurrence),
		Active:          e.Active,
	}
}

func toOneOffExpenseResponse(e core.OneOffExpense) oneOffExpenseResponse {
	return oneOffExpenseResponse{
		ID:     e.ID,
		Name:   e.Name,
		Amount: core.FormatAmount(e.Amount),
		Date:   core.FormatDate(e.Date),
		Active: e.Active,
	}
}

func toInvoiceResponse(inv core.Invoice) invoiceResponse {
	items := make([]lineItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, lineItemResponse{
			Position:    it.Position,
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   core.FormatAmount(it.UnitPrice),
			TaxRate:     it.TaxRate.String(),
		})
	}
	return invoiceResponse{
		ID:          inv.ID,
		Number:      inv.Number,
		RecipientID: inv.RecipientID,
		IssueDate:   core.FormatDate(inv.IssueDate),
		DueDate:     core.FormatDate(inv.DueDate),
		Status:      inv.Status,
		Notes:       inv.Notes,
		Net:         core.FormatAmount(inv.Net),
		Tax:         core.FormatAmount(inv.Tax),
		Gross:       core.FormatAmount(inv.Gross),
		Items:       items,
	}
}

func toRecipientResponse(r core.Recipient) recipientResponse {
	return recipientResponse{
		ID:         r.ID,
		Name:       r.Name,
		Company:    r.Company,
		Email:      r.Email,
		Street:     r.Street,
		PostalCode: r.PostalCode,
		City:       r.City,
		Country:    r.Country,
		CreatedAt:  r.CreatedAt,
	}
}

func toSettingsResponse(s core.Settings) settingsResponse {
	return settingsResponse{
		CompanyName:                s.CompanyName,
		PersonName:                 s.PersonName,
		TaxNumber:                  s.TaxNumber,
		Street:                     s.Street,
		PostalCode:                 s.PostalCode,
		City:                       s.City,
		Country:                    s.Country,
		IBAN:                       s.IBAN,
		BIC:                        s.BIC,
		DefaultTaxRate:             s.DefaultTaxRate.String(),
		InvoicePrefix:              s.InvoicePrefix,
		OverrideInvoiceStartNumber: s.OverrideInvoiceStartNumber,
		StartingBalance:            core.FormatAmount(s.StartingBalance),
	}
}

func toForecastResponse(f services.Forecast) forecastResponse {
	sum := f.Summary()
	out := forecastResponse{
		GeneratedAt:     f.GeneratedAt,
		StartingBalance: core.FormatAmount(f.StartingBalance),
		Summary: forecastSummaryResponse{
			Months:        sum.Months,
			TotalIncome:   core.FormatAmount(sum.TotalIncome),
			TotalExpenses: core.FormatAmount(sum.TotalExpenses),
			EndingBalance: core.FormatAmount(sum.EndingBalance),
			LowestBalance: core.FormatAmount(sum.LowestBalance),
		},
		Entries: f.Entries,
	}
	if !sum.LowestMonthEnd.IsZero() {
		out.Summary.LowestMonthEnd = core.FormatDate(sum.LowestMonthEnd)
	}
	if out.Entries == nil {
		out.Entries = []forecast.Entry{}
	}
	return out
}

func toDashboardResponse(st core.DashboardStats) dashboardResponse {
	latest := make([]invoiceResponse, 0, len(st.LatestInvoices))
	for _, inv := range st.LatestInvoices {
		latest = append(latest, toInvoiceResponse(inv))
	}
	return dashboardResponse{
		InvoiceCount:   st.InvoiceCount,
		GrossTotal:     core.FormatAmount(st.GrossTotal),
		LatestInvoices: latest,
	}
}
