package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"faktura/internal/log"
	"faktura/internal/services"
	"faktura/internal/storage/memory"
)

func newTestServer(t *testing.T, opts Options) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	settings := services.NewSettingsService(store, nil)
	svc := Services{
		Expenses:   services.NewExpenseService(store, store, nil),
		Invoices:   services.NewInvoiceService(store, store, settings, nil, 14),
		Recipients: services.NewRecipientService(store),
		Settings:   settings,
		Forecasts:  services.NewForecastService(store, settings, 12),
	}
	if opts.RequestsPerMinute == 0 {
		opts.RequestsPerMinute = 10000
	}
	opts.Logger = log.New(log.Config{Output: io.Discard})

	srv := NewServer(":0", svc, store, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", rr.Code, want, rr.Body.String())
	}
}

// nextMonthDay returns the given day of next month as YYYY-MM-DD.
func nextMonthDay(day int) string {
	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	next := first.AddDate(0, 1, 0)
	return time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, time.Local).Format("2006-01-02")
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func TestHealthReadyMetrics(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	expectStatus(t, rr, http.StatusOK)
	if got := decode[map[string]string](t, rr)["status"]; got != "ok" {
		t.Fatalf("health status = %q", got)
	}

	rr = do(t, srv, http.MethodGet, "/readyz", "")
	expectStatus(t, rr, http.StatusOK)

	rr = do(t, srv, http.MethodGet, "/metrics", "")
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "faktura_http_requests_total 3") {
		t.Fatalf("metrics = %s", rr.Body.String())
	}
}

func TestReadyReportsStorageFailure(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	srv.storage = failingPinger{}

	rr := do(t, srv, http.MethodGet, "/readyz", "")
	expectStatus(t, rr, http.StatusServiceUnavailable)
	if !strings.Contains(rr.Body.String(), "database is locked") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodGet, "/healthz", "")

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestRecurringExpenseCRUD(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/recurring-expenses", `{"name":"Rent","amount":"950","day_of_month":1}`)
	expectStatus(t, rr, http.StatusCreated)
	created := decode[recurringExpenseResponse](t, rr)
	if created.Amount != "950.00" || created.DayOfMonth != 1 || !created.Active {
		t.Fatalf("created = %+v", created)
	}
	if rr.Header().Get("Location") != fmt.Sprintf("/api/recurring-expenses/%d", created.ID) {
		t.Fatalf("Location = %q", rr.Header().Get("Location"))
	}

	path := fmt.Sprintf("/api/recurring-expenses/%d", created.ID)
	rr = do(t, srv, http.MethodPatch, path, `{"amount":"975.50","active":false}`)
	expectStatus(t, rr, http.StatusOK)
	updated := decode[recurringExpenseResponse](t, rr)
	if updated.Amount != "975.50" || updated.Active || updated.FirstOccurrence != created.FirstOccurrence {
		t.Fatalf("updated = %+v", updated)
	}

	rr = do(t, srv, http.MethodGet, "/api/recurring-expenses", "")
	expectStatus(t, rr, http.StatusOK)
	if list := decode[listResponse[recurringExpenseResponse]](t, rr); list.Total != 1 {
		t.Fatalf("list = %+v", list)
	}

	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNotFound)
	expectStatus(t, do(t, srv, http.MethodPatch, path, `{"name":"Gone"}`), http.StatusNotFound)
}

func TestRecurringExpenseValidation(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"day out of range", http.MethodPost, "/api/recurring-expenses", `{"name":"Rent","amount":"1","day_of_month":32}`, http.StatusUnprocessableEntity},
		{"bad amount", http.MethodPost, "/api/recurring-expenses", `{"name":"Rent","amount":"abc","day_of_month":3}`, http.StatusUnprocessableEntity},
		{"zero amount", http.MethodPost, "/api/recurring-expenses", `{"name":"Rent","amount":"0","day_of_month":3}`, http.StatusUnprocessableEntity},
		{"blank name", http.MethodPost, "/api/recurring-expenses", `{"name":"   ","amount":"5","day_of_month":3}`, http.StatusUnprocessableEntity},
		{"unknown field", http.MethodPost, "/api/recurring-expenses", `{"name":"Rent","amount":"5","day_of_month":3,"x":1}`, http.StatusBadRequest},
		{"bad id", http.MethodDelete, "/api/recurring-expenses/abc", "", http.StatusBadRequest},
		{"patch bad date", http.MethodPatch, "/api/recurring-expenses/1", `{"first_occurrence":"2024-02-30"}`, http.StatusUnprocessableEntity},
		{"wrong method", http.MethodPut, "/api/recurring-expenses", `{}`, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, do(t, srv, tt.method, tt.path, tt.body), tt.want)
		})
	}
}

func TestOneOffExpenseCRUD(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/one-off-expenses", `{"name":"Laptop","amount":"1299.99","date":"2031-05-20"}`)
	expectStatus(t, rr, http.StatusCreated)
	created := decode[oneOffExpenseResponse](t, rr)
	if created.Date != "2031-05-20" || created.Amount != "1299.99" {
		t.Fatalf("created = %+v", created)
	}

	path := fmt.Sprintf("/api/one-off-expenses/%d", created.ID)
	rr = do(t, srv, http.MethodPatch, path, `{"date":"2031-06-01"}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[oneOffExpenseResponse](t, rr).Date; got != "2031-06-01" {
		t.Fatalf("date = %q", got)
	}

	expectStatus(t, do(t, srv, http.MethodPost, "/api/one-off-expenses", `{"name":"Laptop","amount":"5","date":"20.05.2031"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNoContent)

	rr = do(t, srv, http.MethodGet, "/api/one-off-expenses", "")
	if list := decode[listResponse[oneOffExpenseResponse]](t, rr); list.Total != 0 || list.Items == nil {
		t.Fatalf("list = %+v", list)
	}
}

func createRecipient(t *testing.T, srv *Server) recipientResponse {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/recipients", `{"name":"Acme GmbH","email":"billing@acme.test","country":"de"}`)
	expectStatus(t, rr, http.StatusCreated)
	return decode[recipientResponse](t, rr)
}

func TestInvoiceLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := createRecipient(t, srv)
	if rec.Country != "DE" {
		t.Fatalf("country = %q", rec.Country)
	}

	body := fmt.Sprintf(`{"recipient_id":%d,"items":[
		{"description":"Consulting","quantity":"10","unit_price":"100"},
		{"description":"Travel","quantity":"1","unit_price":"43.50","tax_rate":"7"}
	]}`, rec.ID)
	rr := do(t, srv, http.MethodPost, "/api/invoices", body)
	expectStatus(t, rr, http.StatusCreated)
	inv := decode[invoiceResponse](t, rr)

	wantNumber := fmt.Sprintf("RE-%d-0001", time.Now().Year())
	if inv.Number != wantNumber {
		t.Errorf("number = %q, want %q", inv.Number, wantNumber)
	}
	// 1000 @ 19% + 43.50 @ 7%
	if inv.Net != "1043.50" || inv.Tax != "193.05" || inv.Gross != "1236.55" {
		t.Errorf("totals = %s/%s/%s", inv.Net, inv.Tax, inv.Gross)
	}
	if inv.Status != "DRAFT" || len(inv.Items) != 2 || inv.Items[0].TaxRate != "19" {
		t.Errorf("invoice = %+v", inv)
	}

	path := fmt.Sprintf("/api/invoices/%d", inv.ID)
	rr = do(t, srv, http.MethodPatch, path+"/status", `{"status":"paid"}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[invoiceResponse](t, rr).Status; got != "PAID" {
		t.Fatalf("status = %q", got)
	}
	expectStatus(t, do(t, srv, http.MethodPatch, path+"/status", `{"status":"archived"}`), http.StatusUnprocessableEntity)

	rr = do(t, srv, http.MethodGet, "/api/invoices?status=PAID,SENT", "")
	expectStatus(t, rr, http.StatusOK)
	if list := decode[listResponse[invoiceResponse]](t, rr); list.Total != 1 {
		t.Fatalf("paid list = %+v", list)
	}
	rr = do(t, srv, http.MethodGet, "/api/invoices?status=DRAFT", "")
	if list := decode[listResponse[invoiceResponse]](t, rr); list.Total != 0 {
		t.Fatalf("draft list = %+v", list)
	}
	expectStatus(t, do(t, srv, http.MethodGet, "/api/invoices?status=bogus", ""), http.StatusUnprocessableEntity)

	rr = do(t, srv, http.MethodGet, "/api/dashboard", "")
	expectStatus(t, rr, http.StatusOK)
	dash := decode[dashboardResponse](t, rr)
	if dash.InvoiceCount != 1 || dash.GrossTotal != "1236.55" || len(dash.LatestInvoices) != 1 {
		t.Fatalf("dashboard = %+v", dash)
	}

	rr = do(t, srv, http.MethodPost, "/api/invoices", body)
	if got := decode[invoiceResponse](t, rr).Number; got != fmt.Sprintf("RE-%d-0002", time.Now().Year()) {
		t.Fatalf("second number = %q", got)
	}

	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodGet, path, ""), http.StatusNotFound)
}

func TestInvoiceValidation(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := createRecipient(t, srv)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"no items", fmt.Sprintf(`{"recipient_id":%d,"items":[]}`, rec.ID), http.StatusUnprocessableEntity},
		{"unknown recipient", `{"recipient_id":999,"items":[{"description":"x","quantity":"1","unit_price":"1"}]}`, http.StatusUnprocessableEntity},
		{"tax over 100", fmt.Sprintf(`{"recipient_id":%d,"items":[{"description":"x","quantity":"1","unit_price":"1","tax_rate":"120"}]}`, rec.ID), http.StatusUnprocessableEntity},
		{"zero quantity", fmt.Sprintf(`{"recipient_id":%d,"items":[{"description":"x","quantity":"0","unit_price":"1"}]}`, rec.ID), http.StatusUnprocessableEntity},
		{"bad due date", fmt.Sprintf(`{"recipient_id":%d,"due_date":"soon","items":[{"description":"x","quantity":"1","unit_price":"1"}]}`, rec.ID), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, do(t, srv, http.MethodPost, "/api/invoices", tt.body), tt.want)
		})
	}
}

func TestRecipientDeleteBlockedByInvoices(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := createRecipient(t, srv)
	body := fmt.Sprintf(`{"recipient_id":%d,"items":[{"description":"x","quantity":"1","unit_price":"1"}]}`, rec.ID)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/invoices", body), http.StatusCreated)

	path := fmt.Sprintf("/api/recipients/%d", rec.ID)
	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusConflict)
	expectStatus(t, do(t, srv, http.MethodDelete, "/api/recipients/999", ""), http.StatusNotFound)

	other := createRecipient(t, srv)
	expectStatus(t, do(t, srv, http.MethodDelete, fmt.Sprintf("/api/recipients/%d", other.ID), ""), http.StatusNoContent)

	rr := do(t, srv, http.MethodGet, "/api/recipients", "")
	if list := decode[listResponse[recipientResponse]](t, rr); list.Total != 1 {
		t.Fatalf("recipients = %+v", list)
	}
}

func TestSettings(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/settings", "")
	expectStatus(t, rr, http.StatusOK)
	got := decode[settingsResponse](t, rr)
	if got.InvoicePrefix != "RE" || got.DefaultTaxRate != "19" || got.StartingBalance != "0.00" {
		t.Fatalf("defaults = %+v", got)
	}

	rr = do(t, srv, http.MethodPut, "/api/settings", `{"company_name":"Studio","default_tax_rate":"7","invoice_prefix":"INV","override_invoice_start_number":100,"starting_balance":"2500","country":"at"}`)
	expectStatus(t, rr, http.StatusOK)
	got = decode[settingsResponse](t, rr)
	if got.InvoicePrefix != "INV" || got.Country != "AT" || got.StartingBalance != "2500.00" {
		t.Fatalf("updated = %+v", got)
	}

	expectStatus(t, do(t, srv, http.MethodPut, "/api/settings", `{"default_tax_rate":"150","starting_balance":"0"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodPut, "/api/settings", `{"default_tax_rate":"7","starting_balance":"0","override_invoice_start_number":-1}`), http.StatusUnprocessableEntity)

	rr = do(t, srv, http.MethodPut, "/api/settings/starting-balance", `{"starting_balance":"-250.5"}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[settingsResponse](t, rr); got.StartingBalance != "-250.50" || got.InvoicePrefix != "INV" {
		t.Fatalf("after balance = %+v", got)
	}
	expectStatus(t, do(t, srv, http.MethodPut, "/api/settings/starting-balance", `{"starting_balance":"lots"}`), http.StatusUnprocessableEntity)
}

// forecastBody mirrors the wire format of GET /api/forecast, where dates and
// amounts are plain strings.
type forecastBody struct {
	StartingBalance string `json:"starting_balance"`
	Summary         struct {
		Months        int    `json:"months"`
		EndingBalance string `json:"ending_balance"`
		LowestBalance string `json:"lowest_balance"`
	} `json:"summary"`
	Entries []struct {
		Date         string `json:"date"`
		Balance      string `json:"balance"`
		Income       string `json:"income"`
		Expenses     string `json:"expenses"`
		Transactions []struct {
			Date        string `json:"date"`
			Description string `json:"description"`
			Amount      string `json:"amount"`
			Type        string `json:"type"`
		} `json:"transactions"`
	} `json:"entries"`
}

func TestForecastEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	expectStatus(t, do(t, srv, http.MethodPut, "/api/settings/starting-balance", `{"starting_balance":"1000"}`), http.StatusOK)

	expectStatus(t, do(t, srv, http.MethodPost, "/api/one-off-expenses",
		fmt.Sprintf(`{"name":"Insurance","amount":"200","date":%q}`, nextMonthDay(15))), http.StatusCreated)

	rec := createRecipient(t, srv)
	rr := do(t, srv, http.MethodPost, "/api/invoices", fmt.Sprintf(
		`{"recipient_id":%d,"due_date":%q,"items":[{"description":"Design","quantity":"1","unit_price":"100","tax_rate":"19"}]}`,
		rec.ID, nextMonthDay(10)))
	expectStatus(t, rr, http.StatusCreated)
	inv := decode[invoiceResponse](t, rr)

	// DRAFT invoices are not income yet.
	rr = do(t, srv, http.MethodGet, "/api/forecast?months=2", "")
	expectStatus(t, rr, http.StatusOK)
	if got := decode[forecastBody](t, rr).Summary.EndingBalance; got != "800.00" {
		t.Fatalf("ending balance with draft = %s", got)
	}

	expectStatus(t, do(t, srv, http.MethodPatch, fmt.Sprintf("/api/invoices/%d/status", inv.ID), `{"status":"SENT"}`), http.StatusOK)

	rr = do(t, srv, http.MethodGet, "/api/forecast?months=2", "")
	expectStatus(t, rr, http.StatusOK)
	body := decode[forecastBody](t, rr)

	if body.StartingBalance != "1000.00" || body.Summary.Months != 2 || len(body.Entries) != 2 {
		t.Fatalf("forecast = %+v", body)
	}
	next := body.Entries[1]
	if next.Income != "119.00" || next.Expenses != "200.00" || next.Balance != "919.00" {
		t.Fatalf("next month = %+v", next)
	}
	if len(next.Transactions) != 2 || next.Transactions[0].Type != "income" ||
		next.Transactions[0].Description != "Invoice "+inv.Number ||
		next.Transactions[0].Date != nextMonthDay(10) || next.Transactions[1].Date != nextMonthDay(15) {
		t.Fatalf("transactions = %+v", next.Transactions)
	}
	if body.Summary.EndingBalance != "919.00" || body.Summary.LowestBalance != "919.00" {
		t.Fatalf("summary = %+v", body.Summary)
	}
}

func TestForecastMonthsParam(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/forecast", "")
	expectStatus(t, rr, http.StatusOK)
	if got := len(decode[forecastBody](t, rr).Entries); got != 12 {
		t.Fatalf("default entries = %d", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/forecast?months=0", "")
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"entries":[]`) {
		t.Fatalf("zero horizon body = %s", rr.Body.String())
	}

	expectStatus(t, do(t, srv, http.MethodGet, "/api/forecast?months=121", ""), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/forecast?months=-1", ""), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/forecast?months=many", ""), http.StatusBadRequest)
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	srv, _ := newTestServer(t, Options{RequestsPerMinute: 2})

	for i := 0; i < 2; i++ {
		expectStatus(t, do(t, srv, http.MethodPost, "/api/recipients", `{"name":"Acme","country":"DE"}`), http.StatusCreated)
	}
	rr := do(t, srv, http.MethodPost, "/api/recipients", `{"name":"Acme","country":"DE"}`)
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	for i := 0; i < 5; i++ {
		expectStatus(t, do(t, srv, http.MethodGet, "/api/recipients", ""), http.StatusOK)
	}
}
