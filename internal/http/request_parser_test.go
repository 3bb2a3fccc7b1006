package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	s := &Server{validate: newValidator()}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"valid", `{"name":"Rent","amount":"950.00","day_of_month":1}`, 0, ""},
		{"empty body", ``, http.StatusBadRequest, ""},
		{"malformed", `{"name":`, http.StatusBadRequest, ""},
		{"unknown field", `{"name":"Rent","amount":"1","day_of_month":1,"extra":true}`, http.StatusBadRequest, ""},
		{"trailing data", `{"name":"Rent","amount":"1","day_of_month":1} {}`, http.StatusBadRequest, ""},
		{"missing name", `{"amount":"1","day_of_month":1}`, http.StatusUnprocessableEntity, "name"},
		{"day too large", `{"name":"Rent","amount":"1","day_of_month":32}`, http.StatusUnprocessableEntity, "day_of_month"},
		{"body too large", `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/recurring-expenses", strings.NewReader(tt.body))
			var req createRecurringExpenseRequest
			err := s.decodeJSON(httptest.NewRecorder(), r, &req)

			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var reqErr *requestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("err = %v, want *requestError", err)
			}
			if reqErr.status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", reqErr.status, tt.wantStatus, err)
			}
			if tt.wantField != "" {
				if _, ok := reqErr.details[tt.wantField]; !ok {
					t.Fatalf("details = %v, want key %q", reqErr.details, tt.wantField)
				}
			}
		})
	}
}

func TestValidateNestedLineItems(t *testing.T) {
	s := &Server{validate: newValidator()}
	req := createInvoiceRequest{
		RecipientID: 1,
		Items:       []lineItemRequest{{Description: "Consulting", Quantity: "1", UnitPrice: "10"}, {Quantity: "1", UnitPrice: "5"}},
	}
	err := s.validateRequest(&req)
	var reqErr *requestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %v", err)
	}
	if got := reqErr.details["items[1].description"]; got != "is required" {
		t.Fatalf("details = %v", reqErr.details)
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodDelete, "/api/invoices/"+tt.value, nil)
			r.SetPathValue("id", tt.value)
			got, err := pathID(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseSignedAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1000", "1000.00", false},
		{"-250.5", "-250.50", false},
		{"0", "0.00", false},
		{"12,345", "12.35", false},
		{"ten", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSignedAmount("starting_balance", tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.StringFixed(2) != tt.want {
				t.Fatalf("got %s, want %s", got.StringFixed(2), tt.want)
			}
		})
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/forecast?months=6&bad=x", nil)
	if n, err := queryInt(r, "months", 12); err != nil || n != 6 {
		t.Fatalf("months = %d, %v", n, err)
	}
	if n, err := queryInt(r, "missing", 12); err != nil || n != 12 {
		t.Fatalf("missing = %d, %v", n, err)
	}
	if _, err := queryInt(r, "bad", 12); err == nil {
		t.Fatal("expected error")
	}
}
