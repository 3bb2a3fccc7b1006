package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/recipients/3").
		Body(map[string]int{"id": 3}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rr.Header().Get("Location"); got != "/api/recipients/3" {
		t.Errorf("Location = %q", got)
	}
	var body map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["id"] != 3 {
		t.Fatalf("body = %q, err = %v", rr.Body.String(), err)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
		message string
	}{
		{"bad request", BadRequestError("invalid JSON body"), http.StatusBadRequest, "invalid JSON body"},
		{"not found", NotFoundError("invoice not found"), http.StatusNotFound, "invoice not found"},
		{"conflict", ConflictError("recipient has invoices"), http.StatusConflict, "recipient has invoices"},
		{"internal", InternalServerError("internal error"), http.StatusInternalServerError, "internal error"},
		{"unprocessable", UnprocessableEntityError("invalid amount", nil), http.StatusUnprocessableEntity, "invalid amount"},
		{"rate limited", TooManyRequestsError(), http.StatusTooManyRequests, "rate limit exceeded, please try again later"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.builder.Write(rr)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			var body errorBody
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.message {
				t.Fatalf("error = %q, want %q", body.Error, tt.message)
			}
		})
	}
}

func TestUnprocessableEntityDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	UnprocessableEntityError("validation failed", map[string]string{"name": "required"}).Write(rr)

	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Details["name"] != "required" {
		t.Fatalf("details = %v", body.Details)
	}
}

func TestNoContentHasNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NoContent().Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Fatalf("status = %d, body = %q", rr.Code, rr.Body.String())
	}
}

func TestEncodeFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Body(math.Inf(1)).Write(rr)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}
