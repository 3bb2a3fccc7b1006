package http

import (
	"net/http"
	"strconv"

	"faktura/internal/core"
)

func (s *Server) handleListRecipients(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Recipients.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newListResponse(list, toRecipientResponse)).Write(w)
}

func (s *Server) handleCreateRecipient(w http.ResponseWriter, r *http.Request) {
	var req createRecipientRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.svc.Recipients.Create(r.Context(), core.Recipient{
		Name:       req.Name,
		Company:    req.Company,
		Email:      req.Email,
		Street:     req.Street,
		PostalCode: req.PostalCode,
		City:       req.City,
		Country:    req.Country,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	Created(toRecipientResponse(rec)).
		Header("Location", "/api/recipients/"+strconv.FormatInt(rec.ID, 10)).
		Write(w)
}

func (s *Server) handleDeleteRecipient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Recipients.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Settings.Get(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toSettingsResponse(settings)).Write(w)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rate, err := parseDecimalField("default_tax_rate", req.DefaultTaxRate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	balance, err := parseSignedAmount("starting_balance", req.StartingBalance)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	settings, err := s.svc.Settings.Update(r.Context(), core.Settings{
		CompanyName:                req.CompanyName,
		PersonName:                 req.PersonName,
		TaxNumber:                  req.TaxNumber,
		Street:                     req.Street,
		PostalCode:                 req.PostalCode,
		City:                       req.City,
		Country:                    req.Country,
		IBAN:                       req.IBAN,
		BIC:                        req.BIC,
		DefaultTaxRate:             rate,
		InvoicePrefix:              req.InvoicePrefix,
		OverrideInvoiceStartNumber: req.OverrideInvoiceStartNumber,
		StartingBalance:            balance,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toSettingsResponse(settings)).Write(w)
}

// handleUpdateStartingBalance changes only the forecast seed. Negative and
// zero balances are accepted.
func (s *Server) handleUpdateStartingBalance(w http.ResponseWriter, r *http.Request) {
	var req startingBalanceRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	balance, err := parseSignedAmount("starting_balance", req.StartingBalance)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	settings, err := s.svc.Settings.UpdateStartingBalance(r.Context(), balance)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toSettingsResponse(settings)).Write(w)
}
