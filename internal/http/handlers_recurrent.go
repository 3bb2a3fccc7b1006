package http

import (
	"net/http"
	"strconv"

	"faktura/internal/core"
	"faktura/internal/log"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Expenses.ListRecurring(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newListResponse(list, toRecurringExpenseResponse)).Write(w)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req createRecurringExpenseRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := parseAmountField("amount", req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.svc.Expenses.CreateRecurring(r.Context(), req.Name, amount, req.DayOfMonth)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Recurring expense created",
		log.FieldID, e.ID,
		log.FieldAmount, core.FormatAmount(e.Amount))
	Created(toRecurringExpenseResponse(e)).
		Header("Location", "/api/recurring-expenses/"+strconv.FormatInt(e.ID, 10)).
		Write(w)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateRecurringExpenseRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	patch := core.RecurringExpensePatch{
		Name:       req.Name,
		DayOfMonth: req.DayOfMonth,
		Active:     req.Active,
	}
	if req.Amount != nil {
		amount, err := parseAmountField("amount", *req.Amount)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.FirstOccurrence != nil {
		first, err := parseDateField("first_occurrence", *req.FirstOccurrence)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.FirstOccurrence = &first
	}

	e, err := s.svc.Expenses.UpdateRecurring(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toRecurringExpenseResponse(e)).Write(w)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Expenses.DeleteRecurring(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}
