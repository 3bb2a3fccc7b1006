package http

import (
	"net/http"
	"strconv"

	"faktura/internal/core"
	"faktura/internal/log"
)

func (s *Server) handleListOneOff(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Expenses.ListOneOff(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newListResponse(list, toOneOffExpenseResponse)).Write(w)
}

func (s *Server) handleCreateOneOff(w http.ResponseWriter, r *http.Request) {
	var req createOneOffExpenseRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := parseAmountField("amount", req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.svc.Expenses.CreateOneOff(r.Context(), req.Name, amount, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "One-off expense created",
		log.FieldID, e.ID,
		log.FieldAmount, core.FormatAmount(e.Amount))
	Created(toOneOffExpenseResponse(e)).
		Header("Location", "/api/one-off-expenses/"+strconv.FormatInt(e.ID, 10)).
		Write(w)
}

func (s *Server) handleUpdateOneOff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateOneOffExpenseRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	patch := core.OneOffExpensePatch{Name: req.Name, Active: req.Active}
	if req.Amount != nil {
		amount, err := parseAmountField("amount", *req.Amount)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.Date != nil {
		date, err := parseDateField("date", *req.Date)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.Date = &date
	}

	e, err := s.svc.Expenses.UpdateOneOff(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toOneOffExpenseResponse(e)).Write(w)
}

func (s *Server) handleDeleteOneOff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Expenses.DeleteOneOff(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}
