package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"faktura/internal/core"
	"faktura/internal/log"
	"faktura/internal/services"
	"faktura/internal/storage"
)

// handleListInvoices serves GET /api/invoices?status=PAID,SENT&recipient_id=N.
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	var filter storage.InvoiceFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, err := core.ParseInvoiceStatus(part)
			if err != nil {
				s.writeError(w, r, invalidField("status", err))
				return
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	recipientID, err := queryInt(r, "recipient_id", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filter.RecipientID = int64(recipientID)

	list, err := s.svc.Invoices.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(newListResponse(list, toInvoiceResponse)).Write(w)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.svc.Invoices.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toInvoiceResponse(inv)).Write(w)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	in, err := s.invoiceInput(r, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	inv, err := s.svc.Invoices.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Invoice created",
		log.FieldID, inv.ID,
		log.FieldInvoiceNumber, inv.Number,
		log.FieldAmount, core.FormatAmount(inv.Gross))
	Created(toInvoiceResponse(inv)).
		Header("Location", "/api/invoices/"+strconv.FormatInt(inv.ID, 10)).
		Write(w)
}

// invoiceInput converts the request, filling missing tax rates from settings.
func (s *Server) invoiceInput(r *http.Request, req createInvoiceRequest) (services.InvoiceInput, error) {
	in := services.InvoiceInput{RecipientID: req.RecipientID, Notes: req.Notes}

	var err error
	if in.IssueDate, err = optionalDate("issue_date", req.IssueDate); err != nil {
		return in, err
	}
	if in.DueDate, err = optionalDate("due_date", req.DueDate); err != nil {
		return in, err
	}

	var defaultRate *decimal.Decimal
	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		qty, err := parseDecimalField(field+".quantity", it.Quantity)
		if err != nil {
			return in, err
		}
		price, err := parseAmountField(field+".unit_price", it.UnitPrice)
		if err != nil {
			return in, err
		}

		var rate decimal.Decimal
		if strings.TrimSpace(it.TaxRate) == "" {
			if defaultRate == nil {
				settings, err := s.svc.Settings.Get(r.Context())
				if err != nil {
					return in, err
				}
				defaultRate = &settings.DefaultTaxRate
			}
			rate = *defaultRate
		} else if rate, err = parseDecimalField(field+".tax_rate", it.TaxRate); err != nil {
			return in, err
		}

		in.Items = append(in.Items, core.LineItem{
			Description: it.Description,
			Quantity:    qty,
			UnitPrice:   price,
			TaxRate:     rate,
		})
	}
	return in, nil
}

func (s *Server) handleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req invoiceStatusRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	status, err := core.ParseInvoiceStatus(req.Status)
	if err != nil {
		s.writeError(w, r, invalidField("status", err))
		return
	}

	inv, err := s.svc.Invoices.MarkStatus(r.Context(), id, status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toInvoiceResponse(inv)).Write(w)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Invoices.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	NoContent().Write(w)
}
