package v1

import (
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tinoosan/ermay/internal/ledger"
)

const idempotencyHeader = "Idempotency-Key"

func (s *Server) debitRoutes(kind ledger.TransactionType) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", s.listDebits(kind))
		r.Post("/", s.postDebit(kind))
		r.Get("/{id}", s.getDebit(kind))
		r.Put("/{id}", s.putDebit(kind))
		r.Delete("/{id}", s.deleteDebit(kind))
	}
}

func (s *Server) creditRoutes(kind ledger.TransactionType) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", s.listCredits(kind))
		r.Post("/", s.postCredit(kind))
		r.Get("/{id}", s.getCredit(kind))
		r.Put("/{id}", s.putCredit(kind))
		r.Delete("/{id}", s.deleteCredit(kind))
	}
}

// recordFilter reads the optional party_id query parameter.
func recordFilter(w http.ResponseWriter, r *http.Request, kind ledger.TransactionType) (ledger.RecordFilter, bool) {
	f := ledger.RecordFilter{Kind: kind}
	if raw := r.URL.Query().Get("party_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "invalid party_id")
			return f, false
		}
		f.PartyID = &id
	}
	return f, true
}

// createdStatus is 201 for a new record and 200 when an idempotency key replayed one.
func createdStatus(replayed bool) int {
	if replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(idempotencyHeader))
}

// --- Debits ---

func (s *Server) listDebits(kind ledger.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := recordFilter(w, r, kind)
		if !ok {
			return
		}
		list, err := s.records.ListDebits(r.Context(), ownerFrom(r.Context()), f)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		out := listResponse[debitResponse]{Items: make([]debitResponse, 0, len(list))}
		for _, d := range list {
			out.Items = append(out.Items, toDebitResponse(d))
		}
		toJSON(w, http.StatusOK, out)
	}
}

func (s *Server) postDebit(kind ledger.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req debitRequest
		if !decodeBody(w, r, &req) {
			return
		}
		d := toDebitDomain(ownerFrom(r.Context()), kind, req)
		saved, replayed, err := s.records.CreateDebit(r.Context(), d, idempotencyKey(r))
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		toJSON(w, createdStatus(replayed), toDebitResponse(saved))
	}
}

func (s *Server) getDebit(kind ledger.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		d, err := s.records.GetDebit(r.Context(), ownerFrom(r.Context()), id, kind)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		toJSON(w, http.StatusOK, toDebitResponse(d))
	}
}

func (s *Server) putDebit(kind ledger.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req debitRequest
		if !decodeBody(w, r, &req) {
			return
		}
		d := toDebitDomain(ownerFrom(r.Context()), kind, req)
		d.ID = id
		saved, err := s.records.UpdateDebit(r.Context(), d)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		toJSON(w, http.StatusOK, toDebitResponse(saved))
	}
}

func (s *Server) deleteDebit(kind ledger.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.records.DeleteDebit(r.Context(), ownerFrom(r.Context()), id, kind); err != nil {
			writeServiceErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Credits ---

func (s *Server) listCredits(kind ledger.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := recordFilter(w, r, kind)
		if !ok {
			return
		}
		list, err := s.records.ListCredits(r.Context(), ownerFrom(r.Context()), f)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		out := listResponse[creditResponse]{Items: make([]creditResponse, 0, len(list))}
		for _, c := range list {
			out.Items = append(out.Items, toCreditResponse(c))
		}
		toJSON(w, http.StatusOK, out)
	}
}

func (s *Server) postCredit(kind ledger.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req creditRequest
		if !decodeBody(w, r, &req) {
			return
		}
		c := toCreditDomain(ownerFrom(r.Context()), kind, req)
		saved, replayed, err := s.records.CreateCredit(r.Context(), c, idempotencyKey(r))
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		toJSON(w, createdStatus(replayed), toCreditResponse(saved))
	}
}

func (s *Server) getCredit(kind ledger.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		c, err := s.records.GetCredit(r.Context(), ownerFrom(r.Context()), id, kind)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		toJSON(w, http.StatusOK, toCreditResponse(c))
	}
}

func (s *Server) putCredit(kind ledger.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req creditRequest
		if !decodeBody(w, r, &req) {
			return
		}
		c := toCreditDomain(ownerFrom(r.Context()), kind, req)
		c.ID = id
		saved, err := s.records.UpdateCredit(r.Context(), c)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		toJSON(w, http.StatusOK, toCreditResponse(saved))
	}
}

func (s *Server) deleteCredit(kind ledger.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.records.DeleteCredit(r.Context(), ownerFrom(r.Context()), id, kind); err != nil {
			writeServiceErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
