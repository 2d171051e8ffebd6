package v1

import (
	"context"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tinoosan/ermay/internal/ledger"
)

type ctxKey string

const ctxKeyPostParty ctxKey = "validatedPostParty"

// partyRoutes mounts the CRUD, balance and statement routes for one party kind.
func (s *Server) partyRoutes(kind ledger.PartyKind) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", s.listParties(kind))
		r.With(s.validatePostParty(kind)).Post("/", s.postParty)
		r.Get("/balances", s.listPartyBalances(kind))
		r.Get("/{id}", s.getParty(kind))
		r.Patch("/{id}", s.patchParty(kind))
		r.Delete("/{id}", s.deleteParty(kind))
		r.Get("/{id}/statement", s.getStatement(kind))
	}
}

// validatePostParty decodes and validates the body, storing the domain party
// in the request context for postParty.
func (s *Server) validatePostParty(kind ledger.PartyKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req partyRequest
			if !decodeBody(w, r, &req) {
				return
			}
			p := toPartyDomain(ownerFrom(r.Context()), kind, req)
			if err := s.parties.ValidateCreate(p); err != nil {
				writeServiceErr(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostParty, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) postParty(w http.ResponseWriter, r *http.Request) {
	p, _ := r.Context().Value(ctxKeyPostParty).(ledger.Party)
	saved, err := s.parties.Create(r.Context(), p)
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toPartyResponse(saved))
}

func (s *Server) listParties(kind ledger.PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.parties.List(r.Context(), ownerFrom(r.Context()), kind)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		out := listResponse[partyResponse]{Items: make([]partyResponse, 0, len(list))}
		for _, p := range list {
			out.Items = append(out.Items, toPartyResponse(p))
		}
		toJSON(w, http.StatusOK, out)
	}
}

// pathID parses the {id} URL parameter, writing 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) getParty(kind ledger.PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		p, err := s.parties.Get(r.Context(), ownerFrom(r.Context()), id, kind)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		toJSON(w, http.StatusOK, toPartyResponse(p))
	}
}

// patchParty loads the party, applies the patch in the http layer and
// hands the result to the service for validation.
func (s *Server) patchParty(kind ledger.PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var patch partyPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		cur, err := s.parties.Get(r.Context(), ownerFrom(r.Context()), id, kind)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		saved, err := s.parties.Update(r.Context(), patch.apply(cur))
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		toJSON(w, http.StatusOK, toPartyResponse(saved))
	}
}

func (s *Server) deleteParty(kind ledger.PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.parties.Delete(r.Context(), ownerFrom(r.Context()), id, kind); err != nil {
			writeServiceErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
