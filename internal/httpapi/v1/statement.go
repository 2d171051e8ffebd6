package v1

import (
	"net/http"

	"github.com/tinoosan/ermay/internal/ledger"
)

// getStatement handles GET /v1/{customers|suppliers}/{id}/statement.
func (s *Server) getStatement(kind ledger.PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		st, err := s.statements.Statement(r.Context(), ownerFrom(r.Context()), id, kind)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		toJSON(w, http.StatusOK, toStatementResponse(st))
	}
}

func (s *Server) listPartyBalances(kind ledger.PartyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.statements.PartyBalances(r.Context(), ownerFrom(r.Context()), kind)
		if err != nil {
			writeServiceErr(w, r, err)
			return
		}
		out := listResponse[partyBalanceResponse]{Items: make([]partyBalanceResponse, 0, len(list))}
		for _, pb := range list {
			out.Items = append(out.Items, partyBalanceResponse{Party: toPartyResponse(pb.Party), Balances: toBalanceLines(pb.Balances)})
		}
		toJSON(w, http.StatusOK, out)
	}
}

// getDashboard handles GET /v1/dashboard.
func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.statements.Dashboard(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, dashboardResponse{
		Receivables: toBalanceLines(d.Receivables),
		Payables:    toBalanceLines(d.Payables),
		Customers:   d.Customers,
		Suppliers:   d.Suppliers,
		Debits:      d.Debits,
		Credits:     d.Credits,
	})
}
